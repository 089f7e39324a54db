package xively

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	DefaultConnectionTimeoutMs = 3000
	DefaultSocketTimeoutMs     = 3000
	DefaultTokenEndpoint       = "/token"

	// SettingsKey is the configuration section holding Settings.
	SettingsKey = "xively"
)

// Settings is the HTTP section of the application configuration.
// Nil or empty fields fall back to the package defaults.
type Settings struct {
	BaseURL string `mapstructure:"base_url"`

	// ConnectionTimeout bounds establishing a connection and obtaining one from the pool, in milliseconds.
	ConnectionTimeout *int `mapstructure:"connection_timeout"`

	// SocketTimeout bounds the wait for a response once the request is sent, in milliseconds.
	SocketTimeout *int `mapstructure:"socket_timeout"`

	TokenEndpoint string `mapstructure:"token_endpoint"`

	// RetryCount is the number of retries after a failed attempt. Nil means no retry.
	RetryCount *int `mapstructure:"retry_count"`

	// APIKey is sent as X-ApiKey on every request when set.
	APIKey string `mapstructure:"api_key"`

	UserAgent string `mapstructure:"user_agent"`
}

// SettingsFromViper reads the xively section of v. Missing keys or values that
// cannot be decoded are left unset so the defaults apply; it never fails.
func SettingsFromViper(v *viper.Viper) Settings {
	var s Settings
	if v == nil {
		return s
	}
	// A decode error keeps whatever fields were decoded before it.
	_ = v.UnmarshalKey(SettingsKey, &s, DecodeHook())
	return s
}

// DecodeHook is the viper decoder option for anything embedding Settings.
// It keeps viper's default hooks and decodes a blank string into an optional
// number as unset, so `connection_timeout: ""` falls back to the default
// instead of becoming 0.
func DecodeHook() viper.DecoderConfigOption {
	// blankAsUnset must run last: a nil result ends the chain.
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		blankAsUnset,
	))
}

var blankAsUnset mapstructure.DecodeHookFuncType = func(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Pointer {
		return data, nil
	}
	if s, ok := data.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return data, nil
}

// withDefaults fills every unset field. Values are not validated: zero or
// negative timeouts pass through and leave the transport's own limits in place.
func (s Settings) withDefaults() Settings {
	out := s.clone()
	if out.ConnectionTimeout == nil {
		out.ConnectionTimeout = intPtr(DefaultConnectionTimeoutMs)
	}
	if out.SocketTimeout == nil {
		out.SocketTimeout = intPtr(DefaultSocketTimeoutMs)
	}
	if out.TokenEndpoint == "" {
		out.TokenEndpoint = DefaultTokenEndpoint
	}
	if out.UserAgent == "" {
		out.UserAgent = defaultUserAgent()
	}
	return out
}

func (s Settings) clone() Settings {
	out := s
	out.ConnectionTimeout = copyInt(s.ConnectionTimeout)
	out.SocketTimeout = copyInt(s.SocketTimeout)
	out.RetryCount = copyInt(s.RetryCount)
	return out
}

func (s Settings) connectTimeout() time.Duration {
	return millis(s.ConnectionTimeout)
}

func (s Settings) socketTimeout() time.Duration {
	return millis(s.SocketTimeout)
}

func (s Settings) retries() int {
	if s.RetryCount == nil {
		return 0
	}
	return *s.RetryCount
}

func millis(v *int) time.Duration {
	if v == nil {
		return 0
	}
	return time.Duration(*v) * time.Millisecond
}

func intPtr(v int) *int { return &v }

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	return intPtr(*v)
}
