package main

import (
	"context"

	"github.com/myna-project/xively/config"
	"github.com/myna-project/xively/log"
	"github.com/myna-project/xively/xively"
)

// AppConfig is the file layout read by the CLI, e.g.
//
//	xively:
//	  base_url: https://api.xively.com/v2
//	  connection_timeout: 3000
//	  socket_timeout: 3000
//	  token_endpoint: /token
//	  retry_count: 2
//	log:
//	  level: info
type AppConfig struct {
	Xively xively.Settings `mapstructure:"xively"`
	Log    LogConfig       `mapstructure:"log"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Mode     string `mapstructure:"mode"`
	Encoding string `mapstructure:"encoding"`
	Color    bool   `mapstructure:"color"`
}

// Environment variables use the key path without a prefix,
// e.g. XIVELY_BASE_URL or LOG_LEVEL.
const envPrefix = ""

type app struct {
	cfg  *config.Config[AppConfig]
	l    log.Logger
	conf *xively.Configurator
}

func loadApp(path, level string) (*app, error) {
	cfg, err := config.LoadOptional(path,
		config.WithDefaults[AppConfig](map[string]any{
			"log.level":    "info",
			"log.mode":     log.ModeProduction,
			"log.encoding": log.EncodingConsole,
		}),
		config.WithEnv[AppConfig](envPrefix),
		config.WithDecoderOptions[AppConfig](xively.DecodeHook()),
		config.WithEnvKeys[AppConfig](
			"xively.base_url",
			"xively.connection_timeout",
			"xively.socket_timeout",
			"xively.token_endpoint",
			"xively.retry_count",
			"xively.api_key",
			"xively.user_agent",
		),
	)
	if err != nil {
		return nil, err
	}

	c := cfg.Get()
	if level != "" {
		c.Log.Level = level
	}
	l := log.Init(log.ZapConfig{
		Level:        c.Log.Level,
		Mode:         c.Log.Mode,
		Encoding:     c.Log.Encoding,
		ColorEnabled: c.Log.Color,
	})

	cfg.SetLogger(l)
	cfg.OnChange(func(old, new AppConfig) {
		if config.Changed(old.Xively, new.Xively) {
			l.Warnf(context.Background(), "xively settings changed on disk; restart to apply them to the HTTP client")
		}
	})

	return &app{
		cfg:  cfg,
		l:    l,
		conf: xively.New(c.Xively, xively.WithLogger(l)),
	}, nil
}
