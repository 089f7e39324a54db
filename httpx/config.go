package httpx

import (
	"net/http"
	"time"
)

// Config configures a Client. Use DefaultConfig() as a baseline.
type Config struct {
	// BaseURL is optional. If set, relative paths passed to NewRequest are resolved against it.
	BaseURL string

	// ConnectTimeout bounds dialing a new connection, TLS handshake included.
	// Zero keeps the transport's own limits.
	ConnectTimeout time.Duration

	// SocketTimeout bounds every wait for data from the server: the response
	// headers, and each read of the response body.
	// Zero keeps the transport's own header timeout and never limits body reads.
	SocketTimeout time.Duration

	// AcquireTimeout bounds obtaining a connection (pooled or freshly dialed) per attempt.
	// Zero disables the check.
	AcquireTimeout time.Duration

	// Transport is the underlying RoundTripper. If nil, DefaultTransport() is used.
	// ConnectTimeout and the header part of SocketTimeout only apply to an *http.Transport.
	Transport http.RoundTripper

	// CookieJar stores cookies across requests. Nil disables cookie handling.
	CookieJar http.CookieJar

	// DefaultHeaders are copied into every request (caller headers win).
	DefaultHeaders http.Header

	// UserAgent is set when the request does not already have a User-Agent header.
	UserAgent string

	// Retry configures automatic retries. The zero value sends each request once.
	Retry RetryConfig

	// MaxErrorBodyBytes limits how many bytes DoStatus keeps in Error.Body.
	// If zero, DefaultMaxErrorBodyBytes is used.
	MaxErrorBodyBytes int64

	// RequestID configures correlation id propagation.
	RequestID RequestIDConfig
}

const DefaultMaxErrorBodyBytes int64 = 64 << 10

// DefaultConfig returns a single-attempt client on the tuned default transport.
func DefaultConfig() Config {
	return Config{
		Transport:         DefaultTransport(),
		DefaultHeaders:    make(http.Header),
		MaxErrorBodyBytes: DefaultMaxErrorBodyBytes,
		RequestID:         DefaultRequestIDConfig(),
	}
}
