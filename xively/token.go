package xively

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/myna-project/xively/httpx"
	"github.com/myna-project/xively/log"
)

// ErrTokenHeaderMissing means the token endpoint answered without an X-CSRF-TOKEN header.
var ErrTokenHeaderMissing = errors.New("xively: response has no " + CSRFHeader + " header")

// TokenStatus classifies the outcome of LoadCSRFToken.
type TokenStatus int

const (
	TokenOK TokenStatus = iota + 1
	// TokenRequestInvalid: the request could not be built (client build failure, bad endpoint).
	TokenRequestInvalid
	// TokenNetworkError: no response was received.
	TokenNetworkError
	// TokenHTTPError: an error status without a token header.
	TokenHTTPError
	// TokenMissingHeader: a non-error status without a token header.
	TokenMissingHeader
)

func (s TokenStatus) String() string {
	switch s {
	case TokenOK:
		return "ok"
	case TokenRequestInvalid:
		return "invalid_request"
	case TokenNetworkError:
		return "network_error"
	case TokenHTTPError:
		return "http_error"
	case TokenMissingHeader:
		return "missing_header"
	default:
		return "unknown"
	}
}

// TokenResult is what LoadCSRFToken observed.
type TokenResult struct {
	Status TokenStatus
	// Token is set only when Status is TokenOK.
	Token string
	// StatusCode is 0 when no response was received.
	StatusCode int
}

// LoadCSRFToken GETs the token endpoint with the shared client and stores the
// X-CSRF-TOKEN response header. Calls are serialized. On failure the stored
// token is left untouched, the error is logged and returned with its
// classification.
func (c *Configurator) LoadCSRFToken(ctx context.Context) (TokenResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = log.WithFields(ctx, "op", "load_csrf_token")
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	res, err := c.fetchCSRFToken(ctx)
	c.metrics.ObserveTokenFetch(res.Status.String())
	if err != nil {
		c.l.Errorf(ctx, "xively.LoadCSRFToken: %s: %v", res.Status, err)
		return res, err
	}
	c.SetCSRFToken(res.Token)
	c.l.Debugf(ctx, "xively.LoadCSRFToken: token refreshed (status %d)", res.StatusCode)
	return res, nil
}

func (c *Configurator) fetchCSRFToken(ctx context.Context) (TokenResult, error) {
	hc, err := c.HTTPClient()
	if err != nil {
		return TokenResult{Status: TokenRequestInvalid}, fmt.Errorf("build http client: %w", err)
	}

	endpoint := c.Settings().TokenEndpoint
	req, err := hc.NewRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return TokenResult{Status: TokenRequestInvalid}, fmt.Errorf("build token request %q: %w", endpoint, err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return TokenResult{Status: TokenNetworkError}, &httpx.Error{
			Method: req.Method,
			URL:    req.URL.String(),
			Err:    err,
		}
	}
	defer drainAndClose(resp.Body)

	res := TokenResult{StatusCode: resp.StatusCode}
	// The header is the contract: it is accepted whatever the status.
	if token := resp.Header.Get(CSRFHeader); token != "" {
		res.Status = TokenOK
		res.Token = token
		return res, nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		res.Status = TokenHTTPError
		return res, &httpx.Error{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Err:        ErrTokenHeaderMissing,
		}
	}
	res.Status = TokenMissingHeader
	return res, fmt.Errorf("%s %s: %w", req.Method, req.URL.String(), ErrTokenHeaderMissing)
}

// CSRFToken returns the last stored token, or "" if none.
func (c *Configurator) CSRFToken() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token
}

// SetCSRFToken replaces the stored token and returns it.
func (c *Configurator) SetCSRFToken(token string) string {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.token = token
	return c.token
}

// attachCSRFToken adds the stored token to state-changing requests that do not carry one.
func (c *Configurator) attachCSRFToken(req *http.Request, _ int) error {
	if safeMethod(req.Method) || req.Header.Get(CSRFHeader) != "" {
		return nil
	}
	if token := c.CSRFToken(); token != "" {
		req.Header.Set(CSRFHeader, token)
	}
	return nil
}

func safeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
