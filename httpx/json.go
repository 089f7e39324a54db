package httpx

import (
	"context"
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NewJSONRequest is NewRequest with body encoded as JSON and an Accept header
// asking for JSON back.
func (c *Client) NewJSONRequest(ctx context.Context, method, path string, body any, opts ...RequestOption) (*http.Request, error) {
	req, err := c.NewRequest(ctx, method, path, append([]RequestOption{WithJSON(body)}, opts...)...)
	if err != nil {
		return nil, err
	}
	setIfMissing(req.Header, "Accept", "application/json")
	return req, nil
}

// DoJSONInto performs the request, treats non-2xx as error, and decodes a JSON response into dst.
// The response body is always closed.
func (c *Client) DoJSONInto(req *http.Request, dst any) (*http.Response, error) {
	return c.doJSON(req, dst, false)
}

// DoJSONIntoStrict is like DoJSONInto but rejects unknown fields.
func (c *Client) DoJSONIntoStrict(req *http.Request, dst any) (*http.Response, error) {
	return c.doJSON(req, dst, true)
}

// doJSON decodes exactly one JSON value; anything but whitespace after it is an error.
func (c *Client) doJSON(req *http.Request, dst any, strict bool) (*http.Response, error) {
	resp, err := c.DoStatus(req)
	if err != nil {
		return resp, err
	}
	if resp.Body == nil {
		return resp, errors.New("httpx: empty response body")
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		return resp, err
	}
	if dec.More() {
		return resp, errors.New("httpx: unexpected extra JSON value in response body")
	}
	return resp, nil
}

// DoJSON is a generic helper around DoJSONInto.
func DoJSON[T any](c *Client, req *http.Request) (T, *http.Response, error) {
	var out T
	resp, err := c.DoJSONInto(req, &out)
	if err != nil {
		var zero T
		return zero, resp, err
	}
	return out, resp, nil
}
