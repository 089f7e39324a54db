// Package httpx is the HTTP client layer used by the xively SDK:
// - transports with connect, socket (header and per-read) and connection-acquire timeouts
// - request building with base URL + default headers
// - a cookie jar for session cookies
// - immediate retries of idempotent requests after I/O failures
// - error type carrying status, request id and a limited body
// - hook points for logging/metrics without hard dependencies
package httpx
