package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"github.com/myna-project/xively/httpx"
)

func main() {
	var n int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drop the first two connections without answering.
		if atomic.AddInt32(&n, 1) < 3 {
			if conn, _, err := w.(http.Hijacker).Hijack(); err == nil {
				_ = conn.Close()
			}
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	client, err := httpx.New(
		httpx.WithBaseURL(srv.URL),
		httpx.WithRetry(httpx.IOErrorRetryConfig(2)),
		httpx.WithCookieJar(httpx.NewCookieJar()),
	)
	if err != nil {
		panic(err)
	}

	req, err := client.NewRequest(context.Background(), http.MethodGet, "/")
	if err != nil {
		panic(err)
	}

	resp, err := client.DoStatus(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	fmt.Printf("attempts=%d resp=%q\n", atomic.LoadInt32(&n), string(b))
}
