package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/myna-project/xively/log"
	"github.com/myna-project/xively/xively"
)

func main() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "demo", Path: "/"})
			w.Header().Set(xively.CSRFHeader, "abc123")
		case "/feeds":
			fmt.Printf("server: %s %s csrf=%q\n", r.Method, r.URL.Path, r.Header.Get(xively.CSRFHeader))
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer srv.Close()

	retries := 2
	conf := xively.New(xively.Settings{BaseURL: srv.URL, RetryCount: &retries},
		xively.WithLogger(log.Init(log.ZapConfig{Level: "debug", Mode: log.ModeDevelopment})),
	)

	ctx := context.Background()
	res, err := conf.LoadCSRFToken(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Println("token:", res.Token)

	hc, err := conf.HTTPClient()
	if err != nil {
		panic(err)
	}
	req, err := hc.NewJSONRequest(ctx, http.MethodPost, "/feeds", map[string]string{"title": "office"})
	if err != nil {
		panic(err)
	}
	resp, err := hc.DoStatus(req)
	if err != nil {
		panic(err)
	}
	_ = resp.Body.Close()

	// Ignored: the client is already built.
	conf.SetRetryCount(5)
	fmt.Println("retries:", hc.RetryPolicy().Retries())
}
