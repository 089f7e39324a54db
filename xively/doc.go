// Package xively configures the single HTTP client shared by the xively SDK and
// keeps the CSRF token the API expects on state-changing requests.
//
// A host application builds one Configurator at startup (New) and passes it
// to whatever needs the client. Default returns a process-wide instance read
// from the global viper registry for callers that cannot be wired explicitly.
//
// Settings are read when the client is first built. Changes made afterwards
// are recorded but never reach the existing client.
package xively
