// Package httpserver builds the process's HTTP listener.
package httpserver

import (
	"net/http"
	"time"
)

// The router cuts requests off after 30 seconds; the write timeout must
// outlast that so the timeout response still reaches the client. Idle
// keep-alive connections are recycled after two minutes.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 35 * time.Second
	idleTimeout       = 2 * time.Minute
)

// New builds the server for the given address and handler.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
