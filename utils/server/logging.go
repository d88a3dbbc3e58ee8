package server

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/eidosai/eidos/utils/config"
)

// logger is a custom logger for HTTP requests, shared across the package
var logger = log.New(os.Stdout, "", log.LstdFlags)

func logRequest(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		var authInfo string
		if auth := r.Header.Get("Authorization"); auth != "" {
			authInfo = maskToken(auth)
		}

		config.DebugLog("Request details:")
		config.DebugLog("- Remote Address: %s", r.RemoteAddr)
		config.DebugLog("- Content Length: %d", r.ContentLength)
		config.DebugLog("- GitHub Event: %s", r.Header.Get("X-GitHub-Event"))
		config.DebugLog("- GitHub Delivery: %s", r.Header.Get("X-GitHub-Delivery"))

		config.VerboseLog("Incoming request: %s %s", r.Method, r.URL.String())

		handler(wrapped, r)

		duration := time.Since(start)
		config.VerboseLog("Response: status=%d bytes=%d duration=%v", wrapped.statusCode, wrapped.written, duration)

		logger.Printf("Request: method=%s path=%s auth=%s status=%d duration=%v",
			r.Method, r.URL.Path, authInfo, wrapped.statusCode, duration)
	}
}
