package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSOptions configures cross-origin access.
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// CORS wraps h with cross-origin handling. Preflight requests are answered
// before they reach the router.
func CORS(opts CORSOptions, h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   opts.AllowedMethods,
		AllowedHeaders:   opts.AllowedHeaders,
		ExposedHeaders:   []string{HeaderRequestID, HeaderTraceID, "Content-Disposition"},
		AllowCredentials: opts.AllowCredentials,
		MaxAge:           opts.MaxAge,
	}).Handler(h)
}
