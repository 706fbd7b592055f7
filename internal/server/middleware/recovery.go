package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// Recovery converts handler panics into 500 responses instead of dropping
// the connection.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if logger != nil {
						logger.Error("handler panic",
							zap.Any("panic", rec),
							zap.String("path", r.URL.Path),
							zap.String("request_id", GetRequestID(r.Context())))
					}
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
