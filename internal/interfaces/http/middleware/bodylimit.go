package middleware

import "net/http"

// MaxBodySize caps request bodies at limit bytes. Reads past the cap fail
// with *http.MaxBytesError, which handlers report as a validation error.
func MaxBodySize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

//Personal.AI order the ending
