package middleware

import (
	"net/http"
	"strings"
)

// ContentType requires a JSON body on POST, PATCH and PUT requests
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPatch, http.MethodPut:
		default:
			next.ServeHTTP(w, r)
			return
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			respondErrorJSON(w, r, http.StatusBadRequest, ErrorKindBadRequest, "Content-Type header is required", nil)
			return
		}
		if !strings.HasPrefix(strings.ToLower(contentType), "application/json") {
			respondErrorJSON(w, r, http.StatusUnsupportedMediaType, ErrorKindUnsupportedType, "Content-Type must be application/json", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
