package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBasicAuthMiddleware(t *testing.T) {
	handler := BasicAuthMiddleware("metrics", "s3cret", okHandler())

	r := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "missing credentials are rejected")

	r = httptest.NewRequest("GET", "/metrics", nil)
	r.SetBasicAuth("metrics", "wrong")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest("GET", "/metrics", nil)
	r.SetBasicAuth("metrics", "s3cret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPprofSecurityMiddleware(t *testing.T) {
	handler := PprofSecurityMiddleware("pprof-secret", okHandler())

	r := httptest.NewRequest("GET", "/debug/pprof/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	r = httptest.NewRequest("GET", "/debug/pprof/", nil)
	r.Header.Set("X-Pprof-Secret", "pprof-secret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}
