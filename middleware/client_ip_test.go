package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func requestContext(remoteAddr string, headers map[string]string) *gin.Context {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.Request = req
	return c
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"forwarded chain", "10.0.0.1:443", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"real ip", "10.0.0.1:443", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
		{"remote addr with port", "198.51.100.4:51234", nil, "198.51.100.4"},
		{"remote addr without port", "198.51.100.4", nil, "198.51.100.4"},
	}
	for _, c := range cases {
		if got := clientIP(requestContext(c.remote, c.headers)); got != c.want {
			t.Errorf("%s: clientIP = %q, want %q", c.name, got, c.want)
		}
	}
}
