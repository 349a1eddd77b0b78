package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPILoginRateLimiting(t *testing.T) {
	sendLogin := func(ip string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{
			"username": "nobody",
			"password": "wrongpassword",
		})
		req := httptest.NewRequest("POST", "/api/v1/login", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		APILoginHandler(w, req)
		return w
	}

	ip := "192.168.1.100"

	// 1. Five failed logins trip the limiter
	for i := 0; i < 5; i++ {
		w := sendLogin(ip)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("Expected 401 for bad credentials, got %d. Body: %s", w.Code, w.Body.String())
		}
	}

	// 2. Sixth attempt -> blocked
	w := sendLogin(ip)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 Too Many Requests, got %d", w.Code)
	}

	// 3. Different IP is unaffected
	w2 := sendLogin("10.0.0.5")
	if w2.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for different IP, got %d", w2.Code)
	}
}
