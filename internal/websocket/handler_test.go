package websocket

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandlerCheckOrigin(t *testing.T) {
	h := NewHandler(NewHub(), nil, nil, []string{"http://localhost:3000", "*.loreline.app"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"https://play.loreline.app", true},
		{"http://evil.example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := h.upgrader.CheckOrigin(r); got != tt.want {
			t.Errorf("CheckOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestHandlerCheckOrigin_NoConfigAllowsAll(t *testing.T) {
	h := NewHandler(NewHub(), nil, nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "http://anywhere.example")
	if !h.upgrader.CheckOrigin(r) {
		t.Fatal("with no configured origins every origin must be accepted")
	}
}

func TestHandlerCheckOrigin_ConcurrentUpgrades(t *testing.T) {
	h := NewHandler(NewHub(), nil, nil, []string{"http://localhost:3000"})

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				r := httptest.NewRequest(http.MethodGet, "/ws", nil)
				r.Header.Set("Origin", "http://localhost:3000")
				if !h.upgrader.CheckOrigin(r) {
					t.Error("allowed origin rejected")
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
