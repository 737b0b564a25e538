package purpleair

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		name     string
		sensorID string
		localIP  string
		endpoint string
		expected string
		wantErr  bool
	}{
		{"remote", "12345", "", "", "https://www.purpleair.com/json?show=12345", false},
		{"local wins", "12345", "192.168.1.40", "", "http://192.168.1.40/json", false},
		{"custom endpoint", "7", "", "http://localhost:9000/json", "http://localhost:9000/json?show=7", false},
		{"nothing", "", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EndpointURL(tt.sensorID, tt.localIP, tt.endpoint)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EndpointURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("EndpointURL() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("show") != "42" {
			http.Error(w, "unknown sensor", http.StatusNotFound)
			return
		}
		w.Write([]byte(outdoorDoc))
	}))
	defer srv.Close()

	url, err := EndpointURL("42", "", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	body, err := NewClient(url, time.Second).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}
	if string(body) != outdoorDoc {
		t.Errorf("Fetch() returned unexpected body: %s", body)
	}

	url, _ = EndpointURL("43", "", srv.URL)
	if _, err := NewClient(url, time.Second).Fetch(context.Background()); !errors.Is(err, ErrTransport) {
		t.Errorf("Fetch() on 404 error = %v, expected ErrTransport", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 50*time.Millisecond).Fetch(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Errorf("Fetch() on timeout error = %v, expected ErrTransport", err)
	}
}
