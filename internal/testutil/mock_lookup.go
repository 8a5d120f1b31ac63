// Package testutil provides testing utilities for the device lookup client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// DevicePath is the path the mock serves lookups on.
const DevicePath = "/api/modern/device"

// MockResponse defines the behavior for one mocked serial.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockLookup is a configurable mock of the device lookup API.
// Responses are keyed by the serial query parameter.
type MockLookup struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	requestCount      int
	perSerial         map[string]int
	lastRequestHeader http.Header
}

// NewMockLookup creates a new mock lookup server. Unknown serials get 404.
func NewMockLookup() *MockLookup {
	mock := &MockLookup{
		handlers:  make(map[string]func(w http.ResponseWriter, r *http.Request)),
		perSerial: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serial := r.URL.Query().Get("serial")

		mock.mu.Lock()
		mock.requestCount++
		mock.perSerial[serial]++
		mock.lastRequestHeader = r.Header.Clone()
		handler, exists := mock.handlers[serial]
		mock.mu.Unlock()

		if r.URL.Path != DevicePath {
			http.NotFound(w, r)
			return
		}

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"device not found"}`))
	}))

	return mock
}

// URL returns the lookup base URL (without the serial query).
func (m *MockLookup) URL() string {
	return m.server.URL + DevicePath
}

// Close shuts down the mock server.
func (m *MockLookup) Close() {
	m.server.Close()
}

// SetHandler sets a custom handler for a serial.
func (m *MockLookup) SetHandler(serial string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[serial] = handler
}

// SetResponse configures a simple response for a serial.
func (m *MockLookup) SetResponse(serial string, resp MockResponse) {
	m.SetHandler(serial, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockLookup) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// RequestsFor returns the number of requests made for one serial.
func (m *MockLookup) RequestsFor(serial string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.perSerial[serial]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockLookup) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// DevicePayload builds a lookup response body from name/value pairs.
// An odd trailing name gets a null value.
func DevicePayload(pairs ...string) string {
	type pairLine struct {
		Name  string  `json:"name"`
		Value *string `json:"value"`
	}
	type entry struct {
		PairLine pairLine `json:"pairLine"`
	}

	entries := make([]entry, 0, (len(pairs)+1)/2)
	for i := 0; i < len(pairs); i += 2 {
		line := pairLine{Name: pairs[i]}
		if i+1 < len(pairs) {
			v := pairs[i+1]
			line.Value = &v
		}
		entries = append(entries, entry{PairLine: line})
	}

	body, _ := json.Marshal(map[string]any{"deviceTextStructured": entries})
	return string(body)
}

// NewDeviceResponse creates a 200 OK response carrying the given attributes.
func NewDeviceResponse(pairs ...string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       DevicePayload(pairs...),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error":"device not found"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error":"internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRawResponse creates a 200 OK response with an arbitrary body.
func NewRawResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
	}
}

// NewSlowResponse creates a 200 response that arrives after delay.
func NewSlowResponse(delay time.Duration, pairs ...string) MockResponse {
	resp := NewDeviceResponse(pairs...)
	resp.Delay = delay
	return resp
}

// NewHijackResponse returns a handler that drops the connection without a response.
func NewHijackResponse() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			return
		}
		conn.Close()
	}
}
