package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/baylight/internal/bay"
	"github.com/smazurov/baylight/internal/events"
	"github.com/smazurov/baylight/internal/updates"
)

type mockBays struct {
	mu       sync.Mutex
	bays     []bay.Bay
	activity bool
}

func (m *mockBays) Bays() []bay.Bay {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bay.Bay(nil), m.bays...)
}

func (m *mockBays) Activity() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activity
}

func (m *mockBays) SetActivity(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity = on
}

type mockLEDs struct {
	mu         sync.Mutex
	brightness int
	fail       bool
}

func (m *mockLEDs) Desc() string { return "mock" }
func (m *mockLEDs) Bays() int    { return 4 }

func (m *mockLEDs) Brightness() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.brightness
}

func (m *mockLEDs) SetBrightness(level int) error {
	if m.fail {
		return errors.New("port write failed")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.brightness = level
	return nil
}

type mockUpdates struct {
	last *updates.Status
}

func (m *mockUpdates) Last() *updates.Status { return m.last }

func newTestServer(t *testing.T, opts *Options) (*Server, *httptest.Server) {
	t.Helper()
	if opts.Bays == nil {
		opts.Bays = &mockBays{bays: []bay.Bay{
			{Index: 0, Enabled: true, StatsPath: "/sys/block/sda/stat"},
			{Index: 2, Enabled: false, StatsPath: "/sys/block/sdb/stat"},
		}}
	}
	if opts.LEDs == nil {
		opts.LEDs = &mockLEDs{brightness: -1}
	}
	s := NewServer(opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func doJSON(t *testing.T, method, url, body string, header map[string]string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func TestListBays(t *testing.T) {
	_, ts := newTestServer(t, &Options{})

	var got BaysData
	if code := doJSON(t, http.MethodGet, ts.URL+"/api/bays", "", nil, &got); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if got.Count != 2 || len(got.Bays) != 2 {
		t.Fatalf("unexpected bays %+v", got)
	}
	if got.Bays[0].Index != 0 || !got.Bays[0].Present {
		t.Errorf("bay 0 = %+v", got.Bays[0])
	}
	if got.Bays[1].Index != 2 || got.Bays[1].Present {
		t.Errorf("bay 2 = %+v", got.Bays[1])
	}
}

func TestGetBay(t *testing.T) {
	_, ts := newTestServer(t, &Options{})

	var got BayStatus
	if code := doJSON(t, http.MethodGet, ts.URL+"/api/bays/2", "", nil, &got); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if got.Index != 2 || got.StatsPath != "/sys/block/sdb/stat" {
		t.Errorf("unexpected bay %+v", got)
	}

	if code := doJSON(t, http.MethodGet, ts.URL+"/api/bays/7", "", nil, nil); code != http.StatusNotFound {
		t.Errorf("missing bay status = %d, want 404", code)
	}
}

func TestSetBrightness(t *testing.T) {
	leds := &mockLEDs{brightness: -1}
	bus := events.New()
	changed := make(chan events.BrightnessChangedEvent, 1)
	defer bus.Subscribe(func(e events.BrightnessChangedEvent) { changed <- e })()

	_, ts := newTestServer(t, &Options{LEDs: leds, Bus: bus})

	var got LEDData
	code := doJSON(t, http.MethodPut, ts.URL+"/api/leds/brightness", `{"level":6}`, nil, &got)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if got.Brightness != 6 || leds.Brightness() != 6 {
		t.Errorf("brightness = %d / %d, want 6", got.Brightness, leds.Brightness())
	}

	select {
	case e := <-changed:
		if e.Level != 6 || e.Source != "api" {
			t.Errorf("unexpected event %+v", e)
		}
	case <-time.After(time.Second):
		t.Error("no brightness event")
	}

	if code := doJSON(t, http.MethodPut, ts.URL+"/api/leds/brightness", `{"level":12}`, nil, nil); code != http.StatusUnprocessableEntity {
		t.Errorf("out of range status = %d, want 422", code)
	}
}

func TestSetBrightnessDriverError(t *testing.T) {
	_, ts := newTestServer(t, &Options{LEDs: &mockLEDs{fail: true}})
	if code := doJSON(t, http.MethodPut, ts.URL+"/api/leds/brightness", `{"level":3}`, nil, nil); code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", code)
	}
}

func TestSetActivity(t *testing.T) {
	bays := &mockBays{}
	_, ts := newTestServer(t, &Options{Bays: bays})

	var got LEDData
	if code := doJSON(t, http.MethodPut, ts.URL+"/api/leds/activity", `{"enabled":true}`, nil, &got); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !got.Activity || !bays.Activity() {
		t.Error("activity not enabled")
	}
}

func TestBasicAuth(t *testing.T) {
	_, ts := newTestServer(t, &Options{AuthUsername: "admin", AuthPassword: "secret"})

	// Reads stay open.
	if code := doJSON(t, http.MethodGet, ts.URL+"/api/leds", "", nil, nil); code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", code)
	}

	url := ts.URL + "/api/leds/brightness"
	if code := doJSON(t, http.MethodPut, url, `{"level":1}`, nil, nil); code != http.StatusUnauthorized {
		t.Errorf("no credentials status = %d, want 401", code)
	}

	bad := map[string]string{"Authorization": "Basic YWRtaW46d3Jvbmc="} // admin:wrong
	if code := doJSON(t, http.MethodPut, url, `{"level":1}`, bad, nil); code != http.StatusUnauthorized {
		t.Errorf("bad credentials status = %d, want 401", code)
	}

	good := map[string]string{"Authorization": "Basic YWRtaW46c2VjcmV0"} // admin:secret
	if code := doJSON(t, http.MethodPut, url, `{"level":1}`, good, nil); code != http.StatusOK {
		t.Errorf("good credentials status = %d, want 200", code)
	}
}

func TestUpdates(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		_, ts := newTestServer(t, &Options{})
		if code := doJSON(t, http.MethodGet, ts.URL+"/api/updates", "", nil, nil); code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", code)
		}
	})

	t.Run("not checked yet", func(t *testing.T) {
		_, ts := newTestServer(t, &Options{Updates: &mockUpdates{}})
		var got updates.Status
		if code := doJSON(t, http.MethodGet, ts.URL+"/api/updates", "", nil, &got); code != http.StatusOK {
			t.Fatalf("status = %d", code)
		}
		if got.State != updates.StateUnknown {
			t.Errorf("state = %s, want unknown", got.State)
		}
	})

	t.Run("checked", func(t *testing.T) {
		last := &updates.Status{Updates: 5, Security: 1, State: updates.StateSecurity}
		_, ts := newTestServer(t, &Options{Updates: &mockUpdates{last: last}})
		var got updates.Status
		doJSON(t, http.MethodGet, ts.URL+"/api/updates", "", nil, &got)
		if got.Updates != 5 || got.Security != 1 || got.State != updates.StateSecurity {
			t.Errorf("unexpected status %+v", got)
		}
	})
}

func TestVersionAndHealth(t *testing.T) {
	_, ts := newTestServer(t, &Options{})

	var v struct {
		Version string `json:"version"`
	}
	if code := doJSON(t, http.MethodGet, ts.URL+"/api/version", "", nil, &v); code != http.StatusOK || v.Version == "" {
		t.Errorf("version status = %d, body %+v", code, v)
	}

	var h struct {
		Status string `json:"status"`
		Driver string `json:"driver"`
	}
	doJSON(t, http.MethodGet, ts.URL+"/api/health", "", nil, &h)
	if h.Status != "ok" || h.Driver != "mock" {
		t.Errorf("health = %+v", h)
	}
}

func TestMetricsHandlerMounted(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("baylight_bay_present 1\n"))
	})
	_, ts := newTestServer(t, &Options{PrometheusHandler: handler})

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestSSEStream(t *testing.T) {
	bus := events.New()
	_, ts := newTestServer(t, &Options{Bus: bus})

	resp, err := http.Get(ts.URL + "/api/events")
	if err != nil {
		t.Fatalf("Failed to connect to SSE: %v", err)
	}
	defer resp.Body.Close()

	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("Expected SSE content type, got %s", resp.Header.Get("Content-Type"))
	}

	messages := make(chan string, 10)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data:") {
				messages <- line
			}
		}
	}()

	select {
	case msg := <-messages:
		if !strings.Contains(msg, "connected") {
			t.Errorf("Expected connection message, got: %s", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for initial SSE message")
	}

	bus.Publish(events.BayChangedEvent{Index: 3, Present: true, Syspath: "/sys/devices/test"})

	select {
	case msg := <-messages:
		if !strings.Contains(msg, "/sys/devices/test") {
			t.Errorf("Expected bay event, got: %s", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for bay event")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	s := NewServer(&Options{Bays: &mockBays{}, LEDs: &mockLEDs{}})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/api/health"
	deadline := time.Now().Add(time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server not reachable: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestParseBasicAuth(t *testing.T) {
	tests := []struct {
		header string
		user   string
		pass   string
		ok     bool
	}{
		{"Basic YWRtaW46c2VjcmV0", "admin", "secret", true},
		{"Bearer token", "", "", false},
		{"Basic !!!", "", "", false},
		{"Basic YWRtaW4=", "", "", false}, // no colon
	}
	for _, tt := range tests {
		user, pass, ok := parseBasicAuth(tt.header)
		if ok != tt.ok || (ok && (user != tt.user || pass != tt.pass)) {
			t.Errorf("parseBasicAuth(%q) = %q, %q, %v", tt.header, user, pass, ok)
		}
	}
}
