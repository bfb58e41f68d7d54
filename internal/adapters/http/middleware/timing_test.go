package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rpotraining/internal/adapters/http/perf"
)

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

// TestTiming_RecordsPageRequest verifies a navigation request is recorded under its route label.
func TestTiming_RecordsPageRequest(t *testing.T) {
	collector := perf.NewCollector(10)
	handler := Timing(collector)(okHandler(http.StatusOK))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/page?id=session-1-1", nil))

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestPaths) != 1 {
		t.Fatalf("SlowestPaths len = %d, want 1", len(snap.SlowestPaths))
	}
	if snap.SlowestPaths[0].Path != "GET /page session" {
		t.Errorf("Path = %q, want \"GET /page session\"", snap.SlowestPaths[0].Path)
	}
	if snap.SlowestPaths[0].AvgMs < 0 {
		t.Errorf("AvgMs = %v, want >= 0", snap.SlowestPaths[0].AvgMs)
	}
}

// TestRequestLabel verifies navigation ids are grouped by kind.
func TestRequestLabel(t *testing.T) {
	tests := []struct {
		method, target, want string
	}{
		{"GET", "/page?id=main-page", "GET /page main"},
		{"GET", "/page?id=session-3-2", "GET /page session"},
		{"GET", "/page?id=session-3-2-page", "GET /page session"},
		{"GET", "/page?id=module-4", "GET /page module"},
		{"GET", "/page?id=%3Cscript%3E", "GET /page other"},
		{"GET", "/page", "GET /page none"},
		{"POST", "/api/progress/complete", "POST /api/progress/complete"},
		{"GET", "/api/progress/module?id=module-1", "GET /api/progress/module"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if got := requestLabel(httptest.NewRequest(tt.method, tt.target, nil)); got != tt.want {
				t.Errorf("requestLabel = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestTiming_GroupsSessionsUnderOneLabel verifies distinct ids share one aggregate.
func TestTiming_GroupsSessionsUnderOneLabel(t *testing.T) {
	collector := perf.NewCollector(10)
	handler := Timing(collector)(okHandler(http.StatusOK))

	for _, id := range []string{"session-1-1", "session-2-1", "session-7-1"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/page?id="+id, nil))
	}

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestPaths) != 1 {
		t.Fatalf("SlowestPaths = %+v, want one label", snap.SlowestPaths)
	}
	if snap.SlowestPaths[0].Count != 3 {
		t.Errorf("Count = %d, want 3", snap.SlowestPaths[0].Count)
	}
}

// TestTiming_SkipsAssets verifies static files and raw session files are not timed.
func TestTiming_SkipsAssets(t *testing.T) {
	collector := perf.NewCollector(10)
	handler := Timing(collector)(okHandler(http.StatusOK))

	for _, path := range []string{"/static/css/style.css", "/sessions/1-1.html"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rr.Code)
		}
	}
	if collector.TotalRecorded() != 0 {
		t.Errorf("TotalRecorded = %d, want 0", collector.TotalRecorded())
	}
}

// TestTiming_CapturesStatusCode verifies the status code is passed through.
func TestTiming_CapturesStatusCode(t *testing.T) {
	collector := perf.NewCollector(10)
	handler := Timing(collector)(okHandler(http.StatusNotFound))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

// TestTiming_NilCollector verifies middleware works without a collector.
func TestTiming_NilCollector(t *testing.T) {
	rr := httptest.NewRecorder()
	Timing(nil)(okHandler(http.StatusOK)).ServeHTTP(rr, httptest.NewRequest("GET", "/api/progress", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

// TestTiming_HandlerPanic verifies the deferred recording runs before a panic propagates.
func TestTiming_HandlerPanic(t *testing.T) {
	collector := perf.NewCollector(10)
	handler := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic to propagate, got nil")
		}
		if collector.TotalRecorded() != 1 {
			t.Errorf("TotalRecorded = %d, want 1", collector.TotalRecorded())
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/panic", nil))
}

// TestTiming_PoolNoStateLeak verifies pooled writers do not carry status between requests.
func TestTiming_PoolNoStateLeak(t *testing.T) {
	collector := perf.NewCollector(10)

	rr1 := httptest.NewRecorder()
	Timing(collector)(okHandler(http.StatusInternalServerError)).ServeHTTP(rr1, httptest.NewRequest("GET", "/api/fail", nil))

	handler := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, httptest.NewRequest("GET", "/api/ok", nil))

	if rr2.Code != http.StatusOK {
		t.Errorf("request 2 status = %d, want 200", rr2.Code)
	}
}

// BenchmarkTiming measures per-request overhead.
func BenchmarkTiming(b *testing.B) {
	collector := perf.NewCollector(perf.DefaultRingSize)
	handler := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest("GET", "/page?id=main-page", nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}
