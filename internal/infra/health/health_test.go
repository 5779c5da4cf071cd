package health

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReadyzFollowsState(t *testing.T) {
	p := New()
	for _, tc := range []struct {
		ready bool
		want  int
	}{
		{false, http.StatusServiceUnavailable},
		{true, http.StatusOK},
		{false, http.StatusServiceUnavailable},
	} {
		p.SetReady(tc.ready)
		rec := httptest.NewRecorder()
		p.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if rec.Code != tc.want {
			t.Fatalf("ready=%v: expected %d, got %d", tc.ready, tc.want, rec.Code)
		}
	}
}

func TestHealthzAlwaysOK(t *testing.T) {
	rec := httptest.NewRecorder()
	New().Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
