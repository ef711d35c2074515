package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockProber struct {
	exists map[string]bool
	err    error
	calls  int
}

func (m *mockProber) IndexExists(_ context.Context, name string) (bool, error) {
	m.calls++
	return m.exists[name], m.err
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	prober := &mockProber{exists: map[string]bool{"mp:project:idx": true, "mp:tag:idx": true}}
	r := New(&mockDBPinger{}, prober, "mp:project:idx", "mp:tag:idx").Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{"database", "index:mp:project:idx", "index:mp:tag:idx"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_DBError(t *testing.T) {
	prober := &mockProber{}
	r := New(&mockDBPinger{err: errors.New("conn refused")}, prober, "mp:project:idx").Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks["database"])
	}
	if prober.calls != 0 {
		t.Errorf("expected no index probes, got %d", prober.calls)
	}
}

func TestCheck_IndexMissing(t *testing.T) {
	prober := &mockProber{exists: map[string]bool{"mp:project:idx": true}}
	r := New(&mockDBPinger{}, prober, "mp:project:idx", "mp:tag:idx").Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["index:mp:tag:idx"] != CheckMissing {
		t.Errorf("expected tag index %q, got %q", CheckMissing, r.Checks["index:mp:tag:idx"])
	}
}

func TestCheck_ProbeError(t *testing.T) {
	prober := &mockProber{err: errors.New("timeout")}
	r := New(&mockDBPinger{}, prober, "mp:project:idx").Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["index:mp:project:idx"] != CheckError {
		t.Errorf("expected %q, got %q", CheckError, r.Checks["index:mp:project:idx"])
	}
}

func TestCheck_NoIndexes(t *testing.T) {
	r := New(&mockDBPinger{}, &mockProber{}).Check(context.Background())
	if r.Status != Healthy || len(r.Checks) != 1 {
		t.Errorf("unexpected report: %+v", r)
	}
}
