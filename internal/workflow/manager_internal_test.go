package workflow

import (
	"testing"
	"time"

	"clipforge/internal/testsupport"
)

func TestNewManagerFloorsPollInterval(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	for _, interval := range []int{0, -5} {
		cfg.Workflow.QueuePollInterval = interval
		m := NewManager(cfg, nil, nil, StageSet{})
		if m.pollInterval < time.Second {
			t.Fatalf("poll interval %v for configured %d, want at least 1s", m.pollInterval, interval)
		}
	}

	cfg.Workflow.QueuePollInterval = 3
	if m := NewManager(cfg, nil, nil, StageSet{}); m.pollInterval != 3*time.Second {
		t.Fatalf("poll interval = %v, want 3s", m.pollInterval)
	}
}
