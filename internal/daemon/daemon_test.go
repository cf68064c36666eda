package daemon_test

import (
	"context"
	"testing"
	"time"

	"clipforge/internal/daemon"
	"clipforge/internal/queue"
	"clipforge/internal/stage"
	"clipforge/internal/testsupport"
	"clipforge/internal/workflow"
)

type noopStage struct{ name string }

func (s noopStage) Prepare(ctx context.Context, item *queue.Item) error { return nil }
func (s noopStage) Execute(ctx context.Context, item *queue.Item) error { return nil }
func (s noopStage) HealthCheck(ctx context.Context) stage.Health        { return stage.Healthy(s.name) }

func newTestDaemon(t *testing.T) (*daemon.Daemon, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	mgr := workflow.NewManager(cfg, store, nil, workflow.StageSet{
		Download: noopStage{"download"},
		Process:  noopStage{"process"},
		Finalize: noopStage{"finalize"},
	})
	d, err := daemon.New(cfg, store, nil, mgr)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	return d, store
}

func TestDaemonStartStop(t *testing.T) {
	d, _ := newTestDaemon(t)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("daemon should report running")
	}

	status, err := d.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.QueueDBPath == "" || status.LockFilePath == "" {
		t.Fatalf("unexpected status: %#v", status)
	}

	d.Stop()
	if d.Running() {
		t.Fatal("daemon should report stopped")
	}
}

func TestDaemonResetsStuckItemsOnStart(t *testing.T) {
	d, store := newTestDaemon(t)
	ctx := context.Background()

	item, err := store.NewURL(ctx, "https://example.com/clip/stuck", "")
	if err != nil {
		t.Fatalf("NewURL: %v", err)
	}
	item.Status = queue.StatusDownloading
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	// The workflow will immediately pick the reset item back up, so accept
	// any status except the stranded one.
	loaded, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.ProgressStage == "" && loaded.Status == queue.StatusDownloading {
		t.Fatalf("item was not reset: %#v", loaded)
	}
}

func TestDaemonStopResetsInFlightItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	// Keep the manager asleep after its initial poll so the item inserted
	// below is not claimed before Stop.
	cfg.Workflow.QueuePollInterval = 60
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	mgr := workflow.NewManager(cfg, store, nil, workflow.StageSet{
		Download: noopStage{"download"},
		Process:  noopStage{"process"},
		Finalize: noopStage{"finalize"},
	})
	d, err := daemon.New(cfg, store, nil, mgr)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	// An in-flight item with no heartbeat is neither claimable nor stale, so
	// it sits untouched until shutdown rolls it back.
	item, err := store.NewURL(ctx, "https://example.com/clip/inflight", "")
	if err != nil {
		t.Fatalf("NewURL: %v", err)
	}
	item.Status = queue.StatusDownloading
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	d.Stop()

	loaded, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Status != queue.StatusPending {
		t.Fatalf("status = %q, want rollback to pending", loaded.Status)
	}
	if loaded.ProgressStage != queue.DaemonStopReason {
		t.Fatalf("progress stage = %q, want %q", loaded.ProgressStage, queue.DaemonStopReason)
	}
}

func TestSecondDaemonInstanceRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	stages := workflow.StageSet{
		Download: noopStage{"download"},
		Process:  noopStage{"process"},
		Finalize: noopStage{"finalize"},
	}
	first, err := daemon.New(cfg, store, nil, workflow.NewManager(cfg, store, nil, stages))
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	second, err := daemon.New(cfg, store, nil, workflow.NewManager(cfg, store, nil, stages))
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to be rejected")
	}
}
