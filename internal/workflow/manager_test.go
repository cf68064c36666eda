package workflow_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/queue"
	"clipforge/internal/services"
	"clipforge/internal/stage"
	"clipforge/internal/testsupport"
	"clipforge/internal/workflow"
)

type stubStage struct {
	name       string
	prepareErr error
	execErr    error
	// failLimit bounds how many executions return execErr; zero means every
	// execution fails.
	failLimit  int64
	executions atomic.Int64
	mutate     func(*queue.Item)
}

func (s *stubStage) Prepare(ctx context.Context, item *queue.Item) error {
	return s.prepareErr
}

func (s *stubStage) Execute(ctx context.Context, item *queue.Item) error {
	n := s.executions.Add(1)
	if s.execErr != nil && (s.failLimit == 0 || n <= s.failLimit) {
		return s.execErr
	}
	if s.mutate != nil {
		s.mutate(item)
	}
	return nil
}

func (s *stubStage) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(s.name)
}

func newManagerEnv(t *testing.T, stages workflow.StageSet) (*workflow.Manager, *queue.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return workflow.NewManager(cfg, store, nil, stages), store, cfg
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Item {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		item, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if item != nil && item.Status == want {
			return item
		}
		time.Sleep(20 * time.Millisecond)
	}
	item, _ := store.GetByID(context.Background(), id)
	t.Fatalf("item %d never reached %q, last seen %#v", id, want, item)
	return nil
}

func TestManagerRunsItemThroughAllStages(t *testing.T) {
	download := &stubStage{name: "download", mutate: func(item *queue.Item) {
		item.DownloadedFile = "/tmp/in.mp4"
	}}
	process := &stubStage{name: "process", mutate: func(item *queue.Item) {
		item.ProcessedFile = "/tmp/out.mp4"
		item.ThumbnailPath = "/tmp/out.jpg"
	}}
	finalize := &stubStage{name: "finalize", mutate: func(item *queue.Item) {
		item.MetadataJSON = `{"title":"done"}`
	}}

	mgr, store, _ := newManagerEnv(t, workflow.StageSet{
		Download: download,
		Process:  process,
		Finalize: finalize,
	})

	item, err := store.NewURL(context.Background(), "https://example.com/clip/1", "main")
	if err != nil {
		t.Fatalf("NewURL: %v", err)
	}

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()

	final := waitForStatus(t, store, item.ID, queue.StatusReady)
	if final.DownloadedFile == "" || final.ProcessedFile == "" || final.MetadataJSON == "" {
		t.Fatalf("stage outputs not persisted: %#v", final)
	}
	if final.ProgressPercent != 100 {
		t.Fatalf("progress = %v, want 100", final.ProgressPercent)
	}
	if final.LastHeartbeat != nil {
		t.Fatal("heartbeat should be cleared after completion")
	}
	if download.executions.Load() != 1 || process.executions.Load() != 1 || finalize.executions.Load() != 1 {
		t.Fatalf("unexpected execution counts: %d %d %d",
			download.executions.Load(), process.executions.Load(), finalize.executions.Load())
	}
}

func TestManagerIsolatesStageFailure(t *testing.T) {
	boom := services.Wrap(services.ErrProcessingFailed, "process", "ffmpeg", "encoder exploded", errors.New("exit 1"))
	download := &stubStage{name: "download", mutate: func(item *queue.Item) {
		item.DownloadedFile = "/tmp/in.mp4"
	}}
	process := &stubStage{name: "process", execErr: boom}
	finalize := &stubStage{name: "finalize"}

	mgr, store, _ := newManagerEnv(t, workflow.StageSet{
		Download: download,
		Process:  process,
		Finalize: finalize,
	})

	failing, err := store.NewURL(context.Background(), "https://example.com/clip/fail", "")
	if err != nil {
		t.Fatalf("NewURL: %v", err)
	}

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()

	failed := waitForStatus(t, store, failing.ID, queue.StatusFailed)
	if failed.ErrorMessage == "" {
		t.Fatal("expected error message on failed item")
	}
	if finalize.executions.Load() != 0 {
		t.Fatal("finalize should not run after process failure")
	}
	if !mgr.Running() {
		t.Fatal("manager should keep running after an item failure")
	}
	if !errors.Is(mgr.LastError(), services.ErrProcessingFailed) {
		t.Fatalf("last error = %v", mgr.LastError())
	}
}

func TestManagerRetriesTransientStageFailure(t *testing.T) {
	flaky := services.Wrap(services.ErrTransient, "download", "yt-dlp", "HTTP Error 503", errors.New("exit 1"))
	download := &stubStage{name: "download", execErr: flaky, failLimit: 1, mutate: func(item *queue.Item) {
		item.DownloadedFile = "/tmp/in.mp4"
	}}
	process := &stubStage{name: "process", mutate: func(item *queue.Item) {
		item.ProcessedFile = "/tmp/out.mp4"
	}}
	finalize := &stubStage{name: "finalize"}

	mgr, store, _ := newManagerEnv(t, workflow.StageSet{
		Download: download,
		Process:  process,
		Finalize: finalize,
	})

	item, err := store.NewURL(context.Background(), "https://example.com/clip/flaky", "")
	if err != nil {
		t.Fatalf("NewURL: %v", err)
	}

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()

	// The first download attempt fails transiently; the item must be rolled
	// back to pending rather than failed, then complete on a later poll.
	final := waitForStatus(t, store, item.ID, queue.StatusReady)
	if download.executions.Load() != 2 {
		t.Fatalf("download executions = %d, want 2", download.executions.Load())
	}
	if final.ErrorMessage != "" {
		t.Fatalf("error message = %q, want cleared after successful retry", final.ErrorMessage)
	}
}

func TestManagerSkipsFileItemsPastDownload(t *testing.T) {
	download := &stubStage{name: "download"}
	process := &stubStage{name: "process", mutate: func(item *queue.Item) {
		item.ProcessedFile = "/tmp/out.mp4"
	}}
	finalize := &stubStage{name: "finalize"}

	mgr, store, _ := newManagerEnv(t, workflow.StageSet{
		Download: download,
		Process:  process,
		Finalize: finalize,
	})

	item, err := store.NewFile(context.Background(), "/videos/local.mp4", "")
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()

	waitForStatus(t, store, item.ID, queue.StatusReady)
	if download.executions.Load() != 0 {
		t.Fatal("download stage should not run for manually imported files")
	}
}

func TestStartRequiresAllHandlers(t *testing.T) {
	mgr, _, _ := newManagerEnv(t, workflow.StageSet{
		Download: &stubStage{name: "download"},
	})
	if err := mgr.Start(context.Background()); err == nil {
		mgr.Stop()
		t.Fatal("expected error for missing handlers")
	}
}

func TestStageHealthAggregates(t *testing.T) {
	mgr, _, _ := newManagerEnv(t, workflow.StageSet{
		Download: &stubStage{name: "download"},
		Process:  &stubStage{name: "process"},
		Finalize: &stubStage{name: "finalize"},
	})

	checks := mgr.StageHealth(context.Background())
	if len(checks) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(checks))
	}
	for _, check := range checks {
		if !check.Ready {
			t.Fatalf("check %q not ready: %s", check.Name, check.Detail)
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	mgr, _, _ := newManagerEnv(t, workflow.StageSet{
		Download: &stubStage{name: "download"},
		Process:  &stubStage{name: "process"},
		Finalize: &stubStage{name: "finalize"},
	})

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	mgr.Stop()
	mgr.Stop()
	if mgr.Running() {
		t.Fatal("manager should not report running after Stop")
	}
}
