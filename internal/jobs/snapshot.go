package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Snapshotter is a backend that can persist itself to a file
type Snapshotter interface {
	Dirty() bool
	WriteSnapshot(path string) error
}

// SnapshotWriter periodically persists the in-memory ledger
// - Skips the write when nothing was committed since the last snapshot
// - Writes a final snapshot on Stop
type SnapshotWriter struct {
	backend  Snapshotter
	path     string
	interval time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// SnapshotWriterConfig holds configuration for the snapshot writer
type SnapshotWriterConfig struct {
	Backend  Snapshotter
	Path     string
	Interval time.Duration
	Logger   *slog.Logger
}

// NewSnapshotWriter creates a new snapshot writer job
func NewSnapshotWriter(cfg SnapshotWriterConfig) *SnapshotWriter {
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SnapshotWriter{
		backend:  cfg.Backend,
		path:     cfg.Path,
		interval: cfg.Interval,
		logger:   cfg.Logger.With(slog.String("job", "snapshot")),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the snapshot loop
func (w *SnapshotWriter) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run()
	w.logger.Info("snapshot writer started",
		slog.String("path", w.path),
		slog.Duration("interval", w.interval),
	)
}

// Stop ends the loop and writes one last snapshot if anything changed
func (w *SnapshotWriter) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	w.wg.Wait()

	if err := w.RunOnce(context.Background()); err != nil {
		w.logger.Error("final snapshot failed", slog.String("error", err.Error()))
	}
	w.logger.Info("snapshot writer stopped")
}

func (w *SnapshotWriter) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.RunOnce(context.Background()); err != nil {
				w.logger.Error("snapshot failed", slog.String("error", err.Error()))
			}
		case <-w.stopCh:
			return
		}
	}
}

// RunOnce writes a snapshot if the backend has unsaved commits
func (w *SnapshotWriter) RunOnce(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !w.backend.Dirty() {
		return nil
	}
	start := time.Now()
	if err := w.backend.WriteSnapshot(w.path); err != nil {
		return err
	}
	w.logger.Debug("snapshot written", slog.Duration("took", time.Since(start)))
	return nil
}

// IsRunning returns whether the loop is running
func (w *SnapshotWriter) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
