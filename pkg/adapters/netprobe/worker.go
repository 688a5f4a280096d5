package netprobe

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
)

type probeWorker struct {
	*worker.BaseWorker
	monitor *Monitor
	cancel  context.CancelFunc
}

func newProbeWorker(m *Monitor) *probeWorker {
	return &probeWorker{
		BaseWorker: worker.NewBaseWorker("connectivity-probe"),
		monitor:    m,
	}
}

func (w *probeWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("probe already started (status: %s)", status)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *probeWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *probeWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"interval":          w.monitor.interval.String(),
		}
	})
}

func (w *probeWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("probe panic: %v", recovered)
			w.monitor.logger.Error("connectivity probe panic", "error", err)
		}
	}()

	ticker := time.NewTicker(w.monitor.interval)
	defer ticker.Stop()

	for {
		w.monitor.Check(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
