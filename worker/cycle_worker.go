package worker

import (
	"context"
	"log"
	"time"

	"replyloop/engine"
)

// CycleWorker runs the orchestrator on a fixed interval, in addition to the
// authenticated HTTP trigger. Both paths call the same idempotent cycle, so
// an overlap between them is harmless.
type CycleWorker struct {
	engine   *engine.Engine
	interval time.Duration
	logger   *log.Logger
}

func NewCycleWorker(eng *engine.Engine, interval time.Duration, logger *log.Logger) *CycleWorker {
	return &CycleWorker{
		engine:   eng,
		interval: interval,
		logger:   logger,
	}
}

func (cw *CycleWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	cw.logger.Printf("Cycle worker started, running every %s", cw.interval)

	ticker := time.NewTicker(cw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cw.logger.Println("Cycle worker shutting down...")
			return
		case <-ticker.C:
			summary := cw.engine.RunCycle(ctx)
			for _, errText := range summary.Errors {
				cw.logger.Printf("Cycle error: %s", errText)
			}
		}
	}
}
