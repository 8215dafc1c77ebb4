package engine

import (
	"context"
	"encoding/json"
	"time"

	"replyloop/models"
)

// Summary is the outcome of one orchestrator cycle.
type Summary struct {
	ThreadsChecked     int      `json:"threads_checked"`
	NewReplies         int      `json:"new_replies"`
	Bounces            int      `json:"bounces"`
	AIProcessed        int      `json:"ai_processed"`
	FollowupsProcessed int      `json:"followups_processed"`
	Errors             []string `json:"errors"`
}

// RunCycle executes one full orchestrator invocation: ingestion, intent
// routing, then follow-up scheduling. Every phase predicate (unknown provider
// id, intent NULL, action pending and due) already skips processed rows, so
// re-running or overlapping cycles is harmless. Per-item errors are collected
// on the summary; nothing aborts sibling items.
func (e *Engine) RunCycle(ctx context.Context) *Summary {
	started := e.now()
	summary := &Summary{Errors: []string{}}

	ingest := e.runIngestion(ctx)
	summary.ThreadsChecked = ingest.threadsChecked
	summary.NewReplies = ingest.newReplies
	summary.Bounces = ingest.bounces
	summary.Errors = append(summary.Errors, ingest.errs...)

	processed, errs := e.runIntentRouting(ctx)
	summary.AIProcessed = processed
	summary.Errors = append(summary.Errors, errs...)

	// Reply processing starves follow-up drafting: both are expensive and
	// the cycle has one wall-clock budget. Follow-ups run next cycle.
	if processed == 0 {
		followups, errs := e.runFollowUps(ctx)
		summary.FollowupsProcessed = followups
		summary.Errors = append(summary.Errors, errs...)
	}

	e.recordRun(started, summary)

	e.logger.Printf("Cycle complete: threads=%d replies=%d bounces=%d routed=%d followups=%d errors=%d",
		summary.ThreadsChecked, summary.NewReplies, summary.Bounces,
		summary.AIProcessed, summary.FollowupsProcessed, len(summary.Errors))
	return summary
}

// recordRun persists the audit row for this invocation. Best effort: the
// summary still reaches the caller if the write fails.
func (e *Engine) recordRun(started time.Time, summary *Summary) {
	errsJSON, err := json.Marshal(summary.Errors)
	if err != nil {
		errsJSON = []byte("[]")
	}
	run := &models.CycleRun{
		StartedAt:          started,
		FinishedAt:         e.now(),
		ThreadsChecked:     summary.ThreadsChecked,
		NewReplies:         summary.NewReplies,
		Bounces:            summary.Bounces,
		AIProcessed:        summary.AIProcessed,
		FollowupsProcessed: summary.FollowupsProcessed,
		Errors:             string(errsJSON),
	}
	if err := e.store.CreateCycleRun(run); err != nil {
		e.logger.Printf("Failed to persist cycle run: %v", err)
	}
}
