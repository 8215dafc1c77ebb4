// Package engine implements the reply-lifecycle orchestrator: ingesting
// thread messages, routing classified intents, and materializing due
// follow-up actions, all inside one idempotent periodic cycle.
package engine

import (
	"log"
	"time"

	"replyloop/genai"
	"replyloop/knowledge"
	"replyloop/mailbox"
	"replyloop/store"
)

// Options tunes one engine instance. Batch sizes stay small on purpose: the
// cycle has to fit the hosting environment's wall-clock budget, and anything
// left over is picked up by the next periodic invocation.
type Options struct {
	FromEmail          string
	ThreadBatchSize    int
	ReplyBatchSize     int
	ActionBatchSize    int
	FollowUpDelay      time.Duration
	MinContactInterval time.Duration
	UnsubscribeBaseURL string
}

func (o *Options) applyDefaults() {
	if o.ThreadBatchSize <= 0 {
		o.ThreadBatchSize = 25
	}
	if o.ReplyBatchSize <= 0 {
		o.ReplyBatchSize = 5
	}
	if o.ActionBatchSize <= 0 {
		o.ActionBatchSize = 10
	}
	if o.FollowUpDelay <= 0 {
		o.FollowUpDelay = 7 * 24 * time.Hour
	}
}

// Engine wires the store gateway, mailbox provider and AI services together.
// It holds no mutable state of its own; every decision predicate lives in the
// store, which is what makes overlapping invocations safe.
type Engine struct {
	store     store.Gateway
	mailbox   mailbox.Client
	ai        genai.Service
	knowledge *knowledge.Service
	logger    *log.Logger
	opts      Options

	classifyBounce BounceClassifier
	now            func() time.Time
}

func New(gateway store.Gateway, mb mailbox.Client, ai genai.Service, kb *knowledge.Service, logger *log.Logger, opts Options) *Engine {
	opts.applyDefaults()
	return &Engine{
		store:          gateway,
		mailbox:        mb,
		ai:             ai,
		knowledge:      kb,
		logger:         logger,
		opts:           opts,
		classifyBounce: ClassifyBounce,
		now:            time.Now,
	}
}
