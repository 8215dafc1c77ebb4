// Package genai implements the AI collaborators of the reply lifecycle:
// intent classification, reply/follow-up drafting and voice-of-customer
// extraction, all on the OpenAI chat completions API.
package genai

import (
	"context"

	"replyloop/models"
)

// IntentResult is the classification outcome for one inbound reply.
type IntentResult struct {
	Intent     models.Intent
	Confidence float64
}

// Draft is a generated candidate message. Drafts are never sent without
// human approval; only short acknowledgments go out automatically.
type Draft struct {
	Subject string
	Body    string
}

// DraftRequest carries the context a reply draft is generated from.
type DraftRequest struct {
	Lead            *models.Lead
	Intent          models.Intent
	OriginalSubject string
	OriginalBody    string
	KnowledgeHits   []models.KnowledgeDoc
	History         []models.Turn
	NeedsResearch   bool
}

// FollowUpRequest carries the context a follow-up draft is generated from:
// the original outbound subject/body preserved on the scheduled action.
type FollowUpRequest struct {
	Lead            *models.Lead
	EmailType       models.EmailType
	OriginalSubject string
	OriginalBody    string
}

// Signal is one extracted voice-of-customer data point.
type Signal struct {
	SignalType string `json:"signal_type"`
	Quote      string `json:"quote"`
}

// Service is the AI contract the engine runs against.
type Service interface {
	Classify(ctx context.Context, body, subject string) (*IntentResult, error)
	DraftReply(ctx context.Context, req DraftRequest) (*Draft, error)
	DraftFollowUp(ctx context.Context, req FollowUpRequest) (*Draft, error)
	ExtractSignals(ctx context.Context, body string) ([]Signal, error)
}
