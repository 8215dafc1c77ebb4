// Package store provides the typed persistence gateway for the reply
// lifecycle: leads, sent messages, inbound replies, scheduled actions and
// their supporting records. It carries no business logic; the engine owns
// every decision and the gateway only answers the predicates it needs.
package store

import (
	"time"

	"replyloop/models"
)

// Gateway is the storage contract the engine runs against. The Postgres
// implementation backs production; MemoryStore backs tests.
type Gateway interface {
	// Leads
	GetLead(id uint) (*models.Lead, error)
	SaveLead(lead *models.Lead) error

	// Sent messages
	ListInitialSentMessages(limit int) ([]models.SentMessage, error)
	GetSentMessage(id uint) (*models.SentMessage, error)
	CreateSentMessage(msg *models.SentMessage) error

	// ThreadHasAck reports whether an acknowledgment was already sent on the
	// thread. Existence is checked in the store, not by scanning rows in
	// memory, so it stays correct as threads accumulate messages.
	ThreadHasAck(threadID string) (bool, error)

	// KnownProviderMessageID reports whether the provider message id was
	// already seen: as one of our own sent copies, as an ingested reply, or
	// as a recorded bounce.
	KnownProviderMessageID(providerMessageID string) (bool, error)

	// Inbound replies
	CreateInboundReply(reply *models.InboundReply) error
	SaveInboundReply(reply *models.InboundReply) error
	GetInboundReply(id uint) (*models.InboundReply, error)
	ListUnclassifiedReplies(limit int) ([]models.InboundReply, error)

	// Bounces
	CreateBounce(bounce *models.Bounce) error

	// Scheduled actions
	CreateScheduledAction(action *models.ScheduledAction) error
	SaveScheduledAction(action *models.ScheduledAction) error
	ListDueActions(now time.Time, limit int) ([]models.ScheduledAction, error)
	CancelPendingActions(leadID uint) (int64, error)

	// Knowledge corpus
	SearchKnowledge(tokens []string, product string, limit int) ([]models.KnowledgeDoc, error)

	// Enrichment and audit
	CreateVoiceSignal(signal *models.VoiceSignal) error
	CreateCycleRun(run *models.CycleRun) error
}
