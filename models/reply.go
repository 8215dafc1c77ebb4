package models

import "gorm.io/gorm"

// Intent is the classified purpose of an inbound reply.
type Intent string

const (
	IntentInterested     Intent = "interested"
	IntentQuestion       Intent = "question"
	IntentNotInterested  Intent = "not_interested"
	IntentSoftDecline    Intent = "soft_decline"
	IntentInternalReview Intent = "internal_review"
	IntentOutOfOffice    Intent = "out_of_office"
	IntentUnsubscribe    Intent = "unsubscribe"
)

// Turn is one entry in a reply's reconstructed conversation history.
type Turn struct {
	Role string `json:"role"` // us, them
	Body string `json:"body"`
}

// InboundReply is one message received in a thread we started.
// ProviderMessageID is the natural dedup key: ingesting the same provider
// message twice is a no-op. Intent stays NULL until the router classifies it,
// which is also the predicate that makes re-running a cycle idempotent.
type InboundReply struct {
	gorm.Model
	EmailID uint `gorm:"not null;index" json:"email_id"`
	LeadID  uint `gorm:"not null;index" json:"lead_id"`

	ProviderMessageID string `gorm:"not null;uniqueIndex" json:"provider_message_id"`
	FromAddress       string `json:"from_address"`
	Subject           string `json:"subject"`
	Body              string `gorm:"type:text" json:"body"`

	Intent           *Intent `gorm:"index" json:"intent"`
	IntentConfidence float64 `gorm:"default:0" json:"intent_confidence"`

	AIDraftSubject  string `json:"ai_draft_subject"`
	AIDraftResponse string `gorm:"type:text" json:"ai_draft_response"`

	// KnowledgeHits and ConversationHistory are JSON blobs; see the engine
	// for the shapes serialized into them.
	KnowledgeHits       string `gorm:"type:text" json:"knowledge_hits"`
	ConversationHistory string `gorm:"type:text" json:"conversation_history"`

	NeedsResearch  bool   `gorm:"default:false;index" json:"needs_research"`
	EscalationNote string `json:"escalation_note"`
	HumanApproved  bool   `gorm:"default:false" json:"human_approved"`

	// Relations
	Lead  Lead        `json:"-"`
	Email SentMessage `json:"-"`
}

// VoiceSignal is a voice-of-customer data point extracted from a reply.
// Extraction is best effort and never blocks reply processing.
type VoiceSignal struct {
	gorm.Model
	LeadID  uint `gorm:"not null;index" json:"lead_id"`
	ReplyID uint `gorm:"not null;index" json:"reply_id"`

	SignalType string `gorm:"not null" json:"signal_type"` // pain_point, objection, feature_request, positive
	Quote      string `gorm:"type:text" json:"quote"`
}
