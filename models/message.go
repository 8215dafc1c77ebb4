package models

import (
	"time"

	"gorm.io/gorm"
)

// MessageStatus is the outbound message lifecycle.
type MessageStatus string

const (
	MessageStatusDraft    MessageStatus = "draft"
	MessageStatusApproved MessageStatus = "approved"
	MessageStatusSent     MessageStatus = "sent"
)

// EmailType identifies the role a message plays in the outreach sequence.
type EmailType string

const (
	EmailTypeInitial    EmailType = "initial"
	EmailTypeAck        EmailType = "ack"
	EmailTypeFollowup1  EmailType = "followup_1"
	EmailTypeFollowup2  EmailType = "followup_2"
	EmailTypeReapproach EmailType = "reapproach"
)

// SentMessage is one outbound email, drafted or sent.
// ThreadID, ProviderMessageID and SentAt are set together when and only when
// the message transitions to sent (the send step itself lives upstream; this
// service creates follow-up drafts and sends acknowledgments).
type SentMessage struct {
	gorm.Model
	LeadID uint `gorm:"not null;index" json:"lead_id"`

	Subject  string `gorm:"not null" json:"subject"`
	Body     string `gorm:"type:text" json:"body"`
	BodyHTML string `gorm:"type:text" json:"body_html"`

	Status    MessageStatus `gorm:"not null;default:'draft';index" json:"status"`
	EmailType EmailType     `gorm:"not null;index" json:"email_type"`

	ThreadID          string     `gorm:"index" json:"thread_id"`
	ProviderMessageID string     `gorm:"index" json:"provider_message_id"`
	SentAt            *time.Time `json:"sent_at"`

	// Relations
	Lead Lead `json:"-"`
}
