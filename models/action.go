package models

import (
	"time"

	"gorm.io/gorm"
)

// ActionType is the kind of delayed follow-up an action materializes into.
type ActionType string

const (
	ActionFollowup1  ActionType = "followup_1"
	ActionFollowup2  ActionType = "followup_2"
	ActionReapproach ActionType = "reapproach"
)

// EmailType maps an action type onto the email type of the draft it produces.
func (t ActionType) EmailType() EmailType {
	switch t {
	case ActionFollowup1:
		return EmailTypeFollowup1
	case ActionFollowup2:
		return EmailTypeFollowup2
	case ActionReapproach:
		return EmailTypeReapproach
	}
	return EmailType(t)
}

// ActionStatus is the scheduled action lifecycle. Actions are never re-opened.
type ActionStatus string

const (
	ActionStatusPending   ActionStatus = "pending"
	ActionStatusCompleted ActionStatus = "completed"
	ActionStatusCancelled ActionStatus = "cancelled"
)

// ScheduledAction is one pending or resolved unit of future work: a follow-up
// to draft once ScheduledAt passes. A genuine reply cancels every pending
// action for its lead, so at most one is actionable per lead in steady state.
type ScheduledAction struct {
	gorm.Model
	LeadID  uint `gorm:"not null;index" json:"lead_id"`
	EmailID uint `gorm:"not null;index" json:"email_id"`

	ActionType  ActionType   `gorm:"not null" json:"action_type"`
	ScheduledAt time.Time    `gorm:"not null;index" json:"scheduled_at"`
	Status      ActionStatus `gorm:"not null;default:'pending';index" json:"status"`

	// Context carries the original subject/body the follow-up is composed from.
	ContextSubject string `json:"context_subject"`
	ContextBody    string `gorm:"type:text" json:"context_body"`

	// Relations
	Lead  Lead        `json:"-"`
	Email SentMessage `json:"-"`
}
