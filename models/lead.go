package models

import (
	"time"

	"gorm.io/gorm"
)

// LeadStatus tracks where a lead sits in the automated outreach lifecycle.
type LeadStatus string

const (
	LeadStatusNew          LeadStatus = "new"
	LeadStatusContacted    LeadStatus = "contacted"
	LeadStatusReplied      LeadStatus = "replied"
	LeadStatusBounced      LeadStatus = "bounced"
	LeadStatusUnsubscribed LeadStatus = "unsubscribed"
)

// Terminal reports whether the automated follow-up chain is finished for
// this status. Terminal leads never receive another scheduled send.
func (s LeadStatus) Terminal() bool {
	switch s {
	case LeadStatusReplied, LeadStatusBounced, LeadStatusUnsubscribed:
		return true
	case LeadStatusNew, LeadStatusContacted:
		return false
	}
	return false
}

// ConversationPhase describes how far the human conversation has progressed.
type ConversationPhase string

const (
	PhaseOutreach    ConversationPhase = "outreach"
	PhaseDiscovery   ConversationPhase = "discovery"
	PhaseEvaluating  ConversationPhase = "evaluating"
	PhaseNegotiating ConversationPhase = "negotiating"
	PhaseWaiting     ConversationPhase = "waiting"
	PhaseClosedLost  ConversationPhase = "closed_lost"
)

// Lead represents a single prospect/organization being worked.
// Leads are created by the upstream lead-generation flow; this service only
// mutates status, phase and contact counters, and never deletes them.
type Lead struct {
	gorm.Model

	Email     string `gorm:"not null;index" json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`

	Status            LeadStatus        `gorm:"not null;default:'new';index" json:"status"`
	ConversationPhase ConversationPhase `gorm:"default:'outreach'" json:"conversation_phase"`
	TotalExchanges    int               `gorm:"default:0" json:"total_exchanges"`

	// Product is the offering being pitched; used to scope knowledge lookups.
	Product string `gorm:"index" json:"product"`

	// LastContactedAt backs the minimum-interval send throttle. It lives on
	// the row (not in process memory) so the orchestrator stays restartable.
	LastContactedAt *time.Time `json:"last_contacted_at"`
}
