package models

import "gorm.io/gorm"

// Bounce records an automated non-delivery notification found in a thread.
// The unique ProviderMessageID doubles as the dedup marker that keeps the
// same bounce message from being reconsidered on later cycles.
type Bounce struct {
	gorm.Model
	LeadID  uint `gorm:"not null;index" json:"lead_id"`
	EmailID uint `gorm:"not null;index" json:"email_id"`

	ProviderMessageID string `gorm:"not null;uniqueIndex" json:"provider_message_id"`
	FromAddress       string `json:"from_address"`
	Subject           string `json:"subject"`
	Reason            string `gorm:"type:text" json:"reason"`

	// Relations
	Lead Lead `json:"-"`
}
