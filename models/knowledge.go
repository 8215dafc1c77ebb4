package models

import "gorm.io/gorm"

// KnowledgeDoc is one entry in the support corpus the router searches when a
// reply asks a question. Keywords is a comma-separated hint list maintained
// alongside the content.
type KnowledgeDoc struct {
	gorm.Model

	Product  string `gorm:"index" json:"product"`
	Title    string `gorm:"not null" json:"title"`
	Content  string `gorm:"type:text" json:"content"`
	Keywords string `gorm:"type:text" json:"keywords"`
}
