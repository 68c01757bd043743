package models

import "time"

// Attachment is a labeled reference to externally stored binary content
// associated with a team. Attachments form an append-only ordered sequence;
// uploads add rows and never replace existing ones.
type Attachment struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	TeamID     uint      `gorm:"not null;index" json:"team_id"`
	Kind       string    `json:"kind"` // e.g. "pitch-deck", "screenshot"
	URL        string    `gorm:"not null" json:"url"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	UploadedBy string    `json:"uploaded_by"` // User ID of the member who uploaded it
}
