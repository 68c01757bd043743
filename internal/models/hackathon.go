package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Hackathon represents an event listing. Teams are scoped to a hackathon by
// id; the listing itself is plain CRUD managed by hosts and admins.
type Hackathon struct {
	gorm.Model
	Title         string         `gorm:"not null" json:"title" validate:"required"`
	Description   string         `json:"description"`
	Location      string         `json:"location"`
	Format        string         `json:"format"` // online, onsite, hybrid
	StartAt       time.Time      `json:"start_at"`
	EndAt         time.Time      `json:"end_at"`
	Tracks        datatypes.JSON `json:"tracks"` // e.g. ["AI","Web3"]
	Link          string         `json:"link"`
	CoverImageURL string         `json:"cover_image_url"`
	CreatedBy     string         `json:"created_by"` // User ID of the host who listed it
}

func GetHackathonByID(db *gorm.DB, id uint) (*Hackathon, error) {
	var hackathon Hackathon
	result := db.Where("id = ?", id).First(&hackathon)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.New("Hackathon not found")
		}
		return nil, result.Error
	}
	return &hackathon, nil
}

func ListHackathons(db *gorm.DB) ([]Hackathon, error) {
	var hackathons []Hackathon
	if err := db.Order("start_at DESC").Find(&hackathons).Error; err != nil {
		return nil, err
	}
	return hackathons, nil
}
