package domain

import (
	"time"

	"gorm.io/datatypes"
)

type StoryUniverse struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	UserID      int64     `json:"user_id" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (StoryUniverse) TableName() string { return "story_universes" }

func (u *StoryUniverse) OwnerID() int64 { return u.UserID }

type StoryUniversePatch struct {
	Name        Optional[string] `json:"name"`
	Description Optional[string] `json:"description"`
}

type Story struct {
	ID              int64                       `json:"id" gorm:"primaryKey"`
	UserID          int64                       `json:"user_id" gorm:"not null;index"`
	StoryUniverseID int64                       `json:"story_universe_id" gorm:"not null;index"`
	Title           string                      `json:"title" gorm:"size:255;not null"`
	Content         *string                     `json:"content"`
	ImageURLs       datatypes.JSONSlice[string] `json:"image_urls" gorm:"column:image_urls;type:jsonb"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

func (Story) TableName() string { return "stories" }

func (s *Story) OwnerID() int64 { return s.UserID }

type StoryPatch struct {
	Title     Optional[string]   `json:"title"`
	Content   Optional[string]   `json:"content"`
	ImageURLs Optional[[]string] `json:"image_urls"`
}
