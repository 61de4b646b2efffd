package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	VisibilityPublic     = "Public"
	VisibilityRestricted = "Restricted"

	StatusDraft     = "Draft"
	StatusArchived  = "Archived"
	StatusRunning   = "Running"
	StatusCompleted = "Completed"
)

type Quiz struct {
	ID                      uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	InstructorID            uuid.UUID  `gorm:"type:char(36);index;not null" json:"instructor_id"`
	Name                    string     `gorm:"size:255;not null" json:"name"`
	Subject                 string     `gorm:"size:255;not null" json:"subject"`
	Grade                   string     `gorm:"size:255;not null" json:"grade"`
	Visibility              string     `gorm:"size:20;not null;default:Public" json:"visibility"`
	Status                  string     `gorm:"size:20;index;not null;default:Draft" json:"status"`
	TimeLimit               int        `gorm:"not null" json:"time_limit"`
	StartDate               time.Time  `gorm:"not null" json:"start_date"`
	EndDate                 time.Time  `gorm:"not null" json:"end_date"`
	MaxAttempts             int        `gorm:"not null;default:1" json:"max_attempts"`
	ShowAnswerAfterQuestion bool       `gorm:"not null;default:false" json:"show_answer_after_question"`
	CoverImage              string     `gorm:"size:2048" json:"cover_image,omitempty"`
	Questions               []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
