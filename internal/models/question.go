package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	QuestionMultipleChoice  = "multiple-choice"
	QuestionFillInTheBlanks = "fill-in-the-blanks"
	QuestionTrueFalse       = "true-false"
)

type Question struct {
	ID            uuid.UUID        `gorm:"type:char(36);primaryKey" json:"id"`
	QuizID        uuid.UUID        `gorm:"type:char(36);index;not null" json:"quiz_id"`
	Type          string           `gorm:"size:50;not null" json:"type"`
	QuestionText  string           `gorm:"type:text;not null" json:"question_text"`
	Points        int              `gorm:"not null" json:"points"`
	CorrectAnswer string           `gorm:"type:text;not null" json:"correct_answer"`
	Order         int              `gorm:"column:order;not null" json:"order"`
	Options       []QuestionOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
