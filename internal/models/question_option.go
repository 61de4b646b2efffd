package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionOption struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	QuestionID uuid.UUID `gorm:"type:char(36);index;not null" json:"question_id"`
	OptionText string    `gorm:"type:text;not null" json:"option_text"`
	Order      int       `gorm:"column:order;not null" json:"order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (o *QuestionOption) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
