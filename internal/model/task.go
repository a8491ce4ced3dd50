package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task is a single item on a user's board.
type Task struct {
	ID                 string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID            string     `gorm:"index:idx_owner_created,priority:1;index:idx_owner_status,priority:1;not null" json:"owner"`
	Title              string     `gorm:"size:200;not null" json:"title"`
	Description        string     `gorm:"size:1000" json:"description"`
	Priority           Priority   `gorm:"size:16;not null;default:medium" json:"priority"`
	Status             Status     `gorm:"size:16;not null;default:todo;index:idx_owner_status,priority:2" json:"status"`
	DueDate            *time.Time `json:"dueDate"`
	IsRecurring        bool       `gorm:"default:false" json:"isRecurring"`
	RecurringFrequency Frequency  `gorm:"size:16" json:"recurringFrequency,omitempty"`
	IsAutomated        bool       `gorm:"default:false" json:"isAutomated"`
	SourceRuleID       string     `gorm:"size:36" json:"sourceRuleId,omitempty"`
	CreatedAt          time.Time  `gorm:"index:idx_owner_created,priority:2" json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns an opaque id when the caller did not provide one.
func (t *Task) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
