package domain

import (
	"time"

	"gorm.io/datatypes"
)

type ActivityLog struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	UserID      *uint             `gorm:"column:user_id;index" json:"user_id,omitempty"`
	Action      string            `gorm:"column:action;not null" json:"action"`
	EntityType  string            `gorm:"column:entity_type" json:"entity_type,omitempty"`
	EntityID    string            `gorm:"column:entity_id" json:"entity_id,omitempty"`
	Description string            `gorm:"column:description;type:text" json:"description,omitempty"`
	IPAddress   string            `gorm:"column:ip_address" json:"ip_address,omitempty"`
	UserAgent   string            `gorm:"column:user_agent" json:"user_agent,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

type ActivityFilter struct {
	UserID     uint
	Action     string
	EntityType string
	Range      DateRange
	Page       Page
}
