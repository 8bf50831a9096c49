package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ReportSnapshot persists one completed extraction run for history views.
// Payload holds the full FunnelReport as JSON.
type ReportSnapshot struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RangeFrom  time.Time      `gorm:"column:range_from;not null;index" json:"rangeFrom"`
	RangeTo    time.Time      `gorm:"column:range_to;not null" json:"rangeTo"`
	RowCount   int            `gorm:"column:row_count;not null" json:"rowCount"`
	TotalUsers int            `gorm:"column:total_users;not null" json:"totalUsers"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"createdAt"`
}

func (ReportSnapshot) TableName() string { return "report_snapshots" }
