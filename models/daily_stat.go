package models

import (
	"time"
)

// DateLayout is the format of DailyStat.Date
const DateLayout = "2006-01-02"

// DailyStat is the per-day rollup written by housekeeping before old orders are pruned
type DailyStat struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Date           string    `gorm:"uniqueIndex;not null" json:"date"`
	OrderCount     int64     `gorm:"not null" json:"orderCount"`
	ItemCount      int64     `gorm:"not null" json:"itemCount"`
	Revenue        int64     `gorm:"not null" json:"revenue"` // excludes cancelled orders
	CancelledCount int64     `gorm:"not null" json:"cancelledCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName specifies the table name for the DailyStat model
func (DailyStat) TableName() string {
	return "daily_stats"
}

// All returns the models managed by migrations, parents first
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&MenuItem{},
		&Order{},
		&OrderItem{},
		&DailyStat{},
	}
}
