// internal/models/click.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Click is append-only: one row per redirect resolution. Rows are only
// removed by cascading Link deletion.
type Click struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	LinkID     uuid.UUID `json:"link_id" gorm:"type:uuid;not null;index:idx_clicks_link_occurred"`
	OccurredAt time.Time `json:"occurred_at" gorm:"not null;index:idx_clicks_link_occurred"`
	Referrer   *string   `json:"referrer" gorm:"type:text"`
	UserAgent  *string   `json:"user_agent" gorm:"type:text"`
	IPHash     *string   `json:"ip_hash" gorm:"column:ip_hash;type:text"`
	CreatedAt  time.Time `json:"created_at"`

	Link Link `json:"-" gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE"`
}
