package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ComplaintLog is one entry in a complaint's audit trail. Every state change
// and every assignment writes exactly one log row in the same transaction.
type ComplaintLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ComplaintID uuid.UUID `gorm:"type:uuid;not null;index" json:"complaint_id"`

	Action     string `gorm:"type:text;not null" json:"action"`
	FromStatus string `gorm:"size:20" json:"from_status,omitempty"`
	ToStatus   string `gorm:"size:20" json:"to_status,omitempty"`

	// Actor, nil for system entries
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User   *User      `gorm:"foreignKey:UserID" json:"-"`

	Metadata datatypes.JSON `json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (ComplaintLog) TableName() string {
	return "complaint_logs"
}

func (l *ComplaintLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}

// SetMetadata marshals m into the Metadata column. A nil or empty map clears it.
func (l *ComplaintLog) SetMetadata(m map[string]interface{}) error {
	if len(m) == 0 {
		l.Metadata = nil
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	l.Metadata = datatypes.JSON(b)
	return nil
}
