package vocab

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CurationEvent is the audit record written after a curation mutation commits.
type CurationEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Operation string         `gorm:"column:operation;not null;index" json:"operation"`
	Branch    string         `gorm:"column:branch;index" json:"branch,omitempty"`
	Subject   string         `gorm:"column:subject;index" json:"subject,omitempty"`
	Object    string         `gorm:"column:object;index" json:"object,omitempty"`
	Details   datatypes.JSON `gorm:"column:details" json:"details"`
	Operator  string         `gorm:"column:operator;index" json:"operator,omitempty"`
	RequestID string         `gorm:"column:request_id" json:"request_id,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

func (CurationEvent) TableName() string { return "curation_event" }
