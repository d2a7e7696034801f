package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Complaint is a registered feedback record. Status is one of the canonical
// values in pkg/workflow and only moves along its transition table.
type Complaint struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ComplaintCode string    `gorm:"size:20;uniqueIndex;not null" json:"complaint_code"`

	// Intake
	ProjectID    *uint            `gorm:"index" json:"project_id"`
	Project      *FeedbackProject `gorm:"foreignKey:ProjectID" json:"-"`
	SourceID     *uint            `gorm:"index" json:"source_id"`
	Source       *FeedbackSource  `gorm:"foreignKey:SourceID" json:"-"`
	DateReceived *JSONTime        `gorm:"index" json:"date_received"`
	Location     string           `gorm:"size:255" json:"location"`
	Latitude     *float64         `json:"latitude,omitempty"`
	Longitude    *float64         `json:"longitude,omitempty"`
	Anonymous    bool             `json:"anonymous"`
	ContactName  *string          `gorm:"size:100" json:"contact_name"`
	ContactPhone *string          `gorm:"size:30" json:"contact_phone"`
	SummaryEN    string           `gorm:"column:summary_en;type:text" json:"summary_en"`
	SummaryUR    string           `gorm:"column:summary_ur;type:text" json:"summary_ur"`
	Status       string           `gorm:"size:20;not null;index" json:"status"`
	CreatedBy    uuid.UUID        `gorm:"type:uuid;not null;index" json:"created_by"`
	Creator      *User            `gorm:"foreignKey:CreatedBy" json:"-"`

	// Categorization
	ContactAssessment  string         `gorm:"size:50" json:"contact_assessment"`
	FeedbackTypeID     *uint          `gorm:"index" json:"feedback_type_id"`
	FeedbackType       *FeedbackType  `gorm:"foreignKey:FeedbackTypeID" json:"-"`
	Comment            string         `gorm:"type:text" json:"comment"`
	AssignProjectID    *uint          `json:"assign_project_id"`
	AssignManagerID    *uint          `gorm:"index" json:"assign_manager_id"`
	AssignManager      *Manager       `gorm:"foreignKey:AssignManagerID" json:"-"`
	ManagerMethod      string         `gorm:"size:30" json:"manager_method"`
	RequesterMethod    string         `gorm:"size:30" json:"requester_method"`
	SendMethod         string         `gorm:"size:30" json:"send_method"`
	InformedManager    bool           `json:"informed_manager"`
	InformedRequester  bool           `json:"informed_requester"`
	ProgrammingStreams datatypes.JSON `json:"programming_streams"`
	OperationalStreams datatypes.JSON `json:"operational_streams"`
	ActionTaken        string         `gorm:"size:50" json:"action_taken"`
	ResponseDueDate    *JSONTime      `json:"response_due_date"`
	StatusOfComplaint  string         `gorm:"size:30" json:"status_of_complaint"`

	// Progress
	Priority       string    `gorm:"size:10" json:"priority"`
	ActionRequired string    `gorm:"type:text" json:"action_required"`
	AssignedTo     string    `gorm:"size:100" json:"assigned_to"`
	DueDate        *JSONTime `json:"due_date"`

	// Closure
	Outcome             string `gorm:"size:30" json:"outcome"`
	ComplainantInformed bool   `json:"complainant_informed"`
	NotificationMethod  string `gorm:"size:30" json:"notification_method"`
	ClosingNotes        string `gorm:"type:text" json:"closing_notes"`
	ResolutionReport    string `gorm:"type:text" json:"resolution_report"`

	Attachments []ComplaintAttachment `gorm:"foreignKey:ComplaintID" json:"attachments,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// ComplaintAttachment is a stored file belonging to a complaint. FilePath is the
// public path or URL returned by the attachment store.
type ComplaintAttachment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ComplaintID uuid.UUID `gorm:"type:uuid;not null;index" json:"complaint_id"`
	FilePath    string    `gorm:"size:500;not null" json:"file_path"`
	FileType    string    `gorm:"size:20" json:"file_type"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *ComplaintAttachment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

// StreamsJSON encodes a stream list for the streams columns. Nil becomes "[]".
func StreamsJSON(streams []string) datatypes.JSON {
	if streams == nil {
		streams = []string{}
	}
	b, _ := json.Marshal(streams)
	return datatypes.JSON(b)
}

// DecodeStreams is the inverse of StreamsJSON. Malformed content yields nil.
func DecodeStreams(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
