package models

// Lookup tables use small integer ids because clients send them as plain
// numbers (or numeric strings) in forms.

type FeedbackProject struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:150;uniqueIndex;not null" json:"name"`
}

type FeedbackSource struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

// Feedback type ids the categorization rule depends on.
const (
	FeedbackTypeRequest              uint = 1
	FeedbackTypePositive             uint = 2
	FeedbackTypeMinorDissatisfaction uint = 3
	FeedbackTypeMajorDissatisfaction uint = 4
	FeedbackTypeSuggestion           uint = 5
	FeedbackTypeOther                uint = 6
)

type FeedbackType struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

// Manager is an external project manager complaints can be routed to.
// TelegramChatID, when set, receives assignment notices directly.
type Manager struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Name           string `gorm:"size:100;not null" json:"name"`
	Email          string `gorm:"size:100" json:"email,omitempty"`
	Phone          string `gorm:"size:30" json:"phone,omitempty"`
	TelegramChatID int64  `json:"-"`
}
