package workflow

import "p9e.in/fcrm/models"

// Action is what categorization tells staff to do next.
type Action string

const (
	ActionSendRelevantManager Action = "send_relevant_manager"
	ActionThankYouResponse    Action = "thank_you_response"
	ActionSendToCRC           Action = "send_to_crc"
	ActionCloseComplaint      Action = "close_complaint"
)

// Label is the button text shown for the action.
func (a Action) Label() string {
	switch a {
	case ActionSendRelevantManager:
		return "Send to Relevant Manager"
	case ActionThankYouResponse:
		return "Thank You Response"
	case ActionSendToCRC:
		return "Send to CRC"
	default:
		return "Close Complaint"
	}
}

// Decision is the outcome of categorization.
type Decision struct {
	Status string `json:"status"`
	Action Action `json:"action"`
}

// Categorize maps a feedback type and the officer's status-of-complaint choice
// to the resulting complaint status and follow-up action.
func Categorize(feedbackTypeID uint, statusOfComplaint string) Decision {
	switch feedbackTypeID {
	case models.FeedbackTypeRequest:
		return Decision{Status: StatusInProcess, Action: ActionSendRelevantManager}
	case models.FeedbackTypePositive:
		return Decision{Status: StatusClosed, Action: ActionThankYouResponse}
	case models.FeedbackTypeMinorDissatisfaction, models.FeedbackTypeMajorDissatisfaction:
		if statusOfComplaint == StatusOfComplaintToCRC {
			return Decision{Status: StatusToCRC, Action: ActionSendToCRC}
		}
		return Decision{Status: StatusClosed, Action: ActionCloseComplaint}
	default:
		return Decision{Status: StatusClosed, Action: ActionCloseComplaint}
	}
}

// Options offered on the categorization form.
const (
	StatusOfComplaintToCRC           = "to_crc"
	StatusOfComplaintCRCClosed       = "crc_closed"
	StatusOfComplaintResponseDrafted = "response_drafted"
	StatusOfComplaintResponseSent    = "response_sent"
	StatusOfComplaintClosed          = "closed"
)

var statusOfComplaintOptions = map[string]string{
	StatusOfComplaintToCRC:           "Sent to CRC",
	StatusOfComplaintCRCClosed:       "CRC closed",
	StatusOfComplaintResponseDrafted: "Response drafted",
	StatusOfComplaintResponseSent:    "Response sent",
	StatusOfComplaintClosed:          "Complaint closed and record locked",
}

var actionTakenOptions = map[string]string{
	"reg_ack":    "Registered and acknowledged",
	"reg_no_ack": "Registered, not acknowledged",
	"to_crc":     "Referred to CRC",
	"to_ed":      "Referred to Executive Director",
}

// ValidStatusOfComplaint accepts the empty string.
func ValidStatusOfComplaint(s string) bool {
	if s == "" {
		return true
	}
	_, ok := statusOfComplaintOptions[s]
	return ok
}

// ValidActionTaken accepts the empty string.
func ValidActionTaken(s string) bool {
	if s == "" {
		return true
	}
	_, ok := actionTakenOptions[s]
	return ok
}

// StatusOfComplaintLabel returns the human label, or s when unknown.
func StatusOfComplaintLabel(s string) string {
	if l, ok := statusOfComplaintOptions[s]; ok {
		return l
	}
	return s
}

// ActionTakenLabel returns the human label, or s when unknown.
func ActionTakenLabel(s string) string {
	if l, ok := actionTakenOptions[s]; ok {
		return l
	}
	return s
}

// Closure outcomes.
var closeOutcomes = map[string]bool{
	"resolved":     true,
	"referred":     true,
	"no_action":    true,
	"not_resolved": true,
}

var notificationMethods = map[string]bool{
	"email":     true,
	"sms":       true,
	"call":      true,
	"in_person": true,
}

func ValidOutcome(s string) bool            { return closeOutcomes[s] }
func ValidNotificationMethod(s string) bool { return notificationMethods[s] }

// Progress keywords map onto feedback type ids.
var progressTypes = map[string]uint{
	"request":    models.FeedbackTypeRequest,
	"positive":   models.FeedbackTypePositive,
	"minor":      models.FeedbackTypeMinorDissatisfaction,
	"major":      models.FeedbackTypeMajorDissatisfaction,
	"suggestion": models.FeedbackTypeSuggestion,
	"other":      models.FeedbackTypeOther,
}

// ProgressTypeID resolves a progress-form type keyword. ok is false for unknown keywords.
func ProgressTypeID(keyword string) (uint, bool) {
	id, ok := progressTypes[keyword]
	return id, ok
}

var priorities = map[string]bool{"high": true, "medium": true, "low": true}

// ValidPriority accepts the empty string.
func ValidPriority(p string) bool {
	return p == "" || priorities[p]
}
