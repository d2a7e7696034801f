package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/fcrm/middleware"
	"p9e.in/fcrm/models"
	"p9e.in/fcrm/pkg/notify"
	"p9e.in/fcrm/pkg/workflow"
	"p9e.in/fcrm/utils"
)

const responseDueWorkingDays = 7

type statusReq struct {
	Status string `json:"status"`
}

// UpdateStatus moves a complaint to another status along the transition table.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid complaint id")
		return
	}
	var req statusReq
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	target, err := workflow.NormalizeStatus(req.Status)
	if err != nil || target == workflow.StatusNew {
		utils.WriteError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	user := middleware.CurrentUser(r)
	c, err := h.engine.Apply(r.Context(), workflow.Change{
		ComplaintID: id,
		ActorID:     user.ID,
		ToStatus:    target,
		LogAction:   fmt.Sprintf("Status updated to %s", target),
	})
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	h.invalidateDashboard(r)
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Status updated", "status": c.Status})
}

// categorizeReq mirrors the categorization form, which posts camelCase keys
// and sends ids as strings.
type categorizeReq struct {
	ContactAssessment  string       `json:"contactAssessment"`
	FeedbackTypeID     utils.FlexID `json:"feedbackTypeId"`
	Comment            string       `json:"comment"`
	AssignProjectID    utils.FlexID `json:"assignProjectId"`
	AssignManagerID    utils.FlexID `json:"assignManagerId"`
	ManagerMethod      string       `json:"managerMethod"`
	RequesterMethod    string       `json:"requesterMethod"`
	SendMethod         string       `json:"sendMethod"`
	InformedManager    bool         `json:"informedManager"`
	InformedRequester  bool         `json:"informedRequester"`
	StreamsProgram     []string     `json:"streamsProgram"`
	StreamsOperational []string     `json:"streamsOperational"`
	ActionTaken        string       `json:"actionTaken"`
	ResponseDueDate    string       `json:"responseDueDate"`
	StatusOfComplaint  string       `json:"statusOfComplaint"`
}

// Categorize records the categorization form and applies the resulting status.
func (h *Handler) Categorize(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid complaint id")
		return
	}
	var req categorizeReq
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if req.FeedbackTypeID == 0 {
		utils.WriteError(w, http.StatusBadRequest, "feedbackTypeId is required")
		return
	}
	if strings.TrimSpace(req.Comment) == "" {
		utils.WriteError(w, http.StatusBadRequest, "comment is required")
		return
	}
	if !workflow.ValidStatusOfComplaint(req.StatusOfComplaint) {
		utils.WriteError(w, http.StatusBadRequest, "invalid statusOfComplaint")
		return
	}
	if !workflow.ValidActionTaken(req.ActionTaken) {
		utils.WriteError(w, http.StatusBadRequest, "invalid actionTaken")
		return
	}

	db := h.db.WithContext(r.Context())
	var feedbackType models.FeedbackType
	if err := db.First(&feedbackType, uint(req.FeedbackTypeID)).Error; err != nil {
		utils.WriteError(w, http.StatusBadRequest, "unknown feedback type")
		return
	}

	decision := workflow.Categorize(feedbackType.ID, req.StatusOfComplaint)

	var manager *models.Manager
	if req.AssignManagerID != 0 {
		manager = &models.Manager{}
		if err := db.First(manager, uint(req.AssignManagerID)).Error; err != nil {
			utils.WriteError(w, http.StatusBadRequest, "unknown manager")
			return
		}
	}
	if decision.Action == workflow.ActionSendRelevantManager && manager == nil {
		utils.WriteError(w, http.StatusBadRequest, "assignManagerId is required for requests for assistance")
		return
	}
	if req.AssignProjectID != 0 {
		if err := db.First(&models.FeedbackProject{}, uint(req.AssignProjectID)).Error; err != nil {
			utils.WriteError(w, http.StatusBadRequest, "unknown project")
			return
		}
	}

	var dueDate *models.JSONTime
	if s := strings.TrimSpace(req.ResponseDueDate); s != "" {
		d, err := models.ParseJSONTime(s)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "invalid responseDueDate")
			return
		}
		dueDate = &d
	}

	fields := map[string]interface{}{
		"contact_assessment":  req.ContactAssessment,
		"feedback_type_id":    feedbackType.ID,
		"comment":             strings.TrimSpace(req.Comment),
		"assign_project_id":   req.AssignProjectID.Ptr(),
		"assign_manager_id":   req.AssignManagerID.Ptr(),
		"manager_method":      req.ManagerMethod,
		"requester_method":    req.RequesterMethod,
		"send_method":         req.SendMethod,
		"informed_manager":    req.InformedManager,
		"informed_requester":  req.InformedRequester,
		"programming_streams": models.StreamsJSON(req.StreamsProgram),
		"operational_streams": models.StreamsJSON(req.StreamsOperational),
		"action_taken":        req.ActionTaken,
		"status_of_complaint": req.StatusOfComplaint,
	}
	if dueDate != nil {
		fields["response_due_date"] = *dueDate
	}

	user := middleware.CurrentUser(r)
	c, err := h.engine.Apply(r.Context(), workflow.Change{
		ComplaintID: id,
		ActorID:     user.ID,
		ToStatus:    decision.Status,
		Fields:      fields,
		LogAction:   "Categorized/Processed Complaint",
		Metadata: map[string]interface{}{
			"feedback_type_id": feedbackType.ID,
			"action":           decision.Action,
		},
		Within: func(tx *gorm.DB, c *models.Complaint) error {
			if dueDate != nil || c.DateReceived == nil {
				return nil
			}
			due := utils.AddWorkingDays(c.DateReceived.Time(), responseDueWorkingDays)
			return tx.Model(c).Update("response_due_date", models.JSONTime(due)).Error
		},
	})
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	h.invalidateDashboard(r)

	if decision.Action == workflow.ActionSendRelevantManager {
		h.notifyManager(r.Context(), manager, c)
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": decision.Action.Label(),
		"status":  c.Status,
		"action":  decision.Action,
	})
}

type assignReq struct {
	AssignManagerID utils.FlexID `json:"assign_manager_id"`
	ManagerMethod   string       `json:"manager_method"`
	InformedManager bool         `json:"informed_manager"`
}

// Assign routes a complaint to a manager without changing its status.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid complaint id")
		return
	}
	var req assignReq
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.AssignManagerID == 0 {
		utils.WriteError(w, http.StatusBadRequest, "assign_manager_id is required")
		return
	}
	var manager models.Manager
	if err := h.db.WithContext(r.Context()).First(&manager, uint(req.AssignManagerID)).Error; err != nil {
		utils.WriteError(w, http.StatusBadRequest, "unknown manager")
		return
	}

	user := middleware.CurrentUser(r)
	c, err := h.engine.Apply(r.Context(), workflow.Change{
		ComplaintID: id,
		ActorID:     user.ID,
		Fields: map[string]interface{}{
			"assign_manager_id": manager.ID,
			"manager_method":    req.ManagerMethod,
			"informed_manager":  req.InformedManager,
		},
		LogAction: fmt.Sprintf("Assigned to manager %s", manager.Name),
		Metadata:  map[string]interface{}{"manager_id": manager.ID},
	})
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	h.notifyManager(r.Context(), &manager, c)

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"assign_manager_id": manager.ID,
		"manager_name":      manager.Name,
	})
}

// notifyManager sends the routing notice. Delivery failures are logged only.
func (h *Handler) notifyManager(ctx context.Context, m *models.Manager, c *models.Complaint) {
	if m == nil {
		return
	}
	summary := c.SummaryEN
	if summary == "" {
		summary = c.SummaryUR
	}
	notice := notify.Notice{
		ChatID: m.TelegramChatID,
		Title:  fmt.Sprintf("Complaint %s assigned to %s", c.ComplaintCode, m.Name),
		Body:   utils.Truncate(summary, 300),
	}
	if err := h.notifier.Notify(ctx, notice); err != nil {
		log.Printf("⚠️  Failed to notify manager %d for %s: %v", m.ID, c.ComplaintCode, err)
	}
}

// Resolve closes a complaint with a resolution report and optional attachment.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}
	rawID := strings.TrimSpace(r.FormValue("complaintId"))
	report := strings.TrimSpace(r.FormValue("report"))
	if rawID == "" || report == "" {
		utils.WriteError(w, http.StatusBadRequest, "complaintId and report are required")
		return
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid complaintId")
		return
	}

	var attachment *models.ComplaintAttachment
	if files := formFiles(r.MultipartForm, "attachment"); len(files) > 0 {
		saved, err := h.saveAttachments(r.Context(), files[:1], []string{"Resolution report"})
		if err != nil {
			serverError(w, "save resolution attachment", err)
			return
		}
		attachment = &saved[0]
	}

	user := middleware.CurrentUser(r)
	_, err = h.engine.Apply(r.Context(), workflow.Change{
		ComplaintID: id,
		ActorID:     user.ID,
		ToStatus:    workflow.StatusClosed,
		Fields:      map[string]interface{}{"resolution_report": report},
		LogAction:   "Resolved",
		Within: func(tx *gorm.DB, c *models.Complaint) error {
			if attachment == nil {
				return nil
			}
			attachment.ComplaintID = c.ID
			return tx.Create(attachment).Error
		},
	})
	if err != nil {
		if attachment != nil {
			h.discardAttachments(r.Context(), []models.ComplaintAttachment{*attachment})
		}
		writeWorkflowError(w, err)
		return
	}
	h.invalidateDashboard(r)

	var path interface{}
	if attachment != nil {
		path = attachment.FilePath
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"message":        "Complaint resolved and closed successfully",
		"attachmentPath": path,
	})
}

type closeReq struct {
	ActionTaken         string `json:"action_taken"`
	Outcome             string `json:"outcome"`
	ComplainantInformed bool   `json:"complainant_informed"`
	NotificationMethod  string `json:"notification_method"`
	ClosingNotes        string `json:"closing_notes"`
}

// Close records the closure outcome and closes the complaint.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid complaint id")
		return
	}
	var req closeReq
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !workflow.ValidOutcome(req.Outcome) {
		utils.WriteError(w, http.StatusBadRequest, "outcome must be one of resolved, referred, no_action, not_resolved")
		return
	}
	method := ""
	if req.ComplainantInformed {
		if !workflow.ValidNotificationMethod(req.NotificationMethod) {
			utils.WriteError(w, http.StatusBadRequest, "notification_method must be one of email, sms, call, in_person")
			return
		}
		method = req.NotificationMethod
	}

	action := strings.TrimSpace(req.ActionTaken)
	if action == "" {
		action = req.Outcome
	}
	user := middleware.CurrentUser(r)
	_, err = h.engine.Apply(r.Context(), workflow.Change{
		ComplaintID: id,
		ActorID:     user.ID,
		ToStatus:    workflow.StatusClosed,
		Fields: map[string]interface{}{
			"outcome":              req.Outcome,
			"complainant_informed": req.ComplainantInformed,
			"notification_method":  method,
			"closing_notes":        strings.TrimSpace(req.ClosingNotes),
		},
		LogAction: "Complaint closed: " + action,
		Metadata:  map[string]interface{}{"outcome": req.Outcome},
	})
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	h.invalidateDashboard(r)
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type progressReq struct {
	Type            string   `json:"type"`
	Priority        string   `json:"priority"`
	ActionRequired  string   `json:"action_required"`
	AssignedTo      string   `json:"assigned_to"`
	DueDate         string   `json:"due_date"`
	ContactValidity string   `json:"contact_validity"`
	Streams         []string `json:"streams"`
}

// Progress marks a complaint in process and records who is working on it.
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid complaint id")
		return
	}
	var req progressReq
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !workflow.ValidPriority(req.Priority) {
		utils.WriteError(w, http.StatusBadRequest, "priority must be high, medium or low")
		return
	}

	fields := map[string]interface{}{
		"priority":            req.Priority,
		"action_required":     strings.TrimSpace(req.ActionRequired),
		"assigned_to":         strings.TrimSpace(req.AssignedTo),
		"contact_assessment":  req.ContactValidity,
		"programming_streams": models.StreamsJSON(req.Streams),
	}
	if req.Type != "" {
		typeID, ok := workflow.ProgressTypeID(req.Type)
		if !ok {
			utils.WriteError(w, http.StatusBadRequest, "unknown type")
			return
		}
		fields["feedback_type_id"] = typeID
	}
	if s := strings.TrimSpace(req.DueDate); s != "" {
		d, err := models.ParseJSONTime(s)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "invalid due_date")
			return
		}
		fields["due_date"] = d
	}

	user := middleware.CurrentUser(r)
	action := fmt.Sprintf("Marked In Progress by %s", user.Name)
	if len(req.Streams) > 0 {
		action += " | Streams: " + strings.Join(req.Streams, ", ")
	}
	if req.ContactValidity != "" {
		action += " | Contact: " + req.ContactValidity
	}

	_, err = h.engine.Apply(r.Context(), workflow.Change{
		ComplaintID: id,
		ActorID:     user.ID,
		ToStatus:    workflow.StatusInProcess,
		Fields:      fields,
		LogAction:   action,
	})
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	h.invalidateDashboard(r)
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
