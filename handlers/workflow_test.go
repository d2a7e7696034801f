package handlers_test

import (
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"p9e.in/fcrm/models"
	"p9e.in/fcrm/pkg/notify"
)

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		from   string
		status string
		user   func() *models.User
		want   int
	}{
		{"new to in_process", "", "in_process", func() *models.User { return env.officer }, http.StatusOK},
		{"alias accepted", "", "in progress", func() *models.User { return env.officer }, http.StatusOK},
		{"back to new rejected", "", "new", func() *models.User { return env.officer }, http.StatusBadRequest},
		{"unknown status", "", "archived", func() *models.User { return env.officer }, http.StatusBadRequest},
		{"closed is locked", "closed", "in_process", func() *models.User { return env.officer }, http.StatusConflict},
		{"closed to closed is locked", "closed", "closed", func() *models.User { return env.officer }, http.StatusConflict},
		{"in_process back to new rejected", "in_process", "new", func() *models.User { return env.officer }, http.StatusBadRequest},
		{"citizen forbidden", "", "in_process", func() *models.User { return env.citizen }, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := env.createComplaint(env.officer, nil)
			if tt.from != "" {
				rec := env.do(http.MethodPut, "/api/feedback/"+id+"/status", map[string]string{"status": tt.from}, env.officer)
				require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			}

			rec := env.do(http.MethodPut, "/api/feedback/"+id+"/status", map[string]string{"status": tt.status}, tt.user())

			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestUpdateStatus_LogsTransition(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, nil)

	rec := env.do(http.MethodPatch, "/api/feedback/"+id+"/status", map[string]string{"status": "to_crc"}, env.officer)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "to_crc", decode(t, rec)["status"])
	assert.Equal(t, []string{"Complaint registered", "Status updated to to_crc"}, env.logActions(id))

	var entry models.ComplaintLog
	require.NoError(t, env.db.Where("complaint_id = ? AND to_status = ?", id, "to_crc").First(&entry).Error)
	assert.Equal(t, "new", entry.FromStatus)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, env.officer.ID, *entry.UserID)
}

func TestUpdateStatus_UnknownComplaint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPut, "/api/feedback/"+uuid.NewString()+"/status", map[string]string{"status": "closed"}, env.officer)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategorize_RequestForAssistanceNotifiesManager(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	require.NoError(t, env.db.Model(&models.Manager{}).Where("id = ?", 1).Update("telegram_chat_id", 777).Error)
	id := env.createComplaint(env.officer, map[string]interface{}{"summary_en": "Need school books"})
	code := env.complaint(id).ComplaintCode

	env.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n notify.Notice) bool {
		return n.ChatID == 777 && strings.Contains(n.Title, code) && n.Body == "Need school books"
	})).Return(nil).Once()

	// Act
	rec := env.do(http.MethodPost, "/api/feedback/"+id+"/categorize", map[string]interface{}{
		"feedbackTypeId":  "1",
		"assignManagerId": 1,
		"assignProjectId": "1",
		"comment":         "Forwarded to education",
		"managerMethod":   "telegram",
		"informedManager": true,
		"streamsProgram":  []string{"education"},
	}, env.officer)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "in_process", body["status"])
	assert.Equal(t, "send_relevant_manager", body["action"])
	assert.Equal(t, "Send to Relevant Manager", body["message"])

	c := env.complaint(id)
	require.NotNil(t, c.FeedbackTypeID)
	assert.Equal(t, models.FeedbackTypeRequest, *c.FeedbackTypeID)
	require.NotNil(t, c.AssignManagerID)
	assert.Equal(t, uint(1), *c.AssignManagerID)
	assert.True(t, c.InformedManager)
	assert.Equal(t, []string{"education"}, models.DecodeStreams(c.ProgrammingStreams))
	assert.Equal(t, []string{}, models.DecodeStreams(c.OperationalStreams))
	assert.Contains(t, env.logActions(id), "Categorized/Processed Complaint")
}

func TestCategorize_LongUrduSummaryNotice(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, map[string]interface{}{
		"summary_en": "",
		"summary_ur": strings.Repeat("شکایت ", 80),
	})

	var notice notify.Notice
	env.notifier.On("Notify", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { notice = args.Get(1).(notify.Notice) }).
		Return(nil).Once()

	rec := env.do(http.MethodPost, "/api/feedback/"+id+"/categorize", map[string]interface{}{
		"feedbackTypeId":  1,
		"assignManagerId": 1,
		"comment":         "Forwarded",
	}, env.officer)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, utf8.ValidString(notice.Body))
	assert.Equal(t, 301, utf8.RuneCountInString(notice.Body))
	assert.True(t, strings.HasSuffix(notice.Body, "…"))
}

func TestCategorize_Outcomes(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]interface{}
		want string
	}{
		{"positive feedback closes", map[string]interface{}{"feedbackTypeId": 2, "comment": "thanks"}, "closed"},
		{"minor dissatisfaction to CRC", map[string]interface{}{
			"feedbackTypeId": 3, "comment": "refer", "statusOfComplaint": "to_crc", "actionTaken": "to_crc",
		}, "to_crc"},
		{"major dissatisfaction closed", map[string]interface{}{
			"feedbackTypeId": 4, "comment": "done", "statusOfComplaint": "closed",
		}, "closed"},
		{"suggestion closes", map[string]interface{}{"feedbackTypeId": 5, "comment": "noted"}, "closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := env.createComplaint(env.officer, nil)

			rec := env.do(http.MethodPost, "/api/feedback/"+id+"/categorize", tt.body, env.officer)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, env.complaint(id).Status)
		})
	}
}

func TestCategorize_Validation(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, nil)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing type", map[string]interface{}{"comment": "x"}},
		{"missing comment", map[string]interface{}{"feedbackTypeId": 2}},
		{"unknown type", map[string]interface{}{"feedbackTypeId": 99, "comment": "x"}},
		{"request without manager", map[string]interface{}{"feedbackTypeId": 1, "comment": "x"}},
		{"unknown manager", map[string]interface{}{"feedbackTypeId": 1, "comment": "x", "assignManagerId": 42}},
		{"bad status of complaint", map[string]interface{}{"feedbackTypeId": 3, "comment": "x", "statusOfComplaint": "lost"}},
		{"bad action taken", map[string]interface{}{"feedbackTypeId": 3, "comment": "x", "actionTaken": "ignore"}},
		{"bad due date", map[string]interface{}{"feedbackTypeId": 3, "comment": "x", "responseDueDate": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/feedback/"+id+"/categorize", tt.body, env.officer)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
	assert.Equal(t, "new", env.complaint(id).Status)
}

func TestCategorize_DefaultResponseDueDate(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, map[string]interface{}{"date_received": "2025-07-14"})

	rec := env.do(http.MethodPost, "/api/feedback/"+id+"/categorize", map[string]interface{}{
		"feedbackTypeId": 3, "comment": "refer", "statusOfComplaint": "to_crc",
	}, env.officer)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := env.complaint(id)
	require.NotNil(t, c.ResponseDueDate)
	assert.Equal(t, "2025-07-23", c.ResponseDueDate.Time().Format("2006-01-02"))
}

func TestCategorize_ExplicitResponseDueDate(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, map[string]interface{}{"date_received": "2025-07-14"})

	rec := env.do(http.MethodPost, "/api/feedback/"+id+"/categorize", map[string]interface{}{
		"feedbackTypeId": 4, "comment": "refer", "statusOfComplaint": "to_crc", "responseDueDate": "2025-08-01",
	}, env.officer)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := env.complaint(id)
	require.NotNil(t, c.ResponseDueDate)
	assert.Equal(t, "2025-08-01", c.ResponseDueDate.Time().Format("2006-01-02"))
}

func TestCategorize_ClosedComplaintIsLocked(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, nil)
	rec := env.do(http.MethodPost, "/api/feedback/"+id+"/categorize", map[string]interface{}{"feedbackTypeId": 2, "comment": "thanks"}, env.officer)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/api/feedback/"+id+"/categorize", map[string]interface{}{"feedbackTypeId": 5, "comment": "again"}, env.officer)

	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.complaint(id).FeedbackTypeID)
	assert.Equal(t, models.FeedbackTypePositive, *env.complaint(id).FeedbackTypeID)
}

func TestAssign(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, nil)
	env.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n notify.Notice) bool {
		return strings.Contains(n.Title, "Health Outreach Manager")
	})).Return(nil).Once()

	rec := env.do(http.MethodPatch, "/api/feedback/"+id+"/assign", map[string]interface{}{
		"assign_manager_id": "2", "manager_method": "email", "informed_manager": true,
	}, env.officer)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Health Outreach Manager", body["manager_name"])

	c := env.complaint(id)
	assert.Equal(t, "new", c.Status)
	require.NotNil(t, c.AssignManagerID)
	assert.Equal(t, uint(2), *c.AssignManagerID)
	assert.Contains(t, env.logActions(id), "Assigned to manager Health Outreach Manager")
}

func TestAssign_UnknownManager(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, nil)

	rec := env.do(http.MethodPatch, "/api/feedback/"+id+"/assign", map[string]interface{}{"assign_manager_id": 99}, env.officer)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolve(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, nil)
	req := env.multipartRequest("/api/feedback/resolve", map[string]string{
		"complaintId": id,
		"report":      "Pump repaired on site",
	}, map[string][]byte{"attachment": []byte("report body")})

	// Act
	rec := env.serve(req, env.officer)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	path, _ := body["attachmentPath"].(string)
	assert.True(t, strings.HasPrefix(path, "/uploads/"), path)
	assert.Equal(t, []string{strings.TrimPrefix(path, "/uploads/")}, env.uploads())

	c := env.complaint(id)
	assert.Equal(t, "closed", c.Status)
	assert.Equal(t, "Pump repaired on site", c.ResolutionReport)
	assert.Equal(t, []string{"Complaint registered", "Resolved"}, env.logActions(id))

	var count int64
	env.db.Model(&models.ComplaintAttachment{}).Where("complaint_id = ?", id).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestResolve_Validation(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, nil)

	tests := []struct {
		name   string
		fields map[string]string
		want   int
	}{
		{"missing report", map[string]string{"complaintId": id}, http.StatusBadRequest},
		{"missing id", map[string]string{"report": "done"}, http.StatusBadRequest},
		{"malformed id", map[string]string{"complaintId": "abc", "report": "done"}, http.StatusBadRequest},
		{"unknown complaint", map[string]string{"complaintId": uuid.NewString(), "report": "done"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.serve(env.multipartRequest("/api/feedback/resolve", tt.fields, nil), env.officer)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestResolve_FailureRemovesUpload(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, nil)
	rec := env.do(http.MethodPost, "/api/feedback/"+id+"/categorize", map[string]interface{}{
		"feedbackTypeId": 2, "comment": "thanks",
	}, env.officer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tests := []struct {
		name        string
		complaintID string
		want        int
	}{
		{"closed complaint", id, http.StatusConflict},
		{"unknown complaint", uuid.NewString(), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := env.multipartRequest("/api/feedback/resolve", map[string]string{
				"complaintId": tt.complaintID,
				"report":      "Pump repaired on site",
			}, map[string][]byte{"attachment": []byte("report body")})

			rec := env.serve(req, env.officer)

			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Empty(t, env.uploads())
		})
	}

	var count int64
	env.db.Model(&models.ComplaintAttachment{}).Count(&count)
	assert.Zero(t, count)
}

func TestClose(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, nil)

	rec := env.do(http.MethodPost, "/api/complaints/"+id+"/close", map[string]interface{}{
		"outcome":              "resolved",
		"complainant_informed": true,
		"notification_method":  "sms",
		"closing_notes":        "  all good  ",
	}, env.officer)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := env.complaint(id)
	assert.Equal(t, "closed", c.Status)
	assert.Equal(t, "resolved", c.Outcome)
	assert.Equal(t, "sms", c.NotificationMethod)
	assert.Equal(t, "all good", c.ClosingNotes)
	assert.Contains(t, env.logActions(id), "Complaint closed: resolved")
}

func TestClose_Validation(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, nil)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing outcome", map[string]interface{}{}},
		{"bad outcome", map[string]interface{}{"outcome": "forgotten"}},
		{"informed without method", map[string]interface{}{"outcome": "resolved", "complainant_informed": true}},
		{"informed with bad method", map[string]interface{}{"outcome": "resolved", "complainant_informed": true, "notification_method": "pigeon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/complaints/"+id+"/close", tt.body, env.officer)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
	assert.Equal(t, "new", env.complaint(id).Status)
}

func TestClose_IgnoresMethodWhenNotInformed(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, nil)

	rec := env.do(http.MethodPost, "/api/complaints/"+id+"/close", map[string]interface{}{
		"outcome": "no_action", "notification_method": "pigeon", "action_taken": "Duplicate entry",
	}, env.officer)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, env.complaint(id).NotificationMethod)
	assert.Contains(t, env.logActions(id), "Complaint closed: Duplicate entry")
}

func TestProgress(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, nil)

	rec := env.do(http.MethodPost, "/api/complaints/"+id+"/progress", map[string]interface{}{
		"type":             "minor",
		"priority":         "high",
		"action_required":  "Visit the site",
		"assigned_to":      "Field team",
		"due_date":         "2025-08-10",
		"contact_validity": "valid",
		"streams":          []string{"health", "wash"},
	}, env.officer)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := env.complaint(id)
	assert.Equal(t, "in_process", c.Status)
	assert.Equal(t, "high", c.Priority)
	require.NotNil(t, c.FeedbackTypeID)
	assert.Equal(t, models.FeedbackTypeMinorDissatisfaction, *c.FeedbackTypeID)
	require.NotNil(t, c.DueDate)
	assert.Equal(t, "2025-08-10", c.DueDate.Time().Format("2006-01-02"))
	assert.Equal(t, []string{"health", "wash"}, models.DecodeStreams(c.ProgrammingStreams))
	assert.Contains(t, env.logActions(id), "Marked In Progress by Officer | Streams: health, wash | Contact: valid")
}

func TestProgress_Validation(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, nil)

	for name, body := range map[string]map[string]interface{}{
		"bad priority": {"priority": "urgent"},
		"bad type":     {"type": "complaint"},
		"bad due date": {"due_date": "next week"},
	} {
		rec := env.do(http.MethodPost, "/api/complaints/"+id+"/progress", body, env.officer)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}
