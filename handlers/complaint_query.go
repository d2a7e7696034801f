package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/fcrm/middleware"
	"p9e.in/fcrm/models"
	"p9e.in/fcrm/pkg/workflow"
	"p9e.in/fcrm/utils"
)

// complaintRow is one line of the complaint register.
type complaintRow struct {
	ID              uuid.UUID  `json:"id"`
	ComplaintCode   string     `json:"complaint_code"`
	RegisteredBy    *string    `json:"registered_by"`
	ProjectName     *string    `json:"project_name"`
	SourceName      *string    `json:"source_name"`
	DateReceived    *time.Time `json:"date_received"`
	CreatedOn       time.Time  `json:"created_on"`
	Status          string     `json:"status"`
	AnonymityStatus string     `json:"anonymity_status"`
}

var errBadFilter = errors.New("invalid filter")

// canReadAll reports whether the user sees every complaint or only their own.
func canReadAll(u *models.User) bool {
	return u.HasPermission("complaint:read")
}

// registerQuery builds the filtered, scoped register query shared by the list,
// export and map endpoints.
func (h *Handler) registerQuery(r *http.Request) (*gorm.DB, error) {
	user := middleware.CurrentUser(r)
	q := r.URL.Query()

	db := h.db.WithContext(r.Context()).Table("complaints AS c").
		Joins("LEFT JOIN users u ON u.id = c.created_by").
		Joins("LEFT JOIN feedback_projects p ON p.id = c.project_id").
		Joins("LEFT JOIN feedback_sources s ON s.id = c.source_id")

	if !canReadAll(user) {
		db = db.Where("c.created_by = ?", user.ID)
	}
	if search := strings.TrimSpace(q.Get("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		db = db.Where("(LOWER(c.complaint_code) LIKE ? OR LOWER(p.name) LIKE ?)", like, like)
	}
	if project := strings.TrimSpace(q.Get("project")); project != "" {
		db = db.Where("p.name = ?", project)
	}
	if source := strings.TrimSpace(q.Get("source")); source != "" {
		db = db.Where("s.name = ?", source)
	}
	if status := strings.TrimSpace(q.Get("status")); status != "" {
		canonical, err := workflow.NormalizeStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadFilter, err)
		}
		db = db.Where("c.status = ?", canonical)
	}
	if from := strings.TrimSpace(q.Get("dateFrom")); from != "" {
		t, err := models.ParseJSONTime(from)
		if err != nil {
			return nil, fmt.Errorf("%w: dateFrom %q", errBadFilter, from)
		}
		db = db.Where("c.date_received >= ?", t.Time())
	}
	if to := strings.TrimSpace(q.Get("dateTo")); to != "" {
		t, err := models.ParseJSONTime(to)
		if err != nil {
			return nil, fmt.Errorf("%w: dateTo %q", errBadFilter, to)
		}
		// inclusive of the whole day
		db = db.Where("c.date_received < ?", t.Time().AddDate(0, 0, 1))
	}
	return db, nil
}

const registerColumns = `c.id, c.complaint_code, u.name AS registered_by, p.name AS project_name,
	s.name AS source_name, c.date_received, c.created_at AS created_on, c.status,
	CASE WHEN c.anonymous THEN 'Anonymous' ELSE 'Not Anonymous' END AS anonymity_status`

func (h *Handler) loadRegister(r *http.Request, page utils.Page) ([]complaintRow, int64, error) {
	q, err := h.registerQuery(r)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if page.Enabled {
		if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return nil, 0, err
		}
		q = q.Offset(page.Offset()).Limit(page.Limit)
	}

	rows := []complaintRow{}
	if err := q.Select(registerColumns).Order("c.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	if !page.Enabled {
		total = int64(len(rows))
	}
	return rows, total, nil
}

// ListComplaints returns the complaint register. With ?page or ?limit the
// result is paginated and X-Total-Count carries the unpaginated count.
func (h *Handler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r)
	rows, total, err := h.loadRegister(r, page)
	if err != nil {
		if errors.Is(err, errBadFilter) {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		serverError(w, "list complaints", err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	utils.WriteJSON(w, http.StatusOK, rows)
}

// complaintDetail adds display names to the complaint record.
type complaintDetail struct {
	models.Complaint
	UserName         string   `json:"user_name"`
	ProjectName      string   `json:"project_name"`
	SourceName       string   `json:"source_name"`
	FeedbackTypeName string   `json:"feedback_type_name"`
	ManagerName      string   `json:"manager_name"`
	StreamsProgram   []string `json:"streams_program"`
	StreamsOps       []string `json:"streams_operational"`
}

type logRow struct {
	ID         uuid.UUID `json:"id"`
	Action     string    `json:"action"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorName  *string   `json:"user_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// loadComplaint fetches a complaint with its associations, applying the
// caller's read scope. Out-of-scope complaints look missing.
func (h *Handler) loadComplaint(r *http.Request, id uuid.UUID) (*models.Complaint, error) {
	var c models.Complaint
	err := h.db.WithContext(r.Context()).
		Preload("Creator").Preload("Project").Preload("Source").
		Preload("FeedbackType").Preload("AssignManager").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, workflow.ErrComplaintNotFound
	}
	if err != nil {
		return nil, err
	}
	user := middleware.CurrentUser(r)
	if !canReadAll(user) && c.CreatedBy != user.ID {
		return nil, workflow.ErrComplaintNotFound
	}
	return &c, nil
}

func toDetail(c *models.Complaint) complaintDetail {
	d := complaintDetail{
		Complaint:      *c,
		StreamsProgram: models.DecodeStreams(c.ProgrammingStreams),
		StreamsOps:     models.DecodeStreams(c.OperationalStreams),
	}
	if c.Creator != nil {
		d.UserName = c.Creator.Name
	}
	if c.Project != nil {
		d.ProjectName = c.Project.Name
	}
	if c.Source != nil {
		d.SourceName = c.Source.Name
	}
	if c.FeedbackType != nil {
		d.FeedbackTypeName = c.FeedbackType.Name
	}
	if c.AssignManager != nil {
		d.ManagerName = c.AssignManager.Name
	}
	return d
}

func (h *Handler) complaintLogs(r *http.Request, id uuid.UUID, newestFirst bool) ([]logRow, error) {
	order := "l.created_at ASC"
	if newestFirst {
		order = "l.created_at DESC"
	}
	logs := []logRow{}
	err := h.db.WithContext(r.Context()).Table("complaint_logs AS l").
		Select("l.id, l.action, l.from_status, l.to_status, l.created_at, u.name AS actor_name").
		Joins("LEFT JOIN users u ON u.id = l.user_id").
		Where("l.complaint_id = ?", id).
		Order(order).
		Scan(&logs).Error
	return logs, err
}

// GetComplaint returns {complaint, logs}.
func (h *Handler) GetComplaint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid complaint id")
		return
	}
	c, err := h.loadComplaint(r, id)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	logs, err := h.complaintLogs(r, id, false)
	if err != nil {
		serverError(w, "complaint logs", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"complaint": toDetail(c),
		"logs":      logs,
	})
}

// GetComplaintLogs returns {logs}, newest first.
func (h *Handler) GetComplaintLogs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid complaint id")
		return
	}
	if _, err := h.loadComplaint(r, id); err != nil {
		writeWorkflowError(w, err)
		return
	}
	logs, err := h.complaintLogs(r, id, true)
	if err != nil {
		serverError(w, "complaint logs", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

// queueRow is a complaint as shown on the work queues.
type queueRow struct {
	ID               uuid.UUID  `json:"id"`
	ComplaintCode    string     `json:"complaint_code"`
	ProjectID        *uint      `json:"project_id"`
	SourceID         *uint      `json:"source_id"`
	DateReceived     *time.Time `json:"date_received"`
	Location         string     `json:"location"`
	Anonymous        bool       `json:"anonymous"`
	ContactName      *string    `json:"contact_name"`
	ContactPhone     *string    `json:"contact_phone"`
	SummaryEN        string     `json:"summary_en"`
	SummaryUR        string     `json:"summary_ur"`
	Status           string     `json:"status"`
	AssignManagerID  *uint      `json:"assign_manager_id"`
	FeedbackTypeID   *uint      `json:"feedback_type_id"`
	ResponseDueDate  *time.Time `json:"response_due_date"`
	UserName         *string    `json:"user_name"`
	FeedbackTypeName *string    `json:"feedback_type_name"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

const queueColumns = `c.id, c.complaint_code, c.project_id, c.source_id, c.date_received, c.location,
	c.anonymous, c.contact_name, c.contact_phone, c.summary_en, c.summary_ur, c.status,
	c.assign_manager_id, c.feedback_type_id, c.response_due_date, c.created_at, c.updated_at,
	u.name AS user_name, ft.name AS feedback_type_name`

func (h *Handler) queue(r *http.Request, where string, args ...interface{}) ([]queueRow, error) {
	rows := []queueRow{}
	err := h.db.WithContext(r.Context()).Table("complaints AS c").
		Select(queueColumns).
		Joins("LEFT JOIN users u ON u.id = c.created_by").
		Joins("LEFT JOIN feedback_types ft ON ft.id = c.feedback_type_id").
		Where(where, args...).
		Order("c.updated_at DESC").
		Scan(&rows).Error
	return rows, err
}

// InProcessComplaints returns the three work queues.
func (h *Handler) InProcessComplaints(w http.ResponseWriter, r *http.Request) {
	inProcess, err := h.queue(r, "c.status = ?", workflow.StatusInProcess)
	if err != nil {
		serverError(w, "in-process queue", err)
		return
	}
	closed, err := h.queue(r, "c.status = ?", workflow.StatusClosed)
	if err != nil {
		serverError(w, "closed queue", err)
		return
	}
	waiting, err := h.queue(r, "(c.assign_manager_id IS NOT NULL OR c.status = ?) AND c.status <> ?",
		workflow.StatusToCRC, workflow.StatusClosed)
	if err != nil {
		serverError(w, "waiting queue", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"in_process_complaints":           inProcess,
		"closed_complaints":               closed,
		"waiting_for_response_complaints": waiting,
	})
}

// Meta returns the lookup lists used by the intake and categorization forms.
func (h *Handler) Meta(w http.ResponseWriter, r *http.Request) {
	db := h.db.WithContext(r.Context())
	projects := []models.FeedbackProject{}
	sources := []models.FeedbackSource{}
	types := []models.FeedbackType{}
	managers := []models.Manager{}

	if err := db.Order("id").Find(&projects).Error; err != nil {
		serverError(w, "meta projects", err)
		return
	}
	if err := db.Order("id").Find(&sources).Error; err != nil {
		serverError(w, "meta sources", err)
		return
	}
	if err := db.Order("id").Find(&types).Error; err != nil {
		serverError(w, "meta types", err)
		return
	}
	if err := db.Order("id").Find(&managers).Error; err != nil {
		serverError(w, "meta managers", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"projects": projects,
		"sources":  sources,
		"types":    types,
		"managers": managers,
	})
}
