package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"p9e.in/fcrm/middleware"
	"p9e.in/fcrm/models"
	"p9e.in/fcrm/utils"
)

type intakeInput struct {
	ProjectID    *uint
	SourceID     *uint
	DateReceived string
	Location     string
	Latitude     *float64
	Longitude    *float64
	Anonymous    bool
	ContactName  string
	ContactPhone string
	SummaryEN    string
	SummaryUR    string
}

// complaintJSONReq is the body of POST /api/feedback/create.
type complaintJSONReq struct {
	Project      utils.FlexID `json:"project"`
	Source       utils.FlexID `json:"source"`
	DateReceived string       `json:"date_received"`
	Location     string       `json:"location"`
	Latitude     *float64     `json:"latitude"`
	Longitude    *float64     `json:"longitude"`
	Anonymous    bool         `json:"anonymous"`
	ContactName  string       `json:"contact_name"`
	ContactPhone string       `json:"contact_phone"`
	SummaryEN    string       `json:"summary_en"`
	SummaryUR    string       `json:"summary_ur"`
}

// buildComplaint validates intake input and returns an unsaved complaint.
func (h *Handler) buildComplaint(r *http.Request, in intakeInput) (*models.Complaint, error) {
	in.SummaryEN = strings.TrimSpace(in.SummaryEN)
	in.SummaryUR = strings.TrimSpace(in.SummaryUR)
	if in.SummaryEN == "" && in.SummaryUR == "" {
		return nil, fmt.Errorf("a summary in English or Urdu is required")
	}

	if in.ProjectID != nil {
		if err := h.db.WithContext(r.Context()).First(&models.FeedbackProject{}, *in.ProjectID).Error; err != nil {
			return nil, fmt.Errorf("unknown project %d", *in.ProjectID)
		}
	}
	if in.SourceID != nil {
		if err := h.db.WithContext(r.Context()).First(&models.FeedbackSource{}, *in.SourceID).Error; err != nil {
			return nil, fmt.Errorf("unknown source %d", *in.SourceID)
		}
	}

	c := &models.Complaint{
		ProjectID: in.ProjectID,
		SourceID:  in.SourceID,
		Location:  strings.TrimSpace(in.Location),
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Anonymous: in.Anonymous,
		SummaryEN: in.SummaryEN,
		SummaryUR: in.SummaryUR,
	}
	if in.Latitude != nil && in.Longitude != nil {
		if err := utils.ValidateCoordinate(*in.Latitude, *in.Longitude); err != nil {
			return nil, err
		}
	} else if in.Latitude != nil || in.Longitude != nil {
		return nil, fmt.Errorf("latitude and longitude must be given together")
	}
	if s := strings.TrimSpace(in.DateReceived); s != "" {
		d, err := models.ParseJSONTime(s)
		if err != nil {
			return nil, fmt.Errorf("invalid date_received %q", s)
		}
		c.DateReceived = &d
	}
	if !in.Anonymous {
		if v := strings.TrimSpace(in.ContactName); v != "" {
			c.ContactName = &v
		}
		if v := strings.TrimSpace(in.ContactPhone); v != "" {
			c.ContactPhone = &v
		}
	}
	return c, nil
}

// CreateComplaint registers a complaint from a multipart form with optional
// files[] and descriptions[].
func (h *Handler) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}

	projectID, err := utils.ParseOptionalID(r.FormValue("project"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "project: "+err.Error())
		return
	}
	sourceID, err := utils.ParseOptionalID(r.FormValue("source"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "source: "+err.Error())
		return
	}
	lat, lng, err := utils.ParseOptionalCoordinate(r.FormValue("latitude"), r.FormValue("longitude"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	anonymous, _ := strconv.ParseBool(r.FormValue("anonymous"))
	if r.FormValue("anonymous") == "on" {
		anonymous = true
	}

	c, err := h.buildComplaint(r, intakeInput{
		ProjectID:    projectID,
		SourceID:     sourceID,
		DateReceived: r.FormValue("date_received"),
		Location:     r.FormValue("location"),
		Latitude:     lat,
		Longitude:    lng,
		Anonymous:    anonymous,
		ContactName:  r.FormValue("contact_name"),
		ContactPhone: r.FormValue("contact_phone"),
		SummaryEN:    r.FormValue("summary_en"),
		SummaryUR:    r.FormValue("summary_ur"),
	})
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	attachments, err := h.saveAttachments(r.Context(), formFiles(r.MultipartForm, "files"), formValues(r.MultipartForm, "descriptions"))
	if err != nil {
		serverError(w, "save attachments", err)
		return
	}

	if err := h.engine.Register(r.Context(), c, attachments, user.ID); err != nil {
		h.discardAttachments(r.Context(), attachments)
		serverError(w, "register complaint", err)
		return
	}
	h.invalidateDashboard(r)

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":        "Complaint submitted successfully",
		"id":             c.ID,
		"complaint_code": c.ComplaintCode,
	})
}

// CreateComplaintJSON is the JSON variant of CreateComplaint without files.
func (h *Handler) CreateComplaintJSON(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	var req complaintJSONReq
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	c, err := h.buildComplaint(r, intakeInput{
		ProjectID:    req.Project.Ptr(),
		SourceID:     req.Source.Ptr(),
		DateReceived: req.DateReceived,
		Location:     req.Location,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Anonymous:    req.Anonymous,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		SummaryEN:    req.SummaryEN,
		SummaryUR:    req.SummaryUR,
	})
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.Register(r.Context(), c, nil, user.ID); err != nil {
		serverError(w, "register complaint", err)
		return
	}
	h.invalidateDashboard(r)

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":        "Complaint submitted successfully",
		"complaintId":    c.ID,
		"complaint_code": c.ComplaintCode,
	})
}
