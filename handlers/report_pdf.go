package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"p9e.in/fcrm/models"
	"p9e.in/fcrm/pkg/workflow"
	"p9e.in/fcrm/utils"
)

type pdfField struct {
	Label     string
	Value     string
	FullWidth bool
}

// categorizationReport is everything the categorization PDF prints.
type categorizationReport struct {
	Complaint   complaintDetail
	OfficerName string
	OrgName     string
	GeneratedAt time.Time
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// pdfWriter wraps an fpdf document with the report's section layout.
type pdfWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (p *pdfWriter) section(title string, fields []pdfField) {
	pdf := p.pdf
	if pdf.GetY() > 250 {
		pdf.AddPage()
	}
	pdf.Ln(4)
	y := pdf.GetY()
	pdf.SetDrawColor(30, 64, 175)
	pdf.SetLineWidth(0.6)
	pdf.Line(10, y, 10, y+7)
	pdf.SetLineWidth(0.2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(30, 64, 175)
	pdf.SetX(15)
	pdf.CellFormat(0, 7, p.tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for _, f := range fields {
		width := 85.0
		if f.FullWidth {
			width = 180
		}
		pdf.SetX(15)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(30, 64, 175)
		pdf.CellFormat(0, 4, p.tr(f.Label), "", 1, "L", false, 0, "")
		pdf.SetX(15)
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(26, 32, 44)
		pdf.SetFillColor(255, 255, 255)
		pdf.MultiCell(width, 6, p.tr(orNA(f.Value)), "1", "L", true)
		pdf.Ln(2)
	}
}

// typeSpecificFields returns the section that depends on the feedback type.
func typeSpecificFields(c complaintDetail) (string, []pdfField) {
	var typeID uint
	if c.FeedbackTypeID != nil {
		typeID = *c.FeedbackTypeID
	}
	decision := workflow.Categorize(typeID, c.StatusOfComplaint)
	method := c.SendMethod
	if method == "" {
		method = c.ManagerMethod
	}

	switch {
	case decision.Action == workflow.ActionSendRelevantManager:
		return "Manager Assignment", []pdfField{
			{Label: "Action Taken", Value: "Request for support sent to the relevant manager"},
			{Label: "Assigned Manager", Value: c.ManagerName},
			{Label: "Send Method", Value: method},
		}
	case decision.Action == workflow.ActionThankYouResponse:
		return "Feedback Response", []pdfField{
			{Label: "Action Taken", Value: "Personalised thank you response sent"},
			{Label: "Send Method", Value: method},
		}
	case typeID == models.FeedbackTypeMinorDissatisfaction || typeID == models.FeedbackTypeMajorDissatisfaction:
		due := ""
		if c.ResponseDueDate != nil {
			due = c.ResponseDueDate.Time().Format("2006-01-02")
		}
		return "Complaint Handling", []pdfField{
			{Label: "Programme Streams", Value: strings.Join(c.StreamsProgram, ", ")},
			{Label: "Operational Streams", Value: strings.Join(c.StreamsOps, ", ")},
			{Label: "Action Taken", Value: workflow.ActionTakenLabel(c.ActionTaken)},
			{Label: "Response Due Date", Value: due},
			{Label: "Complaint Status", Value: workflow.StatusOfComplaintLabel(c.StatusOfComplaint)},
		}
	}
	return "", nil
}

// buildCategorizationPDF renders the report. The Urdu summary is left out
// because the core fonts cannot shape it.
func buildCategorizationPDF(rep categorizationReport) ([]byte, error) {
	c := rep.Complaint
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("")
	pdf.SetTitle("Categorization Report "+c.ComplaintCode, true)
	pdf.SetCreator(rep.OrgName, true)

	w := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetFont("Helvetica", "", 6)
		pdf.SetTextColor(107, 114, 128)
		pdf.CellFormat(0, 4, w.tr(fmt.Sprintf("Generated with %s on %s", rep.OrgName, rep.GeneratedAt.Format("2006-01-02 15:04"))), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 4, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(30, 64, 175)
	pdf.CellFormat(0, 10, "Categorization Report", "", 1, "C", false, 0, "")
	pdf.SetDrawColor(30, 64, 175)
	pdf.Line(85, pdf.GetY(), 125, pdf.GetY())
	pdf.Ln(4)

	dateReceived := ""
	if c.DateReceived != nil {
		dateReceived = c.DateReceived.Time().Format("2006-01-02")
	}
	w.section("Complaint/Feedback Details", []pdfField{
		{Label: "Complaint Code", Value: c.ComplaintCode},
		{Label: "Project", Value: c.ProjectName},
		{Label: "Source", Value: c.SourceName},
		{Label: "Type", Value: c.FeedbackTypeName},
		{Label: "Date Received", Value: dateReceived},
		{Label: "Location", Value: c.Location},
		{Label: "Summary", Value: c.SummaryEN, FullWidth: true},
	})

	input := []pdfField{
		{Label: "Contact Assessment", Value: c.ContactAssessment},
		{Label: "Feedback/Complaint Type", Value: c.FeedbackTypeName},
		{Label: "Comment", Value: c.Comment, FullWidth: true},
	}
	w.section("Categorization Input", input)

	title, specific := typeSpecificFields(c)
	if specific != nil {
		w.section(title, specific)
	}

	summary := append(input,
		pdfField{Label: "Status", Value: c.Status},
		pdfField{Label: "Informed Manager", Value: yesNo(c.InformedManager)},
		pdfField{Label: "Informed Requester", Value: yesNo(c.InformedRequester)},
	)
	w.section("Categorization Summary", summary)

	if pdf.GetY() > 240 {
		pdf.AddPage()
	}
	pdf.Ln(12)
	y := pdf.GetY()
	pdf.SetDrawColor(30, 64, 175)
	pdf.Line(140, y, 200, y)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(26, 32, 44)
	pdf.SetXY(140, y+2)
	pdf.CellFormat(60, 4, "Categorization Officer Signature", "", 2, "L", false, 0, "")
	pdf.CellFormat(60, 4, w.tr("Name: "+orNA(rep.OfficerName)), "", 1, "L", false, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// categorizingOfficer returns the name on the latest categorization log entry.
func (h *Handler) categorizingOfficer(r *http.Request, c *models.Complaint) string {
	var name string
	h.db.WithContext(r.Context()).Table("complaint_logs AS l").
		Select("u.name").
		Joins("JOIN users u ON u.id = l.user_id").
		Where("l.complaint_id = ? AND l.action = ?", c.ID, "Categorized/Processed Complaint").
		Order("l.created_at DESC").
		Limit(1).
		Scan(&name)
	return name
}

// CategorizationPDF serves the categorization report of one complaint.
func (h *Handler) CategorizationPDF(w http.ResponseWriter, r *http.Request) {
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
	if c.FeedbackTypeID == nil {
		utils.WriteError(w, http.StatusConflict, "Complaint has not been categorized yet")
		return
	}

	data, err := buildCategorizationPDF(categorizationReport{
		Complaint:   toDetail(c),
		OfficerName: h.categorizingOfficer(r, c),
		OrgName:     h.orgName,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		serverError(w, "categorization pdf", err)
		return
	}

	filename := sanitizeFilename(fmt.Sprintf("categorization_%s.pdf", c.ComplaintCode))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
