package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"p9e.in/fcrm/utils"
)

type registerColumn struct {
	Label string
	Width float64
	Value func(row complaintRow) interface{}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var registerSheetColumns = []registerColumn{
	{"Complaint Code", 18, func(c complaintRow) interface{} { return c.ComplaintCode }},
	{"Registered By", 22, func(c complaintRow) interface{} { return derefString(c.RegisteredBy) }},
	{"Project", 24, func(c complaintRow) interface{} { return derefString(c.ProjectName) }},
	{"Source", 16, func(c complaintRow) interface{} { return derefString(c.SourceName) }},
	{"Date Received", 14, func(c complaintRow) interface{} {
		if c.DateReceived == nil {
			return ""
		}
		return c.DateReceived.Format("2006-01-02")
	}},
	{"Created On", 20, func(c complaintRow) interface{} { return c.CreatedOn.Format("2006-01-02 15:04:05") }},
	{"Status", 14, func(c complaintRow) interface{} { return c.Status }},
	{"Anonymity", 16, func(c complaintRow) interface{} { return c.AnonymityStatus }},
}

// ExportComplaints streams the filtered complaint register as an Excel workbook.
// It accepts the same filters as ListComplaints.
func (h *Handler) ExportComplaints(w http.ResponseWriter, r *http.Request) {
	rows, _, err := h.loadRegister(r, utils.Page{})
	if err != nil {
		if errors.Is(err, errBadFilter) {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		serverError(w, "export complaints", err)
		return
	}

	f, err := createRegisterWorkbook(h.orgName+" Complaint Register", rows)
	if err != nil {
		serverError(w, "build workbook", err)
		return
	}
	defer f.Close()

	buffer, err := f.WriteToBuffer()
	if err != nil {
		serverError(w, "write workbook", err)
		return
	}

	filename := fmt.Sprintf("%s_%s.xlsx", sanitizeFilename("complaints"), time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}

// createRegisterWorkbook lays out a title, generation time, the register table
// from row 4 and a per-status summary below it.
func createRegisterWorkbook(title string, rows []complaintRow) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Complaints"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	f.SetCellValue(sheetName, "A1", title)
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.SetRowHeight(sheetName, 1, 30)
	f.SetCellValue(sheetName, "A2", fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05")))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for colIdx, col := range registerSheetColumns {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 4)
		f.SetCellValue(sheetName, cell, col.Label)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
		letter := columnIndexToLetter(colIdx + 1)
		f.SetColWidth(sheetName, letter, letter, col.Width)
	}

	dataStyle, _ := f.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "CCCCCC", Style: 1},
			{Type: "right", Color: "CCCCCC", Style: 1},
			{Type: "top", Color: "CCCCCC", Style: 1},
			{Type: "bottom", Color: "CCCCCC", Style: 1},
		},
	})
	byStatus := map[string]int{}
	for rowIdx, row := range rows {
		for colIdx, col := range registerSheetColumns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+5)
			f.SetCellValue(sheetName, cell, col.Value(row))
			f.SetCellStyle(sheetName, cell, cell, dataStyle)
		}
		byStatus[row.Status]++
	}

	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E7E6E6"}, Pattern: 1},
	})
	summaryRow := len(rows) + 7
	cell, _ := excelize.CoordinatesToCellName(1, summaryRow)
	f.SetCellValue(sheetName, cell, "Summary")
	f.SetCellStyle(sheetName, cell, cell, summaryStyle)
	summaryRow++

	totalCell, _ := excelize.CoordinatesToCellName(1, summaryRow)
	totalValue, _ := excelize.CoordinatesToCellName(2, summaryRow)
	f.SetCellValue(sheetName, totalCell, "Total")
	f.SetCellValue(sheetName, totalValue, len(rows))
	summaryRow++

	statuses := make([]string, 0, len(byStatus))
	for s := range byStatus {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		keyCell, _ := excelize.CoordinatesToCellName(1, summaryRow)
		valueCell, _ := excelize.CoordinatesToCellName(2, summaryRow)
		f.SetCellValue(sheetName, keyCell, s)
		f.SetCellValue(sheetName, valueCell, byStatus[s])
		summaryRow++
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// sanitizeFilename replaces characters that are invalid in file names.
func sanitizeFilename(filename string) string {
	replacements := map[rune]rune{
		'/':  '_',
		'\\': '_',
		':':  '_',
		'*':  '_',
		'?':  '_',
		'"':  '_',
		'<':  '_',
		'>':  '_',
		'|':  '_',
		' ':  '_',
	}

	result := make([]rune, 0, len(filename))
	for _, char := range filename {
		if replacement, exists := replacements[char]; exists {
			result = append(result, replacement)
		} else {
			result = append(result, char)
		}
	}
	return string(result)
}

// columnIndexToLetter converts 1 to "A", 27 to "AA".
func columnIndexToLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+(col%26))) + result
		col /= 26
	}
	return result
}
