package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"p9e.in/fcrm/models"
	"p9e.in/fcrm/pkg/cache"
)

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.createComplaint(env.citizen, nil)
	closed := env.createComplaint(env.officer, nil)
	rec := env.do(http.MethodPost, "/api/feedback/"+closed+"/categorize", map[string]interface{}{
		"feedbackTypeId": 2, "comment": "thanks",
	}, env.officer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	t.Run("citizen sees own count only", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/dashboard", nil, env.citizen)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.EqualValues(t, 1, body["my_complaints"])
		assert.NotContains(t, body, "total")
	})

	t.Run("officer sees organisation stats", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/dashboard", nil, env.officer)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Total        int64 `json:"total"`
			Open         int64 `json:"open"`
			MyComplaints int64 `json:"my_complaints"`
			ByStatus     []struct {
				Label string `json:"label"`
				Count int64  `json:"count"`
			} `json:"by_status"`
			ByType []struct {
				Label string `json:"label"`
				Count int64  `json:"count"`
			} `json:"by_type"`
			Charts []struct {
				Type string `json:"type"`
			} `json:"charts"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

		assert.Equal(t, int64(2), body.Total)
		assert.Equal(t, int64(1), body.Open)
		assert.Equal(t, int64(1), body.MyComplaints)
		require.Len(t, body.ByStatus, 2)
		assert.Equal(t, "closed", body.ByStatus[0].Label)
		assert.Equal(t, "new", body.ByStatus[1].Label)
		require.Len(t, body.ByType, 2)
		assert.Equal(t, "Positive Feedback", body.ByType[0].Label)
		assert.Equal(t, "Uncategorized", body.ByType[1].Label)
		require.Len(t, body.Charts, 3)
		assert.Equal(t, "doughnut", body.Charts[0].Type)
	})
}

func TestDashboard_CacheInvalidatedOnWrite(t *testing.T) {
	env := newTestEnv(t)
	env.createComplaint(env.officer, nil)

	total := func() float64 {
		rec := env.do(http.MethodGet, "/api/dashboard", nil, env.officer)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode(t, rec)["total"].(float64)
	}

	assert.Equal(t, float64(1), total())
	require.True(t, env.cache.has(cache.DashboardKey))

	// rows written behind the handlers' back are not seen until the next write
	require.NoError(t, env.db.Create(&models.Complaint{
		ComplaintCode: "CMP-0000ABCD", Status: "new", SummaryEN: "direct", CreatedBy: env.admin.ID,
	}).Error)
	assert.Equal(t, float64(1), total())

	env.createComplaint(env.citizen, nil)
	assert.False(t, env.cache.has(cache.DashboardKey))
	assert.Equal(t, float64(3), total())
}

func TestCategorizationPDF(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.officer, map[string]interface{}{
		"project": 1, "summary_en": "Teacher absent for two weeks", "date_received": "2025-07-14",
	})

	rec := env.do(http.MethodGet, "/api/feedback/"+id+"/pdf", nil, env.officer)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/api/feedback/"+id+"/categorize", map[string]interface{}{
		"feedbackTypeId":     4,
		"comment":            "Referred to the committee",
		"statusOfComplaint":  "to_crc",
		"actionTaken":        "to_crc",
		"streamsProgram":     []string{"education"},
		"streamsOperational": []string{"hr"},
	}, env.officer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/feedback/"+id+"/pdf", nil, env.officer)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), env.complaint(id).ComplaintCode)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestCategorizationPDF_Forbidden(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(env.citizen, nil)

	rec := env.do(http.MethodGet, "/api/feedback/"+id+"/pdf", nil, env.citizen)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExportComplaints(t *testing.T) {
	env := newTestEnv(t)
	first := env.createComplaint(env.officer, map[string]interface{}{"project": 1, "source": 2, "date_received": "2025-07-01"})
	env.createComplaint(env.officer, map[string]interface{}{"anonymous": true})

	rec := env.do(http.MethodGet, "/api/feedback/export", nil, env.officer)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasSuffix(rec.Header().Get("Content-Disposition"), ".xlsx"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Complaints"}, f.GetSheetList())
	get := func(cell string) string {
		v, err := f.GetCellValue("Complaints", cell)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Test Org Complaint Register", get("A1"))
	assert.Equal(t, "Complaint Code", get("A4"))
	assert.Equal(t, "Anonymity", get("H4"))

	codes := []string{get("A5"), get("A6")}
	assert.Contains(t, codes, env.complaint(first).ComplaintCode)
	assert.Equal(t, "Summary", get("A9"))
	assert.Equal(t, "Total", get("A10"))
	assert.Equal(t, "2", get("B10"))
}

func TestExportComplaints_Filtered(t *testing.T) {
	env := newTestEnv(t)
	env.createComplaint(env.officer, map[string]interface{}{"project": 1})
	env.createComplaint(env.officer, map[string]interface{}{"project": 2})

	rec := env.do(http.MethodGet, "/api/feedback/export?project=Health+Outreach", nil, env.officer)
	require.Equal(t, http.StatusOK, rec.Code)

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	project, err := f.GetCellValue("Complaints", "C5")
	require.NoError(t, err)
	assert.Equal(t, "Health Outreach", project)
	empty, err := f.GetCellValue("Complaints", "A6")
	require.NoError(t, err)
	assert.Empty(t, empty)

	rec = env.do(http.MethodGet, "/api/feedback/export?status=lost", nil, env.officer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/feedback/export", nil, env.citizen)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type featureCollection struct {
	Type     string `json:"type"`
	Features []struct {
		ID         string                 `json:"id"`
		Properties map[string]interface{} `json:"properties"`
		Geometry   struct {
			Type        string    `json:"type"`
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

func TestComplaintMap(t *testing.T) {
	env := newTestEnv(t)
	located := env.createComplaint(env.officer, map[string]interface{}{
		"project": 3, "latitude": 31.5204, "longitude": 74.3587, "location": "Lahore",
	})
	env.createComplaint(env.officer, nil)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"all located complaints", "", 1},
		{"bbox containing the point", "?bbox=74,31,75,32", 1},
		{"bbox elsewhere", "?bbox=0,0,1,1", 0},
		{"status filter", "?status=closed", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/api/feedback/map"+tt.query, nil, env.officer)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

			var fc featureCollection
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
			assert.Equal(t, "FeatureCollection", fc.Type)
			assert.Len(t, fc.Features, tt.want)
		})
	}

	rec := env.do(http.MethodGet, "/api/feedback/map", nil, env.officer)
	var fc featureCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	require.Len(t, fc.Features, 1)
	feature := fc.Features[0]
	assert.Equal(t, located, feature.ID)
	assert.Equal(t, "Point", feature.Geometry.Type)
	assert.InDeltaSlice(t, []float64{74.3587, 31.5204}, feature.Geometry.Coordinates, 1e-9)
	assert.Equal(t, "Livelihoods", feature.Properties["project_name"])
	assert.Equal(t, "Lahore", feature.Properties["location"])
	assert.Equal(t, "new", feature.Properties["status"])
}

func TestComplaintMap_BadBBox(t *testing.T) {
	env := newTestEnv(t)

	for _, bbox := range []string{"1,2,3", "a,b,c,d", "10,10,0,0", "0,0,200,1"} {
		rec := env.do(http.MethodGet, "/api/feedback/map?bbox="+bbox, nil, env.officer)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bbox)
	}
}

func TestComplaintMap_CitizenScope(t *testing.T) {
	env := newTestEnv(t)
	env.createComplaint(env.officer, map[string]interface{}{"latitude": 31.5, "longitude": 74.3})
	mine := env.createComplaint(env.citizen, map[string]interface{}{"latitude": 31.6, "longitude": 74.4})

	rec := env.do(http.MethodGet, "/api/feedback/map", nil, env.citizen)

	require.Equal(t, http.StatusOK, rec.Code)
	var fc featureCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	require.Len(t, fc.Features, 1)
	assert.Equal(t, mine, fc.Features[0].ID)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/healthz", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestSwaggerDoc(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/swagger/doc.json", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "/api", body["basePath"])
	assert.Contains(t, body["paths"], "/feedback/{id}/categorize")
}
