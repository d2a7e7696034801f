package handlers

import (
	"log"
	"net/http"
	"time"

	"p9e.in/fcrm/middleware"
	"p9e.in/fcrm/models"
	"p9e.in/fcrm/pkg/cache"
	"p9e.in/fcrm/pkg/workflow"
	"p9e.in/fcrm/utils"
)

const dashboardTTL = 30 * time.Second

// dashboardStats is the organisation-wide part of the dashboard. It is the
// same for every caller and therefore cacheable.
type dashboardStats struct {
	Total    int64              `json:"total"`
	Open     int64              `json:"open"`
	ByStatus []utils.LabelCount `json:"by_status"`
	ByType   []utils.LabelCount `json:"by_type"`
	Charts   []utils.ChartData  `json:"charts"`
}

func (h *Handler) globalStats(r *http.Request) (*dashboardStats, error) {
	ctx := r.Context()
	var stats dashboardStats
	if found, err := h.cache.Get(ctx, cache.DashboardKey, &stats); err != nil {
		log.Printf("⚠️  dashboard cache read failed: %v", err)
	} else if found {
		return &stats, nil
	}

	db := h.db.WithContext(ctx)
	if err := db.Model(&models.Complaint{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Complaint{}).Where("status <> ?", workflow.StatusClosed).Count(&stats.Open).Error; err != nil {
		return nil, err
	}

	stats.ByStatus = []utils.LabelCount{}
	if err := db.Model(&models.Complaint{}).
		Select("status AS label, COUNT(*) AS count").
		Group("status").Order("status").
		Scan(&stats.ByStatus).Error; err != nil {
		return nil, err
	}

	stats.ByType = []utils.LabelCount{}
	if err := db.Table("complaints AS c").
		Select("COALESCE(ft.name, 'Uncategorized') AS label, COUNT(*) AS count").
		Joins("LEFT JOIN feedback_types ft ON ft.id = c.feedback_type_id").
		Group("ft.name").Order("label").
		Scan(&stats.ByType).Error; err != nil {
		return nil, err
	}

	var byProject []utils.LabelCount
	if err := db.Table("complaints AS c").
		Select("COALESCE(p.name, 'Unassigned') AS label, COUNT(*) AS count").
		Joins("LEFT JOIN feedback_projects p ON p.id = c.project_id").
		Group("p.name").Order("count DESC").
		Scan(&byProject).Error; err != nil {
		return nil, err
	}

	stats.Charts = []utils.ChartData{
		utils.BuildChart("doughnut", "Complaints by Status", stats.ByStatus),
		utils.BuildChart("pie", "Complaints by Type", stats.ByType),
		utils.BuildChart("bar", "Complaints by Project", byProject),
	}

	if err := h.cache.Set(ctx, cache.DashboardKey, stats, dashboardTTL); err != nil {
		log.Printf("⚠️  dashboard cache write failed: %v", err)
	}
	return &stats, nil
}

// Dashboard returns complaint counts and charts. Callers without
// dashboard:view only get the number of complaints they registered.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var mine int64
	if err := h.db.WithContext(r.Context()).Model(&models.Complaint{}).
		Where("created_by = ?", user.ID).Count(&mine).Error; err != nil {
		serverError(w, "dashboard own count", err)
		return
	}
	if !user.HasPermission("dashboard:view") {
		utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"my_complaints": mine})
		return
	}

	stats, err := h.globalStats(r)
	if err != nil {
		serverError(w, "dashboard stats", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total":         stats.Total,
		"my_complaints": mine,
		"open":          stats.Open,
		"by_status":     stats.ByStatus,
		"by_type":       stats.ByType,
		"charts":        stats.Charts,
	})
}

// invalidateDashboard drops the cached organisation stats after a write.
func (h *Handler) invalidateDashboard(r *http.Request) {
	if err := h.cache.Delete(r.Context(), cache.DashboardKey); err != nil {
		log.Printf("⚠️  dashboard cache invalidation failed: %v", err)
	}
}
