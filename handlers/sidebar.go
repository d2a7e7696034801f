package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/fcrm/middleware"
	"p9e.in/fcrm/models"
	"p9e.in/fcrm/pkg/cache"
	"p9e.in/fcrm/utils"
)

const sidebarTTL = 10 * time.Minute

// MenuItem is one sidebar entry and the permission that unlocks it.
type MenuItem struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Path       string `json:"path"`
	Permission string `json:"permission"`
}

var menuItems = []MenuItem{
	{Key: "dashboard", Label: "Dashboard", Path: "/dashboard", Permission: "dashboard:view"},
	{Key: "register", Label: "Register Complaint", Path: "/complaints/new", Permission: "complaint:create"},
	{Key: "complaints", Label: "Complaints", Path: "/complaints", Permission: "complaint:read"},
	{Key: "my_complaints", Label: "My Complaints", Path: "/complaints/mine", Permission: "complaint:read_own"},
	{Key: "in_process", Label: "In-Process", Path: "/complaints/in-process", Permission: "complaint:update_status"},
	{Key: "closed", Label: "Closed", Path: "/complaints/closed", Permission: "complaint:close"},
	{Key: "waiting", Label: "Waiting for Response", Path: "/complaints/waiting", Permission: "complaint:assign"},
	{Key: "users", Label: "Users", Path: "/admin/users", Permission: "user:read"},
	{Key: "roles", Label: "Roles", Path: "/admin/roles", Permission: "role:read"},
	{Key: "settings", Label: "Settings", Path: "/admin/settings", Permission: "settings:manage"},
}

type sidebarPayload struct {
	Permissions []string   `json:"permissions"`
	Menu        []MenuItem `json:"menu"`
}

func buildSidebar(u *models.User) sidebarPayload {
	p := sidebarPayload{Permissions: u.PermissionNames(), Menu: []MenuItem{}}
	if p.Permissions == nil {
		p.Permissions = []string{}
	}
	for _, item := range menuItems {
		if u.HasPermission(item.Permission) {
			p.Menu = append(p.Menu, item)
		}
	}
	return p
}

// Sidebar returns the caller's permission names and the menu they unlock.
// ?userId= shows another user's sidebar and needs user:read.
func (h *Handler) Sidebar(w http.ResponseWriter, r *http.Request) {
	target := middleware.CurrentUser(r)

	if raw := strings.TrimSpace(r.URL.Query().Get("userId")); raw != "" {
		if !target.HasPermission("user:read") {
			utils.WriteError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "invalid userId")
			return
		}
		var other models.User
		err = h.db.WithContext(r.Context()).Preload("RoleModel.Permissions").First(&other, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			serverError(w, "sidebar user", err)
			return
		}
		target = &other
	}

	if target.RoleID == nil {
		utils.WriteJSON(w, http.StatusOK, buildSidebar(target))
		return
	}

	key := cache.SidebarKey(target.RoleID.String())
	var payload sidebarPayload
	found, err := h.cache.Get(r.Context(), key, &payload)
	if err != nil {
		log.Printf("⚠️  sidebar cache read failed: %v", err)
	}
	if !found {
		payload = buildSidebar(target)
		if err := h.cache.Set(r.Context(), key, payload, sidebarTTL); err != nil {
			log.Printf("⚠️  sidebar cache write failed: %v", err)
		}
	}
	utils.WriteJSON(w, http.StatusOK, payload)
}
