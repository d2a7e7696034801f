package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"p9e.in/fcrm/models"
	"p9e.in/fcrm/pkg/cache"
	"p9e.in/fcrm/utils"
)

type createRoleReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type roleResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	Permissions []string  `json:"permissions"`
}

type permissionResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Section     string    `json:"section"`
	Description string    `json:"description"`
	Resource    string    `json:"resource"`
	Action      string    `json:"action"`
}

// ListRoles returns {roles} with their permission names.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	var roles []models.Role
	if err := h.db.WithContext(r.Context()).
		Preload("Permissions").
		Order("name ASC").
		Find(&roles).Error; err != nil {
		serverError(w, "list roles", err)
		return
	}

	out := make([]roleResponse, len(roles))
	for i, role := range roles {
		out[i] = roleResponse{
			ID:          role.ID,
			Name:        role.Name,
			Description: role.Description,
			IsActive:    role.IsActive,
			Permissions: role.PermissionNames(),
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"roles": out})
}

// CreateRole adds an empty role. Served on both /api/roles and /api/roles/create.
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleReq
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.WriteError(w, http.StatusBadRequest, "Role name is required")
		return
	}

	db := h.db.WithContext(r.Context())
	var exists int64
	if err := db.Model(&models.Role{}).Where("name = ?", name).Count(&exists).Error; err != nil {
		serverError(w, "check role", err)
		return
	}
	if exists > 0 {
		utils.WriteError(w, http.StatusConflict, "Role already exists")
		return
	}

	role := models.Role{Name: name, Description: strings.TrimSpace(req.Description), IsActive: true}
	if err := db.Create(&role).Error; err != nil {
		serverError(w, "create role", err)
		return
	}
	log.Printf("✅ Created role '%s'", role.Name)
	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Role created successfully",
		"role": roleResponse{
			ID:          role.ID,
			Name:        role.Name,
			Description: role.Description,
			IsActive:    role.IsActive,
			Permissions: []string{},
		},
	})
}

type rolePermissionRow struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Section     string    `json:"section"`
	Description string    `json:"description"`
	Assigned    int       `json:"assigned"`
}

func (h *Handler) roleFromPath(r *http.Request) (*models.Role, int, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("invalid role ID")
	}
	var role models.Role
	if err := h.db.WithContext(r.Context()).First(&role, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, http.StatusNotFound, errors.New("role not found")
		}
		return nil, http.StatusInternalServerError, err
	}
	return &role, http.StatusOK, nil
}

// GetRolePermissions lists every permission with assigned=1 for those the role holds.
func (h *Handler) GetRolePermissions(w http.ResponseWriter, r *http.Request) {
	role, status, err := h.roleFromPath(r)
	if err != nil {
		utils.WriteError(w, status, err.Error())
		return
	}

	rows := []rolePermissionRow{}
	if err := h.db.WithContext(r.Context()).Table("permissions AS p").
		Select("p.id, p.name, p.section, p.description, CASE WHEN rp.role_id IS NULL THEN 0 ELSE 1 END AS assigned").
		Joins("LEFT JOIN role_permissions rp ON rp.permission_id = p.id AND rp.role_id = ?", role.ID).
		Order("p.section ASC, p.name ASC").
		Scan(&rows).Error; err != nil {
		serverError(w, "role permissions", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

type updateRolePermissionsReq struct {
	PermissionIDs []uuid.UUID `json:"permissionIds"`
}

// decodePermissionIDs accepts a bare JSON array (POST) or {permissionIds} (PUT).
func decodePermissionIDs(r *http.Request) ([]uuid.UUID, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var ids []uuid.UUID
		err := json.Unmarshal(body, &ids)
		return ids, err
	}
	var req updateRolePermissionsReq
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	if req.PermissionIDs == nil {
		return nil, errors.New("permissionIds is required")
	}
	return req.PermissionIDs, nil
}

// SetRolePermissions replaces the role's permission set in one transaction.
func (h *Handler) SetRolePermissions(w http.ResponseWriter, r *http.Request) {
	role, status, err := h.roleFromPath(r)
	if err != nil {
		utils.WriteError(w, status, err.Error())
		return
	}
	ids, err := decodePermissionIDs(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid permission IDs: "+err.Error())
		return
	}
	ids = uniqueIDs(ids)

	tx := h.db.WithContext(r.Context()).Begin()
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			panic(rec)
		}
	}()

	if len(ids) > 0 {
		var known int64
		if err := tx.Model(&models.Permission{}).Where("id IN ?", ids).Count(&known).Error; err != nil {
			tx.Rollback()
			serverError(w, "check permissions", err)
			return
		}
		if int(known) != len(ids) {
			tx.Rollback()
			utils.WriteError(w, http.StatusBadRequest, "unknown permission ID")
			return
		}
	}

	if err := tx.Where("role_id = ?", role.ID).Delete(&models.RolePermission{}).Error; err != nil {
		tx.Rollback()
		serverError(w, "clear role permissions", err)
		return
	}
	now := time.Now()
	for _, pid := range ids {
		rp := models.RolePermission{RoleID: role.ID, PermissionID: pid, CreatedAt: now}
		if err := tx.Create(&rp).Error; err != nil {
			tx.Rollback()
			serverError(w, "assign role permission", err)
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		serverError(w, "commit role permissions", err)
		return
	}

	if err := h.cache.Delete(r.Context(), cache.SidebarKey(role.ID.String())); err != nil {
		log.Printf("⚠️  sidebar cache invalidation failed for role %s: %v", role.Name, err)
	}
	log.Printf("✅ Role '%s' now has %d permission(s)", role.Name, len(ids))
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Permissions updated successfully",
		"count":   len(ids),
	})
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// ListPermissions returns the permission catalogue ordered by section and name.
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	var permissions []models.Permission
	if err := h.db.WithContext(r.Context()).Order("section ASC, name ASC").Find(&permissions).Error; err != nil {
		serverError(w, "list permissions", err)
		return
	}

	out := make([]permissionResponse, len(permissions))
	for i, perm := range permissions {
		out[i] = permissionResponse{
			ID:          perm.ID,
			Name:        perm.Name,
			Section:     perm.Section,
			Description: perm.Description,
			Resource:    perm.Resource,
			Action:      perm.Action,
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"permissions": out})
}
