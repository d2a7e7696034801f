package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"p9e.in/fcrm/config"
	"p9e.in/fcrm/middleware"
	"p9e.in/fcrm/models"
	"p9e.in/fcrm/utils"
)

type userRow struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	RoleID    *uuid.UUID `json:"role_id"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

func toUserRow(u models.User) userRow {
	return userRow{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		RoleID:    u.RoleID,
		Role:      u.RoleName(),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// ListUsers returns {users}. Deactivated users are hidden unless include_inactive=true.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := h.db.WithContext(r.Context()).Preload("RoleModel").Order("name ASC")
	if r.URL.Query().Get("include_inactive") != "true" {
		q = q.Where("is_active = ?", true)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		serverError(w, "list users", err)
		return
	}
	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, toUserRow(u))
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": rows})
}

type createUserReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	RoleID   string `json:"role_id"`
}

// resolveRoleName turns a role name or role id into a role name. An empty
// request yields the default registered_user role.
func (h *Handler) resolveRoleName(r *http.Request, name, id string) (string, error) {
	if id = strings.TrimSpace(id); id != "" {
		roleID, err := uuid.Parse(id)
		if err != nil {
			return "", config.ErrRoleNotFound
		}
		var role models.Role
		if err := h.db.WithContext(r.Context()).First(&role, "id = ?", roleID).Error; err != nil {
			return "", config.ErrRoleNotFound
		}
		return role.Name, nil
	}
	if name = strings.TrimSpace(name); name != "" {
		return name, nil
	}
	return models.RoleRegisteredUser, nil
}

// CreateUser adds an account. Duplicate emails are rejected with 409.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserReq
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		utils.WriteError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}
	roleName, err := h.resolveRoleName(r, req.Role, req.RoleID)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "unknown role")
		return
	}

	u, err := config.CreateUser(h.db.WithContext(r.Context()), strings.TrimSpace(req.Name), req.Email, req.Password, roleName)
	switch {
	case errors.Is(err, config.ErrEmailTaken):
		utils.WriteError(w, http.StatusConflict, "a user with this email already exists")
		return
	case errors.Is(err, config.ErrRoleNotFound):
		utils.WriteError(w, http.StatusBadRequest, "unknown role")
		return
	case err != nil:
		serverError(w, "create user", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, toUserRow(*u))
}

type updateUserReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	RoleID   string `json:"role_id"`
	IsActive *bool  `json:"is_active"`
}

// UpdateUser changes the given fields. Empty strings leave a field unchanged.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	var req updateUserReq
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	db := h.db.WithContext(r.Context())
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		serverError(w, "load user", err)
		return
	}

	if v := strings.TrimSpace(req.Name); v != "" {
		user.Name = v
	}
	if v := strings.ToLower(strings.TrimSpace(req.Email)); v != "" && v != user.Email {
		var taken int64
		if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", v, user.ID).Count(&taken).Error; err != nil {
			serverError(w, "check email", err)
			return
		}
		if taken > 0 {
			utils.WriteError(w, http.StatusConflict, "a user with this email already exists")
			return
		}
		user.Email = v
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			serverError(w, "hash password", err)
			return
		}
		user.PasswordHash = string(hash)
	}
	if req.Role != "" || req.RoleID != "" {
		roleName, err := h.resolveRoleName(r, req.Role, req.RoleID)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "unknown role")
			return
		}
		var role models.Role
		if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
			utils.WriteError(w, http.StatusBadRequest, "unknown role")
			return
		}
		user.RoleID = &role.ID
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := db.Omit("RoleModel").Save(&user).Error; err != nil {
		serverError(w, "update user", err)
		return
	}
	if err := db.Preload("RoleModel").First(&user, "id = ?", user.ID).Error; err != nil {
		serverError(w, "reload user", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toUserRow(user))
}

// DeleteUser deactivates an account. Users cannot deactivate themselves.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	if current := middleware.CurrentUser(r); current != nil && current.ID == id {
		utils.WriteError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	res := h.db.WithContext(r.Context()).Model(&models.User{}).
		Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		serverError(w, "deactivate user", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.WriteError(w, http.StatusNotFound, "user not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "User deactivated"})
}
