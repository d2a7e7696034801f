package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p9e.in/fcrm/config"
	"p9e.in/fcrm/models"
	"p9e.in/fcrm/pkg/cache"
)

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"default role", map[string]string{"name": "Zara", "email": "zara@example.org", "password": "secret123"}, http.StatusCreated},
		{"named role", map[string]string{"name": "Omar", "email": "omar@example.org", "password": "secret123", "role": models.RoleFCMUser}, http.StatusCreated},
		{"duplicate email", map[string]string{"name": "Dup", "email": "OFFICER@example.org", "password": "secret123"}, http.StatusConflict},
		{"unknown role", map[string]string{"name": "X", "email": "x@example.org", "password": "secret123", "role": "wizard"}, http.StatusBadRequest},
		{"bad role id", map[string]string{"name": "Y", "email": "y@example.org", "password": "secret123", "role_id": "nope"}, http.StatusBadRequest},
		{"missing password", map[string]string{"name": "Z", "email": "z@example.org"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/users", tt.body, env.admin)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	rec := env.do(http.MethodGet, "/api/users", nil, env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	roles := map[string]string{}
	for _, u := range decode(t, rec)["users"].([]interface{}) {
		row := u.(map[string]interface{})
		roles[row["email"].(string)] = row["role"].(string)
	}
	assert.Equal(t, models.RoleRegisteredUser, roles["zara@example.org"])
	assert.Equal(t, models.RoleFCMUser, roles["omar@example.org"])
	assert.Len(t, roles, 5)
}

func TestUsers_RequireAdminPermissions(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/users", nil, env.officer).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/users",
		map[string]string{"name": "a", "email": "a@example.org", "password": "p"}, env.citizen).Code)
}

func TestUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/users/" + env.citizen.ID.String()

	rec := env.do(http.MethodPut, path, map[string]interface{}{
		"name":     "Citizen Two",
		"password": "newpass99",
		"role":     models.RoleFCMUser,
	}, env.admin)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Citizen Two", body["name"])
	assert.Equal(t, models.RoleFCMUser, body["role"])

	login := env.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "citizen@example.org", "password": "newpass99",
	}, nil)
	assert.Equal(t, http.StatusOK, login.Code)

	rec = env.do(http.MethodPut, path, map[string]string{"email": "officer@example.org"}, env.admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPut, "/api/users/"+uuid.NewString(), map[string]string{"name": "ghost"}, env.admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodDelete, "/api/users/"+env.admin.ID.String(), nil, env.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodDelete, "/api/users/"+env.citizen.ID.String(), nil, env.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "User deactivated", decode(t, rec)["message"])

	var u models.User
	require.NoError(t, env.db.First(&u, "id = ?", env.citizen.ID).Error)
	assert.False(t, u.IsActive)

	login := env.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "citizen@example.org", "password": testPassword,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, login.Code)

	rec = env.do(http.MethodGet, "/api/users", nil, env.admin)
	assert.Len(t, decode(t, rec)["users"], 2)
	rec = env.do(http.MethodGet, "/api/users?include_inactive=true", nil, env.admin)
	assert.Len(t, decode(t, rec)["users"], 3)

	rec = env.do(http.MethodDelete, "/api/users/"+uuid.NewString(), nil, env.admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRole(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/roles", map[string]string{"name": "auditor", "description": "Read only"}, env.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	role := decode(t, rec)["role"].(map[string]interface{})
	assert.Equal(t, "auditor", role["name"])
	assert.Empty(t, role["permissions"])

	rec = env.do(http.MethodPost, "/api/roles/create", map[string]string{"name": "auditor"}, env.admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/api/roles/create", map[string]string{"name": "  "}, env.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Role name is required", decode(t, rec)["error"])

	rec = env.do(http.MethodGet, "/api/roles", nil, env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["roles"], 4)
}

func permissionIDs(t *testing.T, env *testEnv, names ...string) []string {
	t.Helper()
	var ids []uuid.UUID
	require.NoError(t, env.db.Model(&models.Permission{}).Where("name IN ?", names).Pluck("id", &ids).Error)
	require.Len(t, ids, len(names))
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func assignedPermissions(t *testing.T, env *testEnv, roleID string) []string {
	t.Helper()
	rec := env.do(http.MethodGet, "/api/roles/"+roleID+"/permissions", nil, env.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rows []struct {
		Name     string `json:"name"`
		Assigned int    `json:"assigned"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	var names []string
	for _, row := range rows {
		if row.Assigned == 1 {
			names = append(names, row.Name)
		}
	}
	return names
}

func TestRolePermissions(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/api/roles", map[string]string{"name": "auditor"}, env.admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	roleID := decode(t, rec)["role"].(map[string]interface{})["id"].(string)
	assert.Empty(t, assignedPermissions(t, env, roleID))

	// Act: bare array
	rec = env.do(http.MethodPost, "/api/roles/"+roleID+"/permissions",
		permissionIDs(t, env, "complaint:read", "dashboard:view"), env.admin)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, decode(t, rec)["count"])
	assert.ElementsMatch(t, []string{"complaint:read", "dashboard:view"}, assignedPermissions(t, env, roleID))

	// Act: object form replaces the set
	rec = env.do(http.MethodPut, "/api/roles/"+roleID+"/permissions", map[string]interface{}{
		"permissionIds": permissionIDs(t, env, "complaint:export"),
	}, env.admin)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"complaint:export"}, assignedPermissions(t, env, roleID))
}

func TestRolePermissions_Errors(t *testing.T) {
	env := newTestEnv(t)
	roleID := env.officer.RoleID.String()

	tests := []struct {
		name string
		path string
		body interface{}
		want int
	}{
		{"unknown permission", "/api/roles/" + roleID + "/permissions", []string{uuid.NewString()}, http.StatusBadRequest},
		{"missing permissionIds", "/api/roles/" + roleID + "/permissions", map[string]string{}, http.StatusBadRequest},
		{"malformed body", "/api/roles/" + roleID + "/permissions", "[1,2", http.StatusBadRequest},
		{"unknown role", "/api/roles/" + uuid.NewString() + "/permissions", []string{}, http.StatusNotFound},
		{"invalid role id", "/api/roles/abc/permissions", []string{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, tt.path, tt.body, env.admin)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
	assert.Len(t, assignedPermissions(t, env, roleID), 9)
}

func TestListPermissions(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/permissions", nil, env.admin)

	require.Equal(t, http.StatusOK, rec.Code)
	perms := decode(t, rec)["permissions"].([]interface{})
	assert.NotEmpty(t, perms)
	first := perms[0].(map[string]interface{})
	assert.Equal(t, "Administration", first["section"])

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/permissions", nil, env.officer).Code)
}

func menuKeys(t *testing.T, body []byte) []string {
	t.Helper()
	var payload struct {
		Menu []struct {
			Key string `json:"key"`
		} `json:"menu"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	keys := make([]string, 0, len(payload.Menu))
	for _, m := range payload.Menu {
		keys = append(keys, m.Key)
	}
	return keys
}

func TestSidebar(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/sidebar", nil, env.citizen)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"register", "my_complaints"}, menuKeys(t, rec.Body.Bytes()))

	rec = env.do(http.MethodGet, "/api/sidebar", nil, env.officer)
	require.Equal(t, http.StatusOK, rec.Code)
	keys := menuKeys(t, rec.Body.Bytes())
	assert.Contains(t, keys, "dashboard")
	assert.Contains(t, keys, "in_process")
	assert.NotContains(t, keys, "users")

	rec = env.do(http.MethodGet, "/api/sidebar", nil, env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, menuKeys(t, rec.Body.Bytes()), 10)
}

func TestSidebar_RefreshesAfterRolePermissionChange(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/api/roles", map[string]string{"name": "auditor"}, env.admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	roleID := decode(t, rec)["role"].(map[string]interface{})["id"].(string)
	auditor, err := config.CreateUser(env.db, "Auditor", "auditor@example.org", testPassword, "auditor")
	require.NoError(t, err)

	rec = env.do(http.MethodGet, "/api/sidebar", nil, auditor)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, menuKeys(t, rec.Body.Bytes()))
	require.True(t, env.cache.has(cache.SidebarKey(roleID)))

	// Act
	rec = env.do(http.MethodPut, "/api/roles/"+roleID+"/permissions", map[string]interface{}{
		"permissionIds": permissionIDs(t, env, "dashboard:view", "complaint:read"),
	}, env.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Assert
	assert.False(t, env.cache.has(cache.SidebarKey(roleID)))
	rec = env.do(http.MethodGet, "/api/sidebar", nil, auditor)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"dashboard", "complaints"}, menuKeys(t, rec.Body.Bytes()))
}

func TestSidebar_OtherUser(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/sidebar?userId=" + env.officer.ID.String()

	rec := env.do(http.MethodGet, path, nil, env.citizen)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, path, nil, env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, menuKeys(t, rec.Body.Bytes()), "users")

	rec = env.do(http.MethodGet, "/api/sidebar?userId=nope", nil, env.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/sidebar?userId="+uuid.NewString(), nil, env.admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
