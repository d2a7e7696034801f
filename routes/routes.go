package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/swaggo/swag"
	"gorm.io/gorm"

	_ "p9e.in/fcrm/docs"
	"p9e.in/fcrm/handlers"
	"p9e.in/fcrm/middleware"
	"p9e.in/fcrm/utils"
)

// Options configures the router.
type Options struct {
	// UploadDir is served under /uploads/ when attachments are stored locally.
	// Empty disables the file server.
	UploadDir string
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(h *handlers.Handler, db *gorm.DB, opts Options) *mux.Router {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/healthz", healthz(db)).Methods("GET")
	r.HandleFunc("/swagger/doc.json", swaggerDoc).Methods("GET")
	r.HandleFunc("/api/auth/login", h.Login).Methods("POST")
	r.HandleFunc("/api/auth/logout", h.Logout).Methods("POST")
	if opts.UploadDir != "" {
		r.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadDir))),
		)
	}

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTMiddleware)
	api.Use(middleware.LoadUser(db))

	api.HandleFunc("/me", h.Me).Methods("GET")
	api.HandleFunc("/sidebar", h.Sidebar).Methods("GET")
	api.HandleFunc("/dashboard", h.Dashboard).Methods("GET")

	registerComplaintRoutes(api, h)
	registerAdminRoutes(api, h)

	return r
}

func protect(h http.HandlerFunc, permissions ...string) http.Handler {
	return middleware.RequireAnyPermission(permissions...)(h)
}

// registerComplaintRoutes registers intake, query and workflow routes. Fixed
// paths are registered before the {id} routes.
func registerComplaintRoutes(api *mux.Router, h *handlers.Handler) {
	read := []string{"complaint:read", "complaint:read_own"}

	fb := api.PathPrefix("/feedback").Subrouter()
	fb.Handle("", protect(h.ListComplaints, read...)).Methods("GET")
	fb.Handle("", protect(h.CreateComplaint, "complaint:create")).Methods("POST")
	fb.Handle("/create", protect(h.CreateComplaintJSON, "complaint:create")).Methods("POST")
	fb.Handle("/in-process", protect(h.InProcessComplaints, "complaint:read")).Methods("GET")
	fb.Handle("/meta", protect(h.Meta, "complaint:create", "complaint:read", "complaint:categorize")).Methods("GET")
	fb.Handle("/export", protect(h.ExportComplaints, "complaint:export")).Methods("GET")
	fb.Handle("/map", protect(h.ComplaintMap, read...)).Methods("GET")
	fb.Handle("/resolve", protect(h.Resolve, "complaint:resolve")).Methods("POST")

	item := fb.PathPrefix("/{id:" + utils.UUIDPattern + "}").Subrouter()
	item.Handle("", protect(h.GetComplaint, read...)).Methods("GET")
	item.Handle("/logs", protect(h.GetComplaintLogs, read...)).Methods("GET")
	item.Handle("/status", protect(h.UpdateStatus, "complaint:update_status")).Methods("PUT", "PATCH")
	item.Handle("/categorize", protect(h.Categorize, "complaint:categorize")).Methods("POST")
	item.Handle("/assign", protect(h.Assign, "complaint:assign")).Methods("PATCH")
	item.Handle("/pdf", protect(h.CategorizationPDF, "complaint:read", "complaint:export")).Methods("GET")

	c := api.PathPrefix("/complaints/{id:" + utils.UUIDPattern + "}").Subrouter()
	c.Handle("/close", protect(h.Close, "complaint:close")).Methods("POST")
	c.Handle("/progress", protect(h.Progress, "complaint:update_status")).Methods("POST")
}

// registerAdminRoutes registers user, role and permission management.
func registerAdminRoutes(api *mux.Router, h *handlers.Handler) {
	api.Handle("/users", protect(h.ListUsers, "user:read")).Methods("GET")
	api.Handle("/users", protect(h.CreateUser, "user:create")).Methods("POST")
	api.Handle("/users/{id}", protect(h.UpdateUser, "user:update")).Methods("PUT")
	api.Handle("/users/{id}", protect(h.DeleteUser, "user:delete")).Methods("DELETE")

	api.Handle("/roles", protect(h.ListRoles, "role:read")).Methods("GET")
	api.Handle("/roles", protect(h.CreateRole, "role:create")).Methods("POST")
	api.Handle("/roles/create", protect(h.CreateRole, "role:create")).Methods("POST")
	api.Handle("/roles/{id}/permissions", protect(h.GetRolePermissions, "role:read")).Methods("GET")
	api.Handle("/roles/{id}/permissions", protect(h.SetRolePermissions, "role:update")).Methods("POST", "PUT")

	api.Handle("/permissions", protect(h.ListPermissions, "permission:read")).Methods("GET")
}

func healthz(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func swaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}
