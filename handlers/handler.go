package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"p9e.in/fcrm/pkg/cache"
	"p9e.in/fcrm/pkg/notify"
	"p9e.in/fcrm/pkg/storage"
	"p9e.in/fcrm/pkg/workflow"
	"p9e.in/fcrm/utils"
)

// Handler serves the HTTP API. One instance is shared by all routes.
type Handler struct {
	db        *gorm.DB
	engine    *workflow.Engine
	store     storage.AttachmentStore
	notifier  notify.Notifier
	cache     cache.Cache
	maxUpload int64
	orgName   string
}

// Options carries the optional collaborators. Zero values fall back to local
// storage in ./public/uploads, log notices and no caching.
type Options struct {
	Store          storage.AttachmentStore
	Notifier       notify.Notifier
	Cache          cache.Cache
	MaxUploadBytes int64
	OrgName        string
}

func New(db *gorm.DB, opts Options) *Handler {
	h := &Handler{
		db:        db,
		engine:    workflow.NewEngine(db),
		store:     opts.Store,
		notifier:  opts.Notifier,
		cache:     opts.Cache,
		maxUpload: opts.MaxUploadBytes,
		orgName:   opts.OrgName,
	}
	if h.store == nil {
		h.store = storage.NewLocalStore("./public/uploads", "/uploads")
	}
	if h.notifier == nil {
		h.notifier = notify.LogNotifier{}
	}
	if h.cache == nil {
		h.cache = cache.Noop{}
	}
	if h.maxUpload <= 0 {
		h.maxUpload = 50 << 20
	}
	if h.orgName == "" {
		h.orgName = "FCRM"
	}
	return h
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["id"])
}

// writeWorkflowError maps engine errors onto status codes.
func writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrComplaintNotFound):
		utils.WriteError(w, http.StatusNotFound, "Complaint not found")
	case errors.Is(err, workflow.ErrComplaintLocked):
		utils.WriteError(w, http.StatusConflict, "Complaint is closed and can no longer be changed")
	case errors.Is(err, workflow.ErrInvalidTransition):
		utils.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, workflow.ErrMissingField), errors.Is(err, workflow.ErrUnknownStatus):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("❌ workflow error: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func serverError(w http.ResponseWriter, context string, err error) {
	log.Printf("❌ %s: %v", context, err)
	utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
}
