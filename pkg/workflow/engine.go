package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"p9e.in/fcrm/models"
	"p9e.in/fcrm/utils"
)

// Engine applies complaint state changes. Every change updates the complaint
// and appends its log entry in one transaction.
type Engine struct {
	db *gorm.DB
}

// NewEngine creates a new workflow engine instance
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Change describes one write to a complaint.
type Change struct {
	ComplaintID uuid.UUID
	ActorID     uuid.UUID

	// ToStatus is the target status; empty keeps the current one.
	ToStatus string

	// Fields are column updates applied alongside the status.
	Fields map[string]interface{}

	LogAction string
	Metadata  map[string]interface{}

	// Within runs inside the transaction after the update, e.g. to insert attachments.
	Within func(tx *gorm.DB, c *models.Complaint) error
}

// Register inserts a new complaint with status new, its attachments and the
// "Complaint registered" log entry.
func (e *Engine) Register(ctx context.Context, c *models.Complaint, attachments []models.ComplaintAttachment, actorID uuid.UUID) error {
	if c.ComplaintCode == "" {
		code, err := utils.NewComplaintCode()
		if err != nil {
			return fmt.Errorf("failed to generate complaint code: %w", err)
		}
		c.ComplaintCode = code
	}
	c.Status = StatusNew
	c.CreatedBy = actorID

	tx := e.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := tx.Create(c).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create complaint: %w", err)
	}

	for i := range attachments {
		attachments[i].ComplaintID = c.ID
		if err := tx.Create(&attachments[i]).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save attachment: %w", err)
		}
	}
	c.Attachments = attachments

	entry := models.ComplaintLog{
		ComplaintID: c.ID,
		Action:      "Complaint registered",
		ToStatus:    StatusNew,
		UserID:      &actorID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create log entry: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("✅ Registered complaint %s (%s) with %d attachment(s)", c.ComplaintCode, c.ID, len(attachments))
	return nil
}

// Apply loads the complaint, checks the transition, writes the fields and the
// log entry, and commits. Closed complaints reject every change.
func (e *Engine) Apply(ctx context.Context, ch Change) (*models.Complaint, error) {
	tx := e.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var c models.Complaint
	if err := q.First(&c, "id = ?", ch.ComplaintID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, fmt.Errorf("failed to load complaint: %w", err)
	}

	from := c.Status
	if canonical, err := NormalizeStatus(from); err == nil {
		from = canonical
	}
	to := ch.ToStatus
	if to == "" {
		to = from
	}
	if err := ValidateTransition(from, to); err != nil {
		tx.Rollback()
		return nil, err
	}

	updates := make(map[string]interface{}, len(ch.Fields)+1)
	for k, v := range ch.Fields {
		updates[k] = v
	}
	updates["status"] = to

	if err := tx.Model(&c).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update complaint: %w", err)
	}
	c.Status = to

	if ch.Within != nil {
		if err := ch.Within(tx, &c); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	entry := models.ComplaintLog{
		ComplaintID: c.ID,
		Action:      ch.LogAction,
		FromStatus:  from,
		ToStatus:    to,
	}
	if ch.ActorID != uuid.Nil {
		actor := ch.ActorID
		entry.UserID = &actor
	}
	if entry.Action == "" {
		entry.Action = fmt.Sprintf("Status updated to %s", to)
	}
	if err := entry.SetMetadata(ch.Metadata); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("invalid log metadata: %w", err)
	}
	if err := tx.Create(&entry).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create log entry: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("✅ Complaint %s: %s -> %s (%s)", c.ComplaintCode, from, to, entry.Action)
	return &c, nil
}

// History returns the log entries for a complaint, oldest first.
func (e *Engine) History(ctx context.Context, complaintID uuid.UUID) ([]models.ComplaintLog, error) {
	var logs []models.ComplaintLog
	err := e.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
