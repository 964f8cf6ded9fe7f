package api

import (
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dealfolio/server/internal/database"
	"dealfolio/server/internal/models"
	"dealfolio/server/internal/queue"
	"dealfolio/server/internal/rents"
	"dealfolio/server/internal/scheduler"
	"dealfolio/server/internal/session"
	"dealfolio/server/internal/unitmix"
)

type Handler struct {
	db          *database.Database
	logger      *logrus.Logger
	sessions    *session.Manager
	snapshot    *rents.Snapshot
	importQueue *queue.ImportQueue
	scheduler   *scheduler.Scheduler
	defaultMode rents.Mode
}

func NewHandler(
	db *database.Database,
	sessions *session.Manager,
	snapshot *rents.Snapshot,
	importQueue *queue.ImportQueue,
	sched *scheduler.Scheduler,
	defaultMode rents.Mode,
	logger *logrus.Logger,
) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:          db,
		logger:      logger,
		sessions:    sessions,
		snapshot:    snapshot,
		importQueue: importQueue,
		scheduler:   sched,
		defaultMode: defaultMode,
	}
}

// SessionRequest opens an analysis session for one property.
type SessionRequest struct {
	PropertyID int64  `json:"property_id" binding:"required"`
	Mode       string `json:"mode"`
}

// EditRequest carries one overrides edit. Staged edits coalesce within the
// debounce window; committed edits land in history immediately.
type EditRequest struct {
	Overrides models.PropertyOverrides `json:"overrides"`
	Stage     bool                     `json:"stage"`
	// Persist saves the overrides record so it survives the session.
	Persist bool `json:"persist"`
}

// ResyncRequest rescales the override unit mix to a new unit total.
type ResyncRequest struct {
	TotalUnits int `json:"total_units" binding:"required"`
}

// sessionState is the API shape of the active snapshot plus history
// affordances and any unit-mix warning.
type sessionState struct {
	SessionID  string           `json:"session_id,omitempty"`
	Snapshot   session.Snapshot `json:"snapshot"`
	CanUndo    bool             `json:"can_undo"`
	CanRedo    bool             `json:"can_redo"`
	HistoryLen int              `json:"history_len"`
	Warning    string           `json:"warning,omitempty"`
}

func (h *Handler) sessionStateFor(id string, store *session.Store, snap session.Snapshot) sessionState {
	state := sessionState{
		SessionID:  id,
		Snapshot:   snap,
		CanUndo:    store.CanUndo(),
		CanRedo:    store.CanRedo(),
		HistoryLen: store.HistoryLen(),
	}

	// A mismatched unit mix is surfaced, never auto-corrected.
	p := snap.Property
	if len(snap.Overrides.UnitMix) > 0 {
		p.UnitMix = snap.Overrides.UnitMix
	}
	if ok, warning := unitmix.CheckTotals(p); !ok {
		state.Warning = warning
	}
	return state
}

func (h *Handler) GetAllProperties(c *gin.Context) {
	city := c.Query("city")
	postalCode := c.Query("postal_code")

	properties, err := h.db.GetAllProperties(city, postalCode)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get properties"})
		return
	}

	c.JSON(http.StatusOK, properties)
}

func (h *Handler) GetProperty(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property id"})
		return
	}

	property, err := h.db.GetProperty(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property"})
		return
	}
	if property == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	c.JSON(http.StatusOK, property)
}

// ImportProperties enqueues a batch of listings for the batch processor.
func (h *Handler) ImportProperties(c *gin.Context) {
	var batch []*models.Property
	if err := c.ShouldBindJSON(&batch); err != nil {
		h.logger.WithError(err).Error("Failed to parse import batch")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid import batch"})
		return
	}
	if len(batch) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty import batch"})
		return
	}

	if err := h.importQueue.Push(batch); err != nil {
		h.logger.WithError(err).Error("Failed to enqueue import batch")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":     "queued",
		"batch_size": len(batch),
	})
}

func (h *Handler) GetOverrides(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property id"})
		return
	}

	overrides, err := h.db.GetOverrides(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get overrides")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get overrides"})
		return
	}
	if overrides == nil {
		c.JSON(http.StatusOK, models.PropertyOverrides{})
		return
	}

	c.JSON(http.StatusOK, overrides)
}

func (h *Handler) SaveOverrides(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property id"})
		return
	}

	var overrides models.PropertyOverrides
	if err := c.ShouldBindJSON(&overrides); err != nil {
		h.logger.WithError(err).Error("Failed to parse overrides")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid overrides"})
		return
	}

	if err := h.db.SaveOverrides(id, &overrides); err != nil {
		h.logger.WithError(err).Error("Failed to save overrides")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save overrides"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// GetRents returns the table row for one postal code.
func (h *Handler) GetRents(c *gin.Context) {
	postalCode := c.Param("postal_code")
	table := h.snapshot.Table()

	row, ok := table[postalCode]
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"postal_code": postalCode,
			"rents":       map[int]rents.Cell{},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"postal_code": postalCode,
		"rents":       row,
		"updated_at":  h.snapshot.UpdatedAt(),
	})
}

// RefreshRents triggers the ingestion collaborator outside the schedule.
func (h *Handler) RefreshRents(c *gin.Context) {
	go func() {
		if err := h.scheduler.RunNow(); err != nil {
			h.logger.WithError(err).Error("Manual rent refresh failed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "Rent refresh started"})
}

// CreateSession opens an undo/redo analysis session for a property,
// seeding it with any persisted overrides.
func (h *Handler) CreateSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse session request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session request"})
		return
	}

	mode, err := rents.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Mode == "" {
		mode = h.defaultMode
	}

	property, err := h.db.GetProperty(req.PropertyID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property"})
		return
	}
	if property == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	resolver := rents.NewResolver(h.snapshot.Table())
	id, store := h.sessions.Create(*property, resolver, mode)

	snap := store.Current()
	if saved, err := h.db.GetOverrides(req.PropertyID); err != nil {
		h.logger.WithError(err).Error("Failed to load persisted overrides")
	} else if saved != nil {
		snap = store.Apply(*saved)
	}

	c.JSON(http.StatusCreated, h.sessionStateFor(id, store, snap))
}

func (h *Handler) GetSession(c *gin.Context) {
	id := c.Param("id")
	store, err := h.sessions.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, h.sessionStateFor(id, store, store.Peek()))
}

// ApplyEdit commits or stages one overrides edit in a session.
func (h *Handler) ApplyEdit(c *gin.Context) {
	id := c.Param("id")
	store, err := h.sessions.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse edit request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid edit request"})
		return
	}

	var snap session.Snapshot
	if req.Stage {
		store.Stage(req.Overrides)
		snap = store.Peek()
	} else {
		snap = store.Apply(req.Overrides)
	}

	if req.Persist {
		if err := h.db.SaveOverrides(snap.Property.ID, &req.Overrides); err != nil {
			h.logger.WithError(err).Error("Failed to persist overrides")
		}
	}

	c.JSON(http.StatusOK, h.sessionStateFor(id, store, snap))
}

func (h *Handler) Undo(c *gin.Context) {
	id := c.Param("id")
	store, err := h.sessions.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, h.sessionStateFor(id, store, store.Undo()))
}

func (h *Handler) Redo(c *gin.Context) {
	id := c.Param("id")
	store, err := h.sessions.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, h.sessionStateFor(id, store, store.Redo()))
}

// ResyncUnitMix rescales the session's unit mix to a new total and commits
// the result as an edit.
func (h *Handler) ResyncUnitMix(c *gin.Context) {
	id := c.Param("id")
	store, err := h.sessions.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var req ResyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse resync request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resync request"})
		return
	}

	current := store.Current()
	mix := current.Overrides.UnitMix
	if len(mix) == 0 {
		mix = current.Property.UnitMix
	}

	overrides := current.Overrides.Clone()
	overrides.UnitMix = unitmix.Resync(mix, req.TotalUnits)
	snap := store.Apply(overrides)

	c.JSON(http.StatusOK, h.sessionStateFor(id, store, snap))
}
