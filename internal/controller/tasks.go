package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskstore/internal/events"
	"taskstore/internal/models"
	"taskstore/internal/storage"
	"taskstore/internal/store"
	"taskstore/pkg/logger"
)

// saveWarning is returned alongside a 2xx when the mutation applied but the
// durable write failed; in-memory state stays authoritative for the session.
const saveWarning = "task saved in memory only; storage write failed"

// Controller maps HTTP intents onto the task store.
type Controller struct {
	store  *store.Store
	events *events.Publisher
}

func New(s *store.Store, p *events.Publisher) *Controller {
	return &Controller{store: s, events: p}
}

// List returns the tasks matching ?status= and ?q=.
func (h *Controller) List(c *gin.Context) {
	status, ok := models.ParseStatus(c.Query("status"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status; want all, active or completed"})
		return
	}
	tasks := h.store.Query(status, c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// Stats returns total/completed/pending counts.
func (h *Controller) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats())
}

// Create adds a task at the front of the collection.
func (h *Controller) Create(c *gin.Context) {
	ctx := c.Request.Context()
	var body struct {
		Text     string `json:"text" binding:"required"`
		Priority string `json:"priority"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	priority, ok := models.ParsePriority(body.Priority)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority; want low, medium or high"})
		return
	}
	task, err := h.store.Add(ctx, body.Text, priority)
	if err != nil && !errors.Is(err, storage.ErrSave) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.events.Publish(ctx, "add", task.ID)
	if err != nil {
		c.JSON(http.StatusCreated, gin.H{"task": task, "warning": saveWarning})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// Toggle flips a task's completion state.
func (h *Controller) Toggle(c *gin.Context) {
	ctx := c.Request.Context()
	task, found, err := h.store.Toggle(ctx, c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	h.events.Publish(ctx, "toggle", task.ID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"task": task, "warning": saveWarning})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// Edit replaces a task's text.
func (h *Controller) Edit(c *gin.Context) {
	ctx := c.Request.Context()
	var body struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	task, found, err := h.store.Edit(ctx, c.Param("id"), body.Text)
	if err != nil && !errors.Is(err, storage.ErrSave) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	h.events.Publish(ctx, "edit", task.ID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"task": task, "warning": saveWarning})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// Delete removes a task.
func (h *Controller) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	found, err := h.store.Delete(ctx, id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	h.events.Publish(ctx, "delete", id)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"deleted": id, "warning": saveWarning})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ClearCompleted removes every completed task and reports how many.
func (h *Controller) ClearCompleted(c *gin.Context) {
	ctx := c.Request.Context()
	removed, err := h.store.ClearCompleted(ctx)
	if removed > 0 {
		h.events.Publish(ctx, "clear_completed", "")
	}
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"removed": removed, "warning": saveWarning})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// ClearAll empties the collection.
func (h *Controller) ClearAll(c *gin.Context) {
	ctx := c.Request.Context()
	removed, err := h.store.ClearAll(ctx)
	if removed > 0 {
		h.events.Publish(ctx, "clear_all", "")
	}
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"cleared": true, "warning": saveWarning})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// Export returns the versioned snapshot document as pretty-printed JSON.
func (h *Controller) Export(c *gin.Context) {
	doc, err := h.store.Export()
	if err != nil {
		logger.Error(c.Request.Context(), "Export failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="tasks-export.json"`)
	c.Data(http.StatusOK, "application/json", doc)
}

// Import replaces the whole collection with the posted document.
func (h *Controller) Import(c *gin.Context) {
	ctx := c.Request.Context()
	doc, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	count, err := h.store.Import(ctx, doc)
	if err != nil && !errors.Is(err, storage.ErrSave) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.events.Publish(ctx, "import", "")
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"imported": count, "warning": saveWarning})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": count})
}

// Health returns 200 if the process is alive.
func (h *Controller) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
