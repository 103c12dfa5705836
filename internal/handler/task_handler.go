package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"teamtasks/internal/middleware"
	"teamtasks/internal/model"
	"teamtasks/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TaskService is what the task routes need from the service layer.
type TaskService interface {
	List(ctx context.Context, caller model.Identity, q service.ListQuery) ([]service.TaskView, error)
	Get(ctx context.Context, caller model.Identity, id uuid.UUID) (*service.TaskView, error)
	Create(ctx context.Context, caller model.Identity, in service.CreateTaskInput) (*service.TaskView, error)
	Update(ctx context.Context, caller model.Identity, id uuid.UUID, in service.UpdateTaskInput) (*service.TaskView, error)
	Delete(ctx context.Context, caller model.Identity, id uuid.UUID) error
	SetCompletion(ctx context.Context, caller model.Identity, taskID, target uuid.UUID, done bool) error
}

type TaskHandler struct {
	tasks TaskService
}

func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// CompleteRequest toggles one assignee's completion. The target user may be
// named by any of the id keys; when none is given the caller is the target.
type CompleteRequest struct {
	Done       *bool  `json:"done"`
	IsDone     *bool  `json:"is_done"`
	AssigneeID string `json:"assignee_id"`
	UserID     string `json:"user_id"`
	UID        string `json:"uid"`
	ProfileID  string `json:"profile_id"`
}

type deleteRequest struct {
	ID string `json:"id"`
}

// MarkDoneRequest is the body of the older single-purpose completion route.
type MarkDoneRequest struct {
	UserID string `json:"user_id"`
}

// List godoc
// @Summary      List tasks
// @Tags         Tasks
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "open, assigned or done"
// @Param        team    query  string  false  "assignee team"
// @Param        from    query  string  false  "earliest start date"
// @Param        to      query  string  false  "latest end date"
// @Success      200  {object}  map[string][]service.TaskView
// @Failure      400  {object}  map[string]string
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	views, err := h.tasks.List(c.Request.Context(), middleware.CurrentIdentity(c), service.ListQuery{
		Status: c.Query("status"),
		Team:   c.Query("team"),
		From:   c.Query("from"),
		To:     c.Query("to"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// GetByID godoc
// @Summary      Get a task
// @Tags         Tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Task ID"
// @Success      200  {object}  map[string]service.TaskView
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := pathTaskID(c)
	if !ok {
		return
	}
	view, err := h.tasks.Get(c.Request.Context(), middleware.CurrentIdentity(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

// Create godoc
// @Summary      Create a task
// @Tags         Tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        task  body  service.CreateTaskInput  true  "Task"
// @Success      201  {object}  map[string]service.TaskView
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req service.CreateTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	view, err := h.tasks.Create(c.Request.Context(), middleware.CurrentIdentity(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": view})
}

// Update godoc
// @Summary      Partially update a task
// @Description  Only keys present in the body change. assignee_user_ids replaces the whole assignee set.
// @Tags         Tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path  string                   false  "Task ID (or id in the body)"
// @Param        task  body  service.UpdateTaskInput  true   "Fields to change"
// @Success      200  {object}  map[string]service.TaskView
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	var req service.UpdateTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	raw := c.Param("id")
	if raw == "" {
		raw = req.ID
	}
	id, ok := parseTaskID(c, raw)
	if !ok {
		return
	}

	view, err := h.tasks.Update(c.Request.Context(), middleware.CurrentIdentity(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": view})
}

// Delete godoc
// @Summary      Delete a task and its assignments
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id   query  string  false  "Task ID (or id in the body)"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /tasks [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	raw := c.Param("id")
	if raw == "" {
		raw = c.Query("id")
	}
	if raw == "" {
		var body deleteRequest
		if err := c.ShouldBindJSON(&body); err == nil {
			raw = body.ID
		}
	}
	id, ok := parseTaskID(c, raw)
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Complete godoc
// @Summary      Mark an assignment done or not done
// @Description  done defaults to true. Without an assignee id the caller's own assignment is toggled.
// @Tags         Tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path  string           true   "Task ID"
// @Param        body  body  CompleteRequest  false  "Toggle"
// @Success      200  {object}  map[string]bool
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id}/complete [patch]
func (h *TaskHandler) Complete(c *gin.Context) {
	taskID, ok := pathTaskID(c)
	if !ok {
		return
	}

	var req CompleteRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	done := true
	if req.Done != nil {
		done = *req.Done
	} else if req.IsDone != nil {
		done = *req.IsDone
	}

	target, ok := parseTarget(c, req.AssigneeID, req.UserID, req.UID, req.ProfileID)
	if !ok {
		return
	}

	h.setCompletion(c, taskID, target, done)
}

// Undo godoc
// @Summary      Mark an assignment not done
// @Tags         Tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id           path   string  true   "Task ID"
// @Param        assignee_id  query  string  false  "Assignee (defaults to the caller)"
// @Success      200  {object}  map[string]bool
// @Router       /tasks/{id}/complete [delete]
func (h *TaskHandler) Undo(c *gin.Context) {
	taskID, ok := pathTaskID(c)
	if !ok {
		return
	}

	target, ok := parseTarget(c, c.Query("assignee_id"), c.Query("user_id"), c.Query("uid"), c.Query("profile_id"))
	if !ok {
		return
	}

	h.setCompletion(c, taskID, target, false)
}

// MarkDone godoc
// @Summary      Mark a user's assignment done
// @Description  Older form of PATCH /tasks/{id}/complete. user_id is required.
// @Tags         Tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path  string           true  "Task ID"
// @Param        body  body  MarkDoneRequest  true  "Assignee"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id}/done [post]
func (h *TaskHandler) MarkDone(c *gin.Context) {
	taskID, ok := pathTaskID(c)
	if !ok {
		return
	}

	var req MarkDoneRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req)
	}
	if strings.TrimSpace(req.UserID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	target, ok := parseTarget(c, req.UserID)
	if !ok {
		return
	}

	h.setCompletion(c, taskID, target, true)
}

func (h *TaskHandler) setCompletion(c *gin.Context, taskID, target uuid.UUID, done bool) {
	if err := h.tasks.SetCompletion(c.Request.Context(), middleware.CurrentIdentity(c), taskID, target, done); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func pathTaskID(c *gin.Context) (uuid.UUID, bool) {
	return parseTaskID(c, c.Param("id"))
}

func parseTaskID(c *gin.Context, raw string) (uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task ID is required"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// parseTarget picks the first non-empty candidate. No candidate yields
// uuid.Nil, meaning the caller.
func parseTarget(c *gin.Context, candidates ...string) (uuid.UUID, bool) {
	for _, raw := range candidates {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee ID format"})
			return uuid.Nil, false
		}
		return id, true
	}
	return uuid.Nil, true
}
