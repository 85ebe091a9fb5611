package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/periodicals/internal/tasks"
)

const enqueueTimeout = 5 * time.Second

// TaskTrigger starts a background job by hand. The returned ID is empty when
// the job already ran to completion.
type TaskTrigger interface {
	Trigger(ctx context.Context, kind tasks.Kind) (string, error)
}

// TaskTracker reports the state of an enqueued job.
type TaskTracker interface {
	State(ctx context.Context, taskID string) (tasks.State, error)
}

// TasksController lets administrators trigger background jobs and follow them.
type TasksController struct {
	trigger TaskTrigger
}

func NewTasksController(trigger TaskTrigger) *TasksController {
	return &TasksController{trigger: trigger}
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"task_types": tasks.Kinds})
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	kind, err := tasks.ParseKind(c.Param("type"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), enqueueTimeout)
	defer cancel()

	taskID, err := tc.trigger.Trigger(ctx, kind)
	if err != nil {
		respondInternalError(c, err, "run task "+string(kind))
		return
	}

	if taskID == "" {
		c.JSON(http.StatusOK, gin.H{"type": kind, "state": tasks.StateSucceeded})
		return
	}
	respondAccepted(c, gin.H{"type": kind, "task_id": taskID, "state": tasks.StatePending})
}

// GetTask handles GET /api/tasks/:id
func (tc *TasksController) GetTask(c *gin.Context) {
	tracker, ok := tc.trigger.(TaskTracker)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "task queue is disabled", Code: CodeNotFound})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), enqueueTimeout)
	defer cancel()

	taskID := c.Param("id")
	state, err := tracker.State(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task "+taskID)
		return
	}
	if state == tasks.StateNotFound {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "task not found", Code: CodeNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": taskID, "state": state})
}
