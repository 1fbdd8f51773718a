package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elidorascodex/tecflow/internal/model"
	"github.com/elidorascodex/tecflow/internal/port/inbound"
	"github.com/elidorascodex/tecflow/internal/shared/response"
)

// taskHandler implements inbound.TaskHttpPort.
type taskHandler struct {
	tasks inbound.TaskDomain
}

// NewTaskHandler creates a new task workflow HTTP handler.
func NewTaskHandler(tasks inbound.TaskDomain) inbound.TaskHttpPort {
	return &taskHandler{tasks: tasks}
}

func (h *taskHandler) FindRelated(c *gin.Context) {
	taskID := c.Param("id")
	related, err := h.tasks.FindRelated(c.Request.Context(), taskID, c.QueryArray("keyword"), c.QueryArray("tag"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if related == nil {
		related = []model.ScoredTask{}
	}
	c.JSON(http.StatusOK, gin.H{"task_id": taskID, "related": related})
}

func (h *taskHandler) Assess(c *gin.Context) {
	writeRun(c, h.tasks.ProcessAssessmentTrigger(c.Request.Context(), c.Param("id")))
}

func (h *taskHandler) GenerateLoreDoc(c *gin.Context) {
	writeRun(c, h.tasks.GenerateLoreDoc(c.Request.Context(), c.Param("id")))
}

// writeRun sends a run record. Failed runs are reported as upstream failures since every
// step talks to the tracker.
func writeRun(c *gin.Context, result *model.RunResult) {
	status := http.StatusOK
	switch result.Status {
	case model.RunStatusError:
		status = http.StatusBadGateway
	case model.RunStatusFiltered:
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}
