package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elidorascodex/tecflow/internal/domain/content"
	"github.com/elidorascodex/tecflow/internal/port/inbound"
	"github.com/elidorascodex/tecflow/internal/shared/response"
)

// airthHandler implements inbound.AirthHttpPort.
type airthHandler struct {
	agent inbound.AirthDomain
}

// NewAirthHandler creates a new content agent HTTP handler.
func NewAirthHandler(agent inbound.AirthDomain) inbound.AirthHttpPort {
	return &airthHandler{agent: agent}
}

func (h *airthHandler) Respond(c *gin.Context) {
	var req inbound.AirthRespondInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	includeMemories := true
	if req.IncludeMemories != nil {
		includeMemories = *req.IncludeMemories
	}

	reply, err := h.agent.Respond(c.Request.Context(), req.Input, includeMemories)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, inbound.AirthRespondOutput{Response: reply})
}

func (h *airthHandler) CreateMemory(c *gin.Context) {
	var req inbound.MemoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	m, err := h.agent.ProcessMemory(req.Text, req.Type)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.agent.AddMemory(c.Request.Context(), m); err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *airthHandler) CreateBlogPost(c *gin.Context) {
	var req content.BlogRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	post, err := h.agent.CreateBlogPost(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}
