package chat

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/docflow/internal/domain"
	"github.com/liliang-cn/docflow/internal/schema"
	"github.com/liliang-cn/docflow/internal/service"
)

// Handler handles the public conversation API
type Handler struct {
	engine    *service.Engine
	process   *service.ProcessService
	artifacts *service.ArtifactService
	registry  *schema.Registry
}

// NewHandler creates a new chat handler
func NewHandler(
	engine *service.Engine,
	process *service.ProcessService,
	artifacts *service.ArtifactService,
	registry *schema.Registry,
) *Handler {
	return &Handler{
		engine:    engine,
		process:   process,
		artifacts: artifacts,
		registry:  registry,
	}
}

// RegisterRoutes registers chat routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/chat", h.Chat)
	r.GET("/chat/:session_id", h.GetSession)
	r.DELETE("/chat/:session_id", h.ResetSession)

	r.POST("/process", h.Process)

	r.GET("/artifacts/:id", h.GetArtifact)
	r.GET("/artifacts/:id/download", h.DownloadArtifact)

	r.GET("/schemas", h.ListSchemas)
}

// Chat handles one conversational turn
func (h *Handler) Chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.engine.HandleTurn(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSession returns the current state of a conversation
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.engine.Session(c.Param("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// ResetSession discards a conversation
func (h *Handler) ResetSession(c *gin.Context) {
	if err := h.engine.Reset(c.Param("session_id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Process extracts a document from a complete transcript without a session
func (h *Handler) Process(c *gin.Context) {
	var req domain.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.process.Process(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetArtifact(c *gin.Context) {
	artifact, err := h.artifacts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, artifact)
}

// DownloadArtifact serves the rendered Markdown as an attachment
func (h *Handler) DownloadArtifact(c *gin.Context) {
	artifact, err := h.artifacts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(artifact.Content))
}

func (h *Handler) ListSchemas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"schemas": h.registry.Schemas()})
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnknownDocumentType):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrContentBlocked):
		status = http.StatusUnprocessableEntity
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
