package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/reme-voice/internal/logger"
	"github.com/windoze95/reme-voice/internal/service"
	"github.com/windoze95/reme-voice/internal/util"
	"github.com/windoze95/reme-voice/internal/voice"
	"github.com/windoze95/reme-voice/internal/ws"
	"go.uber.org/zap"
)

const healthProbeTimeout = 2 * time.Second

// VoiceHandler is the handler for the voice REST API.
type VoiceHandler struct {
	Service *service.VoiceService
	Hub     *ws.Hub
}

// NewVoiceHandler is the constructor function for initializing a new VoiceHandler.
func NewVoiceHandler(voiceService *service.VoiceService, hub *ws.Hub) *VoiceHandler {
	return &VoiceHandler{Service: voiceService, Hub: hub}
}

// CommandRequest is the body of POST /v1/command.
type CommandRequest struct {
	Text         string              `json:"text"`
	Context      *voice.ContextPatch `json:"context,omitempty"`
	SkipWakeWord *bool               `json:"skipWakeWord,omitempty"`
}

// CommandResponse is the outcome of a text command.
type CommandResponse struct {
	Success      bool                   `json:"success"`
	Intent       string                 `json:"intent,omitempty"`
	Data         map[string]interface{} `json:"data,omitempty"`
	ResponseText string                 `json:"responseText,omitempty"`
	Error        string                 `json:"error,omitempty"`
	ErrorType    string                 `json:"errorType,omitempty"`
}

// ContextRequest is the body of POST /v1/context.
type ContextRequest struct {
	Context voice.ContextPatch `json:"context"`
}

// Index describes the API.
func (h *VoiceHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":   "Rem-E Voice API",
		"status": "running",
		"endpoints": gin.H{
			"health":          "/health",
			"status":          "/v1/status",
			"process_command": "/v1/command",
			"update_context":  "/v1/context",
			"websocket":       "/v1/ws",
			"metrics":         "/metrics",
		},
	})
}

// Health is the liveness probe.
func (h *VoiceHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Status reports how the pipeline is configured and whether the language
// model answers.
func (h *VoiceHandler) Status(c *gin.Context) {
	env := h.Service.Cfg.EnvVars
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
	defer cancel()

	provider := "none"
	if h.Service.ChatProvider != nil {
		provider = h.Service.ChatProvider.Name()
	}

	c.JSON(http.StatusOK, gin.H{
		"running":          true,
		"transport":        env.VoiceTransport,
		"classifier":       env.ClassifierMode,
		"functionBackend":  env.FunctionBackend,
		"provider":         provider,
		"connectedClients": h.Hub.Count(),
		"llmReachable":     h.Service.LLMReachable(ctx),
	})
}

// ProcessCommand runs a text command as if it had been spoken. Its effects
// are also sent to the voice clients of the same conversation.
func (h *VoiceHandler) ProcessCommand(c *gin.Context) {
	log := logger.FromGin(c)

	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, CommandResponse{Error: "Invalid request body", ErrorType: "bad_request"})
		return
	}

	res, err := h.Service.ProcessCommand(c.Request.Context(), service.CommandRequest{
		Text:         req.Text,
		Context:      req.Context,
		SkipWakeWord: req.SkipWakeWord,
	})
	if err != nil {
		log.Info("text command rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, CommandResponse{Error: err.Error(), ErrorType: rejectionType(err)})
		return
	}

	if userID, err := util.GetUserIDFromContext(c); err == nil {
		log = log.With(zap.Uint("user_id", userID))
	}
	log.Info("text command processed",
		zap.String("conversation_id", res.ConversationID),
		zap.Stringer("intent", res.Intent),
		zap.Bool("success", res.Success),
	)

	if h.Hub != nil {
		h.Hub.PublishOutcome(res.ConversationID, res.Command, res.Outcome)
	}

	resp := CommandResponse{
		Success:      res.Success,
		Intent:       res.Intent.String(),
		Data:         res.Data,
		ResponseText: res.ResponseText,
	}
	if res.Err != nil {
		resp.Error = res.Err.Message
		resp.ErrorType = res.Err.Kind.String()
	}
	c.JSON(http.StatusOK, resp)
}

func rejectionType(err error) string {
	switch {
	case errors.Is(err, service.ErrWakeWordMissing):
		return "wake_word_missing"
	case errors.Is(err, service.ErrEmptyCommand):
		return "empty_command"
	default:
		return "bad_request"
	}
}

// UpdateContext patches the context REST commands run against.
func (h *VoiceHandler) UpdateContext(c *gin.Context) {
	var req ContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	vc := h.Service.UpdateContext(req.Context)
	c.JSON(http.StatusOK, gin.H{"success": true, "context": vc})
}
