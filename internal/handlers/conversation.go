package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/carebridge-backend/internal/modules/interview"
	"github.com/yungbote/carebridge-backend/internal/platform/apierr"
)

type ConversationHandler struct {
	uc interview.Usecases
}

func NewConversationHandler(uc interview.Usecases) *ConversationHandler {
	return &ConversationHandler{uc: uc}
}

type createConversationRequest struct {
	ParticipantID   string `json:"participant_id" binding:"required"`
	TargetDimension string `json:"target_dimension"`
}

// POST /api/conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	participantID, err := uuid.Parse(req.ParticipantID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid participant id"))
		return
	}

	conv, err := h.uc.CreateConversation(c.Request.Context(), interview.CreateInput{
		ParticipantID:   participantID,
		TargetDimension: strings.TrimSpace(req.TargetDimension),
	})
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, gin.H{"conversation": conv})
}

type respondRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
	Text          string `json:"text" binding:"required"`
	QuestionID    string `json:"question_id"`
	OptionID      string `json:"option_id"`
}

// POST /api/conversations/:id/messages
func (h *ConversationHandler) Respond(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid conversation id"))
		return
	}
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	participantID, err := uuid.Parse(req.ParticipantID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid participant id"))
		return
	}

	out, err := h.uc.Respond(c.Request.Context(), conversationID, participantID, interview.RespondInput{
		Text:       req.Text,
		QuestionID: strings.TrimSpace(req.QuestionID),
		OptionID:   strings.TrimSpace(req.OptionID),
	})
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, out)
}

// GET /api/conversations/:id
func (h *ConversationHandler) Get(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid conversation id"))
		return
	}
	conv, msgs, err := h.uc.GetConversation(c.Request.Context(), conversationID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversation": conv, "messages": msgs})
}

// GET /api/conversations/:id/profile
func (h *ConversationHandler) Profile(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid conversation id"))
		return
	}
	profile, err := h.uc.GetProfile(c.Request.Context(), conversationID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"profile": profile})
}

// GET /api/participants/:id/conversations
func (h *ConversationHandler) ListForParticipant(c *gin.Context) {
	participantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid participant id"))
		return
	}
	convs, err := h.uc.ListConversations(c.Request.Context(), participantID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversations": convs})
}
