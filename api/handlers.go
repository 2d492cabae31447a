package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/conversation"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/storage"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Text string `json:"text"`
}

// RecognizeRequest is the body of POST /recognize. Audio is base64 in
// the JSON payload; Format defaults to pcm when omitted.
type RecognizeRequest struct {
	Audio  []byte `json:"audio"`
	Format string `json:"format"`
}

// RecognizeResponse carries the transcript of one audio clip.
type RecognizeResponse struct {
	Text string `json:"text"`
}

// ConversationsResponse lists the known conversation ids.
type ConversationsResponse struct {
	Count         int      `json:"count"`
	Conversations []string `json:"conversations"`
}

// HistoryResponse contains the persisted turns of one conversation.
type HistoryResponse struct {
	ConversationID string          `json:"conversation_id"`
	Depth          int             `json:"depth"`
	Turns          []*storage.Turn `json:"turns"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleRobotStatus returns the robot's headline state.
func (s *Server) handleRobotStatus(c *fiber.Ctx) error {
	if s.robot == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "robot state not configured"})
	}

	return c.JSON(s.robot.Snapshot().Status)
}

// handleRobotDevices returns the paired-device list.
func (s *Server) handleRobotDevices(c *fiber.Ctx) error {
	if s.robot == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "robot state not configured"})
	}

	return c.JSON(s.robot.Devices())
}

// handleRobotTasks returns past and present cleaning tasks.
func (s *Server) handleRobotTasks(c *fiber.Ctx) error {
	if s.robot == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "robot state not configured"})
	}

	return c.JSON(s.robot.Tasks())
}

// handleListConversations returns the ids of all persisted conversations.
func (s *Server) handleListConversations(c *fiber.Ctx) error {
	if s.storer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "transcript store not configured"})
	}

	ids, err := s.storer.Conversations(c.Context())
	if err != nil {
		s.logger.Error("failed to list conversations", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list conversations"})
	}

	return c.JSON(ConversationsResponse{
		Count:         len(ids),
		Conversations: ids,
	})
}

// handleGetHistory returns the persisted turns of one conversation,
// oldest first.
func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	if s.storer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "transcript store not configured"})
	}

	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "conversation id required"})
	}

	turns, err := s.storer.History(c.Context(), id)
	if err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "conversation not found"})
		}

		s.logger.Error("failed to load history",
			zap.String("conversation_id", id),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load history"})
	}

	return c.JSON(HistoryResponse{
		ConversationID: id,
		Depth:          len(turns),
		Turns:          turns,
	})
}

// handleSession returns the live session snapshot.
func (s *Server) handleSession(c *fiber.Ctx) error {
	if s.session == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "no active session"})
	}

	return c.JSON(s.session.Snapshot())
}

// handleChat submits one text turn to the live session and returns the
// updated snapshot once the turn completes.
func (s *Server) handleChat(c *fiber.Ctx) error {
	if s.session == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "no active session"})
	}

	req := ChatRequest{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if err := s.session.Submit(c.Context(), req.Text); err != nil {
		if errors.Is(err, conversation.ErrEmptyInput) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}

		s.logger.Error("chat turn failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(s.session.Snapshot())
}

// handleRecognize transcribes one audio clip from the robot's microphone.
func (s *Server) handleRecognize(c *fiber.Ctx) error {
	if s.recognizer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "speech recognition not configured"})
	}

	req := RecognizeRequest{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if len(req.Audio) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "audio required"})
	}

	format := req.Format
	if format == "" {
		format = "pcm"
	}

	text, err := s.recognizer.Recognize(c.Context(), req.Audio, format)
	if err != nil {
		s.logger.Error("recognition failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "recognition failed"})
	}

	return c.JSON(RecognizeResponse{Text: text})
}
