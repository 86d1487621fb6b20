package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ollama-chatbot/internal/domain"
	"ollama-chatbot/internal/usecase"
	"ollama-chatbot/pkg/logger"
)

const correlationHeader = "X-Correlation-Id"

type ChatService interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
	History(ctx context.Context, userID string) ([]domain.ChatTurn, error)
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves /chat and /history behind API Gateway.
type Handler struct {
	chat ChatService
	log  *zap.Logger
}

func NewHandler(chat ChatService, log *zap.Logger) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat service must not be nil")
	}
	return &Handler{chat: chat, log: logger.OrNop(log)}, nil
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := h.log.With(zap.String("correlation_id", correlationID))

	var resp events.APIGatewayProxyResponse
	path := "/" + strings.Trim(req.Path, "/")
	switch {
	case req.HTTPMethod == http.MethodPost && path == "/chat":
		resp = h.handleChat(ctx, log, req.Body)
	case req.HTTPMethod == http.MethodGet && path == "/history":
		resp = h.handleHistory(ctx, req.QueryStringParameters["user_id"])
	default:
		resp = jsonResponse(http.StatusNotFound, errorResponse{Error: "not found"})
	}

	resp.Headers[correlationHeader] = correlationID
	log.Info("request completed",
		zap.String("method", req.HTTPMethod),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return resp, nil
}

func (h *Handler) handleChat(ctx context.Context, log *zap.Logger, body string) events.APIGatewayProxyResponse {
	var in chatRequest
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		log.Error("unhandled error", zap.Error(err))
		return jsonResponse(http.StatusInternalServerError, chatResponse{Response: "Error: invalid JSON body: " + err.Error()})
	}

	out, err := h.chat.Chat(ctx, usecase.ChatInput{Message: in.Message, UserID: in.UserID})
	if err != nil {
		status := http.StatusInternalServerError
		if usecase.CodeOf(err) == usecase.ErrorInvalidInput {
			status = http.StatusBadRequest
		}
		return jsonResponse(status, chatResponse{Response: usecase.ReplyText(err)})
	}
	return jsonResponse(http.StatusOK, chatResponse{Response: out.Reply})
}

func (h *Handler) handleHistory(ctx context.Context, userID string) events.APIGatewayProxyResponse {
	turns, err := h.chat.History(ctx, userID)
	if err != nil {
		var ucErr *usecase.Error
		if errors.As(err, &ucErr) && ucErr.Err != nil {
			err = ucErr.Err
		}
		return jsonResponse(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return jsonResponse(http.StatusOK, turns)
}

func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"response":"Error: encode response"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
