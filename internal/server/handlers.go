package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"ollama-chatbot/internal/usecase"
)

//go:embed web/index.html
var indexHTML []byte

// maxChatBody bounds the /chat request body.
const maxChatBody = 1 << 20

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleChat handles POST /chat
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r.Body)
	if err != nil {
		s.log.Error("unhandled error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, chatResponse{Response: "Error: " + err.Error()})
		return
	}

	out, err := s.chat.Chat(r.Context(), usecase.ChatInput{Message: req.Message, UserID: req.UserID})
	if err != nil {
		writeJSON(w, chatStatus(err), chatResponse{Response: usecase.ReplyText(err)})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: out.Reply})
}

// handleHistory handles GET /history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	turns, err := s.chat.History(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		var ucErr *usecase.Error
		if errors.As(err, &ucErr) && ucErr.Err != nil {
			err = ucErr.Err
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, turns)
}

func decodeChatRequest(body io.Reader) (chatRequest, error) {
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(body, maxChatBody)).Decode(&req); err != nil {
		return chatRequest{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	return req, nil
}

func chatStatus(err error) int {
	if usecase.CodeOf(err) == usecase.ErrorInvalidInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
