package usecase

import (
	"strings"

	"ollama-chatbot/internal/domain"
)

// replyInstruction closes every prompt and tells the model how to answer.
const replyInstruction = "bot (respond in English using bullet points, start each point with '-'):"

// buildPrompt renders history as "role: content" lines, oldest first, then the
// current message and the reply instruction. An empty history still leaves
// the leading newline in place.
func buildPrompt(history []domain.ChatTurn, message string) string {
	lines := make([]string, 0, len(history)*2)
	for _, turn := range history {
		for _, m := range turn.Messages() {
			lines = append(lines, m.Role+": "+m.Content)
		}
	}

	var b strings.Builder
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
	b.WriteString(domain.RoleUser + ": " + message)
	b.WriteString("\n")
	b.WriteString(replyInstruction)
	return b.String()
}

// activityLine is the single-line event mirrored to the activity log.
func activityLine(message, reply string) string {
	return "USER: " + message + " | BOT: " + reply
}
