package domain

// Roles used when rendering stored turns back into prompt context.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// ChatMessage is one rendered line of conversational context.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
