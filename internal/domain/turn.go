package domain

// ChatTurn is a single persisted user-message/bot-reply exchange.
// UserID is the partition key and Timestamp (ms since epoch) the sort key.
type ChatTurn struct {
	UserID      string `json:"user_id"`
	Timestamp   int64  `json:"timestamp"`
	UserMessage string `json:"user_message"`
	BotReply    string `json:"bot_reply"`
}

// Messages expands the turn into its user and bot context lines.
func (t ChatTurn) Messages() []ChatMessage {
	return []ChatMessage{
		{Role: RoleUser, Content: t.UserMessage},
		{Role: RoleBot, Content: t.BotReply},
	}
}
