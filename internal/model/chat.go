package model

// TurnSender identifies the speaker of a ChatTurn.
type TurnSender string

const (
	TurnUser      TurnSender = "user"
	TurnAssistant TurnSender = "assistant"
)

// ChatTurn is one entry of the prior dialogue supplied by the caller. It only
// lives for the duration of a single request.
type ChatTurn struct {
	Sender TurnSender `json:"sender" validate:"required,oneof=user assistant"`
	Text   string     `json:"text"`
}

// ChatRequest is the body accepted by the chat endpoints.
type ChatRequest struct {
	Message             string     `json:"message" validate:"required,notblank,max=100000"`
	Topic               string     `json:"topic" validate:"required,notblank,max=128"`
	ConversationHistory []ChatTurn `json:"conversationHistory" validate:"omitempty,dive"`
}

// ChatResponse is the body returned by the non-streaming chat endpoint.
type ChatResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ToTurns converts persisted messages into prompt history.
func ToTurns(messages []Message) []ChatTurn {
	turns := make([]ChatTurn, 0, len(messages))
	for _, m := range messages {
		sender := TurnUser
		if m.Sender == SenderAI {
			sender = TurnAssistant
		}
		turns = append(turns, ChatTurn{Sender: sender, Text: m.Text})
	}
	return turns
}
