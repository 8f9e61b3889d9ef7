package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/leadership-coach/internal/model"
)

func TestValidateStruct_ChatRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     model.ChatRequest
		wantErr bool
	}{
		{
			name: "valid without history",
			req:  model.ChatRequest{Message: "Hello", Topic: "self-awareness"},
		},
		{
			name: "valid with history",
			req: model.ChatRequest{
				Message: "C",
				Topic:   "feedback",
				ConversationHistory: []model.ChatTurn{
					{Sender: model.TurnUser, Text: "A"},
					{Sender: model.TurnAssistant, Text: "B"},
				},
			},
		},
		{name: "empty message", req: model.ChatRequest{Topic: "feedback"}, wantErr: true},
		{name: "missing topic", req: model.ChatRequest{Message: "hi"}, wantErr: true},
		{
			name: "unknown sender",
			req: model.ChatRequest{
				Message:             "hi",
				Topic:               "feedback",
				ConversationHistory: []model.ChatTurn{{Sender: "system", Text: "x"}},
			},
			wantErr: true,
		},
		{
			name: "empty turn text",
			req: model.ChatRequest{
				Message: "hi",
				Topic:   "feedback",
				ConversationHistory: []model.ChatTurn{
					{Sender: model.TurnUser, Text: "a"},
					{Sender: model.TurnAssistant, Text: ""},
				},
			},
		},
		{name: "blank message", req: model.ChatRequest{Message: "   ", Topic: "feedback"}, wantErr: true},
		{name: "blank topic", req: model.ChatRequest{Message: "hi", Topic: " \t\n"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.req)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateConversationID(t *testing.T) {
	assert.NoError(t, ValidateConversationID("0190f5d4-8c4b-7b7e-9a51-5a0d3c0c6f11"))
	assert.Error(t, ValidateConversationID("not-a-uuid"))
}

func TestValidateMessageContent(t *testing.T) {
	assert.NoError(t, ValidateMessageContent("hello"))
	assert.Error(t, ValidateMessageContent(""))
	assert.Error(t, ValidateMessageContent(string([]byte{0xff, 0xfe})))
}
