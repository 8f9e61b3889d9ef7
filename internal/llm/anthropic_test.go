package llm

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
)

func TestAnthropicEvent(t *testing.T) {
	tests := []struct {
		name  string
		event anthropic.MessageStreamEvent
		want  StreamEvent
	}{
		{
			name: "text delta",
			event: anthropic.MessageStreamEvent{
				Type:  anthropic.MessageStreamEventTypeContentBlockDelta,
				Delta: anthropic.ContentBlockDeltaEventDelta{Text: "Hi"},
			},
			want: StreamEvent{Kind: EventDelta, Text: "Hi"},
		},
		{
			name: "empty text delta",
			event: anthropic.MessageStreamEvent{
				Type:  anthropic.MessageStreamEventTypeContentBlockDelta,
				Delta: anthropic.ContentBlockDeltaEventDelta{},
			},
			want: StreamEvent{Kind: EventUnknown, Upstream: "content_block_delta"},
		},
		{
			name:  "message stop",
			event: anthropic.MessageStreamEvent{Type: anthropic.MessageStreamEventTypeMessageStop},
			want:  StreamEvent{Kind: EventCompleted},
		},
		{
			name:  "message start",
			event: anthropic.MessageStreamEvent{Type: anthropic.MessageStreamEventTypeMessageStart},
			want:  StreamEvent{Kind: EventUnknown, Upstream: "message_start"},
		},
		{
			name: "message delta",
			event: anthropic.MessageStreamEvent{
				Type:  anthropic.MessageStreamEventTypeMessageDelta,
				Delta: anthropic.MessageDeltaEventDelta{},
			},
			want: StreamEvent{Kind: EventUnknown, Upstream: "message_delta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, anthropicEvent(tt.event))
		})
	}
}
