package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTopics(t *testing.T) {
	topics := DefaultTopics()
	assert.Contains(t, topics.Topics, "self-awareness")
	assert.NotEmpty(t, topics.Intro)
}

func TestParseTopics(t *testing.T) {
	topics, err := ParseTopics([]byte("preamble: You are a coach.\ntopics:\n  focus:\n    title: Focus\n"))
	require.NoError(t, err)
	assert.Equal(t, "You are a coach.\n\nCurrent coaching topic: Focus.", topics.Preamble("FOCUS"))

	_, err = ParseTopics([]byte("topics: {}\n"))
	assert.Error(t, err)

	_, err = ParseTopics([]byte("preamble: [unclosed"))
	assert.Error(t, err)
}
