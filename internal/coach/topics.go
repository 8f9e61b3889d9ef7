package coach

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed topics.yaml
var defaultTopicsYAML []byte

// Topic is one coaching focus area.
type Topic struct {
	Title string `yaml:"title"`
	Focus string `yaml:"focus"`
}

// Topics is the catalog of coaching topics and the shared role preamble.
type Topics struct {
	Intro  string           `yaml:"preamble"`
	Topics map[string]Topic `yaml:"topics"`
}

// DefaultTopics returns the built-in catalog.
func DefaultTopics() *Topics {
	t, err := ParseTopics(defaultTopicsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded topics.yaml: %v", err))
	}
	return t
}

// ParseTopics decodes a YAML topic catalog.
func ParseTopics(data []byte) (*Topics, error) {
	var t Topics
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse topics: %w", err)
	}
	if strings.TrimSpace(t.Intro) == "" {
		return nil, fmt.Errorf("topics: preamble is required")
	}
	return &t, nil
}

// Preamble renders the system preamble for topic. Unknown topics are still
// named verbatim.
func (t *Topics) Preamble(topic string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(t.Intro))
	b.WriteString("\n\n")

	key := strings.ToLower(strings.TrimSpace(topic))
	if tp, ok := t.Topics[key]; ok {
		fmt.Fprintf(&b, "Current coaching topic: %s.", tp.Title)
		if tp.Focus != "" {
			b.WriteString(" ")
			b.WriteString(tp.Focus)
		}
	} else {
		fmt.Fprintf(&b, "Current coaching topic: %s.", topic)
	}
	return b.String()
}
