package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
)

const (
	defaultClassName   = "KnowledgeSnippet"
	defaultMaxDistance = 0.35
	maxSnippetRunes    = 280
)

// WeaviateSearcher answers queries with a nearText search over a class whose
// objects carry "content" and "source" properties.
type WeaviateSearcher struct {
	client      *weaviate.Client
	className   string
	maxDistance float32
}

// NewWeaviateSearcher connects to the Weaviate instance at rawURL.
func NewWeaviateSearcher(rawURL, apiKey, className string) (*WeaviateSearcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid weaviate url %q", rawURL)
	}

	cfg := weaviate.Config{
		Host:   u.Host,
		Scheme: u.Scheme,
	}
	if apiKey != "" {
		cfg.AuthConfig = auth.ApiKey{Value: apiKey}
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	if className == "" {
		className = defaultClassName
	}

	return &WeaviateSearcher{
		client:      client,
		className:   className,
		maxDistance: defaultMaxDistance,
	}, nil
}

// Snippet is one indexed passage.
type Snippet struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

type getResponse struct {
	Get map[string][]Snippet `json:"Get"`
}

// Search runs one nearText query and renders the hits as bullets.
func (s *WeaviateSearcher) Search(ctx context.Context, req Request) (string, error) {
	limit := req.MaxSnippets
	if limit <= 0 || limit > MaxSnippets {
		limit = MaxSnippets
	}

	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{req.Query}).
		WithDistance(s.maxDistance)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("semantic search: %w", err)
	}
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("search error: %s", result.Errors[0].Message)
	}

	raw, err := json.Marshal(result.Data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal search response: %w", err)
	}
	var parsed getResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse search response: %w", err)
	}

	return FormatSnippets(parsed.Get[s.className], limit), nil
}

// FormatSnippets renders rows as "- text (source)" bullets, or the
// no-results sentinel when there are none.
func FormatSnippets(rows []Snippet, limit int) string {
	var b strings.Builder
	n := 0
	for _, row := range rows {
		content := strings.Join(strings.Fields(row.Content), " ")
		if content == "" {
			continue
		}
		if n == limit {
			break
		}
		source := row.Source
		if source == "" {
			source = "unknown"
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s (%s)", shorten(content, maxSnippetRunes), source)
		n++
	}
	if n == 0 {
		return NoResultsSentinel
	}
	return b.String()
}

func shorten(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max])) + "…"
}
