package coach

import (
	"strings"
	"unicode"
)

// DefaultSummaryLength caps the personalization block in the prompt.
const DefaultSummaryLength = 1000

type sectionKind int

const (
	sectionNone sectionKind = iota
	sectionStrengths
	sectionChallenges
	sectionGrowth
)

var sectionLabels = map[sectionKind]string{
	sectionStrengths:  "Strengths",
	sectionChallenges: "Challenges",
	sectionGrowth:     "Growth areas",
}

var sectionOrder = []sectionKind{sectionStrengths, sectionChallenges, sectionGrowth}

// SummarizeAssessment extracts the strengths, challenges and growth sections
// of a 360 assessment into at most maxLen runes. Assessments without
// recognizable headings are truncated instead.
func SummarizeAssessment(assessment string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSummaryLength
	}

	sections := extractSections(assessment)
	if len(sections) == 0 {
		return truncateRunes(collapseSpace(assessment), maxLen)
	}

	var present []sectionKind
	for _, k := range sectionOrder {
		if sections[k] != "" {
			present = append(present, k)
		}
	}
	if len(present) == 0 {
		return truncateRunes(collapseSpace(assessment), maxLen)
	}

	// Each section gets an equal share so a long first section cannot crowd
	// out the others. Separators are charged against the share.
	share := maxLen / len(present)
	parts := make([]string, 0, len(present))
	for _, k := range present {
		label := sectionLabels[k] + ": "
		budget := share - len([]rune(label)) - 1
		if budget <= 0 {
			continue
		}
		parts = append(parts, label+truncateRunes(sections[k], budget))
	}
	return truncateRunes(strings.Join(parts, "\n"), maxLen)
}

func extractSections(text string) map[sectionKind]string {
	out := make(map[sectionKind]string)
	current := sectionNone
	var body []string

	flush := func() {
		if current != sectionNone {
			joined := collapseSpace(strings.Join(body, " "))
			if joined != "" {
				if prev := out[current]; prev != "" {
					joined = prev + " " + joined
				}
				out[current] = joined
			}
		}
		body = body[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if kind, rest, ok := classifyHeading(line); ok {
			flush()
			current = kind
			if rest != "" {
				body = append(body, rest)
			}
			continue
		}
		if current != sectionNone && isOtherHeading(line) {
			flush()
			current = sectionNone
			continue
		}
		if current != sectionNone {
			body = append(body, strings.TrimSpace(line))
		}
	}
	flush()
	return out
}

// classifyHeading recognizes lines such as "## Strengths", "KEY CHALLENGES:"
// or "Growth opportunities: listening more". Text after a colon on the same
// line is returned as rest.
func classifyHeading(line string) (sectionKind, string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return sectionNone, "", false
	}

	head, rest := trimmed, ""
	if i := strings.Index(trimmed, ":"); i >= 0 {
		head, rest = trimmed[:i], strings.TrimSpace(trimmed[i+1:])
	} else if !looksLikeHeading(trimmed) {
		return sectionNone, "", false
	}

	head = strings.ToLower(strings.TrimFunc(head, func(r rune) bool {
		return !unicode.IsLetter(r)
	}))
	if len(head) > 40 {
		return sectionNone, "", false
	}

	switch {
	case strings.Contains(head, "strength"):
		return sectionStrengths, rest, true
	case strings.Contains(head, "challenge"), strings.Contains(head, "development area"), strings.Contains(head, "weakness"):
		return sectionChallenges, rest, true
	case strings.Contains(head, "growth"), strings.Contains(head, "opportunit"):
		return sectionGrowth, rest, true
	}
	return sectionNone, "", false
}

func looksLikeHeading(line string) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	if len([]rune(line)) > 40 {
		return false
	}
	return strings.ToUpper(line) == line || !strings.ContainsAny(line, ".,;")
}

func isOtherHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "#") {
		return true
	}
	return strings.HasSuffix(trimmed, ":") && len([]rune(trimmed)) <= 40
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return strings.TrimRightFunc(string(r[:max-1]), unicode.IsSpace) + "…"
}
