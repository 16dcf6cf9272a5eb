package keywords

import (
	"sort"
	"strings"
)

var stopwords = map[string]struct{}{
	"the": {}, "is": {}, "in": {}, "and": {}, "of": {}, "a": {},
	"to": {}, "for": {}, "on": {}, "with": {}, "as": {}, "by": {},
}

// Extract returns the topN most frequent non-stopword terms of text, most
// frequent first. Ties keep first-seen order, so the output is deterministic.
func Extract(text string, topN int) []string {
	if strings.TrimSpace(text) == "" || topN <= 0 {
		return []string{}
	}

	type entry struct {
		word  string
		count int
		first int
	}

	counts := make(map[string]*entry)
	order := make([]*entry, 0)

	for _, word := range strings.Fields(normalize(text)) {
		if _, skip := stopwords[word]; skip {
			continue
		}
		if existing, ok := counts[word]; ok {
			existing.count++
			continue
		}
		item := &entry{word: word, count: 1, first: len(order)}
		counts[word] = item
		order = append(order, item)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	if topN > len(order) {
		topN = len(order)
	}
	result := make([]string, 0, topN)
	for _, item := range order[:topN] {
		result = append(result, item.word)
	}
	return result
}

// normalize lowercases and strips everything but letters, digits and spaces.
func normalize(text string) string {
	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r':
			builder.WriteRune(' ')
		}
	}
	return builder.String()
}
