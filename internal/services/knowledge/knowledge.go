package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Entry is one fact in the knowledge table. Attributes are free-form text
// fields (description, strategy, drops, recipe, ...). Entries are loaded at
// process start and never mutated.
type Entry struct {
	Name       string
	Category   string
	Attributes map[string]string
}

// Service interface for knowledge base operations
type Service interface {
	Search(query string, limit int) []string
	AllEntries() []Entry
}

const defaultSearchLimit = 5

// TableService answers queries by literal substring matching over a small
// fixed table. It is deliberately not a search engine: no ranking, no
// stemming, no fuzzy matching. That only works because the table holds a
// handful of entries.
type TableService struct {
	entries []Entry
	// bag holds the lowercased stringified attribute set per entry,
	// precomputed once since the table is immutable
	bags   []string
	logger *logrus.Logger
}

// NewTableService creates a knowledge service over the built-in table.
func NewTableService(logger *logrus.Logger) *TableService {
	return NewTableServiceWithEntries(terrariaTable(), logger)
}

// NewTableServiceWithEntries creates a knowledge service over the given
// entries, preserving their order.
func NewTableServiceWithEntries(entries []Entry, logger *logrus.Logger) *TableService {
	s := &TableService{
		entries: entries,
		bags:    make([]string, len(entries)),
		logger:  logger,
	}
	for i, e := range entries {
		s.bags[i] = stringifyAttributes(e.Attributes)
	}
	logger.WithField("entries", len(entries)).Info("Knowledge table loaded")
	return s
}

// Search returns up to limit rendered entries whose name or attribute bag
// contains any whitespace-separated token of the query. Results follow table
// order; an entry matches at most once.
func (s *TableService) Search(query string, limit int) []string {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	tokens := strings.Fields(strings.ToLower(query))
	results := make([]string, 0, limit)
	if len(tokens) == 0 {
		return results
	}

	for i, entry := range s.entries {
		nameLower := strings.ToLower(entry.Name)
		matched := false
		for _, token := range tokens {
			if strings.Contains(nameLower, token) || strings.Contains(s.bags[i], token) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		results = append(results, renderEntry(entry))
		if len(results) >= limit {
			break
		}
	}

	return results
}

// AllEntries returns a copy of the table.
func (s *TableService) AllEntries() []Entry {
	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// renderEntry formats a matched entry for prompt context and search results.
func renderEntry(e Entry) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s (%s): %s", e.Name, e.Category, e.Attributes["description"]))
	if strategy, ok := e.Attributes["strategy"]; ok {
		b.WriteString(" Strategy: ")
		b.WriteString(strategy)
	}
	return b.String()
}

// stringifyAttributes flattens an attribute map into a single lowercased
// string for substring matching. Keys are sorted so the bag is deterministic.
func stringifyAttributes(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(attrs[k])
		b.WriteString(" ")
	}
	return strings.ToLower(b.String())
}
