package retriever

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// entityPattern matches capitalized word runs, the cheap stand-in for named
// entities. "New York City" matches as one entity, "the city" as none.
var entityPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)*\b`)

// extractEntities returns the distinct entities of text in first-appearance
// order.
func extractEntities(text string) []string {
	matches := entityPattern.FindAllString(text, -1)
	seen := make(map[string]bool, len(matches))
	entities := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		entities = append(entities, m)
	}
	return entities
}

// entityGraph links entities that co-occur within the same chunk. It is
// rebuilt per retrieval from the chunk texts, so it always reflects the
// current contents of the knowledge base.
type entityGraph struct {
	adjacency map[string]map[string]bool
	mentions  map[string][]int
	chunks    []string
}

func buildEntityGraph(chunkTexts []string) *entityGraph {
	g := &entityGraph{
		adjacency: make(map[string]map[string]bool),
		mentions:  make(map[string][]int),
		chunks:    chunkTexts,
	}

	for i, text := range chunkTexts {
		entities := extractEntities(text)
		for _, e := range entities {
			g.mentions[e] = append(g.mentions[e], i)
		}
		for _, a := range entities {
			for _, b := range entities {
				if a == b {
					continue
				}
				if g.adjacency[a] == nil {
					g.adjacency[a] = make(map[string]bool)
				}
				g.adjacency[a][b] = true
			}
		}
	}
	return g
}

// match returns the graph nodes mentioned by query, sorted for determinism.
// Matching is case-insensitive and by substring, so lowercase questions still
// reach capitalized node names. Surrounding punctuation on query words is
// stripped before matching.
func (g *entityGraph) match(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	for i, w := range words {
		words[i] = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
	}

	var matched []string
	for node := range g.mentions {
		lower := strings.ToLower(node)
		for _, w := range words {
			if w != "" && strings.Contains(lower, w) {
				matched = append(matched, node)
				break
			}
		}
	}
	sort.Strings(matched)
	return matched
}

// neighbors returns the entities adjacent to any of the given ones, sorted
// for determinism. The input entities themselves are excluded.
func (g *entityGraph) neighbors(entities []string) []string {
	self := make(map[string]bool, len(entities))
	for _, e := range entities {
		self[e] = true
	}

	found := make(map[string]bool)
	for _, e := range entities {
		for n := range g.adjacency[e] {
			if !self[n] {
				found[n] = true
			}
		}
	}

	out := make([]string, 0, len(found))
	for n := range found {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// chunkFor returns the first chunk text mentioning entity, or "" if none.
func (g *entityGraph) chunkFor(entity string) string {
	idx := g.mentions[entity]
	if len(idx) == 0 {
		return ""
	}
	return g.chunks[idx[0]]
}
