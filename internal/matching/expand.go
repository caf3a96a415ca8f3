package matching

import (
	"sort"
	"strings"
)

// minKeyContainment is the normalized key length above which a key contained
// in a term triggers expansion. Shorter keys must match exactly.
const minKeyContainment = 6

// minExpandedWord is the length a word must exceed to be added on its own.
const minExpandedWord = 4

type synonymEntry struct {
	key      string
	synonyms map[string]struct{}
}

// SynonymTable is a normalized, immutable form of a synonym map.
type SynonymTable struct {
	entries []synonymEntry
}

// NewSynonymTable normalizes raw key → synonyms data into a lookup table.
func NewSynonymTable(raw map[string][]string) SynonymTable {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]synonymEntry, 0, len(keys))
	for _, k := range keys {
		nk := Normalize(k)
		if nk == "" {
			continue
		}
		syn := make(map[string]struct{}, len(raw[k]))
		for _, s := range raw[k] {
			if ns := Normalize(s); ns != "" {
				syn[ns] = struct{}{}
			}
		}
		entries = append(entries, synonymEntry{key: nk, synonyms: syn})
	}
	return SynonymTable{entries: entries}
}

// expandInto adds the synonyms of every entry matching the normalized term.
func (t SynonymTable) expandInto(term string, out map[string]struct{}) {
	for _, e := range t.entries {
		_, isSynonym := e.synonyms[term]
		exact := term == e.key || isSynonym
		contained := runeLen(e.key) > minKeyContainment && strings.Contains(term, e.key)
		if !exact && !contained {
			continue
		}
		out[e.key] = struct{}{}
		for s := range e.synonyms {
			out[s] = struct{}{}
		}
	}
}

// Expander widens term sets through the domain and technology synonym tables.
type Expander struct {
	domain SynonymTable
	tech   SynonymTable
}

// NewExpander creates an expander over the given tables.
func NewExpander(domain, tech SynonymTable) *Expander {
	return &Expander{domain: domain, tech: tech}
}

// DefaultExpander uses DomainSynonyms and TechSynonyms.
func DefaultExpander() *Expander {
	return NewExpander(NewSynonymTable(DomainSynonyms), NewSynonymTable(TechSynonyms))
}

// Expand returns the normalized terms, their meaningful words and all
// synonym-table equivalents. Blank terms contribute nothing.
func (e *Expander) Expand(terms []string) map[string]struct{} {
	out := make(map[string]struct{}, len(terms)*2)
	for _, raw := range terms {
		term := Normalize(raw)
		if term == "" {
			continue
		}
		out[term] = struct{}{}

		for _, w := range strings.Fields(term) {
			if runeLen(w) <= minExpandedWord {
				continue
			}
			if _, generic := genericWords[w]; generic {
				continue
			}
			out[w] = struct{}{}
		}

		e.domain.expandInto(term, out)
		e.tech.expandInto(term, out)
	}
	return out
}

// sortedKeys returns set members in lexical order.
func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
