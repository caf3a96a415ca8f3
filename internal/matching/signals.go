package matching

import (
	"sort"
	"strings"

	"github.com/Dev7-web/tendorlelo/internal/domain/metadata"
)

// Reason caps per signal.
const (
	maxOverlapReasons    = 5
	maxCapabilityReasons = 4
	maxTextReasons       = 5
	maxCrossReasons      = 3
)

const (
	directOverlapWeight = 0.5
	wordOverlapWeight   = 0.3
	fuzzyOverlapWeight  = 0.2
	fuzzyPairThreshold  = 0.5
	overlapBoost        = 1.5
	minOverlapWord      = 3

	capabilityHitScore = 0.25
	textHitScore       = 0.2
	crossContainScore  = 0.3
	crossWordsScore    = 0.2
	crossTermScore     = 0.3

	minTextDomain   = 5
	minTextSynonym  = 8
	minTextTech     = 5
	minCrossTech    = 8
	minCrossWord    = 4
	minCrossCommons = 2
)

// Signal is the outcome of one scoring dimension.
type Signal struct {
	Score   float64
	Reasons []string
}

// OverlapScore compares tender-side terms against profile-side terms after
// synonym expansion, blending direct, word-level and fuzzy overlap.
func (e *Expander) OverlapScore(tenderTerms, profileTerms []string) Signal {
	tenderNorm := normalizeAll(tenderTerms)
	if len(tenderNorm) == 0 || len(normalizeAll(profileTerms)) == 0 {
		return Signal{}
	}

	display := make(map[string]string, len(tenderTerms))
	for _, raw := range tenderTerms {
		if n := Normalize(raw); n != "" {
			if _, seen := display[n]; !seen {
				display[n] = strings.TrimSpace(raw)
			}
		}
	}

	tenderExp := e.Expand(tenderTerms)
	profileExp := e.Expand(profileTerms)

	direct := make(map[string]struct{})
	for t := range tenderExp {
		if _, ok := profileExp[t]; ok {
			direct[t] = struct{}{}
		}
	}

	tenderWords := overlapWords(tenderExp)
	profileWords := overlapWords(profileExp)
	wordOverlap := make(map[string]struct{})
	for w := range tenderWords {
		if _, ok := profileWords[w]; ok && runeLen(w) > minOverlapWord {
			wordOverlap[w] = struct{}{}
		}
	}

	type fuzzyPair struct {
		tender, profile string
		score           float64
	}
	var fuzzy []fuzzyPair
	var fuzzySum float64
	profileSorted := sortedKeys(profileExp)
	for _, t := range sortedKeys(tenderExp) {
		if _, ok := direct[t]; ok {
			continue
		}
		for _, p := range profileSorted {
			if _, ok := direct[p]; ok {
				continue
			}
			if s := fuzzyNormalized(t, p); s >= fuzzyPairThreshold {
				fuzzy = append(fuzzy, fuzzyPair{tender: t, profile: p, score: s})
				fuzzySum += s
			}
		}
	}

	termCount := float64(len(tenderNorm))
	score := float64(len(direct))/termCount*directOverlapWeight +
		float64(len(wordOverlap))/float64(max(len(tenderWords), 1))*wordOverlapWeight +
		fuzzySum/termCount*fuzzyOverlapWeight
	score = clamp01(score)
	if len(direct) >= 2 || len(wordOverlap) >= 3 {
		score = clamp01(score * overlapBoost)
	}

	// Tender terms as written come first, derived terms after.
	reasons := make([]string, 0, maxOverlapReasons)
	listed := make(map[string]struct{}, len(direct))
	for _, t := range tenderNorm {
		if _, ok := direct[t]; !ok {
			continue
		}
		if _, dup := listed[t]; dup {
			continue
		}
		listed[t] = struct{}{}
		reasons = append(reasons, display[t])
	}
	for _, t := range sortedKeys(direct) {
		if _, dup := listed[t]; !dup {
			reasons = append(reasons, t)
		}
	}
	reasons = capReasons(reasons, maxOverlapReasons)
	if len(wordOverlap) > 0 {
		ws := sortedKeys(wordOverlap)
		reasons = append(reasons, "words: "+strings.Join(ws[:min(len(ws), 3)], ", "))
	}
	for _, f := range fuzzy[:min(len(fuzzy), 2)] {
		reasons = append(reasons, f.tender+"~"+f.profile)
	}

	return Signal{Score: score, Reasons: capReasons(reasons, maxOverlapReasons)}
}

// overlapWords splits expanded terms into words, minus stop words.
func overlapWords(terms map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for t := range terms {
		for _, w := range strings.Fields(t) {
			if _, stop := overlapStopWords[w]; !stop {
				out[w] = struct{}{}
			}
		}
	}
	return out
}

// CapabilityScore credits each capability category that the profile claims
// and the tender title or summary mentions.
func CapabilityScore(tender, profile metadata.Record) Signal {
	if len(profile.Capabilities) == 0 {
		return Signal{}
	}
	tenderText := Normalize(tender.TitleAndSummary())
	if tenderText == "" {
		return Signal{}
	}

	seen := make(map[string]struct{})
	var hits []string
	for _, raw := range profile.Capabilities {
		capability := Normalize(raw)
		if capability == "" {
			continue
		}
		for _, cat := range CapabilityCategories {
			if !containsAny(capability, cat.Phrases) {
				continue
			}
			for _, phrase := range cat.Phrases {
				if !strings.Contains(tenderText, phrase) {
					continue
				}
				hit := cat.Name + ":" + phrase
				if _, dup := seen[hit]; !dup {
					seen[hit] = struct{}{}
					hits = append(hits, hit)
				}
				break
			}
		}
	}

	return Signal{
		Score:   clamp01(float64(len(hits)) * capabilityHitScore),
		Reasons: capReasons(hits, maxCapabilityReasons),
	}
}

// TextMatchScore looks for profile domains, technologies and known
// capability phrases inside the tender's title and summary.
func (e *Expander) TextMatchScore(tender, profile metadata.Record) Signal {
	text := Normalize(tender.TitleAndSummary())
	if text == "" {
		return Signal{}
	}

	var matched []string
	for _, domain := range profile.Domains {
		norm := Normalize(domain)
		if norm == "" {
			continue
		}
		if runeLen(norm) > minTextDomain && strings.Contains(text, norm) {
			matched = append(matched, "domain:"+domain)
		}
		for _, term := range sortedKeys(e.Expand([]string{domain})) {
			if runeLen(term) > minTextSynonym && strings.Contains(text, term) {
				matched = append(matched, "domain:"+term)
				break
			}
		}
	}

	for _, tech := range profile.Technologies {
		norm := Normalize(tech)
		if runeLen(norm) > minTextTech && strings.Contains(text, norm) {
			matched = append(matched, "tech:"+tech)
		}
	}

	for _, phrase := range TextCapabilityPhrases {
		if strings.Contains(text, phrase) {
			matched = append(matched, "phrase:"+phrase)
		}
	}

	if len(matched) == 0 {
		return Signal{}
	}
	return Signal{
		Score:   clamp01(float64(len(matched)) * textHitScore),
		Reasons: capReasons(matched, maxTextReasons),
	}
}

// CrossMatchScore matches tender domains against profile technologies and
// checks important profile domain terms against the tender text.
func CrossMatchScore(tender, profile metadata.Record) Signal {
	var matches []string
	var score float64

	tenderDomains := sortedKeys(toSet(normalizeAll(tender.Domains)))
	profileTechs := sortedKeys(toSet(normalizeAll(profile.Technologies)))

	for _, td := range tenderDomains {
		tdWords := words(td)
		for _, pt := range profileTechs {
			if runeLen(pt) > minCrossTech && (strings.Contains(td, pt) || strings.Contains(pt, td)) {
				matches = append(matches, "domain-tech:"+pt)
				score += crossContainScore
			}

			var common []string
			for w := range words(pt) {
				if _, ok := tdWords[w]; ok && runeLen(w) > minCrossWord {
					common = append(common, w)
				}
			}
			if len(common) >= minCrossCommons {
				sort.Strings(common)
				matches = append(matches, "domain-tech-words:"+strings.Join(common, ", "))
				score += crossWordsScore
			}
		}
	}

	text := Normalize(tender.TitleAndSummary())
	if text != "" {
		for _, domain := range profile.Domains {
			norm := Normalize(domain)
			for _, term := range ImportantProfileTerms {
				if strings.Contains(norm, term) && strings.Contains(text, term) {
					matches = append(matches, "profile-domain-in-text:"+term)
					score += crossTermScore
					break
				}
			}
		}
	}

	return Signal{Score: clamp01(score), Reasons: capReasons(matches, maxCrossReasons)}
}

// GovernmentScore is 1 when the tender names a sector and the profile has
// government experience.
func GovernmentScore(tender, profile metadata.Record) Signal {
	if strings.TrimSpace(tender.Sector) == "" || !profile.GovernmentExperience {
		return Signal{}
	}
	return Signal{Score: 1, Reasons: []string{"Government sector experience"}}
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

func capReasons(reasons []string, n int) []string {
	if len(reasons) > n {
		return reasons[:n]
	}
	return reasons
}

func clamp01(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
