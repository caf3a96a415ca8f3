package matching

// Curated rule data for the signal scorers. Keys and phrases are kept narrow:
// short generic keys (e.g. "av") over-match on tender boilerplate.

// DomainSynonyms maps a domain key phrase to its equivalents.
var DomainSynonyms = map[string][]string{
	"audio visual":          {"audiovisual", "audio visual system", "audio-visual", "audiovisual equipment", "audio video system"},
	"audiovisual equipment": {"audio visual", "audio visual system", "audio-visual", "audiovisual"},
	"audio visual system":   {"audio visual", "audiovisual", "audiovisual equipment", "audio-visual"},

	"led wall":        {"led walls", "led display wall", "video wall", "led video wall"},
	"led walls":       {"led wall", "led display wall", "video wall", "led video wall"},
	"video wall":      {"led wall", "led walls", "led display wall", "display wall"},
	"led display":     {"led screen", "led panel", "digital display panel"},
	"digital signage": {"led signage", "electronic signage", "digital display signage"},

	"projector":         {"projectors", "projection system", "projection equipment", "lcd projector", "dlp projector", "video projector"},
	"projectors":        {"projector", "projection system", "projection equipment"},
	"projection system": {"projector", "projectors", "projection equipment"},

	"museum":             {"museums", "memorial museum", "heritage museum"},
	"museums":            {"museum", "memorial museum", "heritage museum"},
	"memorial":           {"memorials", "national memorial", "war memorial", "monument"},
	"memorials":          {"memorial", "national memorial", "monuments"},
	"national memorials": {"memorial", "memorials", "national memorial", "monuments"},
	"heritage":           {"heritage site", "cultural heritage", "historical"},
	"archaeology":        {"archaeological", "heritage", "historical"},

	"government infrastructure": {"govt infrastructure", "public infrastructure", "government facility"},
	"public sector":             {"government sector", "govt sector"},

	"amc":                {"annual maintenance contract", "maintenance contract"},
	"annual maintenance": {"amc", "annual maintenance contract", "yearly maintenance"},
}

// TechSynonyms maps a technology key phrase to its equivalents.
var TechSynonyms = map[string][]string{
	"audio visual system": {"audiovisual system", "audio-visual system", "audio video system"},
	"led walls":           {"led wall", "video wall", "led display wall", "led video wall"},
	"led wall":            {"led walls", "video wall", "led display wall"},
	"projector":           {"projectors", "projection system", "video projector", "lcd projector", "dlp projector"},
	"projectors":          {"projector", "projection system"},
	"interactive panels":  {"interactive display", "touch panel", "smart board", "interactive whiteboard"},
}

// genericWords are never added as standalone words during expansion.
var genericWords = map[string]struct{}{
	"system": {}, "systems": {}, "service": {}, "services": {}, "equipment": {}, "contract": {},
	"management": {}, "maintenance": {}, "support": {}, "solution": {}, "solutions": {},
	"infrastructure": {}, "technology": {}, "technologies": {}, "annual": {}, "comprehensive": {},
}

// overlapStopWords are dropped from word-level overlap.
var overlapStopWords = map[string]struct{}{
	"and": {}, "the": {}, "for": {}, "with": {}, "from": {}, "into": {},
}

// PhraseCategory is a capability category and the phrases that evidence it.
type PhraseCategory struct {
	Name    string
	Phrases []string
}

// CapabilityCategories drive the capability-phrase signal. Order is significant
// for reason output.
var CapabilityCategories = []PhraseCategory{
	{Name: "audio visual", Phrases: []string{"audio visual", "audiovisual", "audio-visual", "av system"}},
	{Name: "led wall", Phrases: []string{"led wall", "led walls", "video wall", "led display wall"}},
	{Name: "projector", Phrases: []string{"projector", "projectors", "projection system", "projection equipment"}},
	{Name: "maintenance", Phrases: []string{"annual maintenance", "amc", "comprehensive maintenance", "maintenance contract"}},
	{Name: "content production", Phrases: []string{"content production", "media production", "video production"}},
	{Name: "museum", Phrases: []string{"museum", "museums", "memorial", "memorials", "heritage"}},
}

// TextCapabilityPhrases are looked up directly in tender text by the text-match signal.
var TextCapabilityPhrases = []string{
	"audio visual", "audiovisual", "led wall", "led walls", "video wall",
	"projector", "projectors", "projection", "memorial", "museum",
}

// ImportantProfileTerms are profile-domain terms checked for co-occurrence in tender text.
var ImportantProfileTerms = []string{
	"museum", "memorial", "heritage", "archaeology", "audio visual", "audiovisual", "led wall", "projector",
}
