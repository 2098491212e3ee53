package language

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/GT-610/chaos-translator/internal/apperrors"
)

// Names maps provider language codes to their display names.
var Names = map[string]string{
	"af":    "afrikaans",
	"sq":    "albanian",
	"am":    "amharic",
	"ar":    "arabic",
	"hy":    "armenian",
	"az":    "azerbaijani",
	"eu":    "basque",
	"be":    "belarusian",
	"bn":    "bengali",
	"bs":    "bosnian",
	"bg":    "bulgarian",
	"ca":    "catalan",
	"ceb":   "cebuano",
	"ny":    "chichewa",
	"zh-cn": "chinese (simplified)",
	"zh-tw": "chinese (traditional)",
	"co":    "corsican",
	"hr":    "croatian",
	"cs":    "czech",
	"da":    "danish",
	"nl":    "dutch",
	"en":    "english",
	"eo":    "esperanto",
	"et":    "estonian",
	"tl":    "filipino",
	"fi":    "finnish",
	"fr":    "french",
	"fy":    "frisian",
	"gl":    "galician",
	"ka":    "georgian",
	"de":    "german",
	"el":    "greek",
	"gu":    "gujarati",
	"ht":    "haitian creole",
	"ha":    "hausa",
	"haw":   "hawaiian",
	"iw":    "hebrew",
	"he":    "hebrew",
	"hi":    "hindi",
	"hmn":   "hmong",
	"hu":    "hungarian",
	"is":    "icelandic",
	"ig":    "igbo",
	"id":    "indonesian",
	"ga":    "irish",
	"it":    "italian",
	"ja":    "japanese",
	"jw":    "javanese",
	"kn":    "kannada",
	"kk":    "kazakh",
	"km":    "khmer",
	"ko":    "korean",
	"ku":    "kurdish (kurmanji)",
	"ky":    "kyrgyz",
	"lo":    "lao",
	"la":    "latin",
	"lv":    "latvian",
	"lt":    "lithuanian",
	"lb":    "luxembourgish",
	"mk":    "macedonian",
	"mg":    "malagasy",
	"ms":    "malay",
	"ml":    "malayalam",
	"mt":    "maltese",
	"mi":    "maori",
	"mr":    "marathi",
	"mn":    "mongolian",
	"my":    "myanmar (burmese)",
	"ne":    "nepali",
	"no":    "norwegian",
	"or":    "odia",
	"ps":    "pashto",
	"fa":    "persian",
	"pl":    "polish",
	"pt":    "portuguese",
	"pa":    "punjabi",
	"ro":    "romanian",
	"ru":    "russian",
	"sm":    "samoan",
	"gd":    "scots gaelic",
	"sr":    "serbian",
	"st":    "sesotho",
	"sn":    "shona",
	"sd":    "sindhi",
	"si":    "sinhala",
	"sk":    "slovak",
	"sl":    "slovenian",
	"so":    "somali",
	"es":    "spanish",
	"su":    "sundanese",
	"sw":    "swahili",
	"sv":    "swedish",
	"tg":    "tajik",
	"ta":    "tamil",
	"te":    "telugu",
	"th":    "thai",
	"tr":    "turkish",
	"uk":    "ukrainian",
	"ur":    "urdu",
	"ug":    "uyghur",
	"uz":    "uzbek",
	"vi":    "vietnamese",
	"cy":    "welsh",
	"xh":    "xhosa",
	"yi":    "yiddish",
	"yo":    "yoruba",
	"zu":    "zulu",
}

// Blacklist holds codes that degrade badly when used as an intermediate hop.
var Blacklist = []string{
	// Semitic scripts
	"ar", "fa", "he",
	// South Asian ligatures and compounds
	"si", "ne",
	// Sparse corpora
	"sn", "zu",
	// Polysynthetic
	"iu", "kl",
	// Special writing systems
	"hy", "ka",
	"km", "my",
}

// Catalog is an immutable language table with a derived set of hop targets.
type Catalog struct {
	names    map[string]string
	eligible []string
	isElig   map[string]bool
}

// Entry represents a catalog row for listing.
type Entry struct {
	Code     string
	Name     string
	Eligible bool
}

// NewCatalog copies names and derives the eligible set: two-letter codes not in blacklist.
func NewCatalog(names map[string]string, blacklist []string) *Catalog {
	blocked := make(map[string]bool, len(blacklist))
	for _, code := range blacklist {
		blocked[Normalize(code)] = true
	}

	c := &Catalog{
		names:  make(map[string]string, len(names)),
		isElig: make(map[string]bool),
	}
	for code, name := range names {
		code = Normalize(code)
		c.names[code] = name
		if len(code) == 2 && !blocked[code] {
			c.isElig[code] = true
			c.eligible = append(c.eligible, code)
		}
	}
	sort.Strings(c.eligible)
	return c
}

var defaultCatalog = NewCatalog(Names, Blacklist)

// Default returns the process-wide catalog built from Names and Blacklist.
func Default() *Catalog {
	return defaultCatalog
}

// Normalize lowercases and trims a language code.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Has reports whether code is present in the catalog.
func (c *Catalog) Has(code string) bool {
	_, ok := c.names[Normalize(code)]
	return ok
}

// IsEligible reports whether code may be picked as a random hop target.
func (c *Catalog) IsEligible(code string) bool {
	return c.isElig[Normalize(code)]
}

// DisplayName returns the display name for code.
func (c *Catalog) DisplayName(code string) (string, error) {
	name, ok := c.names[Normalize(code)]
	if !ok {
		return "", apperrors.UnknownLanguage(code)
	}
	return name, nil
}

// PickRandomEligible draws uniformly from the eligible set. Previous picks are not remembered.
func (c *Catalog) PickRandomEligible(rng *rand.Rand) string {
	if len(c.eligible) == 0 {
		return ""
	}
	return c.eligible[rng.Intn(len(c.eligible))]
}

// Eligible returns a sorted copy of the eligible codes.
func (c *Catalog) Eligible() []string {
	out := make([]string, len(c.eligible))
	copy(out, c.eligible)
	return out
}

// Entries returns all languages sorted by Name and then Code.
func (c *Catalog) Entries() []Entry {
	entries := make([]Entry, 0, len(c.names))
	for code, name := range c.names {
		entries = append(entries, Entry{Code: code, Name: name, Eligible: c.isElig[code]})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Code < entries[j].Code
	})
	return entries
}
