// Package taxonomy is the single source of truth for translating the
// upstream source's free-text category labels and integer filter IDs
// into the fixed internal category set. The tables are editorial data:
// ambiguous labels resolve to a single hardcoded preferred category,
// chosen for consistency with the user-facing filters, and revisions
// belong here rather than in computed logic.
package taxonomy

import (
	"sort"
	"strings"

	"github.com/wienlist/event-aggregator/internal/domain"
)

// FilterID is the upstream source's integer identifier scoping a fetch
// request by category.
type FilterID int

// The fixed internal categories exposed by the read API.
const (
	ClubsDiscos   domain.Category = "Clubs/Discos"
	LiveKonzerte  domain.Category = "Live-Konzerte"
	Partys        domain.Category = "Partys"
	KulturTheater domain.Category = "Kultur & Theater"
	EssenTrinken  domain.Category = "Essen & Trinken"
	MaerkteFeste  domain.Category = "Märkte & Feste"
	Sport         domain.Category = "Sport"
	KinoFilm      domain.Category = "Kino & Film"
)

var categories = []domain.Category{
	ClubsDiscos,
	LiveKonzerte,
	Partys,
	KulturTheater,
	EssenTrinken,
	MaerkteFeste,
	Sport,
	KinoFilm,
}

// labelFilterIDs maps every known canonical external label to its
// upstream filter ID. All other tables must reference labels that exist
// verbatim here.
var labelFilterIDs = map[string]FilterID{
	"Party, Club & Discos":  12,
	"Rock, Pop, Jazz":       14,
	"Klassische Konzerte":   15,
	"Theater, Kabarett":     17,
	"Ausstellungen":         18,
	"Kulinarik":             21,
	"Märkte, Messen":        22,
	"Sport & Bewegung":      24,
	"Film & Kino":           26,
	"Führungen & Rundgänge": 27,
}

// forward maps each internal category to the external labels whose
// filter IDs a fetch for that category must request.
var forward = map[domain.Category][]string{
	ClubsDiscos:   {"Party, Club & Discos"},
	LiveKonzerte:  {"Rock, Pop, Jazz", "Klassische Konzerte"},
	Partys:        {"Party, Club & Discos"},
	KulturTheater: {"Theater, Kabarett", "Ausstellungen", "Führungen & Rundgänge"},
	EssenTrinken:  {"Kulinarik"},
	MaerkteFeste:  {"Märkte, Messen"},
	Sport:         {"Sport & Bewegung"},
	KinoFilm:      {"Film & Kino"},
}

// reverse maps each canonical external label to its preferred internal
// category. Labels reachable from more than one internal category keep
// exactly one editorial choice here ("Party, Club & Discos" files under
// Clubs/Discos, not Partys).
var reverse = map[string]domain.Category{
	"Party, Club & Discos":  ClubsDiscos,
	"Rock, Pop, Jazz":       LiveKonzerte,
	"Klassische Konzerte":   LiveKonzerte,
	"Theater, Kabarett":     KulturTheater,
	"Ausstellungen":         KulturTheater,
	"Führungen & Rundgänge": KulturTheater,
	"Kulinarik":             EssenTrinken,
	"Märkte, Messen":        MaerkteFeste,
	"Sport & Bewegung":      Sport,
	"Film & Kino":           KinoFilm,
}

// aliases maps observed label variants to their canonical form. Lookup
// is case-insensitive over the collapsed input.
var aliases = map[string]string{
	"rock/pop/jazz":           "Rock, Pop, Jazz",
	"rock, pop & jazz":        "Rock, Pop, Jazz",
	"klassik":                 "Klassische Konzerte",
	"party, club und discos":  "Party, Club & Discos",
	"clubs & discos":          "Party, Club & Discos",
	"theater & kabarett":      "Theater, Kabarett",
	"maerkte, messen":         "Märkte, Messen",
	"kino":                    "Film & Kino",
	"fuehrungen & rundgaenge": "Führungen & Rundgänge",
}

// Categories returns the fixed internal category set in display order.
func Categories() []domain.Category {
	out := make([]domain.Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c is one of the fixed internal categories.
func Valid(c domain.Category) bool {
	_, ok := forward[c]
	return ok
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Canonicalize trims and collapses whitespace and resolves known label
// variants to their canonical form. Unknown labels pass through
// unchanged, which makes the function idempotent.
func Canonicalize(raw string) string {
	s := collapseSpace(raw)
	if canon, ok := aliases[strings.ToLower(s)]; ok {
		return canon
	}
	return s
}

// MapExternalToInternal resolves an upstream label to its preferred
// internal category. ok is false for unmapped labels; callers keep such
// events out of category-scoped views but retain them in "all
// categories" views. Never panics, for any input.
func MapExternalToInternal(raw string) (domain.Category, bool) {
	label := Canonicalize(raw)
	if cat, ok := reverse[label]; ok {
		return cat, true
	}
	// Fall back to a case-insensitive scan over the canonical labels.
	for known, cat := range reverse {
		if strings.EqualFold(known, label) {
			return cat, true
		}
	}
	return "", false
}

// MapInternalToFilterIDs resolves the requested internal categories to
// the deduplicated set of upstream filter IDs, sorted ascending. An
// empty resolution (no categories given, or none mapped) falls back to
// the full known filter-ID set so that a defensively-empty request
// cannot silently return zero results.
func MapInternalToFilterIDs(cats []domain.Category) []FilterID {
	seen := make(map[FilterID]struct{})
	for _, cat := range cats {
		for _, label := range forward[cat] {
			if id, ok := labelFilterIDs[label]; ok {
				seen[id] = struct{}{}
			}
		}
	}
	if len(seen) == 0 {
		return AllFilterIDs()
	}
	ids := make([]FilterID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AllFilterIDs returns every known upstream filter ID, sorted ascending.
func AllFilterIDs() []FilterID {
	ids := make([]FilterID, 0, len(labelFilterIDs))
	for _, id := range labelFilterIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
