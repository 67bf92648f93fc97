package taxonomy

import (
	"testing"

	"github.com/wienlist/event-aggregator/internal/domain"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims and collapses whitespace", "  Rock,   Pop, Jazz ", "Rock, Pop, Jazz"},
		{"alias resolves", "Rock/Pop/Jazz", "Rock, Pop, Jazz"},
		{"alias is case-insensitive", "KLASSIK", "Klassische Konzerte"},
		{"ascii variant of umlaut label", "Maerkte, Messen", "Märkte, Messen"},
		{"unknown label passes through", "Irgendwas Neues", "Irgendwas Neues"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.in); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Rock/Pop/Jazz",
		"  Party,  Club & Discos ",
		"Klassik",
		"unmapped label",
		"",
	}
	for _, in := range inputs {
		once := Canonicalize(in)
		if twice := Canonicalize(once); twice != once {
			t.Errorf("Canonicalize not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestMapExternalToInternal(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   domain.Category
		wantOK bool
	}{
		{"canonical label", "Rock, Pop, Jazz", LiveKonzerte, true},
		{"alias variant", "Rock/Pop/Jazz", LiveKonzerte, true},
		{"case-insensitive scan", "rock, pop, jazz", LiveKonzerte, true},
		{"ambiguous label takes the preferred category", "Party, Club & Discos", ClubsDiscos, true},
		{"unmapped", "Quantenphysik", "", false},
		{"empty string", "", "", false},
		{"whitespace only", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MapExternalToInternal(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("MapExternalToInternal(%q) = (%q, %v), want (%q, %v)",
					tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMapInternalToFilterIDs_LiveKonzerte(t *testing.T) {
	ids := MapInternalToFilterIDs([]domain.Category{LiveKonzerte})
	if len(ids) != 2 {
		t.Fatalf("Live-Konzerte should resolve to exactly 2 filter IDs, got %v", ids)
	}
	seen := map[FilterID]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate filter ID %d", id)
		}
		seen[id] = true
	}

	// Requesting overlapping categories alongside must not change the
	// contribution: the union still contains both Live-Konzerte IDs.
	union := MapInternalToFilterIDs([]domain.Category{LiveKonzerte, ClubsDiscos, Partys})
	for _, id := range ids {
		found := false
		for _, u := range union {
			if u == id {
				found = true
			}
		}
		if !found {
			t.Errorf("union is missing Live-Konzerte filter ID %d", id)
		}
	}
}

func TestMapInternalToFilterIDs_EmptyFallsBackToFullSet(t *testing.T) {
	all := AllFilterIDs()
	if len(all) == 0 {
		t.Fatal("known filter-ID set must not be empty")
	}

	got := MapInternalToFilterIDs(nil)
	if len(got) != len(all) {
		t.Fatalf("empty request should fall back to all %d IDs, got %d", len(all), len(got))
	}

	// Same fallback when none of the requested categories map.
	got = MapInternalToFilterIDs([]domain.Category{"Kein Echtes Genre"})
	if len(got) != len(all) {
		t.Fatalf("unmapped request should fall back to all %d IDs, got %d", len(all), len(got))
	}
}

func TestMapInternalToFilterIDs_OverlapDeduplicated(t *testing.T) {
	// Clubs/Discos and Partys share one upstream label; the resolved
	// set must carry its filter ID once.
	ids := MapInternalToFilterIDs([]domain.Category{ClubsDiscos, Partys})
	if len(ids) != 1 {
		t.Errorf("overlapping categories should deduplicate to 1 ID, got %v", ids)
	}
}

// Every label referenced by the alias and reverse tables must exist
// verbatim in the filter-ID table, and every forward label must resolve
// to an ID. A label drifting out of sync silently drops events.
func TestReferentialIntegrity(t *testing.T) {
	for variant, canon := range aliases {
		if _, ok := labelFilterIDs[canon]; !ok {
			t.Errorf("alias %q points at label %q missing from the filter-ID table", variant, canon)
		}
	}
	for label := range reverse {
		if _, ok := labelFilterIDs[label]; !ok {
			t.Errorf("reverse table label %q missing from the filter-ID table", label)
		}
	}
	for cat, labels := range forward {
		if len(labels) == 0 {
			t.Errorf("category %q has no external labels", cat)
		}
		for _, label := range labels {
			if _, ok := labelFilterIDs[label]; !ok {
				t.Errorf("forward label %q for category %q missing from the filter-ID table", label, cat)
			}
		}
	}
}

func TestCategories_Fixed(t *testing.T) {
	cats := Categories()
	if len(cats) == 0 {
		t.Fatal("category set must not be empty")
	}
	for _, c := range cats {
		if !Valid(c) {
			t.Errorf("category %q not valid against the forward table", c)
		}
	}
	if Valid("Nicht Vorhanden") {
		t.Error("unknown category reported valid")
	}
}
