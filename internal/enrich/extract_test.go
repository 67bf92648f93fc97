package enrich

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing test document: %v", err)
	}
	return doc
}

func TestExtractVenue_SelectorHeuristics(t *testing.T) {
	// No JSON-LD; the ordered selector list should find the address block.
	doc := docFromHTML(t, `<html><body>
		<div class="address">Spittelberggasse 3, 1070 Wien</div>
		<div class="kontakt">Tel: +43 1 523 12 34, office@lokal.at</div>
	</body></html>`)

	rec := extractVenue(doc, "Das Lokal", "Wien", "Austria")

	if rec.Street != "Spittelberggasse" || rec.HouseNumber != "3" {
		t.Errorf("street = %q %q, want Spittelberggasse 3", rec.Street, rec.HouseNumber)
	}
	if rec.PostalCode != "1070" {
		t.Errorf("postal code = %q, want 1070", rec.PostalCode)
	}
	if rec.Phone == "" {
		t.Error("phone should be found in the contact scope")
	}
	if rec.Email != "office@lokal.at" {
		t.Errorf("email = %q", rec.Email)
	}
}

func TestExtractVenue_ShortAddressCandidateSkipped(t *testing.T) {
	// The first selector hit is below the minimum length; the next
	// candidate in the ordered list should win.
	doc := docFromHTML(t, `<html><body>
		<div class="address">Wien</div>
		<div class="location">Obere Donaustraße 97-99, 1020 Wien</div>
	</body></html>`)

	rec := extractVenue(doc, "U4", "Wien", "Austria")
	if rec.Street != "Obere Donaustraße" {
		t.Errorf("street = %q, want the longer candidate", rec.Street)
	}
	if rec.HouseNumber != "97-99" {
		t.Errorf("house number = %q, want 97-99", rec.HouseNumber)
	}
}

func TestExtractVenue_WideningScopes(t *testing.T) {
	// No contact block, no footer match; the whole-page sweep should
	// still find the email.
	doc := docFromHTML(t, `<html><body>
		<p>Reservierungen unter reservierung@werk.wien bitte.</p>
	</body></html>`)

	rec := extractVenue(doc, "Das Werk", "Wien", "Austria")
	if rec.Email != "reservierung@werk.wien" {
		t.Errorf("email = %q", rec.Email)
	}
}

func TestExtractVenue_PhonePlausibility(t *testing.T) {
	// A postal code alone must not be taken for a phone number.
	doc := docFromHTML(t, `<html><body><footer>1070 Wien</footer></body></html>`)

	rec := extractVenue(doc, "Ohne Telefon", "Wien", "Austria")
	if rec.Phone != "" {
		t.Errorf("postal code mistaken for phone: %q", rec.Phone)
	}
}

func TestExtractVenue_GraphWrapper(t *testing.T) {
	doc := docFromHTML(t, `<html><head>
		<script type="application/ld+json">
		{"@graph": [
			{"@type": "WebSite", "name": "irrelevant"},
			{"@type": "EventVenue", "name": "Grelle Forelle",
			 "address": {"streetAddress": "Spittelauer Lände 12", "postalCode": "1090", "addressLocality": "Wien"}}
		]}
		</script>
	</head><body></body></html>`)

	rec := extractVenue(doc, "Grelle Forelle", "Wien", "Austria")
	if rec.Street != "Spittelauer Lände" || rec.HouseNumber != "12" {
		t.Errorf("street = %q %q, want Spittelauer Lände 12", rec.Street, rec.HouseNumber)
	}
	if rec.PostalCode != "1090" {
		t.Errorf("postal code = %q", rec.PostalCode)
	}
}

func TestExtractVenue_EmptyPage(t *testing.T) {
	doc := docFromHTML(t, `<html><body></body></html>`)

	rec := extractVenue(doc, "Leere Seite", "Wien", "Austria")
	if rec.Name != "Leere Seite" || rec.City != "Wien" || rec.Country != "Austria" {
		t.Errorf("identity fields must survive an empty page: %+v", rec)
	}
	if rec.Slug != "leere-seite" {
		t.Errorf("slug = %q", rec.Slug)
	}
}

func TestSplitStreetHelper(t *testing.T) {
	tests := []struct {
		in         string
		street, nr string
	}{
		{"Augartenbrücke 1", "Augartenbrücke", "1"},
		{"Obere Donaustraße 97-99", "Obere Donaustraße", "97-99"},
		{"U4-Center 2a", "U4-Center", "2a"},
		{"Nur Straße", "Nur Straße", ""},
	}
	for _, tt := range tests {
		street, nr := splitStreet(tt.in)
		if street != tt.street || nr != tt.nr {
			t.Errorf("splitStreet(%q) = (%q, %q), want (%q, %q)", tt.in, street, nr, tt.street, tt.nr)
		}
	}
}
