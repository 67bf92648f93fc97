package enrich

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"

	"github.com/wienlist/event-aggregator/internal/domain"
)

// Ordered address selector heuristics: structured markup first, then
// the class names observed across venue sites. The first hit over the
// minimum length wins.
var addressSelectors = []string{
	`[itemprop="address"]`,
	"address",
	".venue-address",
	".contact-address",
	".address",
	".adresse",
	".location",
	"footer .contact",
}

const minAddressLength = 10

var (
	phonePattern = regexp.MustCompile(`(?:\+|0)[\d\s()/-]{6,}\d`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	// "Siebensterngasse 42" or "Obere Donaustraße 97-99".
	streetPattern = regexp.MustCompile(`^(.*?\S)\s+(\d+[a-zA-Z]?(?:\s*[-/]\s*\d+[a-zA-Z]?)?)$`)
	postalPattern = regexp.MustCompile(`\b(\d{4})\b`)
)

// extractVenue pulls address and contact metadata out of a detail page.
// Preference order: embedded JSON-LD, then selector heuristics, then
// regex sweeps over progressively wider text scopes.
func extractVenue(doc *goquery.Document, name, city, country string) domain.VenueRecord {
	record := domain.VenueRecord{
		Name:    name,
		City:    city,
		Country: country,
		Slug:    domain.Slugify(name),
	}

	applyStructured(doc, &record)

	if record.Street == "" {
		if raw := firstAddressText(doc); raw != "" {
			applyAddressText(raw, &record)
		}
	}
	if record.Phone == "" {
		record.Phone = firstMatchInScopes(doc, phonePattern, isPlausiblePhone)
	}
	if record.Email == "" {
		record.Email = firstMatchInScopes(doc, emailPattern, nil)
	}
	if record.Description == "" {
		if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
			record.Description = strings.TrimSpace(desc)
		}
	}
	if record.Accessibility == "" {
		record.Accessibility = collapsedText(doc.Find(".accessibility, .barrierefrei, .barrierefreiheit").First())
	}

	return record
}

// ldPlace is the subset of a schema.org Place/LocalBusiness block the
// extractor cares about. Address may be an object or a plain string.
type ldPlace struct {
	Type        string          `json:"@type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Telephone   string          `json:"telephone"`
	Email       string          `json:"email"`
	URL         string          `json:"url"`
	Address     json.RawMessage `json:"address"`
	Geo         struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"geo"`
}

type ldPostalAddress struct {
	StreetAddress   string `json:"streetAddress"`
	PostalCode      string `json:"postalCode"`
	AddressLocality string `json:"addressLocality"`
}

func applyStructured(doc *goquery.Document, record *domain.VenueRecord) {
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		place, ok := decodePlace(s.Text())
		if !ok {
			return true
		}

		if place.Telephone != "" {
			record.Phone = place.Telephone
		}
		if place.Email != "" {
			record.Email = place.Email
		}
		if place.URL != "" {
			record.WebsiteURL = place.URL
		}
		if place.Description != "" {
			record.Description = strings.TrimSpace(place.Description)
		}
		if place.Geo.Latitude != 0 || place.Geo.Longitude != 0 {
			record.Latitude = place.Geo.Latitude
			record.Longitude = place.Geo.Longitude
		}

		var addr ldPostalAddress
		if len(place.Address) > 0 && json.Unmarshal(place.Address, &addr) == nil {
			if addr.StreetAddress != "" {
				record.Street, record.HouseNumber = splitStreet(addr.StreetAddress)
			}
			if addr.PostalCode != "" {
				record.PostalCode = addr.PostalCode
			}
			if addr.AddressLocality != "" {
				record.City = addr.AddressLocality
			}
		} else if len(place.Address) > 0 {
			var flat string
			if json.Unmarshal(place.Address, &flat) == nil && flat != "" {
				applyAddressText(flat, record)
			}
		}
		return false
	})
}

// decodePlace accepts a lone object, a top-level array, or an @graph
// wrapper and returns the first place-like entity.
func decodePlace(raw string) (ldPlace, bool) {
	raw = strings.TrimSpace(raw)

	var one ldPlace
	if err := json.Unmarshal([]byte(raw), &one); err == nil && placeLike(one) {
		return one, true
	}

	var many []ldPlace
	if err := json.Unmarshal([]byte(raw), &many); err == nil {
		for _, p := range many {
			if placeLike(p) {
				return p, true
			}
		}
	}

	var graph struct {
		Graph []ldPlace `json:"@graph"`
	}
	if err := json.Unmarshal([]byte(raw), &graph); err == nil {
		for _, p := range graph.Graph {
			if placeLike(p) {
				return p, true
			}
		}
	}
	return ldPlace{}, false
}

func placeLike(p ldPlace) bool {
	switch p.Type {
	case "Place", "LocalBusiness", "NightClub", "BarOrPub", "MusicVenue", "EventVenue", "Restaurant":
		return true
	}
	return len(p.Address) > 0
}

func firstAddressText(doc *goquery.Document) string {
	for _, sel := range addressSelectors {
		text := collapsedText(doc.Find(sel).First())
		if len(text) >= minAddressLength {
			return text
		}
	}
	return ""
}

// splitStreet separates "Obere Donaustraße 97-99" into street and house
// number. Lines without a trailing number come back whole.
func splitStreet(s string) (string, string) {
	s = strings.TrimSpace(s)
	if m := streetPattern.FindStringSubmatch(s); m != nil {
		return m[1], strings.ReplaceAll(m[2], " ", "")
	}
	return s, ""
}

// applyAddressText parses a free-text address line like
// "Siebensterngasse 42, 1070 Wien" into its parts.
func applyAddressText(raw string, record *domain.VenueRecord) {
	parts := strings.Split(raw, ",")
	street, number := splitStreet(parts[0])
	if street != "" {
		record.Street = street
		record.HouseNumber = number
	}
	rest := strings.TrimSpace(strings.TrimPrefix(raw, parts[0]))
	if m := postalPattern.FindStringSubmatch(rest); m != nil {
		record.PostalCode = m[1]
	}
}

// firstMatchInScopes sweeps the pattern over progressively wider text
// scopes: contact regions, the footer, then the whole page.
func firstMatchInScopes(doc *goquery.Document, pattern *regexp.Regexp, accept func(string) bool) string {
	scopes := []string{
		".contact, .kontakt, #contact, #kontakt",
		"footer",
	}
	for _, sel := range scopes {
		if m := acceptedMatch(pattern, collapsedText(doc.Find(sel)), accept); m != "" {
			return m
		}
	}
	return acceptedMatch(pattern, collapsedText(doc.Selection), accept)
}

func acceptedMatch(pattern *regexp.Regexp, text string, accept func(string) bool) string {
	for _, m := range pattern.FindAllString(text, 8) {
		m = strings.TrimSpace(m)
		if accept == nil || accept(m) {
			return m
		}
	}
	return ""
}

// isPlausiblePhone rejects matches that are really dates or postal
// codes by requiring enough digits.
func isPlausiblePhone(s string) bool {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7
}

func collapsedText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
