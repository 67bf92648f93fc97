package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// VenueRecord holds enriched venue metadata, persisted independently of
// events and looked up by name. Enrichment batches overwrite whole
// records, upserted by slug.
type VenueRecord struct {
	Name          string  `json:"name"`
	Street        string  `json:"street,omitempty"`
	HouseNumber   string  `json:"house_number,omitempty"`
	PostalCode    string  `json:"postal_code,omitempty"`
	City          string  `json:"city"`
	Country       string  `json:"country"`
	Latitude      float64 `json:"latitude,omitempty"`
	Longitude     float64 `json:"longitude,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	Email         string  `json:"email,omitempty"`
	WebsiteURL    string  `json:"website_url,omitempty"`
	Description   string  `json:"description,omitempty"`
	Accessibility string  `json:"accessibility,omitempty"`
	Slug          string  `json:"slug"`
}

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a stable slug from a venue name: diacritics stripped,
// ß expanded, runs of non-alphanumerics collapsed to single hyphens.
func Slugify(name string) string {
	s := strings.ReplaceAll(name, "ß", "ss")
	if out, _, err := transform.String(deaccent, s); err == nil {
		s = out
	}
	s = strings.ToLower(s)

	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
