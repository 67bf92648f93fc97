package engine

import (
	"strings"

	"github.com/wienlist/event-aggregator/internal/domain"
)

// Merge folds per-category event lists into a unique set. Shard-scoped
// fetches can return the same physical event under more than one
// requested category; the first occurrence wins on key collision, with
// no field-level merge of conflicting duplicates.
func Merge(lists ...[]domain.Event) []domain.Event {
	seen := make(map[string]struct{})
	var merged []domain.Event
	for _, list := range lists {
		for _, ev := range list {
			key := dedupKey(ev)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, ev)
		}
	}
	return merged
}

// dedupKey normalizes (title, venue, date): case-insensitive with
// whitespace collapsed.
func dedupKey(ev domain.Event) string {
	return normalizeKeyPart(ev.Title) + "|" + normalizeKeyPart(ev.Venue) + "|" + ev.Date
}

func normalizeKeyPart(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
