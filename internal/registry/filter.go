package registry

import "strings"

// Filter returns the gifts whose sender address or message contains term,
// ignoring case. An empty term keeps every gift. Order is preserved.
func Filter(gifts []Gift, term string) []Gift {
	needle := strings.ToLower(term)

	filtered := make([]Gift, 0, len(gifts))
	for _, gift := range gifts {
		if strings.Contains(strings.ToLower(gift.Sender.Hex()), needle) ||
			strings.Contains(strings.ToLower(gift.Message), needle) {
			filtered = append(filtered, gift)
		}
	}
	return filtered
}
