package registry

import (
	"fmt"
	"sync"
)

// History is the session's list of recent actions, oldest first.
type History struct {
	mu      sync.Mutex
	entries []string
}

func (h *History) Add(entry string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
}

func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

func SentEntry(amount uint32) string {
	return fmt.Sprintf("Sent gift to couple (%d)", amount)
}

// DecryptedEntry names the sender by the first six characters of its address.
func DecryptedEntry(creatorHex string) string {
	prefix := creatorHex
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	return fmt.Sprintf("Decrypted gift from %s", prefix)
}
