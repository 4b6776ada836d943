package registry

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrEmptyAmount    = errors.New("gift amount is required")
	ErrEmptyMessage   = errors.New("message is required")
	ErrAmountTooLarge = errors.New("gift amount does not fit in 32 bits")
)

// Draft is the new-gift form buffer.
type Draft struct {
	Amount  string
	Message string
}

// SanitizeAmount drops every character that is not an ASCII digit.
func SanitizeAmount(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanSubmit reports whether the send control is enabled. Both fields must be
// non-empty and no operation may be running.
func (d Draft) CanSubmit(busy bool) bool {
	return !busy && d.Amount != "" && strings.TrimSpace(d.Message) != ""
}

func (d Draft) Validate() error {
	if d.Amount == "" {
		return ErrEmptyAmount
	}
	if strings.TrimSpace(d.Message) == "" {
		return ErrEmptyMessage
	}
	_, err := d.ParseAmount()
	return err
}

// ParseAmount reads the amount as an unsigned 32-bit value, the width of the
// encrypted type on chain.
func (d Draft) ParseAmount() (uint32, error) {
	amount := SanitizeAmount(d.Amount)
	if amount == "" {
		return 0, ErrEmptyAmount
	}
	v, err := strconv.ParseUint(amount, 10, 32)
	if err != nil {
		return 0, ErrAmountTooLarge
	}
	return uint32(v), nil
}

func (d *Draft) Reset() {
	d.Amount = ""
	d.Message = ""
}
