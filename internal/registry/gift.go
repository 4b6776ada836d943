// Package registry holds the wedding gift registry's domain: gift records,
// the send and decrypt flows, the search filter and the UI state machine.
package registry

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"rhystmorgan/giftterm/internal/contract"
)

// Category is the label every gift is stored under.
const Category = "Wedding Gift"

type Gift struct {
	ID     string
	Sender common.Address
	// EncryptedAmount names the ciphertext to the contract. Records are keyed
	// by gift id, so it is the id itself.
	EncryptedAmount string
	Creator         common.Address
	Message         string
	Timestamp       time.Time
	Verified        bool
	// DecryptedAmount is the contract's stored clear value. It is zero until
	// the gift has been verified.
	DecryptedAmount uint32
}

// GiftFromRecord maps an on-chain record to a Gift. The creator is the sender.
func GiftFromRecord(id string, data *contract.BusinessData) Gift {
	gift := Gift{
		ID:              id,
		Sender:          data.Creator,
		EncryptedAmount: id,
		Creator:         data.Creator,
		Message:         data.Description,
		Verified:        data.IsVerified,
		DecryptedAmount: data.DecryptedValue,
	}
	if data.Timestamp != nil && data.Timestamp.IsInt64() {
		gift.Timestamp = time.Unix(data.Timestamp.Int64(), 0)
	}
	return gift
}

// Amount returns the verified amount, if any.
func (g Gift) Amount() (uint32, bool) {
	if !g.Verified {
		return 0, false
	}
	return g.DecryptedAmount, true
}
