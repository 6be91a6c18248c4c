package public

import (
	"github.com/ardanlabs/autochain/foundation/blockchain/database"
)

// newTransaction is what a client submits. The fields are pointers so a
// missing key can be told apart from a zero value.
type newTransaction struct {
	Owner    *string          `json:"owner" validate:"required"`
	Receiver *string          `json:"receiver" validate:"required"`
	Amount   *database.Amount `json:"amount" validate:"required"`
	ItemID   *database.ItemID `json:"item_id" validate:"required"`
}

func (nt newTransaction) toTransaction() database.Transaction {
	return database.NewTransaction(*nt.Owner, *nt.Receiver, *nt.Amount, *nt.ItemID)
}

type submitted struct {
	Message string `json:"message"`
	Index   uint64 `json:"index"`
}

type mined struct {
	Message      string                 `json:"message"`
	Index        uint64                 `json:"index"`
	Transactions []database.Transaction `json:"transactions"`
	Proof        uint64                 `json:"proof"`
	PreviousHash string                 `json:"previous_hash"`
}
