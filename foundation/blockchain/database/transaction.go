package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ardanlabs/autochain/foundation/blockchain/signature"
)

// Set of values that mark a transaction as a mining reward.
const (
	RewardOwner  = "0"
	rewardItemID = 0
)

// =============================================================================

// ItemID identifies the vehicle being transferred. The network accepts
// either a string or an integer and the form must be preserved, since it
// is part of the block hash.
type ItemID struct {
	value   string
	numeric bool
}

// StringItemID constructs an item id in string form.
func StringItemID(id string) ItemID {
	return ItemID{value: id}
}

// NumericItemID constructs an item id in integer form.
func NumericItemID(id int64) ItemID {
	return ItemID{value: strconv.FormatInt(id, 10), numeric: true}
}

// IsNumeric reports if the item id is in integer form.
func (id ItemID) IsNumeric() bool {
	return id.numeric
}

// String implements the fmt.Stringer interface.
func (id ItemID) String() string {
	return id.value
}

// MarshalJSON implements the json.Marshaler interface.
func (id ItemID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}

	return json.Marshal(id.value)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringItemID(s)
		return nil
	}

	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return errors.New("item id must be a string or an integer")
	}
	*id = NumericItemID(n)

	return nil
}

// =============================================================================

// Amount is the value paid for a vehicle, held as JSON number text. Nodes
// hash the number they decoded, not the text they received, so integers
// keep their digits and anything with a fraction or an exponent is held as
// the shortest float that round trips: 10.50 is 10.5 and 1e1 is 10.0.
type Amount string

// ParseAmount validates the number text and returns it in the form that
// is hashed.
func ParseAmount(text string) (Amount, error) {
	s, err := normalizeAmount(text)
	if err != nil {
		return "", err
	}

	return Amount(s), nil
}

// String implements the fmt.Stringer interface.
func (a Amount) String() string {
	return string(a)
}

// MarshalJSON implements the json.Marshaler interface.
func (a Amount) MarshalJSON() ([]byte, error) {
	s, err := normalizeAmount(string(a))
	if err != nil {
		return nil, err
	}

	return []byte(s), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface. Only JSON
// numbers are accepted, a quoted "10" is an error.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s, err := normalizeAmount(string(data))
	if err != nil {
		return err
	}
	*a = Amount(s)

	return nil
}

// normalizeAmount returns the canonical text for a JSON number.
func normalizeAmount(text string) (string, error) {
	text = strings.TrimSpace(text)

	if text == "" || (text[0] != '-' && (text[0] < '0' || text[0] > '9')) || !json.Valid([]byte(text)) {
		return "", fmt.Errorf("amount %q must be a number", text)
	}

	if !strings.ContainsAny(text, ".eE") {
		if text == "-0" {
			return "0", nil
		}
		return text, nil
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return "", fmt.Errorf("amount %q: %w", text, err)
	}

	if math.IsInf(f, 0) {
		return "", fmt.Errorf("amount %q is out of range", text)
	}

	return signature.FormatFloat(f), nil
}

// =============================================================================

// Transaction represents the transfer of a vehicle from its current owner
// to a receiver.
type Transaction struct {
	Owner    string      `json:"owner"`
	Receiver string      `json:"receiver"`
	Amount   Amount `json:"amount"`
	ItemID   ItemID `json:"item_id"`
}

// NewTransaction constructs a new transaction.
func NewTransaction(owner string, receiver string, amount Amount, itemID ItemID) Transaction {
	return Transaction{
		Owner:    owner,
		Receiver: receiver,
		Amount:   amount,
		ItemID:   itemID,
	}
}

// NewRewardTransaction constructs the transaction that credits the node
// who mined a block.
func NewRewardTransaction(receiver string, amount Amount) Transaction {
	return NewTransaction(RewardOwner, receiver, amount, NumericItemID(rewardItemID))
}

// IsReward tests if the transaction is a mining reward.
func (tx Transaction) IsReward() bool {
	return tx.Owner == RewardOwner && tx.ItemID.numeric && tx.ItemID.value == strconv.Itoa(rewardItemID)
}

// String implements the fmt.Stringer interface for logging.
func (tx Transaction) String() string {
	return fmt.Sprintf("%s->%s:%s:%s", tx.Owner, tx.Receiver, tx.Amount, tx.ItemID)
}
