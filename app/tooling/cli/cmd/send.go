package cmd

import (
	"net/http"
	"strconv"

	"github.com/ardanlabs/autochain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	owner    string
	receiver string
	amount   string
	itemID   string
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Queue a transaction for the next block",
	RunE: func(cmd *cobra.Command, args []string) error {
		amt, err := database.ParseAmount(amount)
		if err != nil {
			return err
		}

		tx := struct {
			Owner    string      `json:"owner"`
			Receiver string      `json:"receiver"`
			Amount   database.Amount `json:"amount"`
			ItemID   any             `json:"item_id"`
		}{
			Owner:    owner,
			Receiver: receiver,
			Amount:   amt,
			ItemID:   itemIDValue(itemID),
		}

		return call(cmd.OutOrStdout(), http.MethodPost, "/transactions/new", tx)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&owner, "owner", "o", "", "Current owner of the item.")
	sendCmd.Flags().StringVarP(&receiver, "receiver", "r", "", "New owner of the item.")
	sendCmd.Flags().StringVarP(&amount, "amount", "a", "0", "Amount paid.")
	sendCmd.Flags().StringVarP(&itemID, "item", "i", "", "Identifier of the item.")
	sendCmd.MarkFlagRequired("owner")
	sendCmd.MarkFlagRequired("receiver")
	sendCmd.MarkFlagRequired("item")
}

// itemIDValue sends integer identifiers as numbers, anything else as text.
func itemIDValue(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
