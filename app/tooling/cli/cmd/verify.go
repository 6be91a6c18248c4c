package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ardanlabs/autochain/foundation/blockchain/database"
	"github.com/ardanlabs/autochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/autochain/foundation/blockchain/peer"
	"github.com/spf13/cobra"
)

var difficulty uint16

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Fetch the node's chain and validate it locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := strings.TrimSuffix(nodeURL, "/") + "/chain"

		client := http.Client{Timeout: timeout}
		resp, err := client.Get(url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: unexpected status", resp.Status)
		}

		var pc peer.PeerChain
		if err := json.NewDecoder(resp.Body).Decode(&pc); err != nil {
			return err
		}

		if len(pc.Chain) == 0 {
			return database.ErrEmptyChain
		}

		if pc.Length != len(pc.Chain) {
			return fmt.Errorf("node reports length %d but sent %d blocks", pc.Length, len(pc.Chain))
		}

		if err := database.ValidateChain(pc.Chain, uint(difficulty), nil); err != nil {
			return err
		}

		tip := pc.Chain[len(pc.Chain)-1]
		fmt.Fprintf(cmd.OutOrStdout(), "chain is valid: length[%d] tip[%s]\n", pc.Length, tip.Hash())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().Uint16VarP(&difficulty, "difficulty", "d", genesis.Default().Difficulty, "Number of leading zeros a proof needs.")
}
