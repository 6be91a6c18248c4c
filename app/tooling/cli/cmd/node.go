package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var nodes []string

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine a block with the pending transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.OutOrStdout(), http.MethodGet, "/mine", nil)
	},
}

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the node's full chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.OutOrStdout(), http.MethodGet, "/chain", nil)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register peer nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := struct {
			Nodes []string `json:"nodes"`
		}{
			Nodes: nodes,
		}
		return call(cmd.OutOrStdout(), http.MethodPost, "/nodes/register", req)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Ask the node to adopt the longest valid chain of its peers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.OutOrStdout(), http.MethodGet, "/nodes/resolve", nil)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the node's status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.OutOrStdout(), http.MethodGet, "/v1/status", nil)
	},
}

func init() {
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(statusCmd)

	registerCmd.Flags().StringSliceVarP(&nodes, "node", "n", nil, "Address of a peer node, may be repeated.")
	registerCmd.MarkFlagRequired("node")
}
