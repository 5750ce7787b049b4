package cmd

import (
	"github.com/spf13/cobra"

	cmdutil "github.com/tranvictor/bnames/cmd/util"
	"github.com/tranvictor/bnames/resolution"
	"github.com/tranvictor/bnames/util"
)

func runQuery(cmd *cobra.Command, q resolution.Query) error {
	s, err := cmdutil.SessionFrom(cmd)
	if err != nil {
		return err
	}
	rec, err := s.Engine().Resolve(cmd.Context(), q)
	if err != nil {
		return err
	}
	cmdutil.PrintRecord(s.UI, rec)
	return nil
}

func newResolveCmd() *cobra.Command {
	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Read records of a name or the primary name of an address",
		Long: `Queries go to the index service first. Whatever it can't answer in time is
read from the registry and resolver contracts. The "Source" line tells which
one answered.`,
	}

	var coinType string
	nameCmd := &cobra.Command{
		Use:   "name <name>",
		Short: "Resolve a name to an address",
		Long: `A bare label is completed with the network's parent domain, so on
base-sepolia "alice" resolves alice.basetest.eth. Without --coin-type the
network's own coin type is used (0x80000000 | chain id).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := util.ConvertToCoinType(coinType)
			if err != nil {
				return err
			}
			return runQuery(cmd, resolution.Query{Kind: resolution.KindAddress, Name: args[0], CoinType: ct})
		},
	}
	nameCmd.Flags().StringVarP(&coinType, "coin-type", "c", "", "coin type of the address record, decimal or 0x hex, e.g. 60 for Ethereum mainnet")

	addressCmd := &cobra.Command{
		Use:   "address <address>",
		Short: "Show the primary name of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := util.ConvertToAddress(args[0])
			if err != nil {
				return err
			}
			return runQuery(cmd, resolution.Query{Kind: resolution.KindPrimaryName, Address: addr})
		},
	}

	resolverCmd := &cobra.Command{
		Use:   "resolver <name>",
		Short: "Show the resolver contract set for a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, resolution.Query{Kind: resolution.KindResolver, Name: args[0]})
		},
	}

	textCmd := &cobra.Command{
		Use:   "text <name> <key>",
		Short: "Read a text record, e.g. avatar, url, com.twitter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, resolution.Query{Kind: resolution.KindText, Name: args[0], Key: args[1]})
		},
	}

	resolveCmd.AddCommand(nameCmd, addressCmd, resolverCmd, textCmd)
	return resolveCmd
}
