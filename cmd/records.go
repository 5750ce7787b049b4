package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	cmdutil "github.com/tranvictor/bnames/cmd/util"
	"github.com/tranvictor/bnames/util"
	"github.com/tranvictor/bnames/writer"
)

// parseResolverFlag reads --resolver of the record writes. Empty means the resolver
// the name already uses.
func parseResolverFlag(raw string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, nil
	}
	return util.ConvertToAddress(raw)
}

func withWriter(cmd *cobra.Command, f func(s *cmdutil.Session, w *writer.Writer) (writer.Result, string, error)) error {
	s, err := cmdutil.SessionFrom(cmd)
	if err != nil {
		return err
	}
	w, err := s.Writer(cmd.Context())
	if err != nil {
		return err
	}
	res, action, err := f(s, w)
	if err != nil {
		return err
	}
	rows := [][2]string{{"Name", res.Name}, {"Node", res.Node.Hex()}}
	if res.Resolver != (common.Address{}) {
		rows = append(rows, [2]string{"Resolver", res.Resolver.Hex()})
	}
	s.UI.KeyValue(rows)
	cmdutil.PrintTx(s.UI, s.Network, action, res.TxHash, res.DryRun)
	return nil
}

func newRecordsCmd() *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Write records of a name you control",
		Long: `Every write is simulated against the latest block first. A failing
simulation is reported with its revert reason and nothing is sent. Use --dry
to stop after the simulation.`,
	}

	var textResolver string
	setTextCmd := &cobra.Command{
		Use:   "set-text <name> <key> <value>",
		Short: "Set a text record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := parseResolverFlag(textResolver)
			if err != nil {
				return err
			}
			return withWriter(cmd, func(s *cmdutil.Session, w *writer.Writer) (writer.Result, string, error) {
				res, err := w.SetText(cmd.Context(), args[0], args[1], args[2], resolver)
				return res, fmt.Sprintf("text %q set", args[1]), err
			})
		},
	}
	setTextCmd.Flags().StringVar(&textResolver, "resolver", "", "resolver to write to (default: the name's current resolver)")

	var addrResolver, coinType string
	setAddrCmd := &cobra.Command{
		Use:   "set-addr <name> <address>",
		Short: "Point a name at an address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := parseResolverFlag(addrResolver)
			if err != nil {
				return err
			}
			addr, err := util.ConvertToAddress(args[1])
			if err != nil {
				return err
			}
			ct, err := util.ConvertToCoinType(coinType)
			if err != nil {
				return err
			}
			return withWriter(cmd, func(s *cmdutil.Session, w *writer.Writer) (writer.Result, string, error) {
				res, err := w.SetAddress(cmd.Context(), args[0], ct, addr, resolver)
				return res, "address record set to " + addr.Hex(), err
			})
		},
	}
	setAddrCmd.Flags().StringVar(&addrResolver, "resolver", "", "resolver to write to (default: the name's current resolver)")
	setAddrCmd.Flags().StringVarP(&coinType, "coin-type", "c", "", "coin type of the record (default: the network's own)")

	var target string
	setPrimaryCmd := &cobra.Command{
		Use:   "set-primary <name>",
		Short: "Make a name the primary name of the signer, or of a contract it owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriter(cmd, func(s *cmdutil.Session, w *writer.Writer) (writer.Result, string, error) {
				addr := w.Signer()
				if target != "" {
					a, err := util.ConvertToAddress(target)
					if err != nil {
						return writer.Result{}, "", err
					}
					addr = a
				}
				res, err := w.SetPrimaryName(cmd.Context(), addr, args[0])
				return res, fmt.Sprintf("primary name of %s set", addr.Hex()), err
			})
		},
	}
	setPrimaryCmd.Flags().StringVar(&target, "for", "", "address whose primary name is set (default: the signer)")

	transferCmd := &cobra.Command{
		Use:   "transfer <name> <new owner>",
		Short: "Transfer ownership of a name in the registry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := util.ConvertToAddress(args[1])
			if err != nil {
				return err
			}
			return withWriter(cmd, func(s *cmdutil.Session, w *writer.Writer) (writer.Result, string, error) {
				if !s.DryRun && !s.UI.Confirm(fmt.Sprintf("Transfer %s to %s? You lose control of it.", args[0], owner.Hex()), false) {
					return writer.Result{}, "", fmt.Errorf("aborted")
				}
				res, err := w.SetOwner(cmd.Context(), args[0], owner)
				return res, "owner set to " + owner.Hex(), err
			})
		},
	}

	recordsCmd.AddCommand(setTextCmd, setAddrCmd, setPrimaryCmd, transferCmd)
	return recordsCmd
}
