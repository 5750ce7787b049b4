package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	cmdutil "github.com/tranvictor/bnames/cmd/util"
	"github.com/tranvictor/bnames/registrar"
	"github.com/tranvictor/bnames/ui"
	"github.com/tranvictor/bnames/util"
)

func newRegisterCmd() *cobra.Command {
	var (
		years     int
		primary   bool
		owner     string
		resolver  string
		quoteOnly bool
		yes       bool
	)
	registerCmd := &cobra.Command{
		Use:   "register <label>",
		Short: "Register a name under the network's parent domain",
		Long: `Checks availability, quotes the price and, once you confirm, registers
<label>.<parent domain> paying the quoted price. The new name's address
records point at the owner. With --primary the owner's primary name is set
to the new name in the same transaction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cmdutil.SessionFrom(cmd)
			if err != nil {
				return err
			}
			q, err := s.Quoter().Quote(cmd.Context(), args[0], years)
			if err != nil {
				return err
			}
			available := ui.Good("yes")
			if !q.Available {
				available = ui.Bad("no")
			}
			s.UI.KeyValue([][2]string{
				{"Name", q.Name.Full},
				{"Available", s.UI.Style(available)},
				{"Duration", cmdutil.Plural(years, "year")},
				{"Price", util.EtherString(q.Price)},
			})
			if quoteOnly {
				return nil
			}

			req := registrar.Request{Label: args[0], Years: years, Primary: primary}
			if owner != "" {
				if req.Owner, err = util.ConvertToAddress(owner); err != nil {
					return err
				}
			}
			if resolver != "" {
				if req.Resolver, err = util.ConvertToAddress(resolver); err != nil {
					return err
				}
			}

			r, err := s.Registrar(cmd.Context())
			if err != nil {
				return err
			}
			if q.Available && !s.DryRun && !yes {
				if !s.UI.Confirm(fmt.Sprintf("Pay %s to register %s?", util.EtherString(q.Price), q.Name.Full), true) {
					return fmt.Errorf("aborted")
				}
			}
			res, err := r.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			if res.Owner != (common.Address{}) {
				s.UI.KeyValue([][2]string{{"Owner", res.Owner.Hex()}})
			}
			cmdutil.PrintTx(s.UI, s.Network, q.Name.Full+" registered", res.TxHash, res.DryRun)
			return nil
		},
	}
	registerCmd.Flags().IntVarP(&years, "years", "y", 1, "registration length in years")
	registerCmd.Flags().BoolVar(&primary, "primary", false, "also make the name the owner's primary name")
	registerCmd.Flags().StringVar(&owner, "owner", "", "owner of the new name (default: the signer)")
	registerCmd.Flags().StringVar(&resolver, "resolver", "", "resolver of the new name (default: the network's public resolver)")
	registerCmd.Flags().BoolVarP(&quoteOnly, "quote", "q", false, "only show availability and price")
	registerCmd.Flags().BoolVar(&yes, "yes", false, "don't ask for confirmation")
	return registerCmd
}
