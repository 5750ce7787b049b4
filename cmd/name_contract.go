package cmd

import (
	"github.com/spf13/cobra"

	cmdutil "github.com/tranvictor/bnames/cmd/util"
	"github.com/tranvictor/bnames/util"
	"github.com/tranvictor/bnames/workflow"
)

func newNameContractCmd() *cobra.Command {
	var (
		parent      string
		skipReverse bool
	)
	nameContractCmd := &cobra.Command{
		Use:   "name-contract <contract address> <label>",
		Short: "Give a deployed contract a subname with forward and reverse resolution",
		Long: `Creates <label>.<parent> owned by the signer, points it at the contract,
and sets the contract's primary name to it. Each step waits for its
transaction to be confirmed before the next starts.

The signer must own <parent>. Setting the primary name needs the contract to
expose owner() returning the signer; when it doesn't, the name still resolves
forward and a warning tells you so. Running the command again only sends what
is still missing.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cmdutil.SessionFrom(cmd)
			if err != nil {
				return err
			}
			contract, err := util.ConvertToAddress(args[0])
			if err != nil {
				return err
			}
			wf, err := s.Workflow(cmd.Context())
			if err != nil {
				return err
			}

			stop := s.UI.Spinner("naming " + contract.Hex())
			res, err := wf.Run(cmd.Context(), workflow.Request{
				Contract:    contract,
				Label:       args[1],
				Parent:      parent,
				SkipReverse: skipReverse,
			})
			stop()

			if len(res.Stages) > 0 {
				s.UI.Section(res.FullName)
				cmdutil.PrintStages(s.UI, s.Network, res)
			}
			return err
		},
	}
	nameContractCmd.Flags().StringVarP(&parent, "parent", "p", "", "name the subname is created under, owned by the signer")
	nameContractCmd.Flags().BoolVar(&skipReverse, "skip-reverse", false, "don't set the contract's primary name")
	nameContractCmd.MarkFlagRequired("parent")
	return nameContractCmd
}
