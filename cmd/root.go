// Copyright © 2018 Victor Tran
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	cmdutil "github.com/tranvictor/bnames/cmd/util"
	"github.com/tranvictor/bnames/ui"
)

// SessionFactory builds the per-invocation session from the persistent
// flags. Tests substitute one backed by an in-memory chain.
type SessionFactory func(opts cmdutil.Options, u ui.UI) (*cmdutil.Session, error)

// NewRootCmd builds the whole command tree. Every subcommand reads its
// session from the command context, set up here before it runs.
func NewRootCmd(u ui.UI, newSession SessionFactory) *cobra.Command {
	opts := &cmdutil.Options{}
	rootCmd := &cobra.Command{
		Use:   "bnames",
		Short: "Resolve and manage names on the Base naming directory",
		Long: `bnames is a command line tool to resolve and manage names of the naming
directory anchored on Base (*.base.eth on mainnet, *.basetest.eth on Sepolia).

It helps you on different ends:

	1. It resolves names to addresses, addresses to primary names, and reads
	resolvers and text records. The index service is asked first, the
	registry and resolver contracts are the fallback and the authority.

	2. It registers names, and writes address, text, primary name and
	ownership records. Every write is simulated before it is signed and
	waits for 2 confirmations.

	3. It names a deployed contract in one go: it creates a subname under a
	name you own, points it at the contract, and sets the contract's primary
	name when the contract lets you.

By default bnames uses base-sepolia. Pick a network with --network and set
defaults in ~/.bnames/config.yaml. Each network's RPC node can be overridden
through the env var listed by "bnames network list".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoSession] != "" {
				return nil
			}
			s, err := newSession(*opts, u)
			if err != nil {
				return err
			}
			cmd.SetContext(cmdutil.WithSession(cmd.Context(), s))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.Network, "network", "k", "", "network to use, e.g. base, base-sepolia. Defaults to the config file, else base-sepolia")
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.bnames/config.yaml)")
	flags.StringVar(&opts.KeyFile, "key", "", "private key file used to sign: a keystore json or a hex encoded key")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "print debug logs to stderr")
	flags.BoolVarP(&opts.DryRun, "dry", "d", false, "simulate writes only, never send a transaction")

	rootCmd.AddCommand(
		newResolveCmd(),
		newRecordsCmd(),
		newRegisterCmd(),
		newNameContractCmd(),
		newNetworkCmd(),
		newVersionCmd(u),
	)
	return rootCmd
}

// annotationNoSession marks commands that run without a session.
const annotationNoSession = "no-session"

// Execute runs the command line and exits non zero on error. This is
// called by main.main().
func Execute() {
	u := ui.NewTerminalUI()
	rootCmd := NewRootCmd(u, cmdutil.NewSession)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		cmdutil.ReportError(u, err)
		os.Exit(1)
	}
}
