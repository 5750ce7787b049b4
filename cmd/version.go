package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tranvictor/bnames/ui"
)

const (
	VERSION string = "0.1.0"
)

func newVersionCmd(u ui.UI) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show bnames version",
		Annotations: map[string]string{annotationNoSession: "true"},
		Args:        cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			u.Info("Version: %s", VERSION)
		},
	}
}
