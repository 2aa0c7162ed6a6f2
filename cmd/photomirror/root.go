package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/photomirror/photomirror/internal/config"
)

// newRootCmd builds the cobra command tree: root plus the sync,
// doctor and archive subcommands, sharing one viper instance the way cobra+viper
// are conventionally paired.
func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:          "photomirror",
		Short:        "Mirror a remote photo library onto a local filesystem tree",
		SilenceUsage: true,
	}

	config.BindFlags(root.PersistentFlags(), v)

	root.AddCommand(newSyncCmd(v))
	root.AddCommand(newDoctorCmd(v))
	root.AddCommand(newArchiveCmd(v))

	return root
}
