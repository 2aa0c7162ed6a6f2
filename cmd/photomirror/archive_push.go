package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/photomirror/photomirror/internal/config"
	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/internal/offsite"
)

// newArchiveCmd builds the "archive" command group, currently holding
// the single "push" subcommand.
func newArchiveCmd(v *viper.Viper) *cobra.Command {
	archive := &cobra.Command{
		Use:   "archive",
		Short: "Off-site mirroring of the local library",
	}
	archive.AddCommand(newArchivePushCmd(v))
	return archive
}

// newArchivePushCmd builds the opt-in "archive push" subcommand that
// mirrors the local asset pool and album tree to a remote host over
// SFTP for off-site backup. It never talks to the remote photo library
// API, only to the local data-dir already populated by sync.
func newArchivePushCmd(v *viper.Viper) *cobra.Command {
	var user, host, keyPath, passphrase, remoteRoot string

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Mirror the local asset pool and album tree to a remote host over SFTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, "PHOTOMIRROR")
			if err != nil {
				return err
			}

			log, err := logger.New(logger.Options{Verbose: cfg.Verbose, Color: cfg.Color})
			if err != nil {
				return fmt.Errorf("archive push: build logger: %w", err)
			}

			if host == "" || user == "" || keyPath == "" {
				return fmt.Errorf("archive push: --host, --user, and --key are required")
			}

			pusher, err := offsite.Dial(user, host, keyPath, passphrase)
			if err != nil {
				return fmt.Errorf("archive push: %w", err)
			}
			defer pusher.Close()

			n, err := pusher.Push(cfg.DataDir, remoteRoot)
			if err != nil {
				return fmt.Errorf("archive push: %w", err)
			}

			log.OK("archive push: copied %d file(s) to %s@%s:%s", n, user, host, remoteRoot)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "SSH user on the remote host")
	cmd.Flags().StringVar(&host, "host", "", "remote host, as host[:port]")
	cmd.Flags().StringVar(&keyPath, "key", "", "path to an SSH private key")
	cmd.Flags().StringVar(&passphrase, "key-passphrase", "", "passphrase for the private key, if any")
	cmd.Flags().StringVar(&remoteRoot, "remote-root", "photomirror", "root directory on the remote host")

	return cmd
}
