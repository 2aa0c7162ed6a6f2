package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/photomirror/photomirror/internal/config"
	"github.com/photomirror/photomirror/internal/consoleui"
	"github.com/photomirror/photomirror/internal/library"
	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/internal/photoapi"
	"github.com/photomirror/photomirror/internal/progress"
	"github.com/photomirror/photomirror/internal/syncengine"
	"github.com/photomirror/photomirror/internal/tui"
)

func newSyncCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the local tree against the remote library",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, "PHOTOMIRROR")
			if err != nil {
				return err
			}

			log, err := logger.New(logger.Options{FilePath: cfg.LogFile, Verbose: cfg.Verbose, Color: cfg.Color})
			if err != nil {
				return fmt.Errorf("sync: build logger: %w", err)
			}

			store := library.New(cfg.DataDir, log)
			client := photoapi.New(cfg.RemoteURL, cfg.RemoteToken)
			sink, ch := progress.New()

			done := make(chan struct{})
			if cfg.UseTUI {
				dash := tui.New()
				go func() { dash.Drain(ch); close(done) }()
				go func() {
					if err := dash.Run(); err != nil {
						log.Error("tui: %s", err)
					}
				}()
			} else {
				printer := consoleui.New(os.Stdout)
				go func() { printer.Run(ch); close(done) }()
			}

			engine := syncengine.New(client, store, log, sink, syncengine.Config{
				DownloadThreads: cfg.DownloadThreads,
				MaxRetries:      cfg.MaxRetries,
				IgnoreAlbums:    cfg.IgnoreAlbumSet(),
			})

			_, err = engine.Sync(cmd.Context())
			close(sink)
			<-done

			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			return nil
		},
	}
}
