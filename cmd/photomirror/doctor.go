package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/photomirror/photomirror/internal/config"
	"github.com/photomirror/photomirror/internal/library"
	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/internal/model"
	"github.com/photomirror/photomirror/internal/sidecar"
)

// newDoctorCmd builds the read-only invariant checker (§8): it loads
// the local tree exactly as sync would, but never calls any Store
// mutator, and reports every condition sync would otherwise have had
// to guard against mid-write.
func newDoctorCmd(v *viper.Viper) *cobra.Command {
	var checkSidecars bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the local tree for invariant violations without mutating it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, "PHOTOMIRROR")
			if err != nil {
				return err
			}

			log, err := logger.New(logger.Options{Verbose: cfg.Verbose, Color: cfg.Color})
			if err != nil {
				return fmt.Errorf("doctor: build logger: %w", err)
			}

			store := library.New(cfg.DataDir, log)

			assets, err := store.LoadAssets()
			if err != nil {
				return fmt.Errorf("doctor: load assets: %w", err)
			}
			albums, err := store.LoadAlbums()
			if err != nil {
				return fmt.Errorf("doctor: load albums: %w", err)
			}

			problems := 0
			archived := 0

			for uuid, album := range albums {
				if album.Kind == model.KindArchived {
					archived++
				}
				if album.ParentUUID != "" && albums[album.ParentUUID] == nil {
					problems++
					log.Error("doctor: album %q (%s) has no parent on disk: %q", album.Label, uuid, album.ParentUUID)
				}
				for assetUUID := range album.Members {
					if assets[assetUUID] == nil {
						problems++
						log.Error("doctor: album %q (%s) links missing asset %q", album.Label, uuid, assetUUID)
					}
				}
			}

			log.Info("doctor: %d asset(s), %d album(s)", len(assets), len(albums))
			if archived > 0 {
				log.Info("doctor: %d archived album(s), left untouched by sync", archived)
			}

			if checkSidecars {
				issues, err := sidecar.ValidateTree(os.DirFS(store.AlbumRootPath()), ".")
				if err != nil {
					return fmt.Errorf("doctor: validate sidecars: %w", err)
				}
				for _, issue := range issues {
					problems++
					log.Error("doctor: sidecar %q: %s", issue.Path, issue.Err)
				}
			}

			if problems > 0 {
				return fmt.Errorf("doctor: found %d problem(s)", problems)
			}
			log.OK("doctor: no problems found")
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkSidecars, "check-sidecars", false, "also validate .xmp sidecar files under archived albums")

	return cmd
}
