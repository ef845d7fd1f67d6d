// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fulltext-engine/internal/download"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [identifiers...]",
	Short: "Resolve identifiers and download validated artifacts",
	Long: `Fetch resolves each identifier to a ranked candidate URL list, then walks
the list downloading until one URL yields a validated PDF. A YAML outcome
record with the full attempt log is written next to each artifact. Cached
publications are skipped.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("output-dir", "artifacts", "directory artifacts are written to")
	fetchCmd.Flags().Bool("skip-existing", false, "skip identifiers whose artifact file already exists")
	fetchCmd.Flags().Bool("strict", false, "run full structural PDF validation after download")
	fetchCmd.Flags().Bool("stats", false, "print resolution statistics after the batch")

	rootCmd.AddCommand(fetchCmd)
}

// fetchSummary tallies one batch run.
type fetchSummary struct {
	Downloaded int
	Skipped    int
	Failed     int
}

func runFetch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more publication identifiers (DOIs, arXiv IDs, or PMIDs)")
	}
	outputDir, _ := cmd.Flags().GetString("output-dir")
	skipExisting, _ := cmd.Flags().GetBool("skip-existing")
	strict, _ := cmd.Flags().GetBool("strict")
	showStats, _ := cmd.Flags().GetBool("stats")

	cfg, err := engineConfig()
	if err != nil {
		return err
	}
	cfg.Download.SkipExisting = skipExisting
	if strict {
		cfg.Download.StrictValidation = true
	}
	if cfg.Download.OutputDir == "" {
		cfg.Download.OutputDir = outputDir
	}

	refs, err := parseRefs(args)
	if err != nil {
		return err
	}

	r, store, err := buildResolver(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}
	mgr := download.NewManager(cfg.Download, os.Stdout)

	ctx := context.Background()
	var summary fetchSummary
	for i, ref := range refs {
		outcome := r.ResolveAll(ctx, ref)

		if outcome.Source == types.SourceCache {
			fmt.Fprintf(os.Stdout, "cached: %s (%s)\n", args[i], outcome.Best.URL)
			summary.Skipped++
			continue
		}
		if !outcome.Success {
			fmt.Fprintf(os.Stderr, "failed: %s: %s (%s)\n", args[i], outcome.ErrorDetail, outcome.ErrorKind)
			summary.Failed++
			continue
		}

		dl := mgr.Fetch(ctx, ref, outcome.Candidates, cfg.Download.OutputDir)
		if err := writeOutcomeRecord(cfg.Download.OutputDir, ref, args[i], outcome, dl); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not write outcome record for %s: %v\n", args[i], err)
		}

		if dl.Success {
			fmt.Fprintf(os.Stdout, "downloaded: %s -> %s (%d bytes, via %s)\n",
				args[i], dl.ArtifactPath, dl.ByteSize, dl.SourceUsed)
			summary.Downloaded++
		} else {
			fmt.Fprintf(os.Stderr, "failed: %s: %s (%s)\n", args[i], dl.ErrorDetail, dl.ErrorKind)
			summary.Failed++
		}
	}

	fmt.Fprintf(os.Stdout, "\nDownloaded: %d, Skipped: %d, Failed: %d\n",
		summary.Downloaded, summary.Skipped, summary.Failed)

	if showStats {
		snap := r.Statistics()
		data, err := yaml.Marshal(snap)
		if err == nil {
			fmt.Fprintf(os.Stdout, "\nResolution statistics:\n%s", data)
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d publication(s) failed", summary.Failed)
	}
	return nil
}

// outcomeRecord is the YAML sidecar written next to each artifact.
type outcomeRecord struct {
	Identifier string                 `yaml:"identifier"`
	Resolution types.RetrievalOutcome `yaml:"resolution"`
	Download   types.DownloadOutcome  `yaml:"download"`
}

func writeOutcomeRecord(outputDir string, ref types.PublicationRef, identifier string, resolution types.RetrievalOutcome, dl types.DownloadOutcome) error {
	record := outcomeRecord{
		Identifier: identifier,
		Resolution: resolution,
		Download:   dl,
	}
	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling outcome record: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(outputDir, ref.Slug()+".outcome.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing outcome record: %w", err)
	}
	return nil
}
