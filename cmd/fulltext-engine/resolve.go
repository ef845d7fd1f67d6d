// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fulltext-engine/internal/cache"
	"github.com/pdiddy/fulltext-engine/internal/provider"
	"github.com/pdiddy/fulltext-engine/internal/resolver"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [identifiers...]",
	Short: "Resolve identifiers to full-text candidate URLs",
	Long: `Resolve queries source providers for full-text candidate URLs matching
each identifier (DOI, arXiv ID, or PMID). By default providers are tried
sequentially in priority order and resolution stops at the first hit; with
--all every provider is queried concurrently and the full ranked candidate
list is reported.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().Bool("all", false, "query every provider and rank all candidates")
	resolveCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(resolveCmd)
}

// resolveResult pairs an identifier with its outcome for output.
type resolveResult struct {
	Identifier string                 `json:"identifier"`
	Outcome    types.RetrievalOutcome `json:"outcome"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more publication identifiers (DOIs, arXiv IDs, or PMIDs)")
	}
	all, _ := cmd.Flags().GetBool("all")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := engineConfig()
	if err != nil {
		return err
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

	ctx := context.Background()
	results := make([]resolveResult, 0, len(refs))
	failures := 0
	for i, ref := range refs {
		var out types.RetrievalOutcome
		if all {
			out = r.ResolveAll(ctx, ref)
		} else {
			out = r.Resolve(ctx, ref, nil)
		}
		if !out.Success {
			failures++
		}
		results = append(results, resolveResult{Identifier: args[i], Outcome: out})
	}

	if err := formatResolveOutput(results, jsonOutput); err != nil {
		return err
	}
	if failures > 0 {
		return fmt.Errorf("%d identifier(s) could not be resolved", failures)
	}
	return nil
}

// buildResolver wires providers and the optional content cache into a
// resolver. The cache is used only when cache.dir is configured.
func buildResolver(cfg types.EngineConfig) (*resolver.Resolver, *cache.Store, error) {
	client := &http.Client{Timeout: cfg.Providers.Timeout}
	providers, err := provider.Build(cfg.Providers, client)
	if err != nil {
		return nil, nil, err
	}

	var store *cache.Store
	var contentCache resolver.ContentCache
	if cfg.Cache.Dir != "" {
		store, err = cache.NewStore(cfg.Cache, nil)
		if err != nil {
			return nil, nil, err
		}
		contentCache = store
	}

	return resolver.New(providers, contentCache, cfg.Resolver, nil, os.Stderr), store, nil
}

func formatResolveOutput(results []resolveResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	fmt.Fprintf(os.Stdout, "%-28s  %-8s  %-16s  %-13s  %-4s  %s\n",
		"Identifier", "Source", "Provider", "Type", "Prio", "URL")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for _, res := range results {
		id := res.Identifier
		if len(id) > 28 {
			id = id[:25] + "..."
		}

		out := res.Outcome
		if !out.Success {
			fmt.Fprintf(os.Stdout, "%-28s  %-8s  %-16s  %-13s  %-4s  (%s)\n",
				id, out.Source, "-", "-", "-", out.ErrorKind)
			continue
		}

		cands := out.Candidates
		if len(cands) == 0 && out.Best != nil {
			cands = []types.CandidateURL{*out.Best}
		}
		for i, c := range cands {
			label := id
			if i > 0 {
				label = ""
			}
			fmt.Fprintf(os.Stdout, "%-28s  %-8s  %-16s  %-13s  %-4d  %s\n",
				label, out.Source, c.ProviderID, c.Type, c.EffectivePriority, c.URL)
		}
	}

	fmt.Fprintf(os.Stdout, "\n%d identifier(s) resolved\n", len(results))
	return nil
}
