// Command bones-inspect is a client for bonesd's /debug/bones/snapshot
// endpoint, rebuilt on spf13/cobra from the teacher's
// cmd/arena-cache-inspect flag-parsed equivalent: same fetch/decode/pretty-
// print shape, same --watch polling mode, now as a cobra command tree so
// bones-inspect can grow subcommands without re-threading flag parsing.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bones-inspect:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var target string
	var asJSON bool
	var watch bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "bones-inspect",
		Short: "Fetch and print a running bonesd process's debug snapshot.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !watch {
				return dumpOnce(ctx, target, asJSON)
			}
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				if err := dumpOnce(ctx, target, asJSON); err != nil {
					fmt.Fprintln(os.Stderr, "error:", err)
				}
				select {
				case <-ticker.C:
					continue
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVar(&target, "target", "http://localhost:9090", "base URL of the bonesd debug server")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON snapshot instead of a formatted summary")
	cmd.Flags().BoolVar(&watch, "watch", false, "poll the snapshot endpoint repeatedly")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "polling interval in --watch mode")
	return cmd
}

func dumpOnce(ctx context.Context, target string, asJSON bool) error {
	snap, err := fetchSnapshot(ctx, target)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	return prettyPrint(snap)
}

func fetchSnapshot(ctx context.Context, base string) (map[string]any, error) {
	url := base + "/debug/bones/snapshot"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", res.Status)
	}
	var data map[string]any
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

func prettyPrint(data map[string]any) error {
	fmt.Printf("Incompatible packs: %v\n", data["incompatible_packs"])
	return nil
}
