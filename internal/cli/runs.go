package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/newton/pkg/config"
	"github.com/matzehuels/newton/pkg/store"
)

// runsCommand creates the runs command.
func (c *CLI) runsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "List recorded runs",
		Long: `Runs lists the renders recorded in the run store, newest first, or shows
one run in full. Runs are recorded when [store] backend is "mongo".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Backend == config.BackendNone || cfg.Store.Backend == config.BackendMemory {
				printInfo("No persistent run store configured")
				printNextStep("Record runs in MongoDB", `set [store] backend = "mongo"`)
				return nil
			}

			runs, err := c.newStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer runs.Close(ctx)

			if len(args) == 1 {
				rec, err := runs.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				printRun(rec)
				return nil
			}

			recs, err := runs.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				printInfo("No runs recorded yet")
				printNextStep("Record one", "newton render")
				return nil
			}
			fmt.Fprintln(out, runsTable(recs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", store.DefaultListLimit, "number of runs to list")
	return cmd
}

func runsTable(recs []store.RunRecord) string {
	t := newTable("ID", "When", "Strategy", "N", "Max iter", "MPix/s", "Cache")
	for _, r := range recs {
		cached := iconFresh
		if r.CacheHit {
			cached = iconCached
		}
		t.Row(
			shortID(r.ID),
			r.CreatedAt.Local().Format(time.DateTime),
			r.Strategy,
			fmt.Sprintf("%d", r.N),
			fmt.Sprintf("%d", r.MaxIter),
			fmt.Sprintf("%.1f", r.MPixelsPerSec),
			cached,
		)
	}
	return t.Render()
}

func printRun(r *store.RunRecord) {
	fmt.Fprintln(out, StyleTitle.Render("Run "+r.ID))
	printKeyValue("created", r.CreatedAt.Local().Format(time.DateTime))
	printKeyValue("strategy", r.Strategy)
	printKeyValue("grid", fmt.Sprintf("%d×%d", r.N, r.N))
	printKeyValue("max iter", fmt.Sprintf("%d", r.MaxIter))
	printKeyValue("compute", fmt.Sprintf("%.1f ms", r.ComputeMillis))
	printKeyValue("throughput", fmt.Sprintf("%.1f MPix/s", r.MPixelsPerSec))
	printKeyValue("cache hit", fmt.Sprintf("%t", r.CacheHit))
	printKeyValue("result hash", r.ResultHash)
	printHistogram(r.Histogram)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
