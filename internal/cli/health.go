package cli

import (
	"time"

	"github.com/curatorhq/curator/internal/health"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show or compute an owner's health snapshot",
		Long:  "Without flags, prints the latest snapshot. With --aggregate, computes the snapshot for the window ending now and applies negative-feedback deactivation.",
		Run:   runHealth,
	}
	cmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	cmd.Flags().Bool("aggregate", false, "Compute a new snapshot for the trailing window")
	cmd.Flags().Duration("window", 0, "Aggregation window (default: config health.window)")
	cmd.MarkFlagRequired("owner")
	RootCmd.AddCommand(cmd)
}

func runHealth(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	aggregate, _ := cmd.Flags().GetBool("aggregate")
	window, _ := cmd.Flags().GetDuration("window")

	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	if !aggregate {
		snap, err := s.LatestSnapshot(cmd.Context(), owner)
		if err != nil {
			exitErr("health", err)
		}
		printJSON(snap)
		return
	}

	if window <= 0 {
		window = cfg.Health.Window
	}
	agg := &health.Aggregator{
		Store: s,
		Mood: health.Thresholds{
			ConfusedHallucinationRate: cfg.Health.ConfusedHallucinationRate,
			StressedRefusalRate:       cfg.Health.StressedRefusalRate,
			DegradedCoherence:         cfg.Health.DegradedCoherence,
		}.Policy(),
		FeedbackRefusals: cfg.Health.FeedbackRefusals,
	}

	end := time.Now().UTC().Truncate(time.Minute)
	start := end.Add(-window)

	snap, err := agg.Aggregate(cmd.Context(), owner, start, end)
	if err != nil {
		exitErr("aggregate", err)
	}
	if _, err := agg.ApplyFeedback(cmd.Context(), owner, start, end); err != nil {
		exitErr("apply feedback", err)
	}
	printJSON(snap)
}
