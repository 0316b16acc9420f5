package cli

import (
	"strings"

	"github.com/curatorhq/curator/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	decideCmd := &cobra.Command{
		Use:   "decide [request-summary]",
		Short: "Record an assistant decision",
		Args:  cobra.MinimumNArgs(1),
		Run:   runDecide,
	}
	decideCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	decideCmd.Flags().String("decision", "", "Decision: accepted, refused, deferred, modified (required)")
	decideCmd.Flags().String("reason", "", "Reason text")
	decideCmd.Flags().Float64("confidence", 0, "Confidence 0-1")
	decideCmd.Flags().StringP("memory", "m", "", "Related memory id")
	decideCmd.Flags().String("entry", "", "Related curated entry id")
	decideCmd.MarkFlagRequired("owner")
	decideCmd.MarkFlagRequired("decision")
	RootCmd.AddCommand(decideCmd)

	overrideCmd := &cobra.Command{
		Use:   "override [decision-id]",
		Short: "Record a human override of a decision",
		Args:  cobra.ExactArgs(1),
		Run:   runOverride,
	}
	overrideCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	overrideCmd.Flags().String("by", "", "Overriding human id (required)")
	overrideCmd.Flags().String("justification", "", "Override justification (required)")
	overrideCmd.MarkFlagRequired("owner")
	overrideCmd.MarkFlagRequired("by")
	overrideCmd.MarkFlagRequired("justification")
	RootCmd.AddCommand(overrideCmd)

	decisionsCmd := &cobra.Command{
		Use:   "decisions",
		Short: "List assistant decisions",
		Run:   runDecisions,
	}
	decisionsCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	decisionsCmd.Flags().String("decision", "", "Filter by decision")
	decisionsCmd.Flags().Bool("overridden", false, "Only overridden decisions")
	decisionsCmd.Flags().IntP("limit", "l", 50, "Max results")
	decisionsCmd.MarkFlagRequired("owner")
	RootCmd.AddCommand(decisionsCmd)
}

func runDecide(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	decision, _ := cmd.Flags().GetString("decision")
	reason, _ := cmd.Flags().GetString("reason")
	confidence, _ := cmd.Flags().GetFloat64("confidence")
	memory, _ := cmd.Flags().GetString("memory")
	entry, _ := cmd.Flags().GetString("entry")

	s := openStore(loadConfig())
	defer s.Close()

	d, err := s.RecordDecision(cmd.Context(), store.RecordDecisionParams{
		Owner:          owner,
		RequestSummary: strings.Join(args, " "),
		Decision:       decision,
		Reason:         reason,
		Confidence:     confidence,
		MemoryID:       memory,
		CuratedEntryID: entry,
	})
	if err != nil {
		exitErr("decide", err)
	}
	printJSON(d)
}

func runOverride(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	by, _ := cmd.Flags().GetString("by")
	justification, _ := cmd.Flags().GetString("justification")

	s := openStore(loadConfig())
	defer s.Close()

	d, err := s.OverrideDecision(cmd.Context(), owner, args[0], by, justification)
	if err != nil {
		exitErr("override", err)
	}
	printJSON(d)
}

func runDecisions(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	decision, _ := cmd.Flags().GetString("decision")
	overridden, _ := cmd.Flags().GetBool("overridden")
	limit, _ := cmd.Flags().GetInt("limit")

	s := openStore(loadConfig())
	defer s.Close()

	p := store.ListDecisionsParams{
		Owner:    owner,
		Decision: decision,
		Limit:    limit,
	}
	if overridden {
		t := true
		p.Overridden = &t
	}
	decisions, err := s.ListDecisions(cmd.Context(), p)
	if err != nil {
		exitErr("decisions", err)
	}
	printJSON(decisions)
}
