package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	accrueCmd := &cobra.Command{
		Use:   "accrue",
		Short: "Record a compensation accrual",
		Long:  "Accrue value for a memory usage event. Points come from the pluggable scoring function and the memory's quality score.",
		Run:   runAccrue,
	}
	accrueCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	accrueCmd.Flags().StringP("memory", "m", "", "Memory id")
	accrueCmd.Flags().String("event", "", "Event type: training-contribution, generation-use, research-citation, collective-value (required)")
	accrueCmd.Flags().String("context", "", "Usage context")
	accrueCmd.MarkFlagRequired("owner")
	accrueCmd.MarkFlagRequired("event")
	RootCmd.AddCommand(accrueCmd)

	listCmd := &cobra.Command{
		Use:   "compensation",
		Short: "List compensation ledger rows",
		Run:   runCompensation,
	}
	listCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	listCmd.Flags().IntP("limit", "l", 50, "Max results")
	listCmd.MarkFlagRequired("owner")
	RootCmd.AddCommand(listCmd)
}

func runAccrue(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	memory, _ := cmd.Flags().GetString("memory")
	event, _ := cmd.Flags().GetString("event")
	usageContext, _ := cmd.Flags().GetString("context")

	p, s := openPipeline()
	defer s.Close()

	entry, err := p.Accrue(cmd.Context(), owner, memory, event, usageContext)
	if err != nil {
		exitErr("accrue", err)
	}
	printJSON(entry)
}

func runCompensation(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	limit, _ := cmd.Flags().GetInt("limit")

	s := openStore(loadConfig())
	defer s.Close()

	entries, err := s.ListCompensation(cmd.Context(), owner, limit)
	if err != nil {
		exitErr("compensation", err)
	}
	printJSON(entries)
}
