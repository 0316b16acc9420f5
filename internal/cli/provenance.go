package cli

import (
	"github.com/curatorhq/curator/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "provenance",
		Short: "Read the provenance ledger",
		Long:  "List immutable audit events for an owner, in sequence order.",
		Run:   runProvenance,
	}
	cmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	cmd.Flags().StringP("memory", "m", "", "Filter by memory id")
	cmd.Flags().String("type", "", "Filter by event type")
	cmd.Flags().IntP("limit", "l", 100, "Max results")
	cmd.MarkFlagRequired("owner")
	RootCmd.AddCommand(cmd)
}

func runProvenance(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	memory, _ := cmd.Flags().GetString("memory")
	eventType, _ := cmd.Flags().GetString("type")
	limit, _ := cmd.Flags().GetInt("limit")

	s := openStore(loadConfig())
	defer s.Close()

	events, err := s.ListEvents(cmd.Context(), store.ListEventsParams{
		Owner:     owner,
		MemoryID:  memory,
		EventType: eventType,
		Limit:     limit,
	})
	if err != nil {
		exitErr("provenance", err)
	}
	printJSON(events)
}
