package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show pipeline statistics for an owner",
		Run:   runStats,
	}
	cmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	cmd.MarkFlagRequired("owner")
	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")

	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	st, err := s.Stats(cmd.Context(), owner, getDBPath(cfg))
	if err != nil {
		exitErr("stats", err)
	}
	printJSON(st)
}
