package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	retrieveCmd := &cobra.Command{
		Use:   "retrieve [query]",
		Short: "Retrieve curated context for a query",
		Long:  "The assistant read path: similarity candidates filtered to active curated entries, ranked by priority then relevance. Retrieval counts are bumped and generation-use compensation accrues.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRetrieve,
	}
	retrieveCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	retrieveCmd.Flags().IntP("limit", "l", 10, "Max entries")
	retrieveCmd.MarkFlagRequired("owner")
	RootCmd.AddCommand(retrieveCmd)

	curatedCmd := &cobra.Command{
		Use:   "curated",
		Short: "List curated entries",
		Run:   runCurated,
	}
	curatedCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	curatedCmd.Flags().Bool("all", false, "Include deactivated entries")
	curatedCmd.Flags().IntP("limit", "l", 50, "Max results")
	curatedCmd.MarkFlagRequired("owner")
	RootCmd.AddCommand(curatedCmd)

	deactivateCmd := &cobra.Command{
		Use:   "deactivate [entry-id]",
		Short: "Deactivate a curated entry",
		Long:  "Retire an entry from the assistant's view. Reactivation requires a new approved promotion.",
		Args:  cobra.ExactArgs(1),
		Run:   runDeactivate,
	}
	deactivateCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	deactivateCmd.Flags().String("reason", "manual", "Deactivation reason")
	deactivateCmd.Flags().String("curator", "", "Curator id (required)")
	deactivateCmd.MarkFlagRequired("owner")
	deactivateCmd.MarkFlagRequired("curator")
	RootCmd.AddCommand(deactivateCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	limit, _ := cmd.Flags().GetInt("limit")

	p, s := openPipeline()
	defer s.Close()

	entries, err := p.Retrieve(cmd.Context(), owner, strings.Join(args, " "), limit)
	if err != nil {
		exitErr("retrieve", err)
	}
	if len(entries) == 0 {
		fmt.Println("[]")
		return
	}
	printJSON(entries)
}

func runCurated(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	all, _ := cmd.Flags().GetBool("all")
	limit, _ := cmd.Flags().GetInt("limit")

	s := openStore(loadConfig())
	defer s.Close()

	entries, err := s.ListCurated(cmd.Context(), owner, !all, limit)
	if err != nil {
		exitErr("curated", err)
	}
	printJSON(entries)
}

func runDeactivate(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	reason, _ := cmd.Flags().GetString("reason")
	curator, _ := cmd.Flags().GetString("curator")

	s := openStore(loadConfig())
	defer s.Close()

	if err := s.DeactivateEntry(cmd.Context(), owner, args[0], reason, curator); err != nil {
		exitErr("deactivate", err)
	}
	fmt.Printf("deactivated %s\n", args[0])
}
