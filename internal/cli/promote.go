package cli

import (
	"github.com/curatorhq/curator/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	requestCmd := &cobra.Command{
		Use:   "request [memory-id]",
		Short: "Open a promotion request",
		Long:  "Propose a memory for curated visibility. Fails if the memory is flagged, rejected, archived, already promoted, or already under review.",
		Args:  cobra.ExactArgs(1),
		Run:   runRequest,
	}
	requestCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	requestCmd.Flags().StringP("requester", "r", "", "Requester id (required)")
	requestCmd.Flags().String("reason", "", "Why this memory should be promoted")
	requestCmd.Flags().StringP("priority", "p", "normal", "Priority: low, normal, high, urgent")
	requestCmd.MarkFlagRequired("owner")
	requestCmd.MarkFlagRequired("requester")
	RootCmd.AddCommand(requestCmd)

	voteCmd := &cobra.Command{
		Use:   "vote [request-id]",
		Short: "Cast an advisory vote on a request",
		Args:  cobra.ExactArgs(1),
		Run:   runVote,
	}
	voteCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	voteCmd.Flags().String("voter", "", "Voter id (required)")
	voteCmd.Flags().Bool("reject", false, "Cast a reject vote instead of approve")
	voteCmd.MarkFlagRequired("owner")
	voteCmd.MarkFlagRequired("voter")
	RootCmd.AddCommand(voteCmd)

	reviewCmd := &cobra.Command{
		Use:   "review [request-id]",
		Short: "Move a pending request into review",
		Args:  cobra.ExactArgs(1),
		Run:   runReview,
	}
	reviewCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	reviewCmd.Flags().String("reviewer", "", "Reviewer id (required)")
	reviewCmd.MarkFlagRequired("owner")
	reviewCmd.MarkFlagRequired("reviewer")
	RootCmd.AddCommand(reviewCmd)

	resolveCmd := &cobra.Command{
		Use:   "resolve [request-id]",
		Short: "Resolve a promotion request",
		Long:  "Transition an open request to approved, rejected, or needs_revision. Approval promotes the memory and materializes its curated entry. Vote counts are advisory; resolution is always this explicit call.",
		Args:  cobra.ExactArgs(1),
		Run:   runResolve,
	}
	resolveCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	resolveCmd.Flags().String("resolver", "", "Resolver id (required)")
	resolveCmd.Flags().String("outcome", "", "Outcome: approved, rejected, needs_revision (required)")
	resolveCmd.Flags().String("notes", "", "Reviewer notes")
	resolveCmd.Flags().String("category", "general", "Curated entry category on approval")
	resolveCmd.Flags().Int("entry-priority", 50, "Curated entry priority (0-100) on approval")
	resolveCmd.MarkFlagRequired("owner")
	resolveCmd.MarkFlagRequired("resolver")
	resolveCmd.MarkFlagRequired("outcome")
	RootCmd.AddCommand(resolveCmd)

	resubmitCmd := &cobra.Command{
		Use:   "resubmit [memory-id]",
		Short: "Reopen promotion after needs_revision",
		Args:  cobra.ExactArgs(1),
		Run:   runResubmit,
	}
	resubmitCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	resubmitCmd.Flags().StringP("requester", "r", "", "Requester id (required)")
	resubmitCmd.Flags().String("reason", "", "What changed since the last cycle")
	resubmitCmd.Flags().StringP("priority", "p", "normal", "Priority: low, normal, high, urgent")
	resubmitCmd.MarkFlagRequired("owner")
	resubmitCmd.MarkFlagRequired("requester")
	RootCmd.AddCommand(resubmitCmd)

	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "List promotion requests for review",
		Run:   runPending,
	}
	pendingCmd.Flags().StringP("owner", "o", "", "Owner id (or --global)")
	pendingCmd.Flags().Bool("global", false, "Scan the whole review queue across owners")
	pendingCmd.Flags().String("status", "", "Filter by one status; unset lists pending and in_review")
	pendingCmd.Flags().IntP("limit", "l", 50, "Max results")
	RootCmd.AddCommand(pendingCmd)
}

func runRequest(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	requester, _ := cmd.Flags().GetString("requester")
	reason, _ := cmd.Flags().GetString("reason")
	priority, _ := cmd.Flags().GetString("priority")

	s := openStore(loadConfig())
	defer s.Close()

	req, err := s.RequestPromotion(cmd.Context(), store.RequestParams{
		Owner:       owner,
		MemoryID:    args[0],
		RequesterID: requester,
		Reason:      reason,
		Priority:    priority,
	})
	if err != nil {
		exitErr("request", err)
	}
	printJSON(req)
}

func runVote(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	voter, _ := cmd.Flags().GetString("voter")
	reject, _ := cmd.Flags().GetBool("reject")

	s := openStore(loadConfig())
	defer s.Close()

	req, err := s.CastVote(cmd.Context(), owner, args[0], voter, !reject)
	if err != nil {
		exitErr("vote", err)
	}
	printJSON(req)
}

func runReview(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	reviewer, _ := cmd.Flags().GetString("reviewer")

	s := openStore(loadConfig())
	defer s.Close()

	req, err := s.StartReview(cmd.Context(), owner, args[0], reviewer)
	if err != nil {
		exitErr("review", err)
	}
	printJSON(req)
}

func runResolve(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	resolver, _ := cmd.Flags().GetString("resolver")
	outcome, _ := cmd.Flags().GetString("outcome")
	notes, _ := cmd.Flags().GetString("notes")
	category, _ := cmd.Flags().GetString("category")
	entryPriority, _ := cmd.Flags().GetInt("entry-priority")

	s := openStore(loadConfig())
	defer s.Close()

	req, err := s.ResolveRequest(cmd.Context(), store.ResolveParams{
		Owner:         owner,
		RequestID:     args[0],
		ResolverID:    resolver,
		Outcome:       outcome,
		Notes:         notes,
		Category:      category,
		EntryPriority: entryPriority,
	})
	if err != nil {
		exitErr("resolve", err)
	}
	printJSON(req)
}

func runResubmit(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	requester, _ := cmd.Flags().GetString("requester")
	reason, _ := cmd.Flags().GetString("reason")
	priority, _ := cmd.Flags().GetString("priority")

	s := openStore(loadConfig())
	defer s.Close()

	req, err := s.ResubmitPromotion(cmd.Context(), store.RequestParams{
		Owner:       owner,
		MemoryID:    args[0],
		RequesterID: requester,
		Reason:      reason,
		Priority:    priority,
	})
	if err != nil {
		exitErr("resubmit", err)
	}
	printJSON(req)
}

func runPending(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	global, _ := cmd.Flags().GetBool("global")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	requests, err := s.ListRequests(cmd.Context(), store.ListRequestsParams{
		Owner:    owner,
		Global:   global,
		Status:   status,
		OpenOnly: status == "",
		Limit:    limit,
		Quorum:   cfg.Review.Quorum,
	})
	if err != nil {
		exitErr("pending", err)
	}
	printJSON(requests)
}
