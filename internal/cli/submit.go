package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/curatorhq/curator/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	submitCmd := &cobra.Command{
		Use:   "submit [content]",
		Short: "Ingest content into the memory substrate",
		Long:  "Ingest content for an owner. Content can be a positional arg or piped via stdin. Identical content is deduplicated; new memories are classified immediately.",
		Run:   runSubmit,
	}
	submitCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	submitCmd.Flags().StringP("source", "s", "text", "Source type: text, chat, upload, feed")
	submitCmd.Flags().String("meta", "", "JSON metadata")
	submitCmd.MarkFlagRequired("owner")
	RootCmd.AddCommand(submitCmd)

	archiveCmd := &cobra.Command{
		Use:   "archive [memory-id]",
		Short: "Archive a memory",
		Long:  "Flag a memory as archived. The memory and its ledger history remain.",
		Args:  cobra.ExactArgs(1),
		Run:   runArchive,
	}
	archiveCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	archiveCmd.MarkFlagRequired("owner")
	RootCmd.AddCommand(archiveCmd)

	memoriesCmd := &cobra.Command{
		Use:   "memories",
		Short: "List an owner's memories",
		Run:   runMemories,
	}
	memoriesCmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	memoriesCmd.Flags().String("status", "", "Filter by quarantine status")
	memoriesCmd.Flags().Bool("archived", false, "Include archived memories")
	memoriesCmd.Flags().IntP("limit", "l", 50, "Max results")
	memoriesCmd.MarkFlagRequired("owner")
	RootCmd.AddCommand(memoriesCmd)
}

func runSubmit(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	source, _ := cmd.Flags().GetString("source")
	metaStr, _ := cmd.Flags().GetString("meta")

	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	if strings.TrimSpace(content) == "" {
		exitErr("submit", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	var meta map[string]any
	if metaStr != "" {
		if err := json.Unmarshal([]byte(metaStr), &meta); err != nil {
			exitErr("parse meta", err)
		}
	}

	p, s := openPipeline()
	defer s.Close()

	mem, err := p.Submit(cmd.Context(), store.SubmitParams{
		Owner:      owner,
		Content:    strings.TrimSpace(content),
		SourceType: source,
		Metadata:   meta,
	})
	if err != nil {
		exitErr("submit", err)
	}
	printJSON(mem)
}

func runArchive(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")

	s := openStore(loadConfig())
	defer s.Close()

	if err := s.ArchiveMemory(cmd.Context(), owner, args[0], owner); err != nil {
		exitErr("archive", err)
	}
	fmt.Printf("archived %s\n", args[0])
}

func runMemories(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	status, _ := cmd.Flags().GetString("status")
	archived, _ := cmd.Flags().GetBool("archived")
	limit, _ := cmd.Flags().GetInt("limit")

	s := openStore(loadConfig())
	defer s.Close()

	memories, err := s.ListMemories(cmd.Context(), store.ListMemoriesParams{
		Owner:           owner,
		Status:          status,
		IncludeArchived: archived,
		Limit:           limit,
	})
	if err != nil {
		exitErr("memories", err)
	}
	printJSON(memories)
}
