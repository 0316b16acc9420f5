package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "classify [memory-id]",
		Short: "Run quarantine classification",
		Long:  "Classify one memory, or sweep the owner's pending memories with --sweep. Timed-out classifications leave memories pending for the next sweep.",
		Run:   runClassify,
	}
	cmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	cmd.Flags().Bool("sweep", false, "Classify all pending memories for the owner")
	cmd.Flags().IntP("limit", "l", 100, "Max memories per sweep")
	cmd.MarkFlagRequired("owner")
	RootCmd.AddCommand(cmd)
}

func runClassify(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	sweep, _ := cmd.Flags().GetBool("sweep")
	limit, _ := cmd.Flags().GetInt("limit")

	p, s := openPipeline()
	defer s.Close()

	if sweep {
		n, err := p.Sweep(cmd.Context(), owner, limit)
		if err != nil {
			exitErr("sweep", err)
		}
		fmt.Printf("classified %d memories\n", n)
		return
	}

	if len(args) != 1 {
		exitErr("classify", fmt.Errorf("memory id required unless --sweep is set"))
	}
	mem, err := p.Classify(cmd.Context(), owner, args[0])
	if err != nil {
		exitErr("classify", err)
	}
	printJSON(mem)
}
