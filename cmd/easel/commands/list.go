package commands

import (
	"fmt"
	"time"

	"github.com/dyluth/easel/internal/hoard"
	"github.com/dyluth/easel/internal/printer"
	"github.com/dyluth/easel/internal/timespec"
	"github.com/dyluth/easel/pkg/gallery"
	"github.com/spf13/cobra"
)

var (
	listOutputFormat string
	listSize         int
	listMax          int
	listPageSize     int
	listOldest       bool
	listSince        string
	listUntil        string
	listAuthor       string
	listName         string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored art records with filtering",
	Long: `List art records, newest first, as a table or JSONL stream.

Records are read page by page, so listing a large store is cheap on memory.

Output Formats:
  default - Human-readable table with ID, generation, size, name, author and mapping
  jsonl   - Line-delimited JSON, one record per line

Filters:
  --size    - Only records of this grid size
  --since   - Records created after this time (duration or RFC3339)
  --until   - Records created before this time (duration or RFC3339)
  --author  - Author glob pattern ("ada*")
  --name    - Name glob pattern ("*heart*")

Examples:
  # Latest twenty records
  easel list --max 20

  # Everything an author drew today, oldest first
  easel list --author=ada --since=24h --oldest

  # Pipe to jq
  easel list -o jsonl | jq -r '.id'`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "default", "Output format: default or jsonl")
	listCmd.Flags().IntVar(&listSize, "size", 0, "Only records of this size")
	listCmd.Flags().IntVarP(&listMax, "max", "n", 0, "Stop after this many records (0 = all)")
	listCmd.Flags().IntVar(&listPageSize, "page-size", 0, "Records fetched per page (0 = store default)")
	listCmd.Flags().BoolVar(&listOldest, "oldest", false, "Oldest first")

	listCmd.Flags().StringVar(&listSince, "since", "", "Show records after time (duration or RFC3339)")
	listCmd.Flags().StringVar(&listUntil, "until", "", "Show records before time (duration or RFC3339)")
	listCmd.Flags().StringVar(&listAuthor, "author", "", "Filter by author (glob pattern)")
	listCmd.Flags().StringVar(&listName, "name", "", "Filter by name (glob pattern)")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	var outputFormat hoard.OutputFormat
	switch listOutputFormat {
	case "default":
		outputFormat = hoard.OutputFormatDefault
	case "jsonl":
		outputFormat = hoard.OutputFormatJSONL
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", listOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	sinceMS, untilMS, err := timespec.ParseRange(listSince, listUntil, time.Now())
	if err != nil {
		return printer.Error(
			"invalid time filter",
			err.Error(),
			[]string{"Use duration format like '1h30m' or RFC3339 like '2025-10-29T13:00:00Z'"},
		)
	}

	ctx := cmd.Context()
	b, err := openForInspection(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	err = hoard.ListRecords(ctx, b.gallery, hoard.ListRequest{
		Size:     listSize,
		Max:      listMax,
		Oldest:   listOldest,
		PageSize: listPageSize,
	}, outputFormat, &hoard.FilterCriteria{
		SinceTimestampMs: sinceMS,
		UntilTimestampMs: untilMS,
		AuthorGlob:       listAuthor,
		NameGlob:         listName,
	}, cmd.OutOrStdout())
	if err != nil {
		if gallery.IsValidation(err) {
			return printer.Error("invalid list request", err.Error(), nil)
		}
		return printer.Error("failed to list records", err.Error(), nil)
	}
	return nil
}
