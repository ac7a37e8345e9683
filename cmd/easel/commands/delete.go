package commands

import (
	"fmt"

	"github.com/dyluth/easel/internal/printer"
	"github.com/dyluth/easel/internal/resolver"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete RECORD_ID...",
	Short: "Delete art records",
	Long: `Delete one or more records by ID or short ID. Every stored copy of a
record is removed, including one left behind by an interrupted migration.

Fails when any of the IDs did not exist; the others are still deleted.

Examples:
  easel delete 0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b
  easel delete 2e3f4a5b 9c8d7e6f`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openForInspection(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	var missing []string
	for _, arg := range args {
		id, err := resolver.ResolveRecordID(ctx, b.gallery, arg)
		if resolver.IsNotFoundError(err) {
			missing = append(missing, arg)
			continue
		}
		if err != nil {
			return resolveError(arg, err, cmd.ErrOrStderr())
		}

		deleted, err := b.gallery.DeleteRecord(ctx, id)
		if err != nil {
			return printer.Error(fmt.Sprintf("failed to delete '%s'", id), err.Error(), nil)
		}
		if !deleted {
			missing = append(missing, arg)
			continue
		}
		printer.Success("deleted %s\n", id)
	}

	if len(missing) > 0 {
		return printer.ErrorWithContext(
			fmt.Sprintf("%d of %d records not found", len(missing), len(args)),
			"",
			map[string]string{"Missing": fmt.Sprint(missing)},
			nil,
		)
	}
	return nil
}
