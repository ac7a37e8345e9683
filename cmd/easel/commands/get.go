package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/easel/internal/hoard"
	"github.com/dyluth/easel/internal/printer"
	"github.com/dyluth/easel/internal/resolver"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get RECORD_ID",
	Short: "Print one art record as JSON",
	Long: `Print the complete record as pretty-printed JSON.

The record is found whichever key layout it is stored under. Short IDs
(the tail shown by "easel list", at least six characters) are expanded.

Examples:
  easel get 0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b
  easel get 2e3f4a5b | jq .mapping`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openForInspection(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	id, err := resolveID(ctx, b, args[0], cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if err := hoard.GetRecord(ctx, b.gallery, id, cmd.OutOrStdout()); err != nil {
		if hoard.IsNotFound(err) {
			return printer.Error(
				fmt.Sprintf("art with ID '%s' not found", id),
				"The record was resolved but could not be fetched.",
				[]string{"It was probably deleted meanwhile. Try again."},
			)
		}
		return printer.Error("failed to get record", err.Error(), nil)
	}
	return nil
}

// resolveID expands a short ID, printing a formatted error when it cannot.
func resolveID(ctx context.Context, b *backend, shortID string, errOut io.Writer) (string, error) {
	id, err := resolver.ResolveRecordID(ctx, b.gallery, shortID)
	if err != nil {
		return "", resolveError(shortID, err, errOut)
	}
	return id, nil
}

func resolveError(shortID string, err error, errOut io.Writer) error {
	switch {
	case resolver.IsNotFoundError(err):
		return printer.Error(
			fmt.Sprintf("art with ID '%s' not found", shortID),
			"No record with this ID exists in the store.",
			[]string{"List records:\n  easel list"},
		)
	case resolver.IsAmbiguousError(err):
		fmt.Fprintln(errOut, resolver.FormatAmbiguousError(err.(*resolver.AmbiguousError)))
		return fmt.Errorf("ambiguous short ID")
	default:
		return printer.Error("failed to resolve record ID", err.Error(), nil)
	}
}
