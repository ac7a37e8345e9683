package commands

import (
	"github.com/dyluth/easel/internal/printer"
	"github.com/spf13/cobra"
)

var sizesCmd = &cobra.Command{
	Use:   "sizes",
	Short: "Show the registered record sizes",
	Long: `Print every grid size a record has been stored with, plus the default
size, in ascending order. Lookups by ID probe each of these.`,
	Args: cobra.NoArgs,
	RunE: runSizes,
}

func init() {
	rootCmd.AddCommand(sizesCmd)
}

func runSizes(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openForInspection(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	sizes, err := b.gallery.KnownSizes(ctx)
	if err != nil {
		return printer.Error("failed to read sizes", err.Error(), nil)
	}
	for _, size := range sizes {
		printer.Info("%d\n", size)
	}
	return nil
}
