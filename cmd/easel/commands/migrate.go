package commands

import (
	"github.com/dyluth/easel/internal/printer"
	"github.com/dyluth/easel/pkg/gallery"
	"github.com/spf13/cobra"
)

var migrateBatch int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Rewrite legacy records into the sized key layout",
	Long: `Rewrite every record stored under the legacy ("art", id) key into the
("art", size, id) layout and register its size.

The pass is safe to interrupt and to run again: a record is written under
its new key before the old key is removed, and records already migrated are
left alone. The server can keep running meanwhile.

Examples:
  easel migrate
  easel migrate --batch 500`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().IntVar(&migrateBatch, "batch", gallery.DefaultMigrateBatch, "Entries read per scan")

	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openForInspection(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	printer.Step("Migrating legacy records\n")
	stats, err := b.gallery.Migrate(ctx, migrateBatch)
	printer.Stats(
		printer.Stat{Label: "Scanned", Value: stats.Scanned},
		printer.Stat{Label: "Migrated", Value: stats.Migrated},
		printer.Stat{Label: "Skipped", Value: stats.Skipped},
	)
	if err != nil {
		return printer.Error(
			"migration interrupted",
			err.Error(),
			[]string{"Run the migration again; finished records are not redone"},
		)
	}

	if stats.Migrated == 0 {
		printer.Success("nothing to migrate\n")
	} else {
		printer.Success("migrated %d records\n", stats.Migrated)
	}
	return nil
}
