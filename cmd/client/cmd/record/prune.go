// cmd/client/cmd/record/prune.go
package record

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pruneDays int

var PruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Удалить старые записи",
	Long: `Удаляет записи старше --days дней вместе с их медиа.

Перед очисткой стоит сделать экспорт: lifelog export -o backup.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := writableApp(cmd)
		if err != nil {
			return err
		}
		if pruneDays < 0 {
			return fmt.Errorf("--days не может быть отрицательным")
		}

		pruned, err := app.Records().PruneOlderThan(cmd.Context(), pruneDays)
		if err != nil {
			return fmt.Errorf("очистка прервана после %d записей: %w", pruned, err)
		}

		Done("Удалено записей: %d", pruned)
		return nil
	},
}

func init() {
	PruneCmd.Flags().IntVarP(&pruneDays, "days", "d", 30, "удалять записи старше N дней")
}
