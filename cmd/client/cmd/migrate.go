// cmd/client/cmd/migrate.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"lifelog/cmd/client/cmd/record"
	"lifelog/internal/infrastructure/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Итог переноса данных из старой базы",
	Long: `Перенос из старой базы выполняется автоматически при каждом запуске.
Команда показывает итог последнего переноса.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result := app.LegacyResult()

		switch result.Status {
		case migration.StatusMigrated:
			record.Done("Перенесено записей: %d, медиа: %d", result.Records, result.Media)
			if result.Dropped > 0 {
				record.Warn("Не перенесено ссылок на медиа: %d. Старая база сохранена: %s",
					result.Dropped, cfg.LegacyDataPath+migration.BackupSuffix)
			}
		case migration.StatusFailed:
			record.Warn("Перенос не удался: %s. Старая база сохранена: %s", result.Reason, cfg.LegacyDataPath)
		default:
			fmt.Printf("Перенос не требуется: %s\n", result.Reason)
		}
		return nil
	},
}
