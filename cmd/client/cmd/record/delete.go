// cmd/client/cmd/record/delete.go
package record

import (
	"fmt"

	"github.com/spf13/cobra"
)

var DeleteCmd = &cobra.Command{
	Use:   "delete [id...]",
	Short: "Удалить записи вместе с медиа",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := writableApp(cmd)
		if err != nil {
			return err
		}

		for _, id := range args {
			if err := app.Records().DeleteRecord(cmd.Context(), id); err != nil {
				return fmt.Errorf("ошибка удаления %s: %w", id, err)
			}
			Done("Удалено: %s", id)
		}
		return nil
	},
}
