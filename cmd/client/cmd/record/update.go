// cmd/client/cmd/record/update.go
package record

import (
	"fmt"

	"github.com/spf13/cobra"

	"lifelog/internal/domain/record"
)

var (
	newContent string
	newLat     float64
	newLon     float64
	newAddress string
	clearAudio bool
)

var UpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Изменить запись",
	Long: `Частичное изменение записи: меняются только переданные флаги.

Медиа записи не меняются. --clear-audio удаляет аудио.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := writableApp(cmd)
		if err != nil {
			return err
		}

		var patch record.Patch
		if cmd.Flags().Changed("content") {
			patch.Content = &newContent
		}
		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
			patch.Location = &record.Location{
				Latitude:  newLat,
				Longitude: newLon,
				Address:   newAddress,
			}
		}
		if clearAudio {
			patch.Audio = record.ClearAudio().Audio
		}
		if patch.Content == nil && patch.Location == nil && patch.Audio == nil {
			return fmt.Errorf("нечего менять: укажите --content, --lat/--lon или --clear-audio")
		}

		rec, err := app.Records().PatchRecord(cmd.Context(), args[0], patch)
		if err != nil {
			return fmt.Errorf("ошибка обновления записи: %w", err)
		}

		Done("Запись обновлена: %s", rec.ID)
		return nil
	},
}

func init() {
	UpdateCmd.Flags().StringVarP(&newContent, "content", "c", "", "новый текст")
	UpdateCmd.Flags().Float64Var(&newLat, "lat", 0, "широта")
	UpdateCmd.Flags().Float64Var(&newLon, "lon", 0, "долгота")
	UpdateCmd.Flags().StringVar(&newAddress, "address", "", "адрес места")
	UpdateCmd.Flags().BoolVar(&clearAudio, "clear-audio", false, "удалить аудио из записи")
}
