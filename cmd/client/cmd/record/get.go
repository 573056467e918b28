// cmd/client/cmd/record/get.go
package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"lifelog/internal/app/client"
	"lifelog/internal/domain/record"
)

var (
	outputFormat string
	saveDir      string
)

var GetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Просмотреть запись",
	Long: `Просмотр записи по ID.

С флагом --save медиа записи сохраняются в указанный каталог.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}

		rec, ok := app.Records().Get(args[0])
		if !ok {
			return fmt.Errorf("запись %s не найдена", args[0])
		}

		if saveDir != "" {
			if err := saveMedia(app.Records(), rec, saveDir); err != nil {
				return err
			}
		}

		if outputFormat == "json" {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(rec)
		}
		printRecordHuman(rec)
		return nil
	},
}

func printRecordHuman(rec *record.Record) {
	fmt.Printf("ID:          %s\n", rec.ID)
	fmt.Printf("Создано:     %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Обновлено:   %s\n", rec.UpdatedAt.Local().Format("2006-01-02 15:04:05"))

	if rec.Location != nil {
		place := rec.Location.Address
		if place == "" {
			place = fmt.Sprintf("%.5f, %.5f", rec.Location.Latitude, rec.Location.Longitude)
		}
		fmt.Printf("Место:       %s\n", place)
	}
	if rec.HasAudio {
		fmt.Printf("Аудио:       %s, %.1f с\n", rec.AudioFormat, rec.AudioDuration)
	}
	for _, m := range rec.Images {
		fmt.Printf("%-12s %s %s %dx%d\n", m.Type.DisplayName()+":", m.ID, m.MimeType, m.Width, m.Height)
	}

	if rec.Content != "" {
		fmt.Println()
		fmt.Println(rec.Content)
	}
}

func saveMedia(records *client.Records, rec *record.Record, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ошибка создания каталога: %w", err)
	}

	for _, m := range rec.Images {
		data, mime, err := records.Media(rec.ID, m.ID)
		if err != nil {
			Warn("медиа %s недоступно: %v", m.ID, err)
			continue
		}

		path := filepath.Join(dir, m.ID+mimetype.Lookup(mime).Extension())
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("ошибка записи %s: %w", path, err)
		}
		Done("Сохранено: %s", path)
	}
	return nil
}

func init() {
	GetCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "формат вывода (text, json)")
	GetCmd.Flags().StringVar(&saveDir, "save", "", "каталог для сохранения медиа")
}
