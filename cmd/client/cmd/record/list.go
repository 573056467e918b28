// cmd/client/cmd/record/list.go
package record

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"lifelog/internal/domain/record"
)

var (
	listDays   int
	listFormat string
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список записей",
	Long: `Просмотр записей, новые первыми.

Флаг --days оставляет только записи не старше N дней.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}

		var days *int
		if cmd.Flags().Changed("days") {
			days = &listDays
		}
		records := app.Records().GetRecordsByDateRange(days)

		format := listFormat
		if format == "" {
			format = "simple"
			if interactive() {
				format = "table"
			}
		}

		switch format {
		case "json":
			return printRecordsJSON(records)
		case "table":
			return printRecordsTable(records)
		default:
			return printRecordsSimple(records)
		}
	},
}

func printRecordsSimple(records []record.Record) error {
	for _, rec := range records {
		fmt.Printf("%s\t%s\t%s\t%s\n",
			rec.ID,
			rec.CreatedAt.Format(time.RFC3339),
			kinds(rec),
			strings.ReplaceAll(rec.Content, "\n", " "),
		)
	}
	return nil
}

func printRecordsTable(records []record.Record) error {
	if len(records) == 0 {
		fmt.Println("Записи не найдены")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	titleColor.Fprintf(w, "ID\tСоздано\tВложения\tТекст\t\n")

	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			shortID(rec.ID),
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			kinds(rec),
			truncate(strings.ReplaceAll(rec.Content, "\n", " "), 50),
		)
	}

	w.Flush()
	dimColor.Printf("\nВсего записей: %d\n", len(records))
	return nil
}

func printRecordsJSON(records []record.Record) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

// kinds - краткая сводка вложений записи
func kinds(rec record.Record) string {
	var parts []string
	if rec.HasAudio {
		parts = append(parts, fmt.Sprintf("аудио %.0fс", rec.AudioDuration))
	}

	var images, videos int
	for _, m := range rec.Images {
		if m.Type == record.MediaTypeVideo {
			videos++
		} else {
			images++
		}
	}
	if images > 0 {
		parts = append(parts, fmt.Sprintf("%s: %d", record.MediaTypeImage.DisplayName(), images))
	}
	if videos > 0 {
		parts = append(parts, fmt.Sprintf("%s: %d", record.MediaTypeVideo.DisplayName(), videos))
	}
	if rec.Location != nil {
		parts = append(parts, "гео")
	}

	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func truncate(s string, length int) string {
	if utf8.RuneCountInString(s) <= length {
		return s
	}
	runes := []rune(s)
	return string(runes[:length-3]) + "..."
}

func init() {
	ListCmd.Flags().IntVarP(&listDays, "days", "d", 0, "только записи не старше N дней")
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "", "формат вывода (simple, table, json); по умолчанию table в терминале")
}
