// cmd/client/cmd/stats.go
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Использование хранилища",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := app.Stats().Refresh(cmd.Context())

		if statsJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(st)
		}

		fmt.Printf("Записей:       %d (текст %d, аудио %d, фото %d, видео %d)\n",
			st.TotalRecords, st.TextRecords, st.AudioRecords, st.ImageRecords, st.VideoRecords)
		fmt.Printf("Текст:         %s\n", formatBytes(st.TextBytes))
		fmt.Printf("Аудио:         %s\n", formatBytes(st.AudioBytes))
		fmt.Printf("Медиа:         %s\n", formatBytes(st.MediaBytes))

		usage := color.New(color.FgGreen)
		switch {
		case st.UsagePercent >= 90:
			usage = color.New(color.FgRed, color.Bold)
		case st.UsagePercent >= 70:
			usage = color.New(color.FgYellow)
		}
		fmt.Printf("Занято:        %s из %s ", formatBytes(st.UsedSpace), formatBytes(st.TotalSpace))
		usage.Printf("(%.1f%%)\n", st.UsagePercent)

		if !st.QuotaEstimated {
			fmt.Println("Объем хранилища не измерен, показано значение по умолчанию")
		}
		return nil
	},
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d Б", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cБ", float64(n)/float64(div), []rune("КМГТ")[exp])
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "вывод в формате JSON")
}
