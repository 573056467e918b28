// cmd/client/cmd/transfer.go
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"lifelog/cmd/client/cmd/record"
)

var exportPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Выгрузить все записи с медиа в JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		var w io.Writer = os.Stdout
		if exportPath != "" && exportPath != "-" {
			f, err := os.Create(exportPath)
			if err != nil {
				return fmt.Errorf("ошибка создания файла: %w", err)
			}
			defer f.Close()
			w = f
		}

		n, err := app.Records().Export(cmd.Context(), w)
		if err != nil {
			return fmt.Errorf("ошибка экспорта: %w", err)
		}

		if w != os.Stdout {
			record.Done("Выгружено записей: %d -> %s", n, exportPath)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [файл]",
	Short: "Загрузить записи из файла экспорта",
	Long:  `Загружает записи из файла, созданного командой export. Уже существующие записи пропускаются.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.RequireDurable(); err != nil {
			return fmt.Errorf("изменения не будут сохранены: %w", err)
		}

		var r io.Reader = os.Stdin
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("ошибка открытия файла: %w", err)
			}
			defer f.Close()
			r = f
		}

		n, err := app.Records().Import(cmd.Context(), r)
		if err != nil {
			return fmt.Errorf("ошибка импорта: %w", err)
		}

		record.Done("Загружено записей: %d", n)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "файл для выгрузки, по умолчанию stdout")
}
