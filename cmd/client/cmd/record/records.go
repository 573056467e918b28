package record

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lifelog/internal/app/client"
)

// RecordCmd - родительская команда для всех операций с записями
var RecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Управление записями",
	Long:  `Создание, просмотр, обновление и удаление записей журнала.`,
}

type appKey struct{}

// WithApp кладет приложение в контекст команды
func WithApp(ctx context.Context, app *client.App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

func appFrom(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(appKey{}).(*client.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("приложение не инициализировано")
	}
	return app, nil
}

// writableApp - приложение для команд изменения; в памяти возвращает ошибку
func writableApp(cmd *cobra.Command) (*client.App, error) {
	app, err := appFrom(cmd)
	if err != nil {
		return nil, err
	}
	if err := app.RequireDurable(); err != nil {
		return nil, fmt.Errorf("изменения не будут сохранены: %w", err)
	}
	return app, nil
}

var (
	warnColor  = color.New(color.FgYellow)
	okColor    = color.New(color.FgGreen)
	dimColor   = color.New(color.Faint)
	titleColor = color.New(color.Bold)
)

// Warn печатает предупреждение в stderr
func Warn(format string, args ...any) {
	warnColor.Fprintf(os.Stderr, "! "+format+"\n", args...)
}

// Done печатает сообщение об успехе
func Done(format string, args ...any) {
	okColor.Printf(format+"\n", args...)
}

// interactive - stdout подключен к терминалу
func interactive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
