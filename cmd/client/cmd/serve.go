// cmd/client/cmd/serve.go
package cmd

import (
	"github.com/spf13/cobra"

	"lifelog/internal/app/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить локальный HTTP API",
	Long: `Запускает HTTP API журнала и метрики Prometheus на /metrics.
Останавливается по Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.APIAddress
		if serveAddr != "" {
			addr = serveAddr
		}
		return server.Run(app, addr, registry, log)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "адрес API, по умолчанию из конфигурации")
}
