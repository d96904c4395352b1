package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"imsgen/internal/server"
	"imsgen/internal/services"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "啟動 HTTP API 伺服器",
		Long:  "提供產生、保存、下載腳本與管理參數的 HTTP API，文件位於 /docs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := root.app
			cfg := a.cfg.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			metrics := server.NewMetrics()
			svc := a.service(
				services.WithObserver(metrics),
				services.WithClipboard(root.clipboard),
			)
			srv := server.New(cfg, a.cfg.App.OutputDir, svc, metrics, a.log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "%s API 伺服器啟動於 %s (文件: /docs)\n", green("▶"), bold(cfg.Addr))

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "\n正在關閉伺服器...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Stop(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "伺服器已停止")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "監聽位址，覆蓋設定檔 (例如 :8080)")
	return cmd
}
