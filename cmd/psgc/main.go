// 命令行工具：手动同步、结构校验与快照管理；与服务进程共用同一套配置与数据库
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"psgc-api/internal/config"
	"psgc-api/internal/ingest"
	"psgc-api/internal/logger"
	"psgc-api/internal/store"

	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "psgc",
	Short:         "psgc - Philippine Standard Geographic Code importer",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(config.DefaultEnvFiles...)
		if err != nil {
			return err
		}
		cfg = c
		logger.Setup(logger.Options{Level: c.Log.Level, Format: c.Log.Format})
		return nil
	},
}

// openStore：打开数据库并确保表结构存在
func openStore() (*store.Store, error) {
	return store.Open(cfg.DB)
}

func main() {
	rootCmd.AddCommand(syncCmd, validateCmd, versionsCmd, promoteCmd, deleteCmd, pruneCmd)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(ingest.ExitCode(err))
	}
}
