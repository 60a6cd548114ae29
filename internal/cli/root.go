// Package cli wires the jobboard commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/suteetoe/jobboard/pkg/config"
	"github.com/suteetoe/jobboard/pkg/database"
	"github.com/suteetoe/jobboard/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime is what every command gets after PersistentPreRunE.
type runtime struct {
	cfg *config.Config
	log *zap.Logger
}

// openDB connects and migrates the schema.
func (rt *runtime) openDB() (*gorm.DB, error) {
	db, err := database.Open(&rt.cfg.DB, rt.log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:           "jobboard",
		Short:         "Job board API server and operations tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			err = logger.InitLogger(&logger.LogConfig{
				Level:       cfg.Log.Level,
				Environment: cfg.Server.Env,
				ServiceName: cfg.ServiceName,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			rt.cfg = cfg
			rt.log = logger.GetLogger()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	root.AddCommand(
		newServeCmd(rt),
		newMigrateCmd(rt),
		newCreateAdminCmd(rt),
		newSeedCmd(rt),
	)
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
