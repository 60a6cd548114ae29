package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/suteetoe/jobboard/internal/seed"
	"github.com/suteetoe/jobboard/internal/service"
	"github.com/suteetoe/jobboard/pkg/database"
	"go.uber.org/zap"
)

func newMigrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rt.openDB()
			if err != nil {
				return err
			}
			defer database.Close(db)
			rt.log.Info("Database migrations applied")
			return nil
		},
	}
}

func newCreateAdminCmd(rt *runtime) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the admin account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = rt.cfg.Admin.Email
			}
			if password == "" {
				password = rt.cfg.Admin.Password
			}

			db, err := rt.openDB()
			if err != nil {
				return err
			}
			defer database.Close(db)

			accounts := service.NewAccountService(db, nil, rt.log, nil)
			admin, created, err := accounts.EnsureAdmin(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Admin user created: %s\n", admin.Email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Admin user already exists: %s\n", admin.Email)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email (default ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "admin password (default ADMIN_PASSWORD)")
	return cmd
}

func newSeedCmd(rt *runtime) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo categories and postings",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := loadFixtures(file)
			if err != nil {
				return err
			}

			db, err := rt.openDB()
			if err != nil {
				return err
			}
			defer database.Close(db)

			res, err := seed.NewSeeder(db, rt.log).Run(cmd.Context(), fixtures)
			if err != nil {
				rt.log.Error("Seed failed", zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d categories and %d postings\n", res.Categories, res.Postings)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "fixtures YAML file (default: embedded demo data)")
	return cmd
}

func loadFixtures(path string) (*seed.Fixtures, error) {
	if path == "" {
		return seed.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return seed.Load(f)
}
