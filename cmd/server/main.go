package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	_ "teamtasks/docs"
	"teamtasks/internal/config"
	"teamtasks/internal/migrations"
	"teamtasks/internal/model"
	"teamtasks/internal/repository"
	"teamtasks/internal/server"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// @title           Team Tasks API
// @version         1.0
// @description     Team task planning: tasks, assignees and completion tracking.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	rootCmd := &cobra.Command{
		Use:   "teamtasks",
		Short: "Team task planning API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(roleCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg := config.Load()

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *gorm.DB) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				if err := migrations.Up(sqlDB, cfg.DBDriver); err != nil {
					return err
				}
				log.Println("✅ Database schema is up to date")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (one by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				steps = n
			}
			return withDB(func(cfg *config.Config, db *gorm.DB) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				if err := migrations.Down(sqlDB, cfg.DBDriver, steps); err != nil {
					return err
				}
				log.Printf("✅ Rolled back %d migration(s)", steps)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *gorm.DB) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				version, dirty, err := migrations.Version(sqlDB, cfg.DBDriver)
				if err != nil {
					return err
				}
				fmt.Printf("version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	})

	return cmd
}

func roleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role <email> <admin|captain|member|none>",
		Short: "Set or clear a member's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(args[0])
			role := model.Role(strings.ToLower(strings.TrimSpace(args[1])))
			if role == "none" {
				role = model.RoleNone
			} else if !role.Valid() {
				return fmt.Errorf("unknown role %q", args[1])
			}

			return withDB(func(cfg *config.Config, db *gorm.DB) error {
				repo := repository.NewProfileRepository(db)
				if err := repo.SetRole(cmd.Context(), email, role); err != nil {
					return fmt.Errorf("set role for %s: %w", email, err)
				}
				log.Printf("✅ Role of %s set to %q", email, role)
				return nil
			})
		},
	}
}

// withDB opens the configured database for a one-off command and closes it
// afterwards.
func withDB(fn func(cfg *config.Config, db *gorm.DB) error) error {
	cfg := config.Load()
	db, err := repository.Open(cfg.DBDriver, cfg.DSN(), cfg.DBLogLevel)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	return fn(cfg, db)
}
