package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/customeros/invoicestack/config"
	"github.com/customeros/invoicestack/internal/database"
	"github.com/customeros/invoicestack/internal/enum"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/repository"
	"github.com/customeros/invoicestack/internal/utils"
	"github.com/customeros/invoicestack/server"
	"github.com/customeros/invoicestack/services"
)

func main() {
	app := &cli.App{
		Name:  "invoicestack",
		Usage: "collect supplier invoices from connected mailboxes",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Run database migrations",
				Action: migrate,
			},
			{
				Name:   "server",
				Usage:  "Start the application server",
				Action: serve,
			},
			{
				Name:  "scan",
				Usage: "Run one mailbox scan for a user and print the summary",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Usage: "user id", Required: true},
					&cli.StringFlag{Name: "mode", Usage: "initial or incremental", Value: string(enum.ScanModeIncremental)},
				},
				Action: scan,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, fmt.Errorf("config initialization failed: %w", err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is empty")
	}
	return cfg, nil
}

func migrate(_ *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.NewConnection(cfg.DatabaseConfig)
	if err != nil {
		return fmt.Errorf("invoicestack database initialization failed: %w", err)
	}

	if err := repository.MigrateDB(db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("Database migration completed successfully")
	return nil
}

func serve(_ *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.NewConnection(cfg.DatabaseConfig)
	if err != nil {
		return fmt.Errorf("invoicestack database initialization failed: %w", err)
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("InvoiceStack starting up...")

	srv, err := server.NewServer(cfg, db)
	if err != nil {
		return fmt.Errorf("server setup failed: %w", err)
	}

	if err := srv.Run(); err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}

	log.Println("Shutdown complete")
	return nil
}

func scan(c *cli.Context) error {
	mode, ok := enum.ParseScanMode(c.String("mode"))
	if !ok {
		return fmt.Errorf("%w: %s", invoicestack_errors.ErrInvalidScanMode, c.String("mode"))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.NewConnection(cfg.DatabaseConfig)
	if err != nil {
		return fmt.Errorf("invoicestack database initialization failed: %w", err)
	}

	appLogger := logger.NewAppLogger(cfg.AppConfig.Logger)
	appLogger.InitLogger()

	repos := repository.InitRepositories(db, cfg.ScannerConfig.DefaultDocumentLimit)
	svcs, err := services.InitServices(cfg, appLogger, repos)
	if err != nil {
		return err
	}
	defer svcs.EventsService.Close()

	ctx := utils.WithCustomContext(context.Background(), &utils.CustomContext{
		AppSource: utils.AppSourceCli,
		UserId:    c.String("user"),
	})

	result, err := svcs.ScannerService.Scan(ctx, c.String("user"), mode)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
