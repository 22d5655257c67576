package testhelper

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/customeros/invoicestack/config"
	"github.com/customeros/invoicestack/internal/database"
	"github.com/customeros/invoicestack/internal/models"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// SetupTestDB starts one postgres container per test binary, migrates it and
// returns a gorm connection. Tables are truncated before each test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	once.Do(func() {
		sharedDSN, initErr = startContainer()
	})
	if initErr != nil {
		t.Fatalf("testhelper: failed to setup test DB: %v", initErr)
	}

	db, err := database.Open(sharedDSN, &config.DatabaseConfig{
		MaxConn:         5,
		MaxIdleConn:     2,
		ConnMaxLifetime: 5,
		LogLevel:        "SILENT",
	})
	if err != nil {
		t.Fatalf("testhelper: failed to open connection: %v", err)
	}

	err = db.AutoMigrate(
		&models.MailCredential{},
		&models.LedgerEntry{},
		&models.Invoice{},
		&models.Profile{},
	)
	if err != nil {
		t.Fatalf("testhelper: failed to migrate: %v", err)
	}

	err = db.Exec("TRUNCATE mail_credentials, processed_emails, invoices, profiles").Error
	if err != nil {
		t.Fatalf("testhelper: failed to truncate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "invoicestack",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	return fmt.Sprintf("postgres://testuser:testpass@%s:%s/invoicestack?sslmode=disable", host, port.Port()), nil
}
