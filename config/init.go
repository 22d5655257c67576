package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/tracing"
)

type Config struct {
	AppConfig         *AppConfig
	DatabaseConfig    *DatabaseConfig
	GoogleOAuthConfig *GoogleOAuthConfig
	GmailConfig       *GmailConfig
	ClassifierConfig  *ClassifierConfig
	ScannerConfig     *ScannerConfig
	R2StorageConfig   *R2StorageConfig
}

func InitConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	return Load()
}

// Load parses the environment and validates the result
func Load() (*Config, error) {
	config := &Config{
		AppConfig: &AppConfig{
			Logger:  &logger.Config{},
			Tracing: &tracing.JaegerConfig{},
		},
		DatabaseConfig:    &DatabaseConfig{},
		GoogleOAuthConfig: &GoogleOAuthConfig{},
		GmailConfig:       &GmailConfig{},
		ClassifierConfig:  &ClassifierConfig{},
		ScannerConfig:     &ScannerConfig{},
		R2StorageConfig:   &R2StorageConfig{},
	}

	if err := env.Parse(config); err != nil {
		return nil, errors.Wrap(err, "error loading invoicestack config")
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "invalid invoicestack config")
	}

	return config, nil
}
