package interfaces

import (
	"context"

	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/internal/models"
)

type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
}

type CredentialService interface {
	EnsureValidCredential(ctx context.Context, userId string) (*models.MailCredential, error)
	Connect(ctx context.Context, userId, code string) (*models.MailCredential, error)
	Disconnect(ctx context.Context, userId string) error
}
