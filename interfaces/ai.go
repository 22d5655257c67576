package interfaces

import (
	"context"

	"github.com/customeros/invoicestack/dto"
)

// ClassifierClient talks to the external document classifier.
type ClassifierClient interface {
	Classify(ctx context.Context, request dto.ClassificationRequest) (*dto.ClassificationVerdict, error)
}

// ClassificationService gates classifier calls behind the user's document quota.
type ClassificationService interface {
	Classify(ctx context.Context, userId string, data []byte, mimeType, filename string) (*dto.ClassificationVerdict, error)
}
