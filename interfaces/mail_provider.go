package interfaces

import (
	"context"

	"github.com/customeros/invoicestack/dto"
)

type MailProvider interface {
	SearchMessages(ctx context.Context, accessToken, query string, maxResults int64) ([]string, error)
	GetMessage(ctx context.Context, accessToken, messageId string) (*dto.MailMessage, error)
	GetAttachment(ctx context.Context, accessToken, messageId, attachmentId string) ([]byte, error)
	GetProfileAddress(ctx context.Context, accessToken string) (string, error)
}

type AttachmentExtractor interface {
	ExtractAttachments(ctx context.Context, accessToken string, message *dto.MailMessage) ([]*dto.Attachment, []error)
}
