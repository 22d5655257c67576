package gmail

import (
	"net/mail"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/customeros/invoicestack/dto"
)

func toMailMessage(message *gmailapi.Message) *dto.MailMessage {
	result := &dto.MailMessage{
		Id:       message.Id,
		ThreadId: message.ThreadId,
	}
	if message.InternalDate > 0 {
		result.Date = time.UnixMilli(message.InternalDate).UTC()
	}
	if message.Payload == nil {
		return result
	}

	for _, header := range message.Payload.Headers {
		switch strings.ToLower(header.Name) {
		case "subject":
			result.Subject = header.Value
		case "from":
			result.From = header.Value
		case "date":
			if result.Date.IsZero() {
				if parsed, err := mail.ParseDate(header.Value); err == nil {
					result.Date = parsed.UTC()
				}
			}
		}
	}

	// the payload itself can be the attachment for single-part messages
	result.Parts = []*dto.MailPart{toMailPart(message.Payload)}
	return result
}

func toMailPart(part *gmailapi.MessagePart) *dto.MailPart {
	result := &dto.MailPart{
		PartId:   part.PartId,
		MimeType: part.MimeType,
		Filename: part.Filename,
	}
	if part.Body != nil {
		result.AttachmentId = part.Body.AttachmentId
		result.Size = part.Body.Size
	}
	for _, child := range part.Parts {
		if child == nil {
			continue
		}
		result.Parts = append(result.Parts, toMailPart(child))
	}
	return result
}
