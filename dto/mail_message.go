package dto

import "time"

// MailMessage is the provider-neutral view of a fetched message.
type MailMessage struct {
	Id       string
	ThreadId string
	Subject  string
	From     string
	Date     time.Time
	Parts    []*MailPart
}

// MailPart mirrors one MIME part. Attachments carry a filename and an attachment id.
type MailPart struct {
	PartId       string
	MimeType     string
	Filename     string
	AttachmentId string
	Size         int64
	Parts        []*MailPart
}

type Attachment struct {
	AttachmentId string
	Filename     string
	MimeType     string
	Data         []byte
}
