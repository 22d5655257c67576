package gmail

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/customeros/invoicestack/config"
	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/interfaces"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/tracing"
)

const userMe = "me"

type gmailProvider struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
}

func NewGmailProvider(cfg *config.GmailConfig) interfaces.MailProvider {
	timeout := 30 * time.Second
	baseURL := ""
	if cfg != nil {
		baseURL = cfg.BaseURL
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
	}
	return &gmailProvider{
		baseURL:   baseURL,
		timeout:   timeout,
		transport: http.DefaultTransport,
	}
}

// service builds a Gmail client that authenticates every call with the given access token
func (p *gmailProvider) service(ctx context.Context, accessToken string) (*gmailapi.Service, error) {
	httpClient := &http.Client{
		Timeout: p.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
			Base:   p.transport,
		},
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if p.baseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimSuffix(p.baseURL, "/")+"/"))
	}
	return gmailapi.NewService(ctx, opts...)
}

func (p *gmailProvider) SearchMessages(ctx context.Context, accessToken, query string, maxResults int64) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gmailProvider.SearchMessages")
	defer span.Finish()
	tracing.SetDefaultExternalApiSpanTags(ctx, span)
	span.LogKV("query", query, "maxResults", maxResults)

	svc, err := p.service(ctx, accessToken)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(invoicestack_errors.ErrProviderFetchFailed, err.Error())
	}

	resp, err := svc.Users.Messages.List(userMe).Q(query).MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(invoicestack_errors.ErrProviderFetchFailed, "search messages: %v", err)
	}

	messageIds := make([]string, 0, len(resp.Messages))
	for _, message := range resp.Messages {
		if message == nil || message.Id == "" {
			continue
		}
		messageIds = append(messageIds, message.Id)
	}
	span.LogKV("found", len(messageIds))

	return messageIds, nil
}

func (p *gmailProvider) GetMessage(ctx context.Context, accessToken, messageId string) (*dto.MailMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gmailProvider.GetMessage")
	defer span.Finish()
	tracing.SetDefaultExternalApiSpanTags(ctx, span)
	span.SetTag("provider_message_id", messageId)

	svc, err := p.service(ctx, accessToken)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(invoicestack_errors.ErrProviderFetchFailed, err.Error())
	}

	message, err := svc.Users.Messages.Get(userMe, messageId).Format("full").Context(ctx).Do()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(invoicestack_errors.ErrProviderFetchFailed, "get message %s: %v", messageId, err)
	}

	return toMailMessage(message), nil
}

func (p *gmailProvider) GetAttachment(ctx context.Context, accessToken, messageId, attachmentId string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gmailProvider.GetAttachment")
	defer span.Finish()
	tracing.SetDefaultExternalApiSpanTags(ctx, span)
	span.SetTag("provider_message_id", messageId)

	svc, err := p.service(ctx, accessToken)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(invoicestack_errors.ErrProviderFetchFailed, err.Error())
	}

	body, err := svc.Users.Messages.Attachments.Get(userMe, messageId, attachmentId).Context(ctx).Do()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(invoicestack_errors.ErrProviderFetchFailed, "get attachment %s: %v", attachmentId, err)
	}

	data, err := DecodeAttachmentData(body.Data)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(invoicestack_errors.ErrProviderFetchFailed, "decode attachment %s: %v", attachmentId, err)
	}
	span.LogKV("size", len(data))

	return data, nil
}

func (p *gmailProvider) GetProfileAddress(ctx context.Context, accessToken string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gmailProvider.GetProfileAddress")
	defer span.Finish()
	tracing.SetDefaultExternalApiSpanTags(ctx, span)

	svc, err := p.service(ctx, accessToken)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(invoicestack_errors.ErrProviderFetchFailed, err.Error())
	}

	profile, err := svc.Users.GetProfile(userMe).Context(ctx).Do()
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrapf(invoicestack_errors.ErrProviderFetchFailed, "get profile: %v", err)
	}

	return profile.EmailAddress, nil
}

// DecodeAttachmentData decodes the base64url body Gmail returns, with or without padding
func DecodeAttachmentData(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if strings.HasSuffix(data, "=") {
		return base64.URLEncoding.DecodeString(data)
	}
	return base64.RawURLEncoding.DecodeString(data)
}
