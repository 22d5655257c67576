package oauth

import (
	"context"
	"time"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/invoicestack/interfaces"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/models"
	"github.com/customeros/invoicestack/internal/tracing"
	"github.com/customeros/invoicestack/internal/utils"
)

type credentialService struct {
	log       logger.Logger
	repo      interfaces.MailCredentialRepository
	exchanger interfaces.TokenExchanger
	provider  interfaces.MailProvider
	now       func() time.Time
}

func NewCredentialService(log logger.Logger, repo interfaces.MailCredentialRepository, exchanger interfaces.TokenExchanger, provider interfaces.MailProvider) interfaces.CredentialService {
	return &credentialService{
		log:       log,
		repo:      repo,
		exchanger: exchanger,
		provider:  provider,
		now:       utils.Now,
	}
}

// EnsureValidCredential returns the user's credential with an access token usable right now.
// An expired token is refreshed once; the stored refresh token is kept as is.
func (s *credentialService) EnsureValidCredential(ctx context.Context, userId string) (*models.MailCredential, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "credentialService.EnsureValidCredential")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagUser(span, userId)

	credential, err := s.repo.GetByUserId(ctx, userId)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if credential == nil {
		tracing.TraceErr(span, invoicestack_errors.ErrNotConnected)
		return nil, invoicestack_errors.ErrNotConnected
	}

	if !credential.IsExpired(s.now()) {
		return credential, nil
	}
	span.LogKV("refresh", true)

	token, err := s.exchanger.Refresh(ctx, credential.RefreshToken)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("Access token refresh failed for user %s: %v", userId, err)
		return nil, errors.Wrap(invoicestack_errors.ErrRefreshFailed, err.Error())
	}
	if token.AccessToken == "" {
		err = errors.Wrap(invoicestack_errors.ErrRefreshFailed, "token endpoint returned no access token")
		tracing.TraceErr(span, err)
		return nil, err
	}

	if err = s.repo.UpdateAccessToken(ctx, userId, token.AccessToken, token.Expiry); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(invoicestack_errors.ErrRefreshFailed, err.Error())
	}

	credential.AccessToken = token.AccessToken
	credential.Expiry = token.Expiry
	return credential, nil
}

// Connect exchanges an authorization code and stores the resulting credential
func (s *credentialService) Connect(ctx context.Context, userId, code string) (*models.MailCredential, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "credentialService.Connect")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagUser(span, userId)

	if userId == "" {
		tracing.TraceErr(span, invoicestack_errors.ErrUserIdMissing)
		return nil, invoicestack_errors.ErrUserIdMissing
	}
	if code == "" {
		err := errors.New("authorization code is missing")
		tracing.TraceErr(span, err)
		return nil, err
	}

	token, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	refreshToken := token.RefreshToken
	if refreshToken == "" {
		// google only returns a refresh token on first consent
		existing, err := s.repo.GetByUserId(ctx, userId)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		if existing == nil || existing.RefreshToken == "" {
			err = errors.New("authorization did not grant offline access")
			tracing.TraceErr(span, err)
			return nil, err
		}
		refreshToken = existing.RefreshToken
	}

	address, err := s.provider.GetProfileAddress(ctx, token.AccessToken)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	validation := mailvalidate.ValidateEmailSyntax(address)
	if !validation.IsValid {
		err = errors.Errorf("mailbox address %q is not valid", address)
		tracing.TraceErr(span, err)
		return nil, err
	}

	credential := &models.MailCredential{
		UserID:       userId,
		AccessToken:  token.AccessToken,
		RefreshToken: refreshToken,
		Expiry:       token.Expiry,
		MailAddress:  validation.CleanEmail,
	}
	if err = s.repo.Upsert(ctx, credential); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	s.log.Infof("Connected mailbox %s for user %s", credential.MailAddress, userId)
	return credential, nil
}

func (s *credentialService) Disconnect(ctx context.Context, userId string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "credentialService.Disconnect")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagUser(span, userId)

	credential, err := s.repo.GetByUserId(ctx, userId)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if credential == nil {
		return invoicestack_errors.ErrNotConnected
	}

	if err = s.repo.Delete(ctx, userId); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	s.log.Infof("Disconnected mailbox for user %s", userId)
	return nil
}
