package oauth

import (
	"context"
	"net/http"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/customeros/invoicestack/config"
	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/tracing"
)

const tokenEndpointTimeout = 30 * time.Second

type googleTokenExchanger struct {
	oauthConfig *oauth2.Config
	httpClient  *http.Client
}

func NewGoogleTokenExchanger(cfg *config.GoogleOAuthConfig) interfaces.TokenExchanger {
	endpoint := google.Endpoint
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	return &googleTokenExchanger{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		httpClient: &http.Client{Timeout: tokenEndpointTimeout},
	}
}

func (e *googleTokenExchanger) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
}

func (e *googleTokenExchanger) Exchange(ctx context.Context, code string) (*dto.TokenResponse, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "googleTokenExchanger.Exchange")
	defer span.Finish()
	tracing.SetDefaultExternalApiSpanTags(ctx, span)

	token, err := e.oauthConfig.Exchange(e.clientContext(ctx), code)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "authorization code exchange failed")
	}

	return toTokenResponse(token), nil
}

func (e *googleTokenExchanger) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "googleTokenExchanger.Refresh")
	defer span.Finish()
	tracing.SetDefaultExternalApiSpanTags(ctx, span)

	if refreshToken == "" {
		err := errors.New("no refresh token stored")
		tracing.TraceErr(span, err)
		return nil, err
	}

	source := e.oauthConfig.TokenSource(e.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "token refresh failed")
	}

	return toTokenResponse(token), nil
}

func toTokenResponse(token *oauth2.Token) *dto.TokenResponse {
	return &dto.TokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry.UTC(),
	}
}
