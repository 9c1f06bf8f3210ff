package token

import (
	"context"

	"github.com/flowbaker/crmbridge/pkg/domain"

	"golang.org/x/oauth2"
)

type providerTokenSource struct {
	ctx      context.Context
	provider domain.TokenProvider
	config   domain.Configuration
}

// NewTokenSource exposes a TokenProvider as an oauth2.TokenSource bound to ctx.
// The returned tokens carry no expiry; freshness is the provider's job.
func NewTokenSource(ctx context.Context, provider domain.TokenProvider, config domain.Configuration) oauth2.TokenSource {
	return &providerTokenSource{
		ctx:      ctx,
		provider: provider,
		config:   config,
	}
}

func (s *providerTokenSource) Token() (*oauth2.Token, error) {
	accessToken, err := s.provider.GetValidToken(s.ctx, s.config)
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}, nil
}
