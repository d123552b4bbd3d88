package app

import (
	"fmt"
	"log/slog"

	"github.com/smartplant/auth/internal/auth/service"
	"github.com/smartplant/auth/pkg/jwtx"
)

// InitTokenIssuer builds the HS256 issuer shared by temp and access tokens.
// A single secret signs both; the token type claim keeps them apart.
//
// Rotating AUTH_JWT_SECRET invalidates every outstanding access and temp
// token. Refresh tokens are opaque and survive it.
func InitTokenIssuer(cfg Config, logger *slog.Logger) (*service.TokenIssuer, error) {
	secret := []byte(cfg.JWTSecret)

	signer, err := jwtx.NewHMACSigner(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to create token signer: %w", err)
	}
	verifier, err := jwtx.NewHMACVerifier(secret, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create token verifier: %w", err)
	}

	issuer := service.NewTokenIssuer(signer, verifier, cfg.Issuer)

	logger.Info("token issuer ready",
		"algorithm", "HS256",
		"issuer", cfg.Issuer,
		"access_ttl", issuer.AccessTTL,
		"temp_ttl", issuer.TempTTL,
	)
	return issuer, nil
}
