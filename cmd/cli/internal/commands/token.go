package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenCmd inspects the in-memory access token's claims. Useful when
// debugging session expiry; the token is decoded locally, not verified.
type TokenCmd struct {
	Raw bool `help:"Print the raw token instead of its claims"`
}

func (t *TokenCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	if err := app.requireSession(ctx); err != nil {
		return err
	}

	token := app.session.AccessToken()

	if t.Raw {
		fmt.Println(token)
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("failed to decode access token: %w", err)
	}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		fmt.Printf("Subject:  %s\n", sub)
	}
	if iss, err := claims.GetIssuer(); err == nil && iss != "" {
		fmt.Printf("Issuer:   %s\n", iss)
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		fmt.Printf("Issued:   %s\n", iat.Format(time.RFC3339))
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		fmt.Printf("Expires:  %s (%s)\n", exp.Format(time.RFC3339), time.Until(exp.Time).Round(time.Second))
	}

	return nil
}
