package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/opskit/internal/services"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges email and password for a planner token and stores it.
//
// The password comes from --password or OPSKIT_PASSWORD.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")

	if email == "" || password == "" {
		return fmt.Errorf("%w: %s", shared.ErrMissingArgument, shared.MsgBothRequired)
	}

	path, err := r.tokenPath()
	if err != nil {
		return err
	}

	r.logger.Info("logging in to planner", "email", email)

	token, err := r.planner.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if err := services.SaveToken(path, token); err != nil {
		return err
	}
	r.logger.Info("token saved", "path", path)

	return r.writePlain("✓ Logged in as %s\n", token.Email)
}

// AuthStatus reports the stored token: account, recorded expiry and, for JWTs, the claims the
// planner assigned.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	path, err := r.tokenPath()
	if err != nil {
		return err
	}

	token, err := services.LoadToken(path)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return r.writePlain("✗ Not logged in\n")
	}
	if err != nil {
		return err
	}

	now := r.now()
	r.writePlain("✓ Logged in as %s\n", token.Email)
	r.writePlain("Issued:  %s\n", token.IssuedAt.Format(time.RFC3339))
	if token.NominallyExpired(now) {
		r.writePlain("Expiry:  %s (nominally expired)\n", token.Expiry.Format(time.RFC3339))
	} else {
		r.writePlain("Expiry:  %s\n", token.Expiry.Format(time.RFC3339))
	}

	claims, err := token.Claims()
	if err != nil {
		r.logger.Debug("token claims unavailable", "error", err)
		return nil
	}
	if claims.Subject != "" {
		r.writePlain("Subject: %s\n", claims.Subject)
	}
	if claims.Issuer != "" {
		r.writePlain("Issuer:  %s\n", claims.Issuer)
	}
	if !claims.ExpiresAt.IsZero() {
		r.writePlain("Planner expiry: %s\n", claims.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// AuthLogout removes the stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	path, err := r.tokenPath()
	if err != nil {
		return err
	}

	if err := services.RemoveToken(path); err != nil {
		return err
	}
	r.logger.Info("token removed", "path", path)

	return r.writePlain("✓ Logged out\n")
}
