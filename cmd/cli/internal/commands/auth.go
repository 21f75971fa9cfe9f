package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/pennywise-app/pennywise-cli/internal/session"
)

// LoginCmd authenticates against the backend and stores the session.
type LoginCmd struct {
	Email    string `help:"Account email" required:""`
	Password string `help:"Account password" required:"" env:"PENNYWISE_PASSWORD"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	user, err := app.session.Login(ctx, l.Email, l.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			return fmt.Errorf("login failed: %w", session.ErrInvalidCredentials)
		}
		return fmt.Errorf("login failed: %w", err)
	}

	if user != nil && user.Name != "" {
		fmt.Printf("Logged in as %s <%s>\n", user.Name, user.Email)
	} else {
		fmt.Println("Logged in.")
	}

	return nil
}

// RegisterCmd creates an account and logs in with the issued tokens.
type RegisterCmd struct {
	Name     string `help:"Display name" required:""`
	Email    string `help:"Account email" required:""`
	Password string `help:"Account password" required:"" env:"PENNYWISE_PASSWORD"`
}

func (r *RegisterCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	user, err := app.session.Register(ctx, r.Name, r.Email, r.Password)
	if err != nil {
		if errors.Is(err, session.ErrEmailTaken) {
			return fmt.Errorf("registration failed: %w\n\nTry logging in instead:\n  pennywise login --email %s", session.ErrEmailTaken, r.Email)
		}
		return fmt.Errorf("registration failed: %w", err)
	}

	if user != nil && user.Name != "" {
		fmt.Printf("Welcome, %s. You are now logged in.\n", user.Name)
	} else {
		fmt.Println("Registered and logged in.")
	}

	return nil
}

// LogoutCmd ends the session, locally always and server-side best effort.
type LogoutCmd struct {
	All bool `help:"Log out on all devices"`
}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	app.session.Logout(ctx, l.All)

	fmt.Println("Logged out.")
	return nil
}

// WhoamiCmd prints the current profile.
type WhoamiCmd struct{}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	if err := app.requireSession(ctx); err != nil {
		return err
	}

	user, err := app.session.RefreshUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}
	if user == nil {
		user = app.session.CurrentUser()
	}
	if user == nil {
		return errors.New("no profile available, try again")
	}

	fmt.Printf("Name:    %s\n", user.Name)
	fmt.Printf("Email:   %s\n", user.Email)
	fmt.Printf("Since:   %s\n", user.CreatedAt.Format("2006-01-02"))

	return nil
}
