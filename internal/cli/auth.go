package cli

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/encodex/internal/common"
)

// Register creates an account and logs it in.
func (a *App) Register(ctx context.Context) error {
	identity, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Display name (empty for default)", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	again, err := getPassword(a.reader, "Repeat password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(again)

	if !bytes.Equal(password, again) {
		return fmt.Errorf("%w: passwords do not match", common.ErrInvalidInput)
	}

	s, err := a.svc.Auth.Register(ctx, identity, name, password)
	if err != nil {
		return err
	}
	a.sessions.Open(s.Identity, s.Key())
	a.println("Registered and logged in as", s.Identity)
	return nil
}

// Login verifies the password and opens a session.
func (a *App) Login(ctx context.Context) error {
	identity, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.svc.Auth.Login(ctx, identity, password)
	if err != nil {
		return err
	}
	a.sessions.Open(s.Identity, s.Key())
	a.println("Logged in as", s.Identity)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.sessions.Close()
	a.println("Logged out")
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	s, err := a.current()
	if err != nil {
		return err
	}
	u, err := a.svc.Auth.Profile(ctx, s)
	if err != nil {
		return err
	}
	a.printf("Identity:     %s\n", u.Identity)
	a.printf("Display name: %s\n", u.DisplayName)
	a.printf("KDF:          %s (%d)\n", u.Verifier.KDF.Algorithm, u.Verifier.KDF.Iterations)
	return nil
}

// Rename updates the display name: rename <name...>.
func (a *App) Rename(ctx context.Context, args []string) error {
	s, err := a.current()
	if err != nil {
		return err
	}
	name := strings.Join(args, " ")
	if name == "" {
		if name, err = getSimpleText(a.reader, "New display name", a.out); err != nil {
			return err
		}
	}
	if err := a.svc.Auth.UpdateDisplayName(ctx, s, name); err != nil {
		return err
	}
	a.println("Display name updated")
	return nil
}

// Rekey re-derives the account key with fresh parameters: rekey [iterations].
// Without an argument the configured parameters are used.
func (a *App) Rekey(ctx context.Context, args []string) error {
	s, err := a.current()
	if err != nil {
		return err
	}

	params := a.config.KDFParams()
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: iterations: %v", common.ErrInvalidInput, err)
		}
		params.Iterations = n
	}
	if err := params.Validate(); err != nil {
		return err
	}

	password, err := getPassword(a.reader, "Enter current password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ns, err := a.svc.Auth.Rekey(ctx, s.Identity, password, params)
	if err != nil {
		return err
	}
	a.sessions.Open(ns.Identity, ns.Key())
	a.printf("Key re-derived with %s (%d)\n", params.Algorithm, params.Iterations)
	return nil
}
