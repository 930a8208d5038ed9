package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/cryptox"
	"github.com/dmitrijs2005/encodex/internal/filex"
	"github.com/dmitrijs2005/encodex/internal/models"
	"github.com/dmitrijs2005/encodex/internal/services"
)

// Share issues a password-protected share token: share <id>.
func (a *App) Share(ctx context.Context, args []string) error {
	s, err := a.current()
	if err != nil {
		return err
	}
	id, err := argOrPrompt(a.reader, a.out, args, 0, "Document id")
	if err != nil {
		return err
	}
	token, err := a.svc.Shares.Issue(ctx, s, id)
	if err != nil {
		return err
	}
	a.printShare(token)
	a.println("The recipient needs your email and password to open it.")
	return nil
}

// ShareSealed issues a share for one recipient key: sharesealed <id> <pubfile>.
func (a *App) ShareSealed(ctx context.Context, args []string) error {
	s, err := a.current()
	if err != nil {
		return err
	}
	id, err := argOrPrompt(a.reader, a.out, args, 0, "Document id")
	if err != nil {
		return err
	}
	pubPath, err := argOrPrompt(a.reader, a.out, args, 1, "Recipient public key file")
	if err != nil {
		return err
	}
	pub, err := os.ReadFile(pubPath)
	if err != nil {
		return err
	}
	token, err := a.svc.Shares.IssueSealed(ctx, s, id, pub)
	if err != nil {
		return err
	}
	a.printShare(token)
	return nil
}

// Keygen writes a recipient key pair to <name>.pub and <name>.key.
func (a *App) Keygen(ctx context.Context, args []string) error {
	name, err := argOrPrompt(a.reader, a.out, args, 0, "Key file name (without extension)")
	if err != nil {
		return err
	}
	kp, err := cryptox.GenerateRecipientKeyPair()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(kp.PrivateKey)

	if err := filex.WriteFileAtomic(name+".key", kp.PrivateKey, 0o600); err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(name+".pub", kp.PublicKey, 0o644); err != nil {
		return err
	}
	a.printf("Wrote %s.pub (share this) and %s.key (keep private)\n", name, name)
	return nil
}

// Redeem opens a password share: redeem <token|link> [dest].
func (a *App) Redeem(ctx context.Context, args []string) error {
	token, err := a.tokenArg(args)
	if err != nil {
		return err
	}
	owner, err := getSimpleText(a.reader, "Owner email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Owner password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	r, err := a.svc.Shares.Redeem(ctx, token, owner, password)
	if err != nil {
		return err
	}
	return a.saveRedeemed(r, args)
}

// RedeemSealed opens a sealed share: redeemsealed <token|link> <keyfile> [dest].
func (a *App) RedeemSealed(ctx context.Context, args []string) error {
	token, err := a.tokenArg(args)
	if err != nil {
		return err
	}
	keyPath, err := argOrPrompt(a.reader, a.out, args, 1, "Private key file")
	if err != nil {
		return err
	}
	priv, err := os.ReadFile(keyPath)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(priv)

	r, err := a.svc.Shares.RedeemSealed(ctx, token, priv)
	if err != nil {
		return err
	}
	if len(args) > 2 {
		return a.save(args[2], r.Data)
	}
	return a.save(r.Document.Filename, r.Data)
}

func (a *App) saveRedeemed(r *services.Redeemed, args []string) error {
	dest := r.Document.Filename
	if len(args) > 1 {
		dest = args[1]
	}
	return a.save(dest, r.Data)
}

// Revoke disables a token for good: revoke <token|link>.
func (a *App) Revoke(ctx context.Context, args []string) error {
	token, err := a.tokenArg(args)
	if err != nil {
		return err
	}
	if err := a.svc.Shares.Revoke(ctx, token); err != nil {
		return err
	}
	a.println("Revoked", models.TokenPrefix(token)+"...")
	return nil
}

// Shares lists live shares: shares [filename filter...].
func (a *App) Shares(ctx context.Context, args []string) error {
	s, err := a.current()
	if err != nil {
		return err
	}
	list, err := a.svc.Shares.List(ctx, s, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.println("No active shares")
		return nil
	}
	for _, v := range list {
		a.printf("%-8s %-24s %s\n    %s\n",
			v.Kind, v.Filename, humanize.Time(v.CreatedAt), models.ShareLink(a.config.ShareBaseURL, v.Token))
	}
	return nil
}

func (a *App) printShare(token string) {
	a.println("Token:", token)
	a.println("Link: ", models.ShareLink(a.config.ShareBaseURL, token))
}

// tokenArg accepts a bare token or a full share link as the first argument.
func (a *App) tokenArg(args []string) (string, error) {
	s, err := argOrPrompt(a.reader, a.out, args, 0, "Share token or link")
	if err != nil {
		return "", err
	}
	if strings.ContainsAny(s, "#?=") {
		return models.ParseShareLink(s)
	}
	if s == "" {
		return "", fmt.Errorf("%w: token is required", common.ErrInvalidInput)
	}
	return s, nil
}
