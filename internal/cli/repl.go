package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/encodex/internal/common"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App implements
// it; tests use a recording stub.
type execIface interface {
	isLoggedIn() bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	Rename(ctx context.Context, args []string) error
	Rekey(ctx context.Context, args []string) error

	Upload(ctx context.Context, args []string) error
	Scan(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error

	Share(ctx context.Context, args []string) error
	ShareSealed(ctx context.Context, args []string) error
	Keygen(ctx context.Context, args []string) error
	Redeem(ctx context.Context, args []string) error
	RedeemSealed(ctx context.Context, args []string) error
	Revoke(ctx context.Context, args []string) error
	Shares(ctx context.Context, args []string) error

	Activity(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Clear(ctx context.Context) error
}

const (
	helpLocked = "Available commands: register, login, keygen, redeem, redeemsealed, revoke, exit"
	helpOpen   = "Available commands: upload, scan, (l)ist, download, delete, share, sharesealed, shares, " +
		"redeem, redeemsealed, revoke, keygen, activity, profile, rename, rekey, export, clear, logout, exit"
)

type readResult struct {
	line string
	err  error
}

// readLine reads one line from reader, giving up when ctx is done. On
// cancellation the pending read is abandoned; the caller must not reuse
// reader afterwards.
func readLine(ctx context.Context, reader *bufio.Reader) (string, error) {
	ch := make(chan readResult, 1)
	go func() {
		line, err := reader.ReadString('\n')
		ch <- readResult{line, err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

// runREPL reads commands from reader until EOF, "exit"/"quit" or ctx is
// cancelled, and dispatches them to a. Handler errors are reported and the
// loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("encodex (%s)> ", statusFn()))
		line, err := readLine(ctx, reader)
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpOpen)
			} else {
				printlnFn(helpLocked)
			}

		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "profile":
			cmdErr = a.Profile(ctx)
		case "rename":
			cmdErr = a.Rename(ctx, args)
		case "rekey":
			cmdErr = a.Rekey(ctx, args)

		case "upload":
			cmdErr = a.Upload(ctx, args)
		case "scan":
			cmdErr = a.Scan(ctx, args)
		case "l", "list":
			cmdErr = a.List(ctx, args)
		case "download":
			cmdErr = a.Download(ctx, args)
		case "delete":
			cmdErr = a.Delete(ctx, args)

		case "share":
			cmdErr = a.Share(ctx, args)
		case "sharesealed":
			cmdErr = a.ShareSealed(ctx, args)
		case "keygen":
			cmdErr = a.Keygen(ctx, args)
		case "redeem":
			cmdErr = a.Redeem(ctx, args)
		case "redeemsealed":
			cmdErr = a.RedeemSealed(ctx, args)
		case "revoke":
			cmdErr = a.Revoke(ctx, args)
		case "shares":
			cmdErr = a.Shares(ctx, args)

		case "activity":
			cmdErr = a.Activity(ctx, args)
		case "export":
			cmdErr = a.Export(ctx, args)
		case "clear":
			cmdErr = a.Clear(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", describeError(cmdErr))
		}
		if err != nil {
			return
		}
	}
}

// describeError turns core errors into short user-facing text.
func describeError(err error) string {
	switch {
	case errors.Is(err, common.ErrAuthenticationFailed):
		return "invalid credentials"
	case errors.Is(err, common.ErrNoActiveSession):
		return "not logged in (use 'login' first)"
	case errors.Is(err, common.ErrTokenNotFound):
		return "share token not found"
	case errors.Is(err, common.ErrTokenRevoked):
		return "share token was revoked"
	case errors.Is(err, common.ErrDecryptionFailed):
		return "document could not be decrypted"
	case errors.Is(err, common.ErrAlreadyExists):
		return "already exists"
	case errors.Is(err, common.ErrNotFound):
		return "not found"
	}
	return err.Error()
}
