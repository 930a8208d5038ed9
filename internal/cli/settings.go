package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/models"
)

const defaultActivityRows = 20

// Activity shows the latest events of the logged-in identity: activity [n].
func (a *App) Activity(ctx context.Context, args []string) error {
	s, err := a.current()
	if err != nil {
		return err
	}
	n := defaultActivityRows
	if len(args) > 0 {
		if n, err = strconv.Atoi(args[0]); err != nil || n <= 0 {
			return fmt.Errorf("%w: row count %q", common.ErrInvalidInput, args[0])
		}
	}
	events, err := a.svc.Activity.Recent(ctx, s, n)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		a.println("No activity yet")
		return nil
	}
	for _, e := range events {
		a.printf("%-16s %-16s %s\n", humanize.Time(e.At), e.Payload.Kind(), summarize(e.Payload))
	}
	return nil
}

// Export writes the metadata export to a file or prints it: export [path].
func (a *App) Export(ctx context.Context, args []string) error {
	s, err := a.current()
	if err != nil {
		return err
	}
	data, err := a.svc.Settings.ExportMetadata(ctx, s)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		a.println(string(data))
		return nil
	}
	return a.save(args[0], data)
}

// Clear wipes every record in the store after confirmation and logs out.
func (a *App) Clear(ctx context.Context) error {
	s, err := a.current()
	if err != nil {
		return err
	}
	ok, err := confirm(a.reader, "Delete ALL users, documents, shares and activity?", a.out)
	if err != nil || !ok {
		return err
	}
	if err := a.svc.Settings.ClearAllData(ctx, s); err != nil {
		return err
	}
	a.sessions.Close()
	a.println("All data cleared")
	return nil
}

func summarize(p models.ActivityPayload) string {
	switch p := p.(type) {
	case models.UploadPayload:
		return fmt.Sprintf("%s (%s, %s)", p.Filename, p.Category, p.DocType)
	case models.ScanSavePayload:
		return fmt.Sprintf("%s (%s)", p.Filename, p.Category)
	case models.DownloadPayload:
		if p.Shared {
			return p.Filename + " via share"
		}
		return p.Filename
	case models.DeletePayload:
		if p.RevokedShares > 0 {
			return fmt.Sprintf("%s, %d share(s) revoked", p.Filename, p.RevokedShares)
		}
		return p.Filename
	case models.ShareCreatePayload:
		return fmt.Sprintf("%s (%s, %s...)", p.Filename, p.ShareKind, p.TokenPrefix)
	case models.ShareRevokePayload:
		return p.TokenPrefix + "..."
	case models.SettingsUpdatePayload:
		return "display name: " + p.DisplayName
	case models.RekeyPayload:
		return fmt.Sprintf("%s (%d), %d document(s)", p.KDF, p.Iterations, p.Documents)
	}
	return ""
}
