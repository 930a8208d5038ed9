package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/encodex/internal/filex"
	"github.com/dmitrijs2005/encodex/internal/models"
	"github.com/dmitrijs2005/encodex/internal/services"
)

// Upload encrypts a local file into the vault:
// upload <path> [category] [type].
func (a *App) Upload(ctx context.Context, args []string) error {
	s, err := a.current()
	if err != nil {
		return err
	}
	in, err := a.readUpload(args, true)
	if err != nil {
		return err
	}
	v, err := a.svc.Vault.Upload(ctx, s, in)
	if err != nil {
		return err
	}
	a.printDocument(v)
	return nil
}

// Scan stores a captured image: scan <path> [category]. The stored name is
// generated.
func (a *App) Scan(ctx context.Context, args []string) error {
	s, err := a.current()
	if err != nil {
		return err
	}
	in, err := a.readUpload(args, false)
	if err != nil {
		return err
	}
	in.Filename = ""
	v, err := a.svc.Vault.ScanSave(ctx, s, in)
	if err != nil {
		return err
	}
	a.printDocument(v)
	return nil
}

func (a *App) readUpload(args []string, withType bool) (services.UploadInput, error) {
	var in services.UploadInput

	path, err := argOrPrompt(a.reader, a.out, args, 0, "Path to file")
	if err != nil {
		return in, err
	}
	cat, err := argOrPrompt(a.reader, a.out, args, 1, "Category "+joinNames(models.Categories)+" (empty for Other)")
	if err != nil {
		return in, err
	}
	if cat != "" {
		if in.Category, err = models.ParseCategory(cat); err != nil {
			return in, err
		}
	}
	if withType {
		dt, err := argOrPrompt(a.reader, a.out, args, 2, "Type "+joinNames(models.DocTypes)+" (empty for Other)")
		if err != nil {
			return in, err
		}
		if dt != "" {
			if in.DocType, err = models.ParseDocType(dt); err != nil {
				return in, err
			}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return in, err
	}
	in.Filename = filepath.Base(path)
	in.Data = data
	return in, nil
}

// List prints the vault: list [category|All] [filename filter...].
func (a *App) List(ctx context.Context, args []string) error {
	s, err := a.current()
	if err != nil {
		return err
	}

	var f services.ListFilter
	if len(args) > 0 {
		if strings.EqualFold(args[0], string(services.CategoryAll)) {
			args = args[1:]
		} else if c, err := models.ParseCategory(args[0]); err == nil {
			f.Category = c
			args = args[1:]
		}
	}
	f.Query = strings.Join(args, " ")

	docs, err := a.svc.Vault.List(ctx, s, f)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		a.println("No documents")
		return nil
	}
	for _, d := range docs {
		a.printf("%s  %-14s %-12s %8s  %s  %s\n",
			d.ID, d.Category, d.DocType, humanSize(d.Size), d.CreatedAt.Local().Format("2006-01-02 15:04"), d.Filename)
	}
	return nil
}

// Download decrypts a document to disk: download <id> [dest].
func (a *App) Download(ctx context.Context, args []string) error {
	s, err := a.current()
	if err != nil {
		return err
	}
	id, err := argOrPrompt(a.reader, a.out, args, 0, "Document id")
	if err != nil {
		return err
	}

	v, data, err := a.svc.Vault.Download(ctx, s, id)
	if err != nil {
		return err
	}
	dest := v.Filename
	if len(args) > 1 {
		dest = args[1]
	}
	return a.save(dest, data)
}

// Delete removes a document and revokes its shares: delete <id>.
func (a *App) Delete(ctx context.Context, args []string) error {
	s, err := a.current()
	if err != nil {
		return err
	}
	id, err := argOrPrompt(a.reader, a.out, args, 0, "Document id")
	if err != nil {
		return err
	}
	ok, err := confirm(a.reader, "Delete "+id+" and revoke its shares?", a.out)
	if err != nil || !ok {
		return err
	}
	if err := a.svc.Vault.Delete(ctx, s, id); err != nil {
		return err
	}
	a.println("Deleted", id)
	return nil
}

func (a *App) save(dest string, data []byte) error {
	if err := filex.WriteFileAtomic(dest, data, 0o600); err != nil {
		return err
	}
	a.printf("Saved %s (%s)\n", dest, humanSize(int64(len(data))))
	return nil
}

func (a *App) printDocument(v models.DocumentView) {
	a.printf("Stored %s as %s [%s/%s, %s]\n", v.Filename, v.ID, v.Category, v.DocType, humanSize(v.Size))
}

func joinNames[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func humanSize(n int64) string {
	return humanize.IBytes(uint64(n))
}
