// Package cli implements the uploader subcommands on top of server.App.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/docvault/internal/server/models"
	"github.com/dmitrijs2005/docvault/internal/server/services"
)

// Exit codes returned by Run.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitUsage  = 2
)

// execIface is the command surface Run needs. *server.App satisfies it.
type execIface interface {
	UploadAll(ctx context.Context, userID string, paths []string) []services.UploadResult
	Show(ctx context.Context, id string, ttl time.Duration) (*models.Document, string, error)
	List(ctx context.Context, userID string) ([]*models.Document, error)
	SetStatus(ctx context.Context, id, status string) error
}

const usage = `usage: uploader [config flags] <command> [args]

commands:
  upload -user <id> <file>...        upload files for a user
  show [-ttl 15m] <document_id>      show a document and a retrieval URL
  list -user <id>                    list documents of a user
  set-status <document_id> <status>  change document status
`

var errUsage = errors.New("usage")

// Run dispatches args[0] to a subcommand and returns the process exit code.
// Results go to out, diagnostics to errOut.
func Run(ctx context.Context, a execIface, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(errOut, usage)
		return ExitUsage
	}

	var err error
	code := ExitOK
	switch cmd, rest := args[0], args[1:]; cmd {
	case "upload":
		code, err = upload(ctx, a, rest, out)
	case "show":
		err = show(ctx, a, rest, out)
	case "list":
		err = list(ctx, a, rest, out)
	case "set-status":
		err = setStatus(ctx, a, rest, out)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(out, usage)
		return ExitOK
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintf(errOut, "%v\n\n%s", err, usage)
		return ExitUsage
	case err != nil:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return ExitFailed
	}
	return code
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func upload(ctx context.Context, a execIface, args []string, out io.Writer) (int, error) {
	fs := newFlagSet("upload")
	user := fs.String("user", "", "user id")
	if err := fs.Parse(args); err != nil {
		return ExitUsage, fmt.Errorf("%w: %v", errUsage, err)
	}
	if *user == "" || fs.NArg() == 0 {
		return ExitUsage, fmt.Errorf("%w: upload needs -user and at least one file", errUsage)
	}

	code := ExitOK
	for _, r := range a.UploadAll(ctx, *user, fs.Args()) {
		if !r.Success {
			code = ExitFailed
			fmt.Fprintf(out, "Upload failed: %s\n", r.Error)
			if r.OrphanedKey != "" {
				fmt.Fprintf(out, "  Orphaned blob: %s\n", r.OrphanedKey)
			}
			continue
		}
		fmt.Fprintf(out, "Upload successful! Document ID: %s\n", r.DocumentID)
		fmt.Fprintf(out, "  File: %s\n", r.FileName)
		fmt.Fprintf(out, "  Storage URL: %s\n", r.StorageURL)
	}
	return code, nil
}

func show(ctx context.Context, a execIface, args []string, out io.Writer) error {
	fs := newFlagSet("show")
	ttl := fs.Duration("ttl", 0, "retrieval URL lifetime")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: show needs exactly one document id", errUsage)
	}

	d, u, err := a.Show(ctx, fs.Arg(0), *ttl)
	if d == nil {
		return err
	}
	printDocument(out, d)
	if err != nil {
		fmt.Fprintf(out, "Retrieval URL: unavailable (%v)\n", err)
		return nil
	}
	fmt.Fprintf(out, "Retrieval URL: %s\n", u)
	return nil
}

func list(ctx context.Context, a execIface, args []string, out io.Writer) error {
	fs := newFlagSet("list")
	user := fs.String("user", "", "user id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *user == "" {
		return fmt.Errorf("%w: list needs -user", errUsage)
	}

	docs, err := a.List(ctx, *user)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(out, "No documents.")
		return nil
	}
	for _, d := range docs {
		fmt.Fprintf(out, "%s\t%s\t%d\t%s\t%s\n",
			d.DocumentID, d.FileName, d.FileSize, d.Status, d.UploadedAt.Format(time.RFC3339))
	}
	return nil
}

func setStatus(ctx context.Context, a execIface, args []string, out io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: set-status needs a document id and a status", errUsage)
	}
	if err := a.SetStatus(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(out, "Document %s is now %s\n", args[0], args[1])
	return nil
}

func printDocument(out io.Writer, d *models.Document) {
	mt := "-"
	if d.MimeType != nil {
		mt = *d.MimeType
	}
	fmt.Fprintf(out, "Document ID: %s\n", d.DocumentID)
	fmt.Fprintf(out, "User: %s\n", d.UserID)
	fmt.Fprintf(out, "File: %s (%d bytes, %s)\n", d.FileName, d.FileSize, mt)
	fmt.Fprintf(out, "Status: %s\n", d.Status)
	fmt.Fprintf(out, "Uploaded: %s\n", d.UploadedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Storage URL: %s\n", d.StorageURL)
}
