package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/api"
)

// parse parses per-command flags. Positional arguments may come before or
// after the flags.
func parse(fs *flag.FlagSet, args []string) ([]string, error) {
	fs.SetOutput(io.Discard)

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, ErrUsage
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func oneArg(fs *flag.FlagSet, args []string) (string, error) {
	pos, err := parse(fs, args)
	if err != nil {
		return "", err
	}
	if len(pos) != 1 {
		return "", ErrUsage
	}
	return pos[0], nil
}

func (a *App) upload(ctx context.Context, args []string) error {
	path, err := oneArg(flag.NewFlagSet("upload", flag.ContinueOnError), args)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	iv, sealed, err := a.vault.Seal(data)
	if err != nil {
		return err
	}

	f, err := a.client.UploadFile(ctx, &api.UploadFileRequest{
		Filename: filepath.Base(path),
		ClientIV: iv,
		Data:     sealed,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "uploaded %s as %s\n", f.Filename, f.ID)
	return nil
}

func (a *App) list(ctx context.Context, _ []string) error {
	files, err := a.client.ListFiles(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSIZE\tCREATED")
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", f.ID, f.Filename, f.MimeType, f.OriginalSize, f.CreatedAt.Format(time.DateTime))
	}
	return w.Flush()
}

// save unseals content and writes it to dest, or to the original filename
// in the working directory.
func (a *App) save(content *api.FileContentResponse, dest string) error {
	plain, err := a.vault.Unseal(content.ClientIV, content.Data)
	if err != nil {
		return fmt.Errorf("decrypt %s: %w", content.Filename, err)
	}

	if dest == "" {
		dest = filepath.Base(content.Filename)
	}
	if err := os.WriteFile(dest, plain, 0o600); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "saved %s (%d bytes)\n", dest, len(plain))
	return nil
}

func (a *App) download(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	out := fs.String("o", "", "output path")
	id, err := oneArg(fs, args)
	if err != nil {
		return err
	}

	content, err := a.client.DownloadFile(ctx, id)
	if err != nil {
		return err
	}
	return a.save(content, *out)
}

func (a *App) delete(ctx context.Context, args []string) error {
	id, err := oneArg(flag.NewFlagSet("delete", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	if err := a.client.DeleteFile(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %s\n", id)
	return nil
}

// optionalInt is an int flag that remembers whether it was given.
type optionalInt struct {
	v   int
	set bool
}

func (o *optionalInt) String() string { return fmt.Sprint(o.v) }

func (o *optionalInt) Set(s string) error {
	_, err := fmt.Sscan(s, &o.v)
	o.set = err == nil
	return err
}

func (o *optionalInt) ptr() *int {
	if !o.set {
		return nil
	}
	v := o.v
	return &v
}

func (a *App) share(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("share", flag.ContinueOnError)
	to := fs.String("to", "", "grantee user name; empty for a public link")
	disabled := fs.Bool("disabled", false, "create with downloads turned off")
	var maxDownloads, minutes optionalInt
	fs.Var(&maxDownloads, "max", "download limit, -1 for unlimited")
	fs.Var(&minutes, "minutes", "expiry preset: 1, 60, 1440 or 10080")

	id, err := oneArg(fs, args)
	if err != nil {
		return err
	}

	sh, err := a.client.CreateShare(ctx, &api.CreateShareRequest{
		FileID:          id,
		GranteeUsername: *to,
		MaxDownloads:    maxDownloads.ptr(),
		DownloadEnabled: !*disabled,
		ExpiryMinutes:   minutes.ptr(),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "share %s (%s)\n", sh.ID, describe(sh))
	return nil
}

func (a *App) update(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	noExpiry := fs.Bool("no-expiry", false, "remove the expiry")
	var maxDownloads, minutes optionalInt
	fs.Var(&maxDownloads, "max", "download limit, -1 for unlimited")
	fs.Var(&minutes, "minutes", "expiry preset: 1, 60, 1440 or 10080")

	id, err := oneArg(fs, args)
	if err != nil {
		return err
	}

	sh, err := a.client.UpdateShare(ctx, &api.UpdateShareRequest{
		ShareID:       id,
		MaxDownloads:  maxDownloads.ptr(),
		ExpiryMinutes: minutes.ptr(),
		ClearExpiry:   *noExpiry,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "share %s (%s)\n", sh.ID, describe(sh))
	return nil
}

func describe(sh *api.ShareMessage) string {
	remaining := "unlimited"
	if sh.Remaining >= 0 {
		remaining = fmt.Sprintf("%d left", sh.Remaining)
	}
	expires := "never expires"
	if sh.ExpiresAt != nil {
		expires = "expires " + sh.ExpiresAt.Local().Format(time.DateTime)
	}
	return fmt.Sprintf("%s, %s, %s", sh.State, remaining, expires)
}

func (a *App) printShares(list []api.ShareMessage) error {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SHARE\tFILE\tGRANTEE\tSTATUS")
	for i := range list {
		grantee := "public"
		if list[i].GranteeID != nil {
			grantee = *list[i].GranteeID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", list[i].ID, list[i].FileID, grantee, describe(&list[i]))
	}
	return w.Flush()
}

func (a *App) shares(ctx context.Context, args []string) error {
	id, err := oneArg(flag.NewFlagSet("shares", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	list, err := a.client.ListShares(ctx, id)
	if err != nil {
		return err
	}
	return a.printShares(list)
}

func (a *App) inbox(ctx context.Context, _ []string) error {
	list, err := a.client.ListSharedWithMe(ctx)
	if err != nil {
		return err
	}
	return a.printShares(list)
}

func (a *App) toggle(ctx context.Context, args []string) error {
	pos, err := parse(flag.NewFlagSet("toggle", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	if len(pos) != 2 || (pos[1] != "on" && pos[1] != "off") {
		return ErrUsage
	}

	sh, err := a.client.SetShareDownload(ctx, pos[0], pos[1] == "on")
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "share %s (%s)\n", sh.ID, describe(sh))
	return nil
}

func (a *App) revoke(ctx context.Context, args []string) error {
	id, err := oneArg(flag.NewFlagSet("revoke", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	if err := a.client.RevokeShare(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "revoked %s\n", id)
	return nil
}

func (a *App) info(ctx context.Context, args []string) error {
	id, err := oneArg(flag.NewFlagSet("info", flag.ContinueOnError), args)
	if err != nil {
		return err
	}

	info, err := a.client.GetShare(ctx, id)
	if err != nil {
		return err
	}

	remaining := "unlimited"
	if info.Remaining >= 0 {
		remaining = fmt.Sprint(info.Remaining)
	}
	fmt.Fprintf(a.out, "%s (%s, %d bytes), downloads enabled: %t, remaining: %s\n",
		info.Filename, info.MimeType, info.OriginalSize, info.DownloadEnabled, remaining)
	return nil
}

func (a *App) get(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	out := fs.String("o", "", "output path")
	id, err := oneArg(fs, args)
	if err != nil {
		return err
	}

	content, err := a.client.DownloadShare(ctx, id)
	if err != nil {
		return err
	}
	return a.save(content, *out)
}
