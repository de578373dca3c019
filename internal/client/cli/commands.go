package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/client/api"
)

var errUsage = errors.New("wrong arguments")

func (a *App) readCredentials() (string, []byte, error) {
	login, err := GetSimpleText(a.reader, "Enter login", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return login, password, nil
}

func (a *App) login(ctx context.Context) error {
	login, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer wipe(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.auth.Login(ctx, login, password); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return errors.New("wrong login or password")
		}
		return err
	}

	a.userName = login
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) register(ctx context.Context) error {
	login, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer wipe(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.auth.Register(ctx, login, password); err != nil {
		return err
	}

	a.userName = login
	fmt.Fprintln(a.out, "Registered and logged in")
	return nil
}

func (a *App) logout() {
	a.auth.SetToken("")
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
}

func (a *App) upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: upload <path>", errUsage)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	stored, err := a.files.Upload(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Uploaded file id=%d address=%s state=%s\n", stored.ID, stored.Address, stored.State)
	return nil
}

func (a *App) listFiles(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	files, err := a.admin.ListFiles(ctx)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(a.out, "No files")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tADDRESS\tSTATE\tOWNER\tCREATED")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", f.ID, f.Address, f.State, owner(f.Owner), f.CreatedAt.Format(time.DateTime))
	}
	return tw.Flush()
}

func (a *App) showFile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: file <id>", errUsage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: id must be a number", errUsage)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	f, err := a.admin.GetFile(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id:      %d\naddress: %s\nstate:   %s\nowner:   %s\ncreated: %s\n",
		f.ID, f.Address, f.State, owner(f.Owner), f.CreatedAt.Format(time.RFC3339))
	return nil
}

// sweep without arguments uses the server's retention window; with a
// duration argument it goes through the admin service with that window.
func (a *App) sweep(ctx context.Context, args []string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	var (
		res *api.SweepResult
		err error
	)
	switch len(args) {
	case 0:
		res, err = a.files.Sweep(ctx, -1)
	case 1:
		retention, perr := time.ParseDuration(args[0])
		if perr != nil || retention < 0 {
			return fmt.Errorf("%w: retention must be a duration such as 1h", errUsage)
		}
		res, err = a.admin.SweepOrphans(ctx, retention)
	default:
		return fmt.Errorf("%w: usage: sweep [retention]", errUsage)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Sweep: %d candidates, %d deleted, %d skipped, %d record failures\n",
		res.Candidates, res.Deleted, res.Skipped, res.RecordFailures)
	for _, addr := range res.StorageFailures {
		fmt.Fprintf(a.out, "  object not removed: %s\n", addr)
	}
	return nil
}

func owner(o *api.Owner) string {
	if o == nil {
		return "-"
	}
	return fmt.Sprintf("%s:%d", o.Table, o.ID)
}
