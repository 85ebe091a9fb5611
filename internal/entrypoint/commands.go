package entrypoint

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/mrlokans/periodicals/internal/auth"
	"github.com/mrlokans/periodicals/internal/entities"
	"github.com/mrlokans/periodicals/internal/tasks"
)

// CreateAdmin registers an administrator account.
func (a *App) CreateAdmin(ctx context.Context, username, password, nickname string) (*entities.User, error) {
	if nickname == "" {
		nickname = username
	}
	user, err := a.Auth.SignUp(ctx, auth.SignUpRequest{
		Username: username,
		Nickname: nickname,
		Password: password,
		Role:     entities.UserRoleAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("create admin %q: %w", username, err)
	}
	return user, nil
}

// PrintOverdue writes one line per borrowing overdue at now and returns how many there were.
func (a *App) PrintOverdue(ctx context.Context, w io.Writer, now time.Time) (int, error) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER\tSTORAGE\tDUE\tDAYS LATE")

	count, err := tasks.ScanOverdue(ctx, a.Ledger, now, func(b entities.Borrowing) {
		late := int(now.Sub(b.DueAt).Hours() / 24)
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%d\n", b.ID, b.UserID, b.StorageID, b.DueAt.Format(time.RFC3339), late)
	})
	if err != nil {
		return count, err
	}
	if err := tw.Flush(); err != nil {
		return count, err
	}
	return count, nil
}
