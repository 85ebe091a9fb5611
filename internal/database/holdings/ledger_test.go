package holdings

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/periodicals/internal/database"
	"github.com/mrlokans/periodicals/internal/entities"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	ledger  *Ledger
	db      *gorm.DB
	user    *entities.User
	journal *entities.Journal
	now     time.Time
}

// advance moves the ledger clock forward by d.
func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func setupTestDB(t *testing.T, opts Options) (*fixture, func()) {
	dbPath := "./test_holdings_" + t.Name() + ".db"

	store, err := database.NewDatabase(dbPath, database.WithLogLevel(logger.Silent))
	require.NoError(t, err)

	f := &fixture{db: store.DB, now: epoch}
	f.ledger = NewLedger(store.DB, opts).WithClock(func() time.Time { return f.now })

	f.user = &entities.User{
		Username:     "alice",
		Nickname:     "Alice",
		SessionToken: "token-alice",
		PasswordHash: "hash",
		Role:         entities.UserRoleReader,
	}
	require.NoError(t, store.DB.Create(f.user).Error)

	f.journal = &entities.Journal{
		Name:       "Physics",
		Language:   "zh",
		Frequency:  entities.FrequencyMonthly,
		ISSN:       "1234-5678",
		CNCode:     "CN11-1234",
		PostalCode: "2-123",
	}
	require.NoError(t, store.DB.Create(f.journal).Error)

	cleanup := func() {
		store.Close()
		os.Remove(dbPath)
		os.Remove(dbPath + "-wal")
		os.Remove(dbPath + "-shm")
	}
	return f, cleanup
}

func (f *fixture) receive(t *testing.T, issue int) *entities.Storage {
	t.Helper()
	item, err := f.ledger.ReceiveIssue(context.Background(), f.journal.ID, 2024, 1, issue)
	require.NoError(t, err)
	return item
}

func TestLedger_Subscriptions(t *testing.T) {
	f, cleanup := setupTestDB(t, Options{})
	defer cleanup()
	ctx := context.Background()

	first, err := f.ledger.AddSubscription(ctx, f.journal.ID, 2024)
	require.NoError(t, err)
	second, err := f.ledger.AddSubscription(ctx, f.journal.ID, 2024)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = f.ledger.AddSubscription(ctx, f.journal.ID, 2025)
	require.NoError(t, err)

	subs, err := f.ledger.ListSubscriptions(ctx, f.journal.ID)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, 2025, subs[0].Year)

	_, err = f.ledger.AddSubscription(ctx, 999, 2024)
	assert.ErrorIs(t, err, database.ErrForeignKeyViolation)

	require.NoError(t, f.ledger.RemoveSubscription(ctx, first.ID))
	assert.ErrorIs(t, f.ledger.RemoveSubscription(ctx, first.ID), database.ErrNotFound)
}

func TestLedger_ReceiveIssue(t *testing.T) {
	f, cleanup := setupTestDB(t, Options{})
	defer cleanup()
	ctx := context.Background()

	item := f.receive(t, 3)
	assert.NotZero(t, item.ID)

	stored, err := f.ledger.GetStorage(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Issue)

	_, err = f.ledger.ReceiveIssue(ctx, 7, 2024, 1, 1)
	assert.ErrorIs(t, err, database.ErrForeignKeyViolation)

	_, err = f.ledger.ReceiveIssue(ctx, f.journal.ID, 2024, 1, 0)
	assert.ErrorIs(t, err, database.ErrInvalidArgument)

	f.receive(t, 1)
	items, err := f.ledger.ListStorage(ctx, f.journal.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Issue)

	_, err = f.ledger.GetStorage(ctx, 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestLedger_RemoveIssue(t *testing.T) {
	f, cleanup := setupTestDB(t, Options{EnforceSingleActiveLoan: true})
	defer cleanup()
	ctx := context.Background()

	item := f.receive(t, 1)
	article, err := f.ledger.CatalogArticle(ctx, item.ID, ArticleInput{Title: "Quarks", Author: "Bob"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.ledger.RemoveIssue(ctx, item.ID), database.ErrForeignKeyViolation)
	require.NoError(t, f.ledger.DeleteArticle(ctx, article.ID))

	b, err := f.ledger.Borrow(ctx, f.user.ID, item.ID, time.Time{})
	require.NoError(t, err)
	assert.ErrorIs(t, f.ledger.RemoveIssue(ctx, item.ID), database.ErrForeignKeyViolation)

	_, err = f.ledger.Return(ctx, b.ID)
	require.NoError(t, err)
	require.NoError(t, f.ledger.RemoveIssue(ctx, item.ID))

	assert.ErrorIs(t, f.ledger.RemoveIssue(ctx, item.ID), database.ErrNotFound)
}

func TestLedger_CatalogArticle(t *testing.T) {
	f, cleanup := setupTestDB(t, Options{})
	defer cleanup()
	ctx := context.Background()

	item := f.receive(t, 1)

	tests := []struct {
		name    string
		storage uint
		in      ArticleInput
		wantErr error
	}{
		{
			name:    "five keywords",
			storage: item.ID,
			in:      ArticleInput{Title: "Quarks", Keywords: []string{"a", "b", "c", "d", "e"}},
		},
		{
			name:    "six keywords",
			storage: item.ID,
			in:      ArticleInput{Title: "Quarks", Keywords: []string{"a", "b", "c", "d", "e", "f"}},
			wantErr: database.ErrInvalidArgument,
		},
		{
			name:    "missing title",
			storage: item.ID,
			in:      ArticleInput{Author: "Bob"},
			wantErr: database.ErrInvalidArgument,
		},
		{
			name:    "missing storage",
			storage: 999,
			in:      ArticleInput{Title: "Quarks"},
			wantErr: database.ErrForeignKeyViolation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article, err := f.ledger.CatalogArticle(ctx, tt.storage, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			stored, err := f.ledger.GetArticle(ctx, article.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.in.Keywords, stored.Keywords())
		})
	}
}

func TestLedger_FindArticlesByKeyword(t *testing.T) {
	f, cleanup := setupTestDB(t, Options{})
	defer cleanup()
	ctx := context.Background()

	item := f.receive(t, 1)
	first, err := f.ledger.CatalogArticle(ctx, item.ID, ArticleInput{Title: "Quarks", Keywords: []string{"physics", "particles"}})
	require.NoError(t, err)
	second, err := f.ledger.CatalogArticle(ctx, item.ID, ArticleInput{Title: "Leptons", Keywords: []string{"leptons", "particles"}})
	require.NoError(t, err)
	_, err = f.ledger.CatalogArticle(ctx, item.ID, ArticleInput{Title: "Particles of dust", Keywords: []string{"dust"}})
	require.NoError(t, err)

	found, err := f.ledger.FindArticlesByKeyword(ctx, "particles")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, first.ID, found[0].ID)
	assert.Equal(t, second.ID, found[1].ID)

	// Matching is exact, not substring.
	found, err = f.ledger.FindArticlesByKeyword(ctx, "particle")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = f.ledger.FindArticlesByKeyword(ctx, "")
	assert.ErrorIs(t, err, database.ErrInvalidArgument)
}

func TestLedger_Borrow(t *testing.T) {
	f, cleanup := setupTestDB(t, Options{DefaultLoanPeriod: 14 * 24 * time.Hour, EnforceSingleActiveLoan: true})
	defer cleanup()
	ctx := context.Background()

	item := f.receive(t, 1)

	b, err := f.ledger.Borrow(ctx, f.user.ID, item.ID, time.Time{})
	require.NoError(t, err)
	assert.True(t, b.BorrowedAt.Equal(epoch))
	assert.True(t, b.DueAt.Equal(epoch.Add(14*24*time.Hour)))
	assert.True(t, b.IsOpen())

	_, err = f.ledger.Borrow(ctx, f.user.ID, item.ID, epoch.Add(time.Hour))
	assert.ErrorIs(t, err, database.ErrAlreadyBorrowed)

	other := f.receive(t, 2)
	tests := []struct {
		name    string
		userID  uint
		storage uint
		dueAt   time.Time
		wantErr error
	}{
		{"due in the past", f.user.ID, other.ID, epoch.Add(-time.Minute), database.ErrInvalidArgument},
		{"unknown user", 999, other.ID, epoch.Add(time.Hour), database.ErrForeignKeyViolation},
		{"unknown storage", f.user.ID, 999, epoch.Add(time.Hour), database.ErrForeignKeyViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Borrow(ctx, tt.userID, tt.storage, tt.dueAt)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	open, err := f.ledger.ListBorrowingsForUser(ctx, f.user.ID, true)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestLedger_BorrowWithoutSingleLoanPolicy(t *testing.T) {
	f, cleanup := setupTestDB(t, Options{})
	defer cleanup()
	ctx := context.Background()

	item := f.receive(t, 1)
	_, err := f.ledger.Borrow(ctx, f.user.ID, item.ID, time.Time{})
	require.NoError(t, err)
	_, err = f.ledger.Borrow(ctx, f.user.ID, item.ID, time.Time{})
	assert.NoError(t, err)
}

func TestLedger_Return(t *testing.T) {
	f, cleanup := setupTestDB(t, Options{EnforceSingleActiveLoan: true})
	defer cleanup()
	ctx := context.Background()

	item := f.receive(t, 1)
	b, err := f.ledger.Borrow(ctx, f.user.ID, item.ID, epoch.Add(48*time.Hour))
	require.NoError(t, err)

	f.advance(24 * time.Hour)
	returned, err := f.ledger.Return(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnedAt)
	assert.True(t, returned.ReturnedAt.Equal(epoch.Add(24*time.Hour)))
	assert.False(t, returned.ReturnedAt.Before(returned.BorrowedAt))

	_, err = f.ledger.Return(ctx, b.ID)
	assert.ErrorIs(t, err, database.ErrAlreadyReturned)

	_, err = f.ledger.Return(ctx, 999)
	assert.ErrorIs(t, err, database.ErrNotFound)

	stored, err := f.ledger.GetBorrowing(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsOpen())

	// The item can go out again once returned.
	_, err = f.ledger.Borrow(ctx, f.user.ID, item.ID, time.Time{})
	assert.NoError(t, err)

	all, err := f.ledger.ListBorrowingsForUser(ctx, f.user.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func collectOverdue(t *testing.T, l *Ledger, now time.Time) []uint {
	t.Helper()
	var ids []uint
	for b, err := range l.Overdue(context.Background(), now) {
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}
	return ids
}

func TestLedger_Overdue(t *testing.T) {
	f, cleanup := setupTestDB(t, Options{})
	defer cleanup()
	ctx := context.Background()

	items := []*entities.Storage{f.receive(t, 1), f.receive(t, 2), f.receive(t, 3)}

	late, err := f.ledger.Borrow(ctx, f.user.ID, items[0].ID, epoch.Add(time.Hour))
	require.NoError(t, err)
	lateReturned, err := f.ledger.Borrow(ctx, f.user.ID, items[1].ID, epoch.Add(time.Hour))
	require.NoError(t, err)
	_, err = f.ledger.Borrow(ctx, f.user.ID, items[2].ID, epoch.Add(72*time.Hour))
	require.NoError(t, err)

	assert.Empty(t, collectOverdue(t, f.ledger, epoch))

	_, err = f.ledger.Return(ctx, lateReturned.ID)
	require.NoError(t, err)

	assert.Equal(t, []uint{late.ID}, collectOverdue(t, f.ledger, epoch.Add(2*time.Hour)))

	// Recomputed on each call: the long loan shows up later.
	assert.Len(t, collectOverdue(t, f.ledger, epoch.Add(100*time.Hour)), 2)
}

func TestLedger_OverdueEarlyBreak(t *testing.T) {
	f, cleanup := setupTestDB(t, Options{})
	defer cleanup()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		item := f.receive(t, i)
		_, err := f.ledger.Borrow(ctx, f.user.ID, item.ID, epoch.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}

	var seen []entities.Borrowing
	for b, err := range f.ledger.Overdue(ctx, epoch.Add(24*time.Hour)) {
		require.NoError(t, err)
		seen = append(seen, b)
		if len(seen) == 1 {
			break
		}
	}
	require.Len(t, seen, 1)
	assert.True(t, seen[0].DueAt.Equal(epoch.Add(time.Hour)))

	// The cursor was released; the ledger keeps working.
	_, err := f.ledger.AddSubscription(ctx, f.journal.ID, 2024)
	assert.NoError(t, err)
}

type recordingLogger struct {
	actions []string
	failed  int
}

func (r *recordingLogger) LogCirculation(_ uint, action string, _ uint, err error) {
	r.actions = append(r.actions, action)
	if err != nil {
		r.failed++
	}
}

func TestLedger_AuditTrail(t *testing.T) {
	f, cleanup := setupTestDB(t, Options{})
	defer cleanup()
	ctx := context.Background()

	rec := &recordingLogger{}
	f.ledger.SetAuditLogger(rec)

	item := f.receive(t, 1)
	b, err := f.ledger.Borrow(ctx, f.user.ID, item.ID, time.Time{})
	require.NoError(t, err)
	_, err = f.ledger.Return(ctx, b.ID)
	require.NoError(t, err)
	_, err = f.ledger.Return(ctx, b.ID)
	require.Error(t, err)

	assert.Equal(t, []string{ActionBorrow, ActionReturn, ActionReturn}, rec.actions)
	assert.Equal(t, 1, rec.failed)
}
