package internal

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"labloan-client/config"
	"labloan-client/internal/apitest"
	"labloan-client/internal/gateway"
	"labloan-client/internal/model"
	"labloan-client/internal/session"
	"labloan-client/internal/view"
)

type credential struct {
	Key   string `gorm:"primaryKey;size:32"`
	Value string `gorm:"not null"`
}

var sessionSeq atomic.Int64

// newSessionStore opens an in-memory session database mirroring the on-disk
// schema. Each call gets its own named database.
func newSessionStore(t *testing.T) session.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:labloan%d?mode=memory&cache=shared", sessionSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&credential{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return session.NewGormStore(db)
}

func newClient(backend *apitest.Server, store session.Store) *gateway.Client {
	return gateway.NewClient(&config.APIConfig{
		BaseURL:         backend.URL(),
		Timeout:         5 * time.Second,
		CacheTTL:        time.Minute,
		RateLimitPerSec: 1000,
		RateBurst:       1000,
	}, store)
}

// TestBorrowerJourney walks a student through the full loan lifecycle:
// login, browsing, requesting, an admin decision, an extension and the
// return, verifying the session and backend state at each step.
func TestBorrowerJourney(t *testing.T) {
	// --- Test Setup ---

	// 1. Fake backend with one student, one admin and one item.
	backend := apitest.New()
	defer backend.Close()

	backend.SeedUser("stud-tok", "rahasia", model.User{
		Name: "Budi", Email: "budi@campus.test", Role: model.RoleStudent,
	})
	backend.SeedUser("adm-tok", "rahasia", model.User{
		Name: "Sari", Email: "sari@campus.test", Role: model.RoleAdmin,
	})
	item := backend.SeedItem(model.Item{
		Name: "Oscilloscope", Code: "OSC-01", Location: "Lab A",
		Condition: model.ConditionAvailable, Quantity: 3,
	})

	// 2. A persisted session plus a guard and client reading from it.
	store := newSessionStore(t)
	guard := session.NewGuard(store)
	client := newClient(backend, store)
	ctx := context.Background()

	// --- Anonymous ---

	decision, _, err := guard.Check()
	require.NoError(t, err)
	assert.Equal(t, session.RedirectLogin, decision, "no stored session yet")

	// --- Login ---

	token, user, err := client.Login(ctx, "budi@campus.test", "rahasia")
	require.NoError(t, err)
	require.NoError(t, store.SetCredentials(token, user.Role))

	decision, role, err := guard.Check()
	require.NoError(t, err)
	assert.Equal(t, session.Allow, decision)
	assert.Equal(t, model.RoleStudent, role)
	assert.Equal(t, "catalog", session.DefaultView(role))

	// The admin views stay shut.
	decision, _, err = guard.Check(model.RoleAdmin, model.RoleAssistant)
	require.NoError(t, err)
	assert.Equal(t, session.RedirectDefault, decision)

	// --- Browse and request ---

	catalog := view.NewCatalog(client, 12)
	require.NoError(t, catalog.Load(ctx))
	require.Equal(t, 1, catalog.FilteredCount())

	form := view.NewLoanForm(client, catalog.User())
	require.NoError(t, form.Select(catalog.Page()[0]))
	require.NoError(t, form.OpenForm(time.Now()))
	require.NoError(t, form.SetQuantity(2))
	require.NoError(t, form.SetPurpose("Praktikum pengukuran"))

	outcome, err := form.Submit(ctx)
	require.NoError(t, err)
	require.True(t, outcome.Success)

	// --- Admin decision ---

	adminStore := newSessionStore(t)
	adminClient := newClient(backend, adminStore)
	adminToken, admin, err := adminClient.Login(ctx, "sari@campus.test", "rahasia")
	require.NoError(t, err)
	require.NoError(t, adminStore.SetCredentials(adminToken, admin.Role))
	assert.Equal(t, "dashboard", session.DefaultView(admin.Role))

	board := view.NewLifecycle(adminClient, 10)
	require.NoError(t, board.Refresh(ctx))
	require.Equal(t, 1, board.Stats().PendingRequests)

	loanID := board.Page()[0].ID
	_, err = board.Approve(ctx, loanID)
	require.NoError(t, err)

	stored, ok := backend.Item(item.ID)
	require.True(t, ok)
	assert.Equal(t, 1, stored.Quantity, "two of three units are now reserved")

	// --- Extension ---

	active := view.NewActiveLoans(client)
	require.NoError(t, active.Refresh(ctx))
	require.Len(t, active.Loans(), 1)
	dueBefore := active.Loans()[0].DueDate

	_, err = active.RequestExtension(ctx, loanID)
	require.NoError(t, err)

	require.NoError(t, board.Refresh(ctx))
	_, err = board.ApproveExtension(ctx, loanID)
	require.NoError(t, err)

	require.NoError(t, active.Refresh(ctx))
	assert.Equal(t,
		dueBefore.AddDate(0, 0, 7).Format("2006-01-02"),
		active.Loans()[0].DueDate.Format("2006-01-02"),
		"the extension pushes the due date by a week")

	// --- Return ---

	_, err = active.Return(ctx, loanID)
	require.NoError(t, err)
	assert.Empty(t, active.Loans())

	stored, ok = backend.Item(item.ID)
	require.True(t, ok)
	assert.Equal(t, 3, stored.Quantity, "the stock is whole again")

	history := view.NewHistory(client)
	require.NoError(t, history.Refresh(ctx))
	require.Len(t, history.Loans(), 1)
	assert.Equal(t, model.StatusReturned, history.Loans()[0].Status)

	// --- Logout ---

	require.NoError(t, client.Logout(ctx))
	require.NoError(t, store.Clear())

	decision, _, err = guard.Check()
	require.NoError(t, err)
	assert.Equal(t, session.RedirectLogin, decision)
}

// TestExpiredSessionForcesRelogin verifies the 401 handling path: the stored
// credentials are dropped, the cache is flushed and the guard redirects to
// login.
func TestExpiredSessionForcesRelogin(t *testing.T) {
	backend := apitest.New()
	defer backend.Close()

	store := newSessionStore(t)
	guard := session.NewGuard(store)
	client := newClient(backend, store)
	ctx := context.Background()

	// A token the backend does not recognize, as after a server-side revoke.
	require.NoError(t, store.SetCredentials("stale-tok", model.RoleStudent))

	decision, _, err := guard.Check()
	require.NoError(t, err)
	require.Equal(t, session.Allow, decision, "the guard cannot see server-side expiry")

	_, err = client.CurrentUser(ctx)
	require.Error(t, err)

	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.Unauthorized())

	// The caller reacts by expiring the session.
	require.NoError(t, guard.Expire())
	client.FlushCache()

	decision, _, err = guard.Check()
	require.NoError(t, err)
	assert.Equal(t, session.RedirectLogin, decision)
}
