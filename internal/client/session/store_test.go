package session

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/barterdesk/barterdesk/internal/logging"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var dbSeq int

func setupStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	dbSeq++
	dsn := fmt.Sprintf("file:sessionstore%d?mode=memory&cache=shared", dbSeq)
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	// a single connection serializes transactions and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE session (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`)
	require.NoError(t, err)

	log := logging.NewSlogLogger(slog.Default())
	return New(db, log), db
}

func TestCurrent_UnsetKeys_ReturnSentinels(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.Equal(t, UnknownValue, store.Current(ctx, KeyToken))
	require.Equal(t, UnknownValue, store.Current(ctx, KeyUsername))
	require.Equal(t, "", store.Current(ctx, KeyEmail))
}

func TestCurrent_ReadFailure_FallsBackToSentinel(t *testing.T) {
	store, db := setupStore(t)
	require.NoError(t, db.Close())

	require.Equal(t, UnknownValue, store.Current(context.Background(), KeyToken))
}

func TestWriteAll_ThenRecord(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.WriteAll(ctx, "tok123", "user1", "user@test.com"))

	rec := store.Record(ctx)
	require.Equal(t, "tok123", rec.Token)
	require.Equal(t, "user1", rec.Username)
	require.Equal(t, "user@test.com", rec.Email)
	require.True(t, rec.Authenticated())
}

func TestRecord_Unset_NotAuthenticated(t *testing.T) {
	store, _ := setupStore(t)

	rec := store.Record(context.Background())
	require.Equal(t, UnknownValue, rec.Token)
	require.False(t, rec.Authenticated())
}

func TestClear_ResetsToSentinels(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.WriteAll(ctx, "tok123", "user1", "user@test.com"))
	require.NoError(t, store.Clear(ctx))

	rec := store.Record(ctx)
	require.Equal(t, UnknownValue, rec.Token)
	require.Equal(t, UnknownValue, rec.Username)
	require.Equal(t, "", rec.Email)
	require.False(t, rec.Authenticated())
}

func TestObserve_EmitsCurrentValueImmediately(t *testing.T) {
	store, _ := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, store.WriteAll(ctx, "tok123", "user1", "user@test.com"))

	ch := store.Observe(ctx, KeyUsername)
	select {
	case v := <-ch:
		require.Equal(t, "user1", v)
	case <-time.After(time.Second):
		t.Fatal("expected an immediate value on subscription")
	}
}

func TestObserve_EmitsOnEveryWrite(t *testing.T) {
	store, _ := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := store.Observe(ctx, KeyToken)
	require.Equal(t, UnknownValue, <-ch) // initial sentinel

	require.NoError(t, store.WriteAll(ctx, "tok123", "user1", "user@test.com"))
	select {
	case v := <-ch:
		require.Equal(t, "tok123", v)
	case <-time.After(time.Second):
		t.Fatal("expected a value after WriteAll")
	}

	require.NoError(t, store.Clear(ctx))
	select {
	case v := <-ch:
		require.Equal(t, UnknownValue, v)
	case <-time.After(time.Second):
		t.Fatal("expected a value after Clear")
	}
}

func TestObserve_ChannelClosesOnContextDone(t *testing.T) {
	store, _ := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch := store.Observe(ctx, KeyToken)
	<-ch
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok, "channel must be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("expected channel to close")
	}
}

// Readers racing with WriteAll must always see a fully old or fully new
// record, never a mix.
func TestWriteAll_AtomicAgainstConcurrentReads(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.WriteAll(ctx, "tokA", "userA", "a@test.com"))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			rec := store.Record(ctx)
			switch rec.Token {
			case "tokA":
				require.Equal(t, "userA", rec.Username)
				require.Equal(t, "a@test.com", rec.Email)
			case "tokB":
				require.Equal(t, "userB", rec.Username)
				require.Equal(t, "b@test.com", rec.Email)
			default:
				t.Errorf("unexpected token %q", rec.Token)
				return
			}
		}
	}()

	for i := 0; i < 20; i++ {
		require.NoError(t, store.WriteAll(ctx, "tokB", "userB", "b@test.com"))
		require.NoError(t, store.WriteAll(ctx, "tokA", "userA", "a@test.com"))
	}
	close(done)
	wg.Wait()
}
