// Package session implements the durable session store: the single source of
// truth for "is there a session" on this device. It persists the bearer token
// and the identity fields derived from it across restarts, and exposes each
// key as an observable value stream.
//
// Reads fail closed: any storage problem resolves to the key's sentinel value
// so that consumers never have to branch on "missing" vs "broken". The
// transport gate treats the token sentinel as "not authenticated".
package session

import (
	"context"
	"database/sql"
	"sync"

	sessionrepo "github.com/barterdesk/barterdesk/internal/client/repositories/session"
	"github.com/barterdesk/barterdesk/internal/dbx"
	"github.com/barterdesk/barterdesk/internal/logging"
)

// Keys of the persisted session record.
const (
	KeyToken    = "token"
	KeyUsername = "username"
	KeyEmail    = "email"
)

// UnknownValue is the sentinel stored (and reported) for the token and
// username keys when no session exists.
const UnknownValue = "Unknown"

// observerBuffer bounds each observer channel. Slow observers lose
// intermediate values but always receive the latest one.
const observerBuffer = 8

// Sentinel returns the "no session" value for a key.
func Sentinel(key string) string {
	if key == KeyEmail {
		return ""
	}
	return UnknownValue
}

// Record is a snapshot of the persisted identity state.
type Record struct {
	Token    string
	Username string
	Email    string
}

// Authenticated reports whether the record carries a usable credential.
func (r Record) Authenticated() bool {
	return r.Token != "" && r.Token != UnknownValue
}

// Store is the durable session store. A single Store instance is shared by
// the session controller (writer), the transport gate (reader) and any
// presentation observers; it must be constructed once and injected.
type Store struct {
	db  *sql.DB
	log logging.Logger

	mu   sync.Mutex
	subs map[string][]chan string
}

func New(db *sql.DB, log logging.Logger) *Store {
	return &Store{
		db:   db,
		log:  log.With("component", "session_store"),
		subs: make(map[string][]chan string),
	}
}

// Current returns the stored value for key, or the key's sentinel when the
// key is unset or the read fails. It never returns an error: a persisted
// identity must never break callers that only want to display state.
func (s *Store) Current(ctx context.Context, key string) string {
	repo := sessionrepo.NewSQLiteRepository(s.db)

	value, err := repo.Get(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "session read failed, falling back to sentinel", "key", key, "error", err)
		return Sentinel(key)
	}
	return value
}

// Record reads all session keys in a single transaction so the caller never
// observes a partially updated record.
func (s *Store) Record(ctx context.Context) Record {
	rec := Record{
		Token:    Sentinel(KeyToken),
		Username: Sentinel(KeyUsername),
		Email:    Sentinel(KeyEmail),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := sessionrepo.NewSQLiteRepository(tx)
		for key, dst := range map[string]*string{
			KeyToken:    &rec.Token,
			KeyUsername: &rec.Username,
			KeyEmail:    &rec.Email,
		} {
			value, err := repo.Get(ctx, key)
			if err != nil {
				*dst = Sentinel(key)
				continue
			}
			*dst = value
		}
		return nil
	})
	if err != nil {
		s.log.Warn(ctx, "session snapshot failed, falling back to sentinels", "error", err)
		return Record{
			Token:    Sentinel(KeyToken),
			Username: Sentinel(KeyUsername),
			Email:    Sentinel(KeyEmail),
		}
	}
	return rec
}

// Observe returns a stream for key that emits the current value immediately
// and again after every committed write. The channel is closed when ctx is
// done. Values are coalesced if the observer falls behind.
func (s *Store) Observe(ctx context.Context, key string) <-chan string {
	ch := make(chan string, observerBuffer)

	s.mu.Lock()
	current := s.Current(ctx, key)
	s.subs[key] = append(s.subs[key], ch)
	ch <- current
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.unsubscribe(key, ch)
	}()

	return ch
}

// WriteAll atomically persists the full session record. All three keys are
// written in one transaction; observers are notified only after commit, so a
// reader reacting to the notification is guaranteed to see the new record.
func (s *Store) WriteAll(ctx context.Context, token, username, email string) error {
	return s.writeValues(ctx, map[string]string{
		KeyToken:    token,
		KeyUsername: username,
		KeyEmail:    email,
	})
}

// Clear resets the session record to its sentinels (logout).
func (s *Store) Clear(ctx context.Context) error {
	return s.writeValues(ctx, map[string]string{
		KeyToken:    Sentinel(KeyToken),
		KeyUsername: Sentinel(KeyUsername),
		KeyEmail:    Sentinel(KeyEmail),
	})
}

func (s *Store) writeValues(ctx context.Context, values map[string]string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := sessionrepo.NewSQLiteRepository(tx)
		for key, value := range values {
			if err := repo.Set(ctx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(values)
	return nil
}

func (s *Store) notify(values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range values {
		for _, ch := range s.subs[key] {
			select {
			case ch <- value:
			default:
				// observer is behind: drop the oldest buffered value
				select {
				case <-ch:
				default:
				}
				select {
				case ch <- value:
				default:
				}
			}
		}
	}
}

func (s *Store) unsubscribe(key string, ch chan string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subs[key]
	for i, c := range subs {
		if c == ch {
			s.subs[key] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}
