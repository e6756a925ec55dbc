package session

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/opsdesk/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/opsdesk/internal/dbx"
)

const (
	keyPrefix   = "session."
	keyToken    = keyPrefix + "token"
	keyIssuedAt = keyPrefix + "issued_at"
	keyUsername = keyPrefix + "username"
)

// Store is the process-wide session slot: overwritten by Set, emptied by
// Clear, and backed by the metadata table so a restart keeps the operator
// signed in until the session expires.
type Store struct {
	db                 *sql.DB
	maxAge             time.Duration
	fallbackOperatorID string
	now                func() time.Time

	mu      sync.Mutex
	current *Session
	loaded  bool
}

func NewStore(db *sql.DB, maxAge time.Duration, fallbackOperatorID string) *Store {
	return &Store{
		db:                 db,
		maxAge:             maxAge,
		fallbackOperatorID: fallbackOperatorID,
		now:                time.Now,
	}
}

// Get returns the current session. ErrNoSession is returned when nobody is
// signed in or the stored session has expired; an expired session is wiped.
func (s *Store) Get(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		sess, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		s.current = sess
		s.loaded = true
	}

	if s.current == nil {
		return nil, ErrNoSession
	}
	if !s.current.Valid(s.now()) {
		if err := s.clearLocked(ctx); err != nil {
			return nil, err
		}
		return nil, ErrNoSession
	}
	return s.current, nil
}

// Set replaces the current session with one built from token. username is
// used when the token carries no username claim and is stored alongside it.
func (s *Store) Set(ctx context.Context, token, username string) (*Session, error) {
	sess, err := New(token, s.now(), s.maxAge, s.fallbackOperatorID)
	if err != nil {
		return nil, err
	}
	if sess.Username == "" {
		sess.Username = username
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, keyToken, []byte(sess.Token)); err != nil {
			return err
		}
		if err := repo.Set(ctx, keyUsername, []byte(sess.Username)); err != nil {
			return err
		}
		return repo.Set(ctx, keyIssuedAt, []byte(sess.IssuedAt.UTC().Format(time.RFC3339Nano)))
	})
	if err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.current = sess
	s.loaded = true
	return sess, nil
}

// Clear drops the session from memory and from the database.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) error {
	if err := metadata.NewSQLiteRepository(s.db).DeletePrefix(ctx, keyPrefix); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.current = nil
	s.loaded = true
	return nil
}

func (s *Store) load(ctx context.Context) (*Session, error) {
	values, err := metadata.NewSQLiteRepository(s.db).ListPrefix(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	token := string(values[keyToken])
	if token == "" {
		return nil, nil
	}

	issuedAt, err := time.Parse(time.RFC3339Nano, string(values[keyIssuedAt]))
	if err != nil {
		// unreadable timestamp: treat as issued long ago so it expires
		issuedAt = time.Time{}
	}

	sess, err := New(token, issuedAt, s.maxAge, s.fallbackOperatorID)
	if err != nil {
		return nil, err
	}
	if sess.Username == "" {
		sess.Username = string(values[keyUsername])
	}
	return sess, nil
}
