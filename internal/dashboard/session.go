package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"taskmate/internal/client"
	"taskmate/internal/localstore"
)

// SessionKey holds the signed-in user's token and profile.
const SessionKey = "session"

// ErrNoSession means nobody is signed in.
var ErrNoSession = errors.New("not logged in")

// Sessions persists the session in local storage.
type Sessions struct {
	storage localstore.Storage
}

func NewSessions(storage localstore.Storage) *Sessions {
	return &Sessions{storage: storage}
}

// Load returns ErrNoSession when nothing usable is stored.
func (s *Sessions) Load(ctx context.Context) (client.Session, error) {
	data, err := s.storage.Get(ctx, SessionKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return client.Session{}, ErrNoSession
	}
	if err != nil {
		return client.Session{}, fmt.Errorf("read session: %w", err)
	}

	var sess client.Session
	if err := json.Unmarshal(data, &sess); err != nil || sess.Token == "" {
		return client.Session{}, ErrNoSession
	}
	return sess, nil
}

func (s *Sessions) Save(ctx context.Context, sess client.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.storage.Set(ctx, SessionKey, data)
}

func (s *Sessions) Clear(ctx context.Context) error {
	return s.storage.Delete(ctx, SessionKey)
}
