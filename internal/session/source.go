package session

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/realestate-classifieds/internal/utils"
)

// Events published on a user's session channel.
const (
	EventSignedOut   = "signed_out"
	EventRoleChanged = "role_changed"
)

// Channel is the Redis pub/sub channel carrying a user's session events.
func Channel(userID string) string { return "session:" + userID }

// TokenSource is a Source backed by one access token.  Changes arrive over
// Redis pub/sub; without Redis the session never changes after the first
// check.
type TokenSource struct {
	rdb    *redis.Client
	secret string
	raw    string

	mu        sync.Mutex
	signedOut bool
}

func NewTokenSource(rdb *redis.Client, secret, rawToken string) *TokenSource {
	return &TokenSource{rdb: rdb, secret: secret, raw: rawToken}
}

// Current verifies the token.  An invalid or expired token, or one whose
// user has signed out, yields no session.
func (s *TokenSource) Current(ctx context.Context) (*Identity, error) {
	s.mu.Lock()
	out := s.signedOut
	s.mu.Unlock()
	if out {
		return nil, nil
	}
	c, err := utils.ParseAccessToken(s.secret, s.raw)
	if err != nil {
		return nil, nil
	}
	return &Identity{UserID: c.UserID, Email: c.Email, MetaRole: c.MetaRole}, nil
}

func (s *TokenSource) Subscribe(ctx context.Context, fn func(*Identity)) (func(), error) {
	id, _ := s.Current(ctx)
	if id == nil || s.rdb == nil {
		return func() {}, nil
	}
	ps := s.rdb.Subscribe(ctx, Channel(id.UserID))
	// wait for the subscription to be confirmed so no event is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	msgs := ps.Channel()
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				switch m.Payload {
				case EventSignedOut:
					s.mu.Lock()
					s.signedOut = true
					s.mu.Unlock()
					fn(nil)
				case EventRoleChanged:
					cur, _ := s.Current(ctx)
					fn(cur)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}, nil
}
