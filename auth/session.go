package auth

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/ryteapp/ryte-gateway/globals"
	"github.com/ryteapp/ryte-gateway/persistence"
	"github.com/ryteapp/ryte-gateway/sessions"
	"github.com/ryteapp/ryte-gateway/types"
)

// AuthenticationError rejects a handshake. The connection is never
// established when one of these is returned.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "authentication error: " + e.Reason
}

// Authenticator resolves an opaque session token to a verified user identity
// by looking up the session record and then the user record. A small LRU
// cache fronts the user lookups; entries are only added on a successful hit,
// so a deleted user is never resurrected from cache on a later handshake of
// a different session.
type Authenticator struct {
	store     sessions.Store
	persister persistence.Persister
	userCache *lru.Cache
}

func NewAuthenticator(store sessions.Store, persister persistence.Persister, cacheSize int) (*Authenticator, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Authenticator{store: store, persister: persister, userCache: cache}, nil
}

// Authenticate verifies the session token supplied at handshake time and
// returns the immutable identity for the connection's lifetime.
func (a *Authenticator) Authenticate(sessionID string) (*types.Identity, error) {
	if sessionID == "" {
		return nil, &AuthenticationError{Reason: "no session id"}
	}
	sess, err := a.store.Get(sessionID)
	if err != nil {
		globals.AppLogger.Error("could not look up session", "error", err)
		return nil, &AuthenticationError{Reason: "invalid session"}
	}
	if sess == nil {
		return nil, &AuthenticationError{Reason: "invalid session"}
	}
	userID, ok := sess.UserID()
	if !ok {
		return nil, &AuthenticationError{Reason: "invalid session"}
	}
	user, err := a.lookupUser(userID)
	if err != nil {
		globals.AppLogger.Error("could not look up user", "userId", userID, "error", err)
		return nil, &AuthenticationError{Reason: "user not found"}
	}
	if user == nil {
		return nil, &AuthenticationError{Reason: "user not found"}
	}
	return &types.Identity{UserID: user.ID, Username: user.Username}, nil
}

func (a *Authenticator) lookupUser(userID int64) (*types.User, error) {
	if cached, ok := a.userCache.Get(userID); ok {
		return cached.(*types.User), nil
	}
	user, err := a.persister.GetUser(userID)
	if err != nil || user == nil {
		return user, err
	}
	a.userCache.Add(userID, user)
	return user, nil
}
