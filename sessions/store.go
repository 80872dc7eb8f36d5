package sessions

import (
	"fmt"

	"github.com/ryteapp/ryte-gateway/config"
	"github.com/ryteapp/ryte-gateway/types"
)

// Store is the narrow interface over the shared session table. Records are
// opaque attribute maps, the store passes them through without interpreting
// their contents. Get returns (nil, nil) for an absent or expired session,
// database failures surface as retryable errors to the caller.
type Store interface {
	Get(sid string) (*types.Session, error)
	Set(sess *types.Session) error
	Touch(sess *types.Session) error
	Destroy(sid string) error
	All() ([]*types.Session, error)
	Count() (int, error)
	Clear() error
	DeleteExpired() (int, error)
	Close() error
}

// NewStore returns the configured session store backend.
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.SessionsConfig.Type {
	case "postgres":
		return NewPostgresStore(cfg)

	case "buntdb":
		return NewBuntStore(cfg)
	}
	return nil, fmt.Errorf("invalid session store configuration: %q", cfg.SessionsConfig.Type)
}
