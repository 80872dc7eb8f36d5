package sessions

import (
	"encoding/json"
	"time"

	"github.com/ryteapp/ryte-gateway/config"
	"github.com/ryteapp/ryte-gateway/types"
	"github.com/tidwall/buntdb"
)

const sessionKeyPrefix = "session:"

// BuntStore is a single-file session store used in development and tests
// (DSN ":memory:" keeps everything in memory).
type BuntStore struct {
	db *buntdb.DB
}

func NewBuntStore(cfg *config.Config) (*BuntStore, error) {
	db, err := buntdb.Open(cfg.SessionsConfig.DSN)
	if err != nil {
		return nil, err
	}
	return &BuntStore{db: db}, nil
}

func (s *BuntStore) Get(sid string) (*types.Session, error) {
	var sess *types.Session
	err := s.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(sessionKeyPrefix + sid)
		if err != nil {
			return err
		}
		sess = &types.Session{}
		return json.Unmarshal([]byte(val), sess)
	})
	if err == buntdb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sess.Expired(time.Now()) {
		return nil, nil
	}
	return sess, nil
}

func (s *BuntStore) Set(sess *types.Session) error {
	val, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(sessionKeyPrefix+sess.SID, string(val), nil)
		return err
	})
}

func (s *BuntStore) Touch(sess *types.Session) error {
	return s.Set(sess)
}

func (s *BuntStore) Destroy(sid string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(sessionKeyPrefix + sid)
		return err
	})
	if err == buntdb.ErrNotFound {
		return nil
	}
	return err
}

func (s *BuntStore) All() ([]*types.Session, error) {
	res := make([]*types.Session, 0)
	err := s.db.View(func(tx *buntdb.Tx) error {
		var innerErr error
		err := tx.AscendKeys(sessionKeyPrefix+"*", func(key, val string) bool {
			sess := types.Session{}
			if innerErr = json.Unmarshal([]byte(val), &sess); innerErr != nil {
				return false
			}
			res = append(res, &sess)
			return true
		})
		if err != nil {
			return err
		}
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *BuntStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(sessionKeyPrefix+"*", func(key, val string) bool {
			count++
			return true
		})
	})
	return count, err
}

func (s *BuntStore) Clear() error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		keys := make([]string, 0)
		err := tx.AscendKeys(sessionKeyPrefix+"*", func(key, val string) bool {
			keys = append(keys, key)
			return true
		})
		if err != nil {
			return err
		}
		for _, key := range keys {
			if _, err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BuntStore) DeleteExpired() (int, error) {
	now := time.Now()
	deleted := 0
	err := s.db.Update(func(tx *buntdb.Tx) error {
		keys := make([]string, 0)
		err := tx.AscendKeys(sessionKeyPrefix+"*", func(key, val string) bool {
			sess := types.Session{}
			if err := json.Unmarshal([]byte(val), &sess); err != nil {
				// unreadable record, leave it alone
				return true
			}
			if sess.Expired(now) {
				keys = append(keys, key)
			}
			return true
		})
		if err != nil {
			return err
		}
		for _, key := range keys {
			if _, err := tx.Delete(key); err != nil && err != buntdb.ErrNotFound {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (s *BuntStore) Close() error {
	return s.db.Close()
}
