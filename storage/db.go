package storage

import (
	"errors"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	"go.etcd.io/bbolt"
	"os"
	"path"
	"time"
)

const (
	DBPath        = "db"
	DBName        = "stats.db"
	DBOpenTimeout = time.Second
)

var (
	ErrBucketNotFound = errors.New("bucket not found")
	statisticsBucket  = []byte("statistics")
	blocksBucket      = []byte("blocks")
	lastSnapshotKey   = []byte("last")
)

func GetDBPath() string {
	return path.Join(utils.GetSubFolder(DBPath), DBName)
}

// Store persists statistics snapshots and the block candidate log.
type Store struct {
	db *bbolt.DB
}

// Open creates the database at dbPath, or at the default location under the home folder when empty.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = GetDBPath()
	} else {
		var err error
		if dbPath, err = utils.ExpandPath(dbPath); err != nil {
			return nil, err
		}
		if err = os.MkdirAll(path.Dir(dbPath), 0700); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: DBOpenTimeout})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(statisticsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Path() string {
	return s.db.Path()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func getBucket(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	bucket := tx.Bucket(name)
	if bucket == nil {
		return nil, ErrBucketNotFound
	}
	return bucket, nil
}
