package storage

import (
	"bytes"
	"encoding/gob"
	"github.com/fernandosanchezjr/goaxeminer/statistics"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	"go.etcd.io/bbolt"
	"time"
)

// BlockRecord is the persisted form of a block candidate.
type BlockRecord struct {
	Time       time.Time
	Pool       string
	JobId      string
	Hash       string
	Difficulty float64
	Nonce      uint32
	Version    uint32
	Header     []byte
}

func encode(value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, value interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(value)
}

// SaveSnapshot stores the latest statistics snapshot, replacing the previous one.
func (s *Store) SaveSnapshot(snapshot *statistics.Snapshot) error {
	data, err := encode(snapshot)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := getBucket(tx, statisticsBucket)
		if err != nil {
			return err
		}
		return bucket.Put(lastSnapshotKey, data)
	})
}

// LoadSnapshot returns the last stored snapshot, or nil when none was saved yet.
func (s *Store) LoadSnapshot() (snapshot *statistics.Snapshot, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := getBucket(tx, statisticsBucket)
		if err != nil {
			return err
		}
		value := bucket.Get(lastSnapshotKey)
		if value == nil {
			return nil
		}
		snapshot = &statistics.Snapshot{}
		return decode(value, snapshot)
	})
	return
}

func (s *Store) WriteBlock(record *BlockRecord) error {
	data, err := encode(record)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := getBucket(tx, blocksBucket)
		if err != nil {
			return err
		}
		return bucket.Put(utils.TimeToBytes(record.Time), data)
	})
}

// Blocks lists logged block candidates found at or after since, oldest first.
func (s *Store) Blocks(since time.Time) (records []*BlockRecord, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := getBucket(tx, blocksBucket)
		if err != nil {
			return err
		}
		cursor := bucket.Cursor()
		var key, value []byte
		if since.IsZero() {
			key, value = cursor.First()
		} else {
			key, value = cursor.Seek(utils.TimeToBytes(since))
		}
		for ; key != nil; key, value = cursor.Next() {
			record := &BlockRecord{}
			if err := decode(value, record); err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	return
}
