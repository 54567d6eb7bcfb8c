package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/boltdb/bolt"

	"github.com/dcm2610/StellarStack-sub000/allocation"
	"github.com/dcm2610/StellarStack-sub000/server"
	"github.com/dcm2610/StellarStack-sub000/transfer"
)

func openBolt(file string, mode os.FileMode, bucket string) (*bolt.DB, error) {
	db, err := bolt.Open(file, mode, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("unable to open %v: %w", file, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to create bucket %s: %w", bucket, err)
	}
	return db, nil
}

func boltPut(db *bolt.DB, bucket, key string, value interface{}) error {
	return db.Update(func(tx *bolt.Tx) error {
		buf, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return tx.Bucket([]byte(bucket)).Put([]byte(key), buf)
	})
}

func boltGet(db *bolt.DB, bucket, key string) ([]byte, error) {
	var buf []byte
	err := db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucket)).Get([]byte(key))
		if v == nil {
			return fmt.Errorf("%s %s does not exist", bucket, key)
		}
		buf = append(buf, v...)
		return nil
	})
	return buf, err
}

func boltDelete(db *bolt.DB, bucket, key string) error {
	return db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Delete([]byte(key))
	})
}

func boltCount(db *bolt.DB, bucket string) (int, error) {
	count := 0
	err := db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).ForEach(func(k, v []byte) error {
			count++
			return nil
		})
	})
	return count, err
}

// BoltServerStore persists servers in a bolt bucket, json-encoded.
type BoltServerStore struct {
	Db     *bolt.DB
	bucket string
}

func NewBoltServerStore(file string, mode os.FileMode) (*BoltServerStore, error) {
	db, err := openBolt(file, mode, "servers")
	if err != nil {
		return nil, err
	}
	return &BoltServerStore{Db: db, bucket: "servers"}, nil
}

func (b *BoltServerStore) Close() error { return b.Db.Close() }

func (b *BoltServerStore) Put(key string, value interface{}) error {
	if _, ok := value.(*server.Server); !ok {
		return fmt.Errorf("value %v is not a server.Server type", value)
	}
	return boltPut(b.Db, b.bucket, key, value)
}

func (b *BoltServerStore) Get(key string) (interface{}, error) {
	buf, err := boltGet(b.Db, b.bucket, key)
	if err != nil {
		return nil, err
	}
	s := server.Server{}
	if err := json.Unmarshal(buf, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (b *BoltServerStore) List() (interface{}, error) {
	var servers []*server.Server
	err := b.Db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(b.bucket)).ForEach(func(k, v []byte) error {
			s := server.Server{}
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			servers = append(servers, &s)
			return nil
		})
	})
	return servers, err
}

func (b *BoltServerStore) Count() (int, error) { return boltCount(b.Db, b.bucket) }

func (b *BoltServerStore) Delete(key string) error { return boltDelete(b.Db, b.bucket, key) }

// BoltAllocationStore persists the endpoint pool.
type BoltAllocationStore struct {
	Db     *bolt.DB
	bucket string
}

func NewBoltAllocationStore(file string, mode os.FileMode) (*BoltAllocationStore, error) {
	db, err := openBolt(file, mode, "allocations")
	if err != nil {
		return nil, err
	}
	return &BoltAllocationStore{Db: db, bucket: "allocations"}, nil
}

func (b *BoltAllocationStore) Close() error { return b.Db.Close() }

func (b *BoltAllocationStore) Put(key string, value interface{}) error {
	if _, ok := value.(*allocation.Allocation); !ok {
		return fmt.Errorf("value %v is not an allocation.Allocation type", value)
	}
	return boltPut(b.Db, b.bucket, key, value)
}

func (b *BoltAllocationStore) Get(key string) (interface{}, error) {
	buf, err := boltGet(b.Db, b.bucket, key)
	if err != nil {
		return nil, err
	}
	a := allocation.Allocation{}
	if err := json.Unmarshal(buf, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (b *BoltAllocationStore) List() (interface{}, error) {
	var allocations []*allocation.Allocation
	err := b.Db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(b.bucket)).ForEach(func(k, v []byte) error {
			a := allocation.Allocation{}
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			allocations = append(allocations, &a)
			return nil
		})
	})
	return allocations, err
}

func (b *BoltAllocationStore) Count() (int, error) { return boltCount(b.Db, b.bucket) }

func (b *BoltAllocationStore) Delete(key string) error { return boltDelete(b.Db, b.bucket, key) }

// BoltTransferStore persists migration records so transfer history
// survives a panel restart.
type BoltTransferStore struct {
	Db     *bolt.DB
	bucket string
}

func NewBoltTransferStore(file string, mode os.FileMode) (*BoltTransferStore, error) {
	db, err := openBolt(file, mode, "transfers")
	if err != nil {
		return nil, err
	}
	return &BoltTransferStore{Db: db, bucket: "transfers"}, nil
}

func (b *BoltTransferStore) Close() error { return b.Db.Close() }

func (b *BoltTransferStore) Put(key string, value interface{}) error {
	if _, ok := value.(*transfer.Transfer); !ok {
		return fmt.Errorf("value %v is not a transfer.Transfer type", value)
	}
	return boltPut(b.Db, b.bucket, key, value)
}

func (b *BoltTransferStore) Get(key string) (interface{}, error) {
	buf, err := boltGet(b.Db, b.bucket, key)
	if err != nil {
		return nil, err
	}
	t := transfer.Transfer{}
	if err := json.Unmarshal(buf, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (b *BoltTransferStore) List() (interface{}, error) {
	var transfers []*transfer.Transfer
	err := b.Db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(b.bucket)).ForEach(func(k, v []byte) error {
			t := transfer.Transfer{}
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			transfers = append(transfers, &t)
			return nil
		})
	})
	return transfers, err
}

func (b *BoltTransferStore) Count() (int, error) { return boltCount(b.Db, b.bucket) }

func (b *BoltTransferStore) Delete(key string) error { return boltDelete(b.Db, b.bucket, key) }
