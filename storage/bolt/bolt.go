// Package bolt is a storage.Storage backed by a bbolt file.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Comcast/treetags/core"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Bucket holds one key per view.
var Bucket = []byte("views")

var NotOpen = errors.New("bolt storage not open")

type Storage struct {
	Logger   *zap.Logger
	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	if filename == "" {
		return nil, errors.New("bolt storage needs a filename")
	}
	return &Storage{
		Logger:   zap.NewNop(),
		filename: filename,
	}, nil
}

func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.filename, err)
	}
	if err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(Bucket)
		return err
	}); err != nil {
		db.Close()
		return err
	}
	s.db = db
	s.logger().Info("opened", zap.String("filename", s.filename))
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Storage) Load(ctx context.Context, viewId string) (core.ViewState, error) {
	if s.db == nil {
		return nil, NotOpen
	}
	var js []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(Bucket)
		if b == nil {
			return nil
		}
		if bs := b.Get([]byte(viewId)); bs != nil {
			// Only valid during the transaction.
			js = append([]byte(nil), bs...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger().Debug("Load", zap.String("view", viewId), zap.Int("bytes", len(js)))
	if js == nil {
		return nil, nil
	}
	var state core.ViewState
	if err = json.Unmarshal(js, &state); err != nil {
		return nil, fmt.Errorf("view %s: %w", viewId, err)
	}
	return state, nil
}

func (s *Storage) Save(ctx context.Context, viewId string, state core.ViewState) error {
	if s.db == nil {
		return NotOpen
	}
	js, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.logger().Debug("Save", zap.String("view", viewId), zap.Int("bytes", len(js)))
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(Bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(viewId), js)
	})
}

func (s *Storage) Remove(ctx context.Context, viewId string) error {
	if s.db == nil {
		return NotOpen
	}
	s.logger().Debug("Remove", zap.String("view", viewId))
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(Bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(viewId))
	})
}

// Views returns the ids of the stored views in key order.
func (s *Storage) Views(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, NotOpen
	}
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(Bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			ids = append(ids, string(k))
		}
		return nil
	})
	return ids, err
}
