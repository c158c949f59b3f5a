// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/roomradar/roomradar/internal/config"
	"github.com/roomradar/roomradar/internal/models"
)

// Key prefixes for BadgerDB storage.
const (
	featureKeyPrefix  = "feature:"
	profileKeyPrefix  = "profile:"
	behaviorKeyPrefix = "behavior:"
)

// BadgerStore is the embedded store backing room features, user profiles,
// and behavior history. All three share one Badger instance.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens the embedded store at the configured path, or fully
// in memory when cfg.InMemory is set.
func OpenBadger(cfg config.StoreConfig) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

// Close flushes and closes the store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Features returns the feature store view.
func (s *BadgerStore) Features() FeatureStore {
	return &badgerFeatureStore{db: s.db}
}

// Profiles returns the profile store view.
func (s *BadgerStore) Profiles() ProfileStore {
	return &badgerProfileStore{db: s.db}
}

// Behaviors returns the behavior store view.
func (s *BadgerStore) Behaviors() BehaviorStore {
	return &badgerBehaviorStore{db: s.db}
}

// badgerFeatureStore persists RoomFeatures under feature:<roomID>.
type badgerFeatureStore struct {
	db *badger.DB
}

func featureKey(roomID string) []byte {
	return []byte(featureKeyPrefix + roomID)
}

func (s *badgerFeatureStore) Get(ctx context.Context, roomID string) (*models.RoomFeatures, error) {
	var f models.RoomFeatures

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(featureKey(roomID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &f)
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get features %s: %w", roomID, err)
	}
	return &f, nil
}

func (s *badgerFeatureStore) GetBatch(ctx context.Context, roomIDs []string) (map[string]*models.RoomFeatures, error) {
	out := make(map[string]*models.RoomFeatures, len(roomIDs))

	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range roomIDs {
			item, err := txn.Get(featureKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			var f models.RoomFeatures
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &f)
			}); err != nil {
				return err
			}
			out[id] = &f
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get feature batch: %w", err)
	}
	return out, nil
}

func (s *badgerFeatureStore) Upsert(ctx context.Context, f *models.RoomFeatures) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(featureKey(f.RoomID), data)
	})
	if err != nil {
		return fmt.Errorf("upsert features %s: %w", f.RoomID, err)
	}
	return nil
}

func (s *badgerFeatureStore) Delete(ctx context.Context, roomID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(featureKey(roomID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("delete features %s: %w", roomID, err)
	}
	return nil
}

func (s *badgerFeatureStore) List(ctx context.Context) ([]*models.RoomFeatures, error) {
	var out []*models.RoomFeatures

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(featureKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var f models.RoomFeatures
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &f)
			}); err != nil {
				return err
			}
			out = append(out, &f)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	return out, nil
}

func (s *badgerFeatureStore) DeleteOrphaned(ctx context.Context, keep map[string]struct{}) (int, error) {
	var orphans [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(featureKeyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			roomID := string(key[len(featureKeyPrefix):])
			if _, ok := keep[roomID]; !ok {
				orphans = append(orphans, key)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan orphaned features: %w", err)
	}

	if len(orphans) == 0 {
		return 0, nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range orphans {
			if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete orphaned features: %w", err)
	}
	return len(orphans), nil
}

// badgerProfileStore persists UserProfiles under profile:<userID>.
type badgerProfileStore struct {
	db *badger.DB
}

func profileKey(userID int64) []byte {
	return []byte(profileKeyPrefix + strconv.FormatInt(userID, 10))
}

func (s *badgerProfileStore) Get(ctx context.Context, userID int64) (*models.UserProfile, error) {
	var p models.UserProfile

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile %d: %w", userID, err)
	}
	return &p, nil
}

func (s *badgerProfileStore) Upsert(ctx context.Context, p *models.UserProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(profileKey(p.UserID), data)
	})
	if err != nil {
		return fmt.Errorf("upsert profile %d: %w", p.UserID, err)
	}
	return nil
}

func (s *badgerProfileStore) ListActiveSince(ctx context.Context, since time.Time) ([]*models.UserProfile, error) {
	var out []*models.UserProfile

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(profileKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var p models.UserProfile
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return err
			}
			if p.UpdatedAt.Before(since) {
				continue
			}
			out = append(out, &p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list active profiles: %w", err)
	}
	return out, nil
}

// badgerBehaviorStore appends events under behavior:<nanos>:<id> so keys
// sort by time and range scans stay cheap.
type badgerBehaviorStore struct {
	db *badger.DB
}

func behaviorKey(ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", behaviorKeyPrefix, ts.UnixNano(), id))
}

func (s *badgerBehaviorStore) Append(ctx context.Context, ev *models.BehaviorEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(behaviorKey(ev.Timestamp, ev.ID), data)
	})
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *badgerBehaviorStore) RecentByType(ctx context.Context, t models.BehaviorType, since time.Time, limit int) ([]*models.BehaviorEvent, error) {
	var out []*models.BehaviorEvent
	prefix := []byte(behaviorKeyPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek past the last behavior key, then walk newest to oldest.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var ev models.BehaviorEvent
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &ev)
			}); err != nil {
				return err
			}
			if ev.Timestamp.Before(since) {
				return nil
			}
			if ev.Type != t {
				continue
			}
			out = append(out, &ev)
			if limit > 0 && len(out) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return out, nil
}

func (s *badgerBehaviorStore) PopularityCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	counts := make(map[string]int)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(behaviorKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Start at the first key on or after since.
		start := []byte(fmt.Sprintf("%s%020d:", behaviorKeyPrefix, since.UnixNano()))
		for it.Seek(start); it.Valid(); it.Next() {
			var ev models.BehaviorEvent
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &ev)
			}); err != nil {
				return err
			}
			if ev.RoomID != "" {
				counts[ev.RoomID]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("popularity counts: %w", err)
	}
	return counts, nil
}

var (
	_ FeatureStore  = (*badgerFeatureStore)(nil)
	_ ProfileStore  = (*badgerProfileStore)(nil)
	_ BehaviorStore = (*badgerBehaviorStore)(nil)
)
