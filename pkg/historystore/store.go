package historystore

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/cuemby/stowsched/pkg/cluster"
	"github.com/cuemby/stowsched/pkg/types"
	"github.com/hashicorp/go-multierror"
	bolt "go.etcd.io/bbolt"
)

var bucketHistory = []byte("history")

// Store is the BoltDB-backed historic-record table. It caches every
// record in memory (history_data in the original) and only touches the
// database on Sync or on an explicit update, mirroring
// Scheduler.get_history's lazy sync-on-mismatch behaviour.
type Store struct {
	db    *bolt.DB
	cache map[string]*types.HistoricRecord
}

// Open opens (creating if necessary) the history database under dataDir.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "history.db")
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("historystore: open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketHistory)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("historystore: create bucket: %w", err)
	}

	s := &Store{db: db, cache: make(map[string]*types.HistoricRecord)}
	if err := s.loadCache(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) loadCache() error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		return b.ForEach(func(k, v []byte) error {
			var rec types.HistoricRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			s.cache[rec.CoupleID] = &rec
			return nil
		})
	})
}

// GetHistory returns the in-memory record table, re-syncing against
// the snapshot's groupsets first if the cached couple count has
// drifted (get_history in the original).
func (s *Store) GetHistory(snap *cluster.Snapshot, now int64) (map[string]*types.HistoricRecord, error) {
	if len(s.cache) != len(snap.Groupsets()) {
		if err := s.Sync(snap, now); err != nil {
			return nil, err
		}
	}
	return s.cache, nil
}

// Sync reconciles the persisted history table against the current set
// of groupsets: new groupsets get a fresh record stamped with now,
// groupsets no longer present are dropped. Mirrors sync_history.
//
// A single couple's put/delete failing does not abort the pass: every
// other couple is still reconciled, and the failures are aggregated
// into the returned error via go-multierror so the caller sees every
// couple that didn't sync, not just the first.
func (s *Store) Sync(snap *cluster.Snapshot, now int64) error {
	live := make(map[string]bool, len(snap.Groupsets()))
	for _, gs := range snap.Groupsets() {
		live[gs.ID] = true
	}

	toAdd := make([]string, 0)
	for id := range live {
		if _, ok := s.cache[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	toRemove := make([]string, 0)
	for id := range s.cache {
		if !live[id] {
			toRemove = append(toRemove, id)
		}
	}

	var result *multierror.Error

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		for _, id := range toAdd {
			rec := &types.HistoricRecord{CoupleID: id, RecoverTS: now, TTLCleanupTS: now}
			data, err := json.Marshal(rec)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("couple %s: %w", id, err))
				continue
			}
			if err := b.Put([]byte(id), data); err != nil {
				result = multierror.Append(result, fmt.Errorf("couple %s: %w", id, err))
				continue
			}
			s.cache[id] = rec
		}
		for _, id := range toRemove {
			if err := b.Delete([]byte(id)); err != nil {
				result = multierror.Append(result, fmt.Errorf("couple %s: %w", id, err))
				continue
			}
			delete(s.cache, id)
		}
		return nil
	})
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("historystore: sync: %w", err))
	}
	return result.ErrorOrNil()
}

// UpdateHistoricTs sets recoverTS and/or ttlCleanupTS for couple,
// passing 0 for whichever field should be left unchanged. Mirrors
// update_historic_ts / update_recover_ts / update_cleanup_ts.
func (s *Store) UpdateHistoricTs(coupleID string, recoverTS, ttlCleanupTS int64) error {
	if recoverTS == 0 && ttlCleanupTS == 0 {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)

		rec, ok := s.cache[coupleID]
		if !ok {
			rec = &types.HistoricRecord{CoupleID: coupleID}
		}
		if recoverTS != 0 {
			rec.RecoverTS = recoverTS
		}
		if ttlCleanupTS != 0 {
			rec.TTLCleanupTS = ttlCleanupTS
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(coupleID), data); err != nil {
			return err
		}
		s.cache[coupleID] = rec
		return nil
	})
}

// UpdateRecoverTs is a convenience wrapper over UpdateHistoricTs.
func (s *Store) UpdateRecoverTs(coupleID string, ts int64) error {
	return s.UpdateHistoricTs(coupleID, ts, 0)
}

// UpdateCleanupTs is a convenience wrapper over UpdateHistoricTs.
func (s *Store) UpdateCleanupTs(coupleID string, ts int64) error {
	return s.UpdateHistoricTs(coupleID, 0, ts)
}
