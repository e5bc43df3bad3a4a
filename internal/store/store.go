// Package store persists per-run artifacts (requirements, generated files,
// validation results) in a local bbolt database so past runs can be inspected
// after the process exits. One database serves many runs; every key is
// namespaced by the run's ID.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Grego-GT/spielberg/internal/types"
)

// Bucket names. One bucket per artifact kind.
const (
	bucketRuns         = "runs"
	bucketRequirements = "requirements"
	bucketFiles        = "files"
	bucketResults      = "results"
)

// Store is a bbolt-backed artifact store.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the store at path and ensures all buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketRuns, bucketRequirements, bucketFiles, bucketResults} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// putJSON marshals v and stores it under bucket/key.
func (s *Store) putJSON(bucket, key string, v any) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s/%s: %w", bucket, key, err)
		}
		return tx.Bucket([]byte(bucket)).Put([]byte(key), data)
	})
}

// getJSON loads bucket/key into out. Returns an error when the key is absent.
func (s *Store) getJSON(bucket, key string, out any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucket)).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("not found: %s/%s", bucket, key)
		}
		return json.Unmarshal(data, out)
	})
}

// SaveRunRecord stores the summary record for one run.
func (s *Store) SaveRunRecord(rec *types.RunRecord) error {
	return s.putJSON(bucketRuns, rec.ID, rec)
}

// GetRunRecord loads the summary record for one run.
func (s *Store) GetRunRecord(runID string) (*types.RunRecord, error) {
	var rec types.RunRecord
	if err := s.getJSON(bucketRuns, runID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRunRecords returns all stored run records.
func (s *Store) ListRunRecords() ([]types.RunRecord, error) {
	var records []types.RunRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketRuns)).ForEach(func(_, v []byte) error {
			var rec types.RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// SaveRequirements stores the requirements record produced for runID.
func (s *Store) SaveRequirements(runID string, req *types.Requirements) error {
	return s.putJSON(bucketRequirements, runID, req)
}

// GetRequirements loads the requirements record for runID.
func (s *Store) GetRequirements(runID string) (*types.Requirements, error) {
	var req types.Requirements
	if err := s.getJSON(bucketRequirements, runID, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// SaveFileSet stores every generated file for runID, one entry per path.
func (s *Store) SaveFileSet(runID string, files types.FileSet) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketFiles))
		for path, content := range files {
			key := runID + "/" + path
			if err := b.Put([]byte(key), []byte(content)); err != nil {
				return fmt.Errorf("put %s: %w", key, err)
			}
		}
		return nil
	})
}

// GetFile loads one generated file for runID by its relative path.
func (s *Store) GetFile(runID, path string) (string, error) {
	var content string
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketFiles)).Get([]byte(runID + "/" + path))
		if data == nil {
			return fmt.Errorf("not found: %s/%s", runID, path)
		}
		content = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// SaveResult stores the terminal validation result for runID.
func (s *Store) SaveResult(runID string, result *types.ValidationResult) error {
	return s.putJSON(bucketResults, runID, result)
}

// GetResult loads the terminal validation result for runID.
func (s *Store) GetResult(runID string) (*types.ValidationResult, error) {
	var result types.ValidationResult
	if err := s.getJSON(bucketResults, runID, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
