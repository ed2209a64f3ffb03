// Package cache implements the parse-artifact cache half of C9: a
// bbolt-backed key-value store keyed by (file path, content hash,
// parser version) so an unchanged file is rehydrated straight into the
// graph instead of being re-parsed, grounded on the bbolt idiom used
// for the identity-resolver cache in the retrieval pack.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/graph"
)

var bucketName = []byte("parse_artifacts")

func init() {
	// Node/Relationship Metadata values are always one of these concrete
	// types (callee_name/endpoint strings, call_line ints); gob needs
	// every concrete type that flows through an interface{} registered
	// before it can decode one.
	gob.Register("")
	gob.Register(0)
	gob.Register(0.0)
	gob.Register(false)
}

// Entry is the cached extraction output for one file at one content
// hash and parser version.
type Entry struct {
	Nodes         []*graph.Node
	Relationships []*graph.Relationship
}

// Store wraps a bbolt database file.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the bbolt file at path and ensures
// the artifact bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying bbolt file handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ContentHash returns the hex-encoded sha256 of content, the hash
// component of a cache key.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func key(filePath, contentHash, parserVersion string) []byte {
	return []byte(filePath + "\x00" + contentHash + "\x00" + parserVersion)
}

// Get returns the cached Entry for (filePath, contentHash,
// parserVersion), or ok=false on a miss.
func (s *Store) Get(filePath, contentHash, parserVersion string) (Entry, bool, error) {
	var entry Entry
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket == nil {
			return nil
		}
		data := bucket.Get(key(filePath, contentHash, parserVersion))
		if data == nil {
			return nil
		}
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
			return fmt.Errorf("cache: decode entry for %s: %w", filePath, err)
		}
		found = true
		return nil
	})
	if err != nil {
		return Entry{}, false, err
	}
	return entry, found, nil
}

// Put stores entry under (filePath, contentHash, parserVersion),
// overwriting any existing value.
func (s *Store) Put(filePath, contentHash, parserVersion string, entry Entry) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return fmt.Errorf("cache: encode entry for %s: %w", filePath, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		return bucket.Put(key(filePath, contentHash, parserVersion), buf.Bytes())
	})
}

// Invalidate removes any cached entry for filePath across all content
// hashes and parser versions seen so far, by bucket scan. Applied to a
// file deleted from the project, it keeps a later re-add with the same
// path/hash doesn't resurrect a stale artifact tied to a removed node
// id scheme.
func (s *Store) Invalidate(filePath string) error {
	prefix := []byte(filePath + "\x00")
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		c := bucket.Cursor()
		var toDelete [][]byte
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			toDelete = append(toDelete, append([]byte(nil), k...))
		}
		for _, k := range toDelete {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
