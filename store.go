package idgraph

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoRecord is returned by Store.Get for an unknown key.
var ErrNoRecord = errors.New("no such record")

// Store is the abstract keyed persistence the core depends on: one keyed
// record set per collection, whole-collection read and write semantics
// underneath. The core never assumes anything richer (no transactions, no
// queries); see FileStore for the flat-file implementation.
type Store interface {
	// Get unmarshals the record at (collection, key) into v, or returns
	// ErrNoRecord.
	Get(collection, key string, v any) error
	// Put writes the record at (collection, key), replacing any previous
	// value.
	Put(collection, key string, v any) error
	// List returns the raw records of a collection in stable key order.
	List(collection string) ([]json.RawMessage, error)
	// Delete removes the record at (collection, key). Deleting an unknown
	// key is not an error.
	Delete(collection, key string) error
}

// MemStore is an in-memory Store, used by tests and as the working set of a
// command batch.
type MemStore struct {
	data map[string]map[string]json.RawMessage
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]map[string]json.RawMessage)}
}

func (m *MemStore) Get(collection, key string, v any) error {
	raw, ok := m.data[collection][key]
	if !ok {
		return ErrNoRecord
	}
	return json.Unmarshal(raw, v)
}

func (m *MemStore) Put(collection, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]json.RawMessage)
	}
	m.data[collection][key] = raw
	return nil
}

func (m *MemStore) List(collection string) ([]json.RawMessage, error) {
	col := m.data[collection]
	keys := make([]string, 0, len(col))
	for k := range col {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]json.RawMessage, 0, len(keys))
	for _, k := range keys {
		out = append(out, col[k])
	}
	return out, nil
}

func (m *MemStore) Delete(collection, key string) error {
	delete(m.data[collection], key)
	return nil
}

// FileStore persists each collection as one JSONL file under a directory, in
// a way that is still human-readable and git-friendly. Records are written
// one per line, sorted by key, so that rewriting a collection produces
// minimal diffs.
//
// Each line is `{"key":..., "value":...}`: the store has no opinion about
// the value's shape, the key lives beside it.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create store directory %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dir, collection+".jsonl")
}

type jrecord struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// readAll loads a collection file into key order-preserving form. A missing
// file is an empty collection.
func (s *FileStore) readAll(collection string) (map[string]json.RawMessage, error) {
	f, err := os.Open(s.path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records := make(map[string]json.RawMessage)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec jrecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("format error in %q on line %d: %w", s.path(collection), n, err)
		}
		records[rec.Key] = rec.Value
	}
	return records, scanner.Err()
}

// writeAll rewrites a collection file from scratch, sorted by key.
func (s *FileStore) writeAll(collection string, records map[string]json.RawMessage) error {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tmp := s.path(collection) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, k := range keys {
		var jw jsonObjectWriter
		jw.Append("key", k)
		jw.Append("value", records[k])
		line, err := jw.MarshalJSON()
		if err != nil {
			f.Close()
			return err
		}
		w.Write(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(collection))
}

func (s *FileStore) Get(collection, key string, v any) error {
	records, err := s.readAll(collection)
	if err != nil {
		return err
	}
	raw, ok := records[key]
	if !ok {
		return ErrNoRecord
	}
	return json.Unmarshal(raw, v)
}

func (s *FileStore) Put(collection, key string, v any) error {
	records, err := s.readAll(collection)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	records[key] = raw
	return s.writeAll(collection, records)
}

func (s *FileStore) List(collection string) ([]json.RawMessage, error) {
	records, err := s.readAll(collection)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]json.RawMessage, 0, len(keys))
	for _, k := range keys {
		out = append(out, records[k])
	}
	return out, nil
}

func (s *FileStore) Delete(collection, key string) error {
	records, err := s.readAll(collection)
	if err != nil {
		return err
	}
	if _, ok := records[key]; !ok {
		return nil
	}
	delete(records, key)
	return s.writeAll(collection, records)
}

var _ Store = (*MemStore)(nil)
var _ Store = (*FileStore)(nil)
