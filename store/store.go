// Package store is a goleveldb-backed provider holding chain and state
// data. Records are cramberry-encoded under prefixed keys.
package store

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/sirupsen/logrus"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/types"
)

var (
	_ lightreq.ChainProvider = (*Store)(nil)
	_ lightreq.StateProvider = (*Store)(nil)
)

const canonicalPrefix = "canon_0/"
const canonicalEnd = "canon_1"
const headersPrefix = "header_0/"
const bodiesPrefix = "body_0/"
const receiptsPrefix = "receipts_0/"
const txPrefix = "tx_0/"
const accountsPrefix = "account_0/"
const storagePrefix = "storage_0/"
const codePrefix = "code_0/"

func canonicalKey(num uint64) []byte {
	return []byte(fmt.Sprintf("%s%.20d", canonicalPrefix, num))
}

func prefixedKey(prefix string, parts ...types.Hash) []byte {
	key := []byte(prefix)
	for i, h := range parts {
		if i > 0 {
			key = append(key, '/')
		}
		key = append(key, h.String()...)
	}
	return key
}

// Options configures Open.
type Options struct {
	// SyncWrites fsyncs every write.
	SyncWrites bool
	// MaxHandles caps the open file cache. Zero uses the goleveldb default.
	MaxHandles int
}

// Store serves light requests from a leveldb database. Safe for
// concurrent use.
type Store struct {
	db         *leveldb.DB
	syncWrites bool
	log        *logrus.Entry
}

// Open opens or creates the database at path.
func Open(path string, opts Options) (*Store, error) {
	if path == "" {
		return nil, errors.New("store: database path missing")
	}
	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: opts.MaxHandles,
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return &Store{
		db:         db,
		syncWrites: opts.SyncWrites,
		log:        logrus.WithField("store", path),
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Capabilities reports that the store serves chain and state data.
func (s *Store) Capabilities() types.Capabilities {
	return types.CapChain | types.CapState
}

func (s *Store) writeOptions() *opt.WriteOptions {
	return &opt.WriteOptions{Sync: s.syncWrites}
}

func (s *Store) get(key []byte) ([]byte, error) {
	b, err := s.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", key, lightreq.ErrNotFound)
		}
		return nil, fmt.Errorf("store: read %s: %w", key, err)
	}
	return b, nil
}

func (s *Store) read(key []byte, target any) error {
	b, err := s.get(key)
	if err != nil {
		return err
	}
	if err := cramberry.Unmarshal(b, target); err != nil {
		return fmt.Errorf("store: decode %s: %w", key, err)
	}
	s.log.Debugf("Read %s", key)
	return nil
}

func (s *Store) write(key []byte, value any) error {
	b, err := cramberry.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := s.db.Put(key, b, s.writeOptions()); err != nil {
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	s.log.Debugf("Wrote %s", key)
	return nil
}

func batchPut(b *leveldb.Batch, key []byte, value any) error {
	data, err := cramberry.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	b.Put(key, data)
	return nil
}

// Head returns the highest canonical block number.
func (s *Store) Head() (uint64, error) {
	it := s.db.NewIterator(&util.Range{
		Start: []byte(canonicalPrefix),
		Limit: []byte(canonicalEnd),
	}, &opt.ReadOptions{DontFillCache: true})
	defer it.Release()
	if !it.Last() {
		if err := it.Error(); err != nil {
			return 0, fmt.Errorf("store: scan canonical index: %w", err)
		}
		return 0, fmt.Errorf("empty chain: %w", lightreq.ErrNotFound)
	}
	num, err := strconv.ParseUint(string(it.Key()[len(canonicalPrefix):]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("store: bad canonical key %s: %w", it.Key(), err)
	}
	return num, nil
}

// CanonicalHash returns the hash of canonical block num.
func (s *Store) CanonicalHash(num uint64) (types.Hash, error) {
	b, err := s.get(canonicalKey(num))
	if err != nil {
		return types.Hash{}, err
	}
	var h types.Hash
	copy(h[:], b)
	return h, nil
}
