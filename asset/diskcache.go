package asset

// diskcache.go is a Badger-backed second tier that remembers an asset's raw
// bytes by Cid, grounded on examples/disk_eject/main.go's eject/load
// pattern. The server writes every successfully loaded asset's bytes here
// (Put) but never reads them back; Get is available to other callers. The
// filesystem pack is always the source the server loads from.

import (
	badger "github.com/dgraph-io/badger/v4"
)

// DiskCache wraps a Badger database keyed by Cid.
type DiskCache struct {
	db *badger.DB
}

// OpenDiskCache opens (or creates) a Badger database at dir.
func OpenDiskCache(dir string) (*DiskCache, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &DiskCache{db: db}, nil
}

// Close releases the underlying Badger database.
func (d *DiskCache) Close() error { return d.db.Close() }

// Get returns the cached bytes for cid, or ok=false on a cache miss.
func (d *DiskCache) Get(cid Cid) (bytes []byte, ok bool) {
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cid[:])
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			bytes = append([]byte(nil), v...)
			return nil
		})
	})
	return bytes, err == nil
}

// Put persists bytes under cid.
func (d *DiskCache) Put(cid Cid, bytes []byte) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cid[:], bytes)
	})
}
