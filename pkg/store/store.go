package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("store closed")

// Reading is one polled value.
type Reading struct {
	Time       time.Time `cbor:"1,keyasint" json:"time"`
	Instrument string    `cbor:"2,keyasint" json:"instrument"`
	Name       string    `cbor:"3,keyasint" json:"name"`
	Args       []string  `cbor:"4,keyasint,omitempty" json:"args,omitempty"`
	Value      any       `cbor:"5,keyasint,omitempty" json:"value,omitempty"`
	Error      string    `cbor:"6,keyasint,omitempty" json:"error,omitempty"`
}

// OK reports whether the poll succeeded.
func (r Reading) OK() bool { return r.Error == "" }

// Config configures a Store.
type Config struct {
	// Timeout is how long Open waits for the file lock. Default: 1 second.
	Timeout time.Duration

	// Mode is the file mode for a new database. Default: 0644.
	Mode os.FileMode
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Timeout: time.Second,
		Mode:    0644,
	}
}

// Store is a bbolt-backed reading history. It is safe for concurrent use.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string, config Config) (*Store, error) {
	def := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.Mode == 0 {
		config.Mode = def.Mode
	}
	db, err := bolt.Open(path, config.Mode, &bolt.Options{Timeout: config.Timeout})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) view(fn func(*bolt.Tx) error) error { return closedErr(s.db.View(fn)) }

func (s *Store) update(fn func(*bolt.Tx) error) error { return closedErr(s.db.Update(fn)) }

func closedErr(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

// Path returns the database file path.
func (s *Store) Path() string { return s.db.Path() }

func key(t time.Time, name string) []byte {
	k := binary.BigEndian.AppendUint64(make([]byte, 0, 8+len(name)), uint64(t.UnixNano()))
	return append(k, name...)
}

func timeKey(t time.Time) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(t.UnixNano()))
}

// Put records r in its instrument's bucket.
func (s *Store) Put(r Reading) error {
	if r.Instrument == "" {
		return errors.New("store: reading without instrument")
	}
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	data, err := encMode.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}
	return s.update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(r.Instrument))
		if err != nil {
			return err
		}
		return b.Put(key(r.Time, r.Name), data)
	})
}

// Range returns the readings of instrument with from <= Time < to, oldest
// first. A zero from or to leaves that side open. A non-empty name keeps
// only readings of that command.
func (s *Store) Range(instrument, name string, from, to time.Time) ([]Reading, error) {
	var out []Reading
	err := s.view(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(instrument))
		if b == nil {
			return nil
		}
		c := b.Cursor()

		var k, v []byte
		if from.IsZero() {
			k, v = c.First()
		} else {
			k, v = c.Seek(timeKey(from))
		}
		var end []byte
		if !to.IsZero() {
			end = timeKey(to)
		}
		for ; k != nil; k, v = c.Next() {
			if end != nil && bytes.Compare(k[:8], end) >= 0 {
				break
			}
			if name != "" && string(k[8:]) != name {
				continue
			}
			var r Reading
			if err := decMode.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode reading %x: %w", k, err)
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// Latest returns the newest reading of name for instrument.
func (s *Store) Latest(instrument, name string) (Reading, bool, error) {
	var (
		r     Reading
		found bool
	)
	err := s.view(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(instrument))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if string(k[8:]) != name {
				continue
			}
			found = true
			return decMode.Unmarshal(v, &r)
		}
		return nil
	})
	return r, found, err
}

// Instruments returns the names of instruments with recorded readings.
func (s *Store) Instruments() ([]string, error) {
	var out []string
	err := s.view(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			out = append(out, string(name))
			return nil
		})
	})
	return out, err
}

// Prune deletes every reading older than before and returns how many
// were removed.
func (s *Store) Prune(before time.Time) (int, error) {
	limit := timeKey(before)
	n := 0
	err := s.update(func(tx *bolt.Tx) error {
		return tx.ForEach(func(_ []byte, b *bolt.Bucket) error {
			c := b.Cursor()
			for k, _ := c.First(); k != nil && bytes.Compare(k[:8], limit) < 0; k, _ = c.First() {
				if err := c.Delete(); err != nil {
					return err
				}
				n++
			}
			return nil
		})
	})
	return n, err
}
