package log

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter specifies criteria for filtering capture events.
// Empty/nil fields match all events for that criterion.
type Filter struct {
	// ConnectionID filters by exact connection ID match.
	ConnectionID string

	// Direction filters by data direction.
	Direction *Direction

	// Layer filters by capture layer.
	Layer *Layer

	// Category filters by event category.
	Category *Category

	// Medium filters by transport kind.
	Medium string

	// Instrument filters by catalog key.
	Instrument string

	// TimeStart filters events at or after this time.
	TimeStart *time.Time

	// TimeEnd filters events before this time.
	TimeEnd *time.Time
}

// Matches returns true if the event matches all filter criteria.
func (f *Filter) Matches(event Event) bool {
	if f.ConnectionID != "" && event.ConnectionID != f.ConnectionID {
		return false
	}
	if f.Direction != nil && event.Direction != *f.Direction {
		return false
	}
	if f.Layer != nil && event.Layer != *f.Layer {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.Medium != "" && event.Medium != f.Medium {
		return false
	}
	if f.Instrument != "" && event.Instrument != f.Instrument {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// Reader streams capture events from one or more CBOR files in order.
type Reader struct {
	filter    Filter
	rest      []string
	file      *os.File
	decoder   *cbor.Decoder
	truncated bool
}

// NewReader creates a Reader that reads all events from the capture file.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader creates a Reader that reads events matching the filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	return openReader([]string{path}, filter)
}

// NewRotatedReader reads <path>.1, when present, before path, so a capture
// rotated by WithMaxBytes reads back in order.
func NewRotatedReader(path string, filter Filter) (*Reader, error) {
	paths := []string{path}
	if _, err := os.Stat(path + ".1"); err == nil {
		paths = []string{path + ".1", path}
	}
	return openReader(paths, filter)
}

func openReader(paths []string, filter Filter) (*Reader, error) {
	r := &Reader{filter: filter, rest: paths}
	if err := r.advance(); err != nil {
		return nil, err
	}
	return r, nil
}

// advance closes the current file and opens the next one.
func (r *Reader) advance() error {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}
	f, err := os.Open(r.rest[0])
	if err != nil {
		return err
	}
	r.rest = r.rest[1:]
	r.file = f
	r.decoder = NewDecoder(f)
	return nil
}

// Next returns the next event that matches the filter, or io.EOF after
// the last file. A record cut short at the end of a file, as an
// interrupted run leaves it, ends that file and sets Truncated.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		err := r.decoder.Decode(&event)
		switch {
		case err == nil:
			if r.filter.Matches(event) {
				return event, nil
			}
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			if errors.Is(err, io.ErrUnexpectedEOF) {
				r.truncated = true
			}
			if len(r.rest) == 0 {
				return Event{}, io.EOF
			}
			if err := r.advance(); err != nil {
				return Event{}, err
			}
		default:
			return Event{}, err
		}
	}
}

// Truncated reports whether a file ended inside a record.
func (r *Reader) Truncated() bool { return r.truncated }

// Close closes the current file.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
