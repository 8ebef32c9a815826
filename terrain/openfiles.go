package terrain

import "os"

// openFileTable keeps up to maxOpen (defaultMaxOpenFiles) file descriptors open across
// tile accesses, reusing the round-robin slot array so repeated lookups
// within the same tile (or a small working set of tiles) don't re-open
// the file every time.
type openFileTable struct {
	maxOpen int
	slots   []openSlot
	next    int // round-robin cursor
}

type openSlot struct {
	path string
	f    *os.File
}

const defaultMaxOpenFiles = 32

func newOpenFileTable() *openFileTable {
	return &openFileTable{maxOpen: defaultMaxOpenFiles}
}

// open returns an open *os.File for path, reusing an existing slot if
// path is already open, or recycling the least-recently-assigned slot
// (round robin, not LRU: the table just bounds the descriptor count).
func (t *openFileTable) open(path string) (*os.File, error) {
	for _, s := range t.slots {
		if s.path == path {
			if _, err := s.f.Seek(0, 0); err != nil {
				return nil, err
			}
			return s.f, nil
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if len(t.slots) < t.maxOpen {
		t.slots = append(t.slots, openSlot{path: path, f: f})
		return f, nil
	}
	old := t.slots[t.next]
	if old.f != nil {
		old.f.Close()
	}
	t.slots[t.next] = openSlot{path: path, f: f}
	t.next = (t.next + 1) % t.maxOpen
	return f, nil
}

func (t *openFileTable) closeAll() {
	for _, s := range t.slots {
		if s.f != nil {
			s.f.Close()
		}
	}
	t.slots = nil
}
