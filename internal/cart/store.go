package cart

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Store keeps the in-progress cart in a JSON file so it survives restarts,
// mirroring every mutation to disk and rehydrating on open.
type Store struct {
	mu   sync.Mutex
	file *os.File
	cart Cart
}

func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	s := &Store{file: f}
	if err := s.load(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.file.Close() }

func (s *Store) load() error {
	info, err := s.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return s.flushLocked()
	}
	return json.NewDecoder(s.file).Decode(&s.cart)
}

func (s *Store) flushLocked() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	enc := json.NewEncoder(s.file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&s.cart); err != nil {
		return err
	}
	// truncate in case new content is shorter
	pos, _ := s.file.Seek(0, io.SeekCurrent)
	if err := s.file.Truncate(pos); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *Store) update(fn func(*Cart)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cart)
	return s.flushLocked()
}

func (s *Store) Add(line Line) error {
	return s.update(func(c *Cart) { c.Add(line) })
}

func (s *Store) Remove(name string, sellerID int) error {
	return s.update(func(c *Cart) { c.Remove(name, sellerID) })
}

func (s *Store) UpdateQuantity(name string, sellerID, quantity int) error {
	return s.update(func(c *Cart) { c.UpdateQuantity(name, sellerID, quantity) })
}

func (s *Store) Clear() error {
	return s.update(func(c *Cart) { c.Clear() })
}

// Snapshot returns a copy of the current cart.
func (s *Store) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Cart{Lines: make([]Line, len(s.cart.Lines))}
	copy(out.Lines, s.cart.Lines)
	return out
}

func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}
