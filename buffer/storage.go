package buffer

import (
	"badc0de.net/pkg/go-ascending/mapdata"
)

// StoredData caches loaded chunks by their "mx_my_mg" key, remembering the
// order they were first inserted in.
type StoredData struct {
	order  []string
	chunks map[string]*mapdata.Chunk
}

func NewStoredData() *StoredData {
	return &StoredData{chunks: make(map[string]*mapdata.Chunk)}
}

func (s *StoredData) Get(key mapdata.Key) (*mapdata.Chunk, bool) {
	c, ok := s.chunks[key.String()]
	return c, ok
}

func (s *StoredData) Contains(key mapdata.Key) bool {
	_, ok := s.chunks[key.String()]
	return ok
}

// Insert stores c under key. Replacing an entry keeps its position.
func (s *StoredData) Insert(key mapdata.Key, c *mapdata.Chunk) {
	k := key.String()
	if _, ok := s.chunks[k]; !ok {
		s.order = append(s.order, k)
	}
	s.chunks[k] = c
}

// Remove deletes key, shifting later entries down. Removing an absent key
// does nothing.
func (s *StoredData) Remove(key mapdata.Key) {
	k := key.String()
	if _, ok := s.chunks[k]; !ok {
		return
	}
	delete(s.chunks, k)
	for i, o := range s.order {
		if o == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Keys returns the stored keys in insertion order.
func (s *StoredData) Keys() []string {
	return append([]string(nil), s.order...)
}

// Chunks returns the stored chunks in insertion order.
func (s *StoredData) Chunks() []*mapdata.Chunk {
	out := make([]*mapdata.Chunk, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.chunks[k])
	}
	return out
}

func (s *StoredData) Len() int {
	return len(s.order)
}
