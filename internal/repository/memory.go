package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/studio-slot-reservation/internal/model"
)

// MemoryStore keeps occupancy and activity in process memory.  A single
// mutex serializes every write, which makes InsertIfAbsent atomic with
// respect to the key.  Data does not survive a restart.
type MemoryStore struct {
	mu       sync.Mutex
	rows     map[model.SlotKey]model.Occupancy
	activity []model.ActivityEntry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[model.SlotKey]model.Occupancy)}
}

func (s *MemoryStore) Get(ctx context.Context, key model.SlotKey) (model.Occupancy, error) {
	if err := ctx.Err(); err != nil {
		return model.Occupancy{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	occ, ok := s.rows[key]
	if !ok {
		return model.Occupancy{}, ErrNotFound
	}
	return occ, nil
}

func (s *MemoryStore) ListDay(ctx context.Context, venue, area, date string) ([]model.Occupancy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Occupancy
	for k, occ := range s.rows {
		if k.Venue == venue && k.Area == area && k.Date == date {
			out = append(out, occ)
		}
	}
	return out, nil
}

func (s *MemoryStore) InsertIfAbsent(ctx context.Context, occ model.Occupancy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[occ.Key]; exists {
		return ErrConflict
	}
	s.rows[occ.Key] = occ
	return nil
}

func (s *MemoryStore) Upsert(ctx context.Context, occ model.Occupancy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[occ.Key] = occ
	return nil
}

func (s *MemoryStore) DeleteHeld(ctx context.Context, key model.SlotKey, holderIdentity string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	occ, ok := s.rows[key]
	if !ok || occ.Blocked || occ.HolderIdentity != holderIdentity {
		return false, nil
	}
	delete(s.rows, key)
	return true, nil
}

func (s *MemoryStore) DeleteBlocked(ctx context.Context, key model.SlotKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	occ, ok := s.rows[key]
	if !ok || !occ.Blocked {
		return false, nil
	}
	delete(s.rows, key)
	return true, nil
}

func (s *MemoryStore) Append(ctx context.Context, entry model.ActivityEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, entry)
	return nil
}

func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := make([]model.ActivityEntry, len(s.activity))
	copy(out, s.activity)
	s.mu.Unlock()
	// Stable on insertion order so entries with equal timestamps still
	// come back newest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
