package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iliyamo/studio-slot-reservation/internal/database"
	"github.com/iliyamo/studio-slot-reservation/internal/model"
)

type storeUnderTest interface {
	OccupancyStore
	ActivityStore
}

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := NewSQLStore(db, SQLite{})
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// Migrate must be repeatable.
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	return s
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) storeUnderTest { return NewMemoryStore() })
}

func TestSQLiteStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) storeUnderTest { return newSQLiteStore(t) })
}

func runStoreContract(t *testing.T, newStore func(t *testing.T) storeUnderTest) {
	ctx := context.Background()
	key := model.SlotKey{Venue: "kadikoy", Area: "Ana Salon", Date: "2025-06-02", Slot: "18:00"}
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	alice := model.Occupancy{Key: key, HolderName: "Alice", HolderIdentity: "A1", CreatedAt: at}

	t.Run("insert if absent then conflict", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get on empty store = %v, want ErrNotFound", err)
		}
		if err := s.InsertIfAbsent(ctx, alice); err != nil {
			t.Fatalf("InsertIfAbsent: %v", err)
		}
		bob := alice
		bob.HolderName, bob.HolderIdentity = "Bob", "B1"
		if err := s.InsertIfAbsent(ctx, bob); !errors.Is(err, ErrConflict) {
			t.Fatalf("second InsertIfAbsent = %v, want ErrConflict", err)
		}
		got, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.HolderIdentity != "A1" || got.HolderName != "Alice" || got.Blocked {
			t.Fatalf("Get = %+v, want Alice's reservation", got)
		}
		if !got.CreatedAt.Equal(at) {
			t.Fatalf("CreatedAt = %v, want %v", got.CreatedAt, at)
		}
	})

	t.Run("concurrent inserts have exactly one winner", func(t *testing.T) {
		s := newStore(t)
		const n = 16
		var wins, conflicts int32
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.InsertIfAbsent(ctx, alice)
				switch {
				case err == nil:
					atomic.AddInt32(&wins, 1)
				case errors.Is(err, ErrConflict):
					atomic.AddInt32(&conflicts, 1)
				default:
					t.Errorf("InsertIfAbsent: %v", err)
				}
			}()
		}
		wg.Wait()
		if wins != 1 || conflicts != n-1 {
			t.Fatalf("wins=%d conflicts=%d, want 1 and %d", wins, conflicts, n-1)
		}
	})

	t.Run("upsert overwrites a reservation with a block", func(t *testing.T) {
		s := newStore(t)
		if err := s.InsertIfAbsent(ctx, alice); err != nil {
			t.Fatalf("InsertIfAbsent: %v", err)
		}
		if err := s.Upsert(ctx, model.NewBlock(key, at)); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		if err := s.Upsert(ctx, model.NewBlock(key, at)); err != nil {
			t.Fatalf("repeated Upsert: %v", err)
		}
		got, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !got.Blocked || got.HolderName != "" || got.HolderIdentity != "" {
			t.Fatalf("Get = %+v, want a block without holder", got)
		}
	})

	t.Run("conditional deletes", func(t *testing.T) {
		s := newStore(t)
		if err := s.InsertIfAbsent(ctx, alice); err != nil {
			t.Fatalf("InsertIfAbsent: %v", err)
		}
		if ok, err := s.DeleteBlocked(ctx, key); err != nil || ok {
			t.Fatalf("DeleteBlocked on reservation = %v, %v; want false", ok, err)
		}
		if ok, err := s.DeleteHeld(ctx, key, "B1"); err != nil || ok {
			t.Fatalf("DeleteHeld by other identity = %v, %v; want false", ok, err)
		}
		if ok, err := s.DeleteHeld(ctx, key, "A1"); err != nil || !ok {
			t.Fatalf("DeleteHeld by holder = %v, %v; want true", ok, err)
		}
		if ok, err := s.DeleteHeld(ctx, key, "A1"); err != nil || ok {
			t.Fatalf("DeleteHeld on empty key = %v, %v; want false", ok, err)
		}

		if err := s.Upsert(ctx, model.NewBlock(key, at)); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		if ok, err := s.DeleteHeld(ctx, key, ""); err != nil || ok {
			t.Fatalf("DeleteHeld on block = %v, %v; want false", ok, err)
		}
		if ok, err := s.DeleteBlocked(ctx, key); err != nil || !ok {
			t.Fatalf("DeleteBlocked on block = %v, %v; want true", ok, err)
		}
		if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get after delete = %v, want ErrNotFound", err)
		}
	})

	t.Run("list day is scoped to venue area and date", func(t *testing.T) {
		s := newStore(t)
		rows := []model.Occupancy{
			alice,
			model.NewBlock(model.SlotKey{Venue: "kadikoy", Area: "Ana Salon", Date: "2025-06-02", Slot: "16:00"}, at),
			{Key: model.SlotKey{Venue: "kadikoy", Area: "Ana Salon", Date: "2025-06-03", Slot: "18:00"}, HolderName: "C", HolderIdentity: "C1", CreatedAt: at},
			{Key: model.SlotKey{Venue: "sisli", Area: "Ana Salon", Date: "2025-06-02", Slot: "18:00"}, HolderName: "D", HolderIdentity: "D1", CreatedAt: at},
		}
		for _, r := range rows {
			if err := s.InsertIfAbsent(ctx, r); err != nil {
				t.Fatalf("InsertIfAbsent(%+v): %v", r.Key, err)
			}
		}
		got, err := s.ListDay(ctx, "kadikoy", "Ana Salon", "2025-06-02")
		if err != nil {
			t.Fatalf("ListDay: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("ListDay returned %d rows, want 2", len(got))
		}
		for _, occ := range got {
			if occ.Key.Slot == "16:00" && !occ.Blocked {
				t.Fatalf("16:00 should be blocked: %+v", occ)
			}
			if occ.Key.Slot == "18:00" && occ.HolderIdentity != "A1" {
				t.Fatalf("18:00 should be Alice's: %+v", occ)
			}
		}
	})

	t.Run("activity is returned newest first and bounded", func(t *testing.T) {
		s := newStore(t)
		base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			e := model.ActivityEntry{
				ID:        "00000000-0000-0000-0000-00000000000" + string(rune('0'+i)),
				ActorName: "Alice",
				Action:    model.ActionReserve,
				Venue:     "kadikoy",
				Area:      "Ana Salon",
				Date:      "2025-06-02",
				Slot:      "18:00",
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}
			if err := s.Append(ctx, e); err != nil {
				t.Fatalf("Append: %v", err)
			}
		}
		got, err := s.Recent(ctx, 3)
		if err != nil {
			t.Fatalf("Recent: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("Recent returned %d entries, want 3", len(got))
		}
		for i, e := range got {
			want := base.Add(time.Duration(4-i) * time.Minute)
			if !e.CreatedAt.Equal(want) {
				t.Fatalf("entry %d CreatedAt = %v, want %v", i, e.CreatedAt, want)
			}
			if e.Action != model.ActionReserve || e.ActorName != "Alice" {
				t.Fatalf("entry %d = %+v", i, e)
			}
		}
	})
}

func TestMemoryStoreHonoursContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.InsertIfAbsent(ctx, model.Occupancy{Key: model.SlotKey{Venue: "v"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("InsertIfAbsent with cancelled context = %v, want context.Canceled", err)
	}
}
