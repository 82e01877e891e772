package booking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iliyamo/studio-slot-reservation/internal/catalog"
	"github.com/iliyamo/studio-slot-reservation/internal/model"
	"github.com/iliyamo/studio-slot-reservation/internal/repository"
)

// Monday 2 June 2025, 10:00 UTC.
var testNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

var (
	alice = Caller{Identity: "5550001111", Name: "Alice"}
	bob   = Caller{Identity: "5550002222", Name: "Bob"}
	admin = Caller{Identity: "5550009999", Name: "Admin", IsAdmin: true}
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	venues := []model.Venue{
		{
			ID:    "kadikoy",
			Name:  "Kadıköy",
			Areas: []string{"Ana Salon"},
			Hours: model.OpeningHours{
				Weekday: model.HoursRule{Open: 16 * 60, Close: 22 * 60},
				Weekend: model.HoursRule{Open: 12 * 60, Close: 22 * 60},
			},
		},
		{
			ID:    "sisli",
			Name:  "Şişli",
			Areas: []string{"Büyük Stüdyo", "Küçük Stüdyo"},
			Hours: model.OpeningHours{
				Weekday: model.HoursRule{Open: 12 * 60, Close: 22 * 60},
				Weekend: model.HoursRule{Open: 12 * 60, Close: 22 * 60},
			},
		},
	}
	c, err := catalog.New(venues, nil)
	if err != nil {
		t.Fatalf("catalog.New returned error: %v", err)
	}
	return c
}

func newTestEngine(t *testing.T, store repository.OccupancyStore, opts ...Option) (*Engine, *repository.MemoryStore) {
	t.Helper()
	activity := repository.NewMemoryStore()
	if store == nil {
		store = repository.NewMemoryStore()
	}
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewEngine(testCatalog(t), store, activity, opts...), activity
}

// flakyStore fails the first n calls of selected operations.
type flakyStore struct {
	repository.OccupancyStore
	insertFailures int32
	commitFirst    bool
	upsertErr      func(model.SlotKey) error
}

var errFlaky = errors.New("connection reset")

func (s *flakyStore) InsertIfAbsent(ctx context.Context, occ model.Occupancy) error {
	if atomic.AddInt32(&s.insertFailures, -1) >= 0 {
		if s.commitFirst {
			_ = s.OccupancyStore.InsertIfAbsent(ctx, occ)
		}
		return errFlaky
	}
	return s.OccupancyStore.InsertIfAbsent(ctx, occ)
}

func (s *flakyStore) Upsert(ctx context.Context, occ model.Occupancy) error {
	if s.upsertErr != nil {
		if err := s.upsertErr(occ.Key); err != nil {
			return err
		}
	}
	return s.OccupancyStore.Upsert(ctx, occ)
}

type failingActivity struct{ *repository.MemoryStore }

func (failingActivity) Append(context.Context, model.ActivityEntry) error { return errFlaky }

type recordingPublisher struct {
	mu      sync.Mutex
	entries []model.ActivityEntry
	err     error
}

func (p *recordingPublisher) PublishActivity(_ context.Context, e model.ActivityEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, e)
	return p.err
}

func statusOf(t *testing.T, views []SlotView, slot string) SlotView {
	t.Helper()
	for _, v := range views {
		if v.Slot == slot {
			return v
		}
	}
	t.Fatalf("slot %s not in availability listing", slot)
	return SlotView{}
}

func TestReserveAndListAvailability(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if err := e.Reserve(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", alice); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}

	views, err := e.ListAvailability(ctx, "kadikoy", "Ana Salon", "2025-06-02", alice)
	if err != nil {
		t.Fatalf("ListAvailability returned error: %v", err)
	}
	if len(views) != 12 {
		t.Fatalf("got %d slots, want 12", len(views))
	}
	got := statusOf(t, views, "18:00")
	if got.Status != model.SlotReserved || got.HolderName != "Alice" || !got.IsOwnSlot {
		t.Fatalf("18:00 = %+v, want reserved by Alice and own", got)
	}
	if v := statusOf(t, views, "18:30"); v.Status != model.SlotOpen {
		t.Fatalf("18:30 = %+v, want open", v)
	}

	views, _ = e.ListAvailability(ctx, "kadikoy", "Ana Salon", "2025-06-02", bob)
	if v := statusOf(t, views, "18:00"); v.IsOwnSlot {
		t.Fatal("Bob should not see Alice's slot as his own")
	}

	entries, err := e.RecentActivity(ctx, 0)
	if err != nil {
		t.Fatalf("RecentActivity returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != model.ActionReserve || entries[0].ActorName != "Alice" {
		t.Fatalf("activity = %+v, want one reserve by Alice", entries)
	}
	if entries[0].ID == "" {
		t.Fatal("activity entry should have an id")
	}
}

func TestReserveRejects(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	if err := e.Reserve(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", alice); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}

	cases := []struct {
		name   string
		venue  string
		area   string
		date   string
		slot   string
		caller Caller
		want   error
	}{
		{"occupied slot", "kadikoy", "Ana Salon", "2025-06-02", "18:00", bob, ErrConflict},
		{"unknown venue", "besiktas", "Ana Salon", "2025-06-02", "18:00", bob, ErrUnknownVenue},
		{"unknown area", "kadikoy", "Perdeli Alan", "2025-06-02", "18:00", bob, ErrUnknownArea},
		{"bad date", "kadikoy", "Ana Salon", "2025-13-40", "18:00", bob, ErrInvalidDate},
		{"malformed slot", "kadikoy", "Ana Salon", "2025-06-02", "6pm", bob, ErrInvalidSlot},
		{"unaligned slot", "kadikoy", "Ana Salon", "2025-06-02", "18:15", bob, ErrInvalidSlot},
		{"before weekday opening", "kadikoy", "Ana Salon", "2025-06-02", "12:00", bob, ErrInvalidSlot},
		{"anonymous caller", "kadikoy", "Ana Salon", "2025-06-02", "19:00", Caller{Name: "x"}, ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := e.Reserve(ctx, tc.venue, tc.area, tc.date, tc.slot, tc.caller)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Reserve error = %v, want %v", err, tc.want)
			}
		})
	}

	t.Run("weekend opens at noon", func(t *testing.T) {
		if err := e.Reserve(ctx, "kadikoy", "Ana Salon", "2025-06-07", "12:00", bob); err != nil {
			t.Fatalf("Reserve on saturday returned error: %v", err)
		}
	})
}

func TestConcurrentReserveHasSingleWinner(t *testing.T) {
	e, activity := newTestEngine(t, nil)
	ctx := context.Background()

	const n = 32
	var (
		wg        sync.WaitGroup
		wins      int32
		conflicts int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := Caller{Identity: string(rune('a' + i%26)) + "-member", Name: "Member"}
			if i >= 26 {
				c.Identity += "-2"
			}
			switch err := e.Reserve(ctx, "sisli", "Büyük Stüdyo", "2025-06-03", "20:00", c); {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case errors.Is(err, ErrConflict):
				atomic.AddInt32(&conflicts, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 || conflicts != n-1 {
		t.Fatalf("wins = %d, conflicts = %d, want 1 and %d", wins, conflicts, n-1)
	}
	entries, _ := activity.Recent(ctx, 100)
	if len(entries) != 1 {
		t.Fatalf("got %d activity entries, want 1", len(entries))
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("holder cancels and slot reopens", func(t *testing.T) {
		e, activity := newTestEngine(t, nil)
		if err := e.Reserve(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", alice); err != nil {
			t.Fatalf("Reserve returned error: %v", err)
		}
		if err := e.Cancel(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", alice); err != nil {
			t.Fatalf("Cancel returned error: %v", err)
		}
		views, _ := e.ListAvailability(ctx, "kadikoy", "Ana Salon", "2025-06-02", alice)
		if v := statusOf(t, views, "18:00"); v.Status != model.SlotOpen {
			t.Fatalf("18:00 after cancel = %+v, want open", v)
		}
		entries, _ := activity.Recent(ctx, 10)
		if len(entries) != 2 || entries[0].Action != model.ActionCancel {
			t.Fatalf("activity = %+v, want cancel newest", entries)
		}
		if err := e.Reserve(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", bob); err != nil {
			t.Fatalf("Reserve after cancel returned error: %v", err)
		}
	})

	t.Run("other member is forbidden", func(t *testing.T) {
		e, _ := newTestEngine(t, nil)
		_ = e.Reserve(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", alice)
		err := e.Cancel(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", bob)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("Cancel error = %v, want ErrForbidden", err)
		}
		views, _ := e.ListAvailability(ctx, "kadikoy", "Ana Salon", "2025-06-02", alice)
		if v := statusOf(t, views, "18:00"); v.Status != model.SlotReserved {
			t.Fatalf("18:00 = %+v, want still reserved", v)
		}
	})

	t.Run("admin may cancel anyone", func(t *testing.T) {
		e, activity := newTestEngine(t, nil)
		_ = e.Reserve(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", alice)
		if err := e.Cancel(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", admin); err != nil {
			t.Fatalf("admin Cancel returned error: %v", err)
		}
		entries, _ := activity.Recent(ctx, 1)
		if len(entries) != 1 || entries[0].ActorName != "Admin" {
			t.Fatalf("activity = %+v, want cancel attributed to Admin", entries)
		}
	})

	t.Run("empty slot is not found", func(t *testing.T) {
		e, _ := newTestEngine(t, nil)
		err := e.Cancel(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", alice)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Cancel error = %v, want ErrNotFound", err)
		}
	})

	t.Run("blocks are never cancelled", func(t *testing.T) {
		store := repository.NewMemoryStore()
		e, _ := newTestEngine(t, store)
		key := model.SlotKey{Venue: "kadikoy", Area: "Ana Salon", Date: "2025-06-02", Slot: "18:00"}
		if err := store.Upsert(ctx, model.NewBlock(key, testNow)); err != nil {
			t.Fatalf("Upsert returned error: %v", err)
		}
		for _, c := range []Caller{alice, admin} {
			if err := e.Cancel(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", c); !errors.Is(err, ErrForbidden) {
				t.Fatalf("Cancel by %s error = %v, want ErrForbidden", c.Name, err)
			}
		}
		if _, err := store.Get(ctx, key); err != nil {
			t.Fatalf("block should survive, Get returned %v", err)
		}
	})
}

func TestReserveRetriesTransientFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("second attempt succeeds", func(t *testing.T) {
		store := &flakyStore{OccupancyStore: repository.NewMemoryStore(), insertFailures: 1}
		e, activity := newTestEngine(t, store)
		if err := e.Reserve(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", alice); err != nil {
			t.Fatalf("Reserve returned error: %v", err)
		}
		entries, _ := activity.Recent(ctx, 10)
		if len(entries) != 1 {
			t.Fatalf("got %d activity entries, want 1", len(entries))
		}
	})

	t.Run("first attempt committed despite error", func(t *testing.T) {
		store := &flakyStore{OccupancyStore: repository.NewMemoryStore(), insertFailures: 1, commitFirst: true}
		e, _ := newTestEngine(t, store)
		if err := e.Reserve(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", alice); err != nil {
			t.Fatalf("Reserve returned error: %v, want success for a landed write", err)
		}
	})

	t.Run("persistent failure is store unavailable", func(t *testing.T) {
		store := &flakyStore{OccupancyStore: repository.NewMemoryStore(), insertFailures: 2}
		e, activity := newTestEngine(t, store)
		err := e.Reserve(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", alice)
		if !errors.Is(err, ErrStoreUnavailable) || !errors.Is(err, errFlaky) {
			t.Fatalf("Reserve error = %v, want ErrStoreUnavailable wrapping the cause", err)
		}
		if entries, _ := activity.Recent(ctx, 10); len(entries) != 0 {
			t.Fatalf("failed reserve recorded activity: %+v", entries)
		}
	})

	t.Run("cancelled context is not retried", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		e, _ := newTestEngine(t, nil)
		err := e.Reserve(cctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", alice)
		if !errors.Is(err, ErrStoreUnavailable) || !errors.Is(err, context.Canceled) {
			t.Fatalf("Reserve error = %v, want ErrStoreUnavailable wrapping context.Canceled", err)
		}
	})
}

func TestActivityFailuresAreNotFatal(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	e := NewEngine(testCatalog(t), store, failingActivity{repository.NewMemoryStore()},
		WithClock(func() time.Time { return testNow }))

	if err := e.Reserve(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", alice); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
	key := model.SlotKey{Venue: "kadikoy", Area: "Ana Salon", Date: "2025-06-02", Slot: "18:00"}
	if _, err := store.Get(ctx, key); err != nil {
		t.Fatalf("reservation missing after activity failure: %v", err)
	}
}

func TestPublisherReceivesEntries(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errFlaky}
	e, _ := newTestEngine(t, nil, WithPublisher(pub))

	if err := e.Reserve(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", alice); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
	if err := e.Cancel(ctx, "kadikoy", "Ana Salon", "2025-06-02", "18:00", alice); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if len(pub.entries) != 2 {
		t.Fatalf("published %d entries, want 2", len(pub.entries))
	}
	if pub.entries[0].Action != model.ActionReserve || pub.entries[1].Action != model.ActionCancel {
		t.Fatalf("published actions = %s, %s", pub.entries[0].Action, pub.entries[1].Action)
	}
}

func TestRecentActivityLimit(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, nil)
	for _, s := range []string{"16:00", "16:30", "17:00"} {
		if err := e.Reserve(ctx, "kadikoy", "Ana Salon", "2025-06-02", s, alice); err != nil {
			t.Fatalf("Reserve %s returned error: %v", s, err)
		}
	}
	got, err := e.RecentActivity(ctx, 2)
	if err != nil {
		t.Fatalf("RecentActivity returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
}

func TestUpcomingDays(t *testing.T) {
	e, _ := newTestEngine(t, nil, WithHorizonDays(10))
	days := e.UpcomingDays(14)
	if len(days) != 10 {
		t.Fatalf("got %d days, want horizon of 10", len(days))
	}
	if days[0].Date != "2025-06-02" || days[0].Weekday != "Monday" || days[0].Weekend {
		t.Fatalf("first day = %+v", days[0])
	}
	if !days[5].Weekend || days[5].Date != "2025-06-07" {
		t.Fatalf("sixth day = %+v, want saturday 2025-06-07", days[5])
	}
}
