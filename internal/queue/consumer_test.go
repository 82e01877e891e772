package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/studio-slot-reservation/internal/model"
)

func TestHandleMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "activity.log")
	entry := model.ActivityEntry{
		ID:        "e-1",
		ActorName: "Alice",
		Action:    model.ActionReserve,
		Venue:     "kadikoy",
		Area:      "Ana Salon",
		Date:      "2025-06-02",
		Slot:      "18:00",
		CreatedAt: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
	}
	body, err := json.Marshal(NewActivityRecordedEvent(entry, "Kadıköy"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := HandleMessage(path, body); err != nil {
			t.Fatalf("HandleMessage returned error: %v", err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for _, want := range []string{"reserve", "entry_id=e-1", `venue="Kadıköy"`, "slot=18:00", "2025-06-01T09:30:00Z"} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("line %q does not contain %q", lines[0], want)
		}
	}

	t.Run("rejects malformed body", func(t *testing.T) {
		if err := HandleMessage(path, []byte("{")); err == nil {
			t.Fatal("expected error for malformed json")
		}
		if err := HandleMessage(path, []byte(`{"action":"reserve"}`)); err == nil {
			t.Fatal("expected error for event without id")
		}
	})
}
