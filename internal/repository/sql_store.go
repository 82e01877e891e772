package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/studio-slot-reservation/internal/model"
)

// timestampLayout is fixed width so text columns sort chronologically.
const timestampLayout = "2006-01-02 15:04:05.000000"

// SQLStore implements OccupancyStore and ActivityStore over database/sql.
// The unique key on (venue, area, slot_date, slot_time) is what makes
// InsertIfAbsent atomic; duplicate-key errors are reported as ErrConflict.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore returns a SQLStore bound to db using the given dialect.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// Migrate creates the occupancy and activity tables if they are missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s schema: %w", s.dialect.Name(), err)
		}
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key model.SlotKey) (model.Occupancy, error) {
	const q = `SELECT venue, area, slot_date, slot_time, holder_name, holder_identity, blocked, created_at
               FROM occupancies
               WHERE venue = ? AND area = ? AND slot_date = ? AND slot_time = ?`
	occ, err := scanOccupancy(s.db.QueryRowContext(ctx, q, key.Venue, key.Area, key.Date, key.Slot))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Occupancy{}, ErrNotFound
	}
	return occ, err
}

func (s *SQLStore) ListDay(ctx context.Context, venue, area, date string) ([]model.Occupancy, error) {
	const q = `SELECT venue, area, slot_date, slot_time, holder_name, holder_identity, blocked, created_at
               FROM occupancies
               WHERE venue = ? AND area = ? AND slot_date = ?`
	rows, err := s.db.QueryContext(ctx, q, venue, area, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Occupancy
	for rows.Next() {
		occ, err := scanOccupancy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, occ)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) InsertIfAbsent(ctx context.Context, occ model.Occupancy) error {
	const q = `INSERT INTO occupancies (venue, area, slot_date, slot_time, holder_name, holder_identity, blocked, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, occupancyArgs(occ)...)
	if err != nil && s.dialect.IsDuplicate(err) {
		return ErrConflict
	}
	return err
}

func (s *SQLStore) Upsert(ctx context.Context, occ model.Occupancy) error {
	_, err := s.db.ExecContext(ctx, s.dialect.UpsertOccupancy(), occupancyArgs(occ)...)
	return err
}

func (s *SQLStore) DeleteHeld(ctx context.Context, key model.SlotKey, holderIdentity string) (bool, error) {
	const q = `DELETE FROM occupancies
               WHERE venue = ? AND area = ? AND slot_date = ? AND slot_time = ?
                 AND blocked = 0 AND holder_identity = ?`
	return s.deleteWhere(ctx, q, key.Venue, key.Area, key.Date, key.Slot, holderIdentity)
}

func (s *SQLStore) DeleteBlocked(ctx context.Context, key model.SlotKey) (bool, error) {
	const q = `DELETE FROM occupancies
               WHERE venue = ? AND area = ? AND slot_date = ? AND slot_time = ? AND blocked = 1`
	return s.deleteWhere(ctx, q, key.Venue, key.Area, key.Date, key.Slot)
}

func (s *SQLStore) deleteWhere(ctx context.Context, q string, args ...interface{}) (bool, error) {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) Append(ctx context.Context, e model.ActivityEntry) error {
	const q = `INSERT INTO activities (entry_id, actor_name, action, venue, area, slot_date, slot_time, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, e.ID, e.ActorName, string(e.Action), e.Venue, e.Area, e.Date, e.Slot,
		formatTimestamp(e.CreatedAt))
	return err
}

func (s *SQLStore) Recent(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	const q = `SELECT entry_id, actor_name, action, venue, area, slot_date, slot_time, created_at
               FROM activities
               ORDER BY created_at DESC, seq DESC
               LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ActivityEntry
	for rows.Next() {
		var (
			e       model.ActivityEntry
			action  string
			created dbTime
		)
		if err := rows.Scan(&e.ID, &e.ActorName, &action, &e.Venue, &e.Area, &e.Date, &e.Slot, &created); err != nil {
			return nil, err
		}
		e.Action = model.ActivityAction(action)
		e.CreatedAt = created.Time
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOccupancy(r rowScanner) (model.Occupancy, error) {
	var (
		occ      model.Occupancy
		name, id sql.NullString
		created  dbTime
	)
	err := r.Scan(&occ.Key.Venue, &occ.Key.Area, &occ.Key.Date, &occ.Key.Slot, &name, &id, &occ.Blocked, &created)
	if err != nil {
		return model.Occupancy{}, err
	}
	if !occ.Blocked {
		occ.HolderName = name.String
		occ.HolderIdentity = id.String
	}
	occ.CreatedAt = created.Time
	return occ, nil
}

func occupancyArgs(occ model.Occupancy) []interface{} {
	var name, id sql.NullString
	blocked := 0
	if occ.Blocked {
		blocked = 1
	} else {
		name = sql.NullString{String: occ.HolderName, Valid: true}
		id = sql.NullString{String: occ.HolderIdentity, Valid: true}
	}
	return []interface{}{occ.Key.Venue, occ.Key.Area, occ.Key.Date, occ.Key.Slot, name, id, blocked,
		formatTimestamp(occ.CreatedAt)}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timestampLayout)
}

// dbTime scans DATETIME values from MySQL (time.Time with parseTime=true)
// and TEXT timestamps from SQLite.
type dbTime struct{ time.Time }

var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
}

func (t *dbTime) Scan(v interface{}) error {
	switch x := v.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = x.UTC()
		return nil
	case []byte:
		return t.parse(string(x))
	case string:
		return t.parse(x)
	}
	return fmt.Errorf("unsupported timestamp type %T", v)
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timestampFormats {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}
