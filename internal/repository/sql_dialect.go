package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect captures the statements that differ between the SQL engines
// supported by SQLStore.  Both engines use "?" placeholders.
type Dialect interface {
	// Name identifies the dialect in logs.
	Name() string
	// Schema returns the statements that create the tables if missing.
	Schema() []string
	// UpsertOccupancy returns an insert that replaces the row on a
	// duplicate (venue, area, slot_date, slot_time) key.
	UpsertOccupancy() string
	// IsDuplicate reports whether err is a unique-key violation.
	IsDuplicate(err error) bool
}

// MySQL is the dialect for github.com/go-sql-driver/mysql.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS occupancies (
            id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
            venue VARCHAR(64) NOT NULL,
            area VARCHAR(128) NOT NULL,
            slot_date CHAR(10) NOT NULL,
            slot_time CHAR(5) NOT NULL,
            holder_name VARCHAR(128) NULL,
            holder_identity VARCHAR(64) NULL,
            blocked TINYINT(1) NOT NULL DEFAULT 0,
            created_at DATETIME(6) NOT NULL,
            UNIQUE KEY uq_occupancies_slot (venue, area, slot_date, slot_time)
        ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS activities (
            seq BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
            entry_id CHAR(36) NOT NULL,
            actor_name VARCHAR(128) NOT NULL,
            action VARCHAR(16) NOT NULL,
            venue VARCHAR(64) NOT NULL,
            area VARCHAR(128) NOT NULL,
            slot_date CHAR(10) NOT NULL,
            slot_time CHAR(5) NOT NULL,
            created_at DATETIME(6) NOT NULL,
            UNIQUE KEY uq_activities_entry (entry_id),
            KEY idx_activities_created (created_at)
        ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
}

func (MySQL) UpsertOccupancy() string {
	return `INSERT INTO occupancies (venue, area, slot_date, slot_time, holder_name, holder_identity, blocked, created_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)
            ON DUPLICATE KEY UPDATE holder_name = VALUES(holder_name), holder_identity = VALUES(holder_identity),
                blocked = VALUES(blocked), created_at = VALUES(created_at)`
}

// IsDuplicate matches MySQL error 1062 (ER_DUP_ENTRY).
func (MySQL) IsDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// SQLite is the dialect for modernc.org/sqlite.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS occupancies (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            venue TEXT NOT NULL,
            area TEXT NOT NULL,
            slot_date TEXT NOT NULL,
            slot_time TEXT NOT NULL,
            holder_name TEXT NULL,
            holder_identity TEXT NULL,
            blocked INTEGER NOT NULL DEFAULT 0,
            created_at TEXT NOT NULL,
            UNIQUE (venue, area, slot_date, slot_time)
        )`,
		`CREATE TABLE IF NOT EXISTS activities (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            entry_id TEXT NOT NULL UNIQUE,
            actor_name TEXT NOT NULL,
            action TEXT NOT NULL,
            venue TEXT NOT NULL,
            area TEXT NOT NULL,
            slot_date TEXT NOT NULL,
            slot_time TEXT NOT NULL,
            created_at TEXT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_activities_created ON activities (created_at)`,
	}
}

func (SQLite) UpsertOccupancy() string {
	return `INSERT INTO occupancies (venue, area, slot_date, slot_time, holder_name, holder_identity, blocked, created_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (venue, area, slot_date, slot_time) DO UPDATE SET holder_name = excluded.holder_name,
                holder_identity = excluded.holder_identity, blocked = excluded.blocked, created_at = excluded.created_at`
}

// IsDuplicate matches SQLITE_CONSTRAINT_UNIQUE and SQLITE_CONSTRAINT_PRIMARYKEY.
func (SQLite) IsDuplicate(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
