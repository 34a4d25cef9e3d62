package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"classload/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS loads (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS offerings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  loadId INTEGER NOT NULL,
  sourceFile TEXT NOT NULL,
  schoolYear TEXT NOT NULL,
  semester TEXT NOT NULL,
  instructorName TEXT NOT NULL,
  courseCode TEXT NOT NULL,
  subjectTitle TEXT NOT NULL,
  units INTEGER NOT NULL CHECK (units >= 0),
  department TEXT NOT NULL,
  yearLevel TEXT NOT NULL,
  block TEXT NOT NULL,
  employmentType TEXT NOT NULL,
  sessionType TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(loadId) REFERENCES loads(id)
);
CREATE INDEX IF NOT EXISTS idx_offerings_load ON offerings(loadId);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  loadId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(loadId) REFERENCES loads(id)
);

CREATE TABLE IF NOT EXISTS edit_journal (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  groupId TEXT NOT NULL,
  subjectCode TEXT NOT NULL,
  instructorName TEXT NOT NULL,
  sectionCode TEXT NOT NULL,
  field TEXT NOT NULL,
  origDay TEXT NOT NULL,
  origStart TEXT NOT NULL,
  origEnd TEXT NOT NULL,
  origRoom TEXT NOT NULL,
  newDay TEXT NOT NULL,
  newStart TEXT NOT NULL,
  newEnd TEXT NOT NULL,
  newRoom TEXT NOT NULL,
  status TEXT NOT NULL,
  message TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_edit_journal_group ON edit_journal(groupId);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertLoad(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.LoadRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO loads (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.LoadRow{}, err
	}

	row, err := d.GetLoadByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.LoadRow{}, err
	}
	if row == nil {
		return internal.LoadRow{}, errors.New("failed to upsert load")
	}
	return *row, nil
}

const loadColumns = `id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef`

func scanLoad(scan func(dest ...any) error) (internal.LoadRow, error) {
	var row internal.LoadRow
	err := scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef)
	return row, err
}

func (d *DB) GetLoadByProviderMessageID(provider, messageID string) (*internal.LoadRow, error) {
	row, err := scanLoad(d.conn.QueryRow(`SELECT `+loadColumns+` FROM loads WHERE provider = ? AND messageId = ?`, provider, messageID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetLoadByID(id int) (*internal.LoadRow, error) {
	row, err := scanLoad(d.conn.QueryRow(`SELECT `+loadColumns+` FROM loads WHERE id = ?`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) MustLoadByProviderMessageID(provider, messageID string) (internal.LoadRow, error) {
	row, err := d.GetLoadByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.LoadRow{}, err
	}
	if row == nil {
		return internal.LoadRow{}, fmt.Errorf("load not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}

func (d *DB) ListLoadsByStatus(status string, limit int) ([]internal.LoadRow, error) {
	rows, err := d.conn.Query(`SELECT `+loadColumns+` FROM loads WHERE status = ? ORDER BY receivedAt ASC LIMIT ?`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.LoadRow
	for rows.Next() {
		row, err := scanLoad(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateLoadStatus(loadID int, status string) error {
	_, err := d.conn.Exec(`UPDATE loads SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, loadID)
	return err
}

func (d *DB) ClearLoadOfferings(loadID int) error {
	_, err := d.conn.Exec(`DELETE FROM offerings WHERE loadId = ?`, loadID)
	return err
}

func (d *DB) InsertOfferings(loadID int, sourceFile string, result internal.IngestResult) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO offerings (
  loadId, sourceFile, schoolYear, semester, instructorName, courseCode, subjectTitle,
  units, department, yearLevel, block, employmentType, sessionType
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range result.Offerings {
		if _, err := stmt.Exec(
			loadID, sourceFile, result.SchoolYear, result.Semester, o.InstructorName, o.CourseCode, o.SubjectTitle,
			o.Units, o.Department, o.YearLevel, o.Block, string(o.EmploymentType), string(o.SessionType),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) GetExportRows(loadID int) ([]internal.OfferingExportRow, error) {
	rows, err := d.conn.Query(`
SELECT loadId, sourceFile, schoolYear, semester, instructorName, courseCode, subjectTitle,
       units, department, yearLevel, block, employmentType, sessionType
FROM offerings
WHERE loadId = ?
ORDER BY sourceFile ASC, id ASC
`, loadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.OfferingExportRow
	for rows.Next() {
		var row internal.OfferingExportRow
		var employment, session string
		if err := rows.Scan(
			&row.LoadID, &row.SourceFile, &row.SchoolYear, &row.Semester,
			&row.InstructorName, &row.CourseCode, &row.SubjectTitle,
			&row.Units, &row.Department, &row.YearLevel, &row.Block, &employment, &session,
		); err != nil {
			return nil, err
		}
		row.EmploymentType = internal.EmploymentType(employment)
		row.SessionType = internal.SessionType(session)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(traceID string, loadID int, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, loadId, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, loadID, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) AppendEdit(e internal.EditJournalEntry) error {
	_, err := d.conn.Exec(`
INSERT INTO edit_journal (
  groupId, subjectCode, instructorName, sectionCode, field,
  origDay, origStart, origEnd, origRoom, newDay, newStart, newEnd, newRoom, status, message
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.GroupID, e.SubjectCode, e.InstructorName, e.SectionCode, e.Field,
		e.OrigDay, e.OrigStart, e.OrigEnd, e.OrigRoom, e.NewDay, e.NewStart, e.NewEnd, e.NewRoom, e.Status, e.Message,
	)
	return err
}

func (d *DB) ListEdits(groupID string) ([]internal.EditJournalEntry, error) {
	rows, err := d.conn.Query(`
SELECT id, groupId, subjectCode, instructorName, sectionCode, field,
       origDay, origStart, origEnd, origRoom, newDay, newStart, newEnd, newRoom,
       status, COALESCE(message, ''), createdAt
FROM edit_journal WHERE groupId = ? ORDER BY id ASC
`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EditJournalEntry
	for rows.Next() {
		var e internal.EditJournalEntry
		if err := rows.Scan(
			&e.ID, &e.GroupID, &e.SubjectCode, &e.InstructorName, &e.SectionCode, &e.Field,
			&e.OrigDay, &e.OrigStart, &e.OrigEnd, &e.OrigRoom, &e.NewDay, &e.NewStart, &e.NewEnd, &e.NewRoom,
			&e.Status, &e.Message, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
