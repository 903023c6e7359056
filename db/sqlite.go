/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/labwave/models"

	// Register the pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

const sqliteTime = time.RFC3339Nano

// SQLiteStore keeps measurements in a single SQLite file. One connection
// is shared, so write transactions are serialized for every user.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates the database file and its schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "labwave.db"
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id TEXT PRIMARY KEY,
	date_of_birth TEXT,
	gender TEXT
);

CREATE TABLE IF NOT EXISTS uploads (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	filename TEXT NOT NULL DEFAULT '',
	format TEXT NOT NULL DEFAULT '',
	variant TEXT NOT NULL DEFAULT '',
	size_bytes INTEGER NOT NULL DEFAULT 0,
	received_at TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS uploads_user_idx ON uploads (user_id, received_at);

CREATE TABLE IF NOT EXISTS measurements (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	biomarker_code TEXT NOT NULL,
	value REAL NOT NULL,
	unit TEXT NOT NULL,
	day TEXT NOT NULL,
	source_kind TEXT NOT NULL,
	status TEXT NOT NULL,
	ref_low REAL,
	ref_high REAL,
	upload_id TEXT NOT NULL,
	original_name TEXT NOT NULL DEFAULT '',
	ingested_at TEXT NOT NULL,
	UNIQUE (user_id, biomarker_code, day)
);

CREATE INDEX IF NOT EXISTS measurements_upload_idx ON measurements (upload_id);

CREATE TABLE IF NOT EXISTS genetic_variants (
	user_id TEXT NOT NULL,
	rsid TEXT NOT NULL,
	gene TEXT NOT NULL,
	genotype TEXT NOT NULL,
	chromosome TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL DEFAULT 0,
	condition TEXT NOT NULL DEFAULT '',
	vendor TEXT NOT NULL DEFAULT '',
	risk_score REAL,
	significance TEXT,
	interpretation TEXT,
	upload_id TEXT NOT NULL,
	PRIMARY KEY (user_id, rsid)
);

CREATE TABLE IF NOT EXISTS parse_candidates (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	upload_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	name TEXT NOT NULL,
	value_raw TEXT NOT NULL DEFAULT '',
	unit_raw TEXT NOT NULL DEFAULT '',
	sample_time_raw TEXT NOT NULL DEFAULT '',
	source_kind TEXT NOT NULL DEFAULT '',
	record TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL,
	suggestions TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS parse_candidates_upload_idx ON parse_candidates (upload_id, seq);
`

// Close closes the database file.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Update runs fn in one transaction. The single shared connection makes
// the transaction exclusive.
func (s *SQLiteStore) Update(ctx context.Context, userID string, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Warn("Failed to rollback measurement transaction", "user", userID, "error", err)
		}
	}()

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Profile returns the stored profile for a user.
func (s *SQLiteStore) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	p := &models.Profile{UserID: userID}

	var dob, gender sql.NullString

	err := s.db.QueryRowContext(ctx, `SELECT date_of_birth, gender FROM profiles WHERE user_id = ?`, userID).Scan(&dob, &gender)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if dob.Valid {
		t, err := scanDay(dob.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date of birth: %w", err)
		}

		p.DateOfBirth = &t
	}

	if gender.Valid {
		p.Gender = toGender(&gender.String)
	}

	return p, nil
}

// SaveProfile creates or replaces a profile.
func (s *SQLiteStore) SaveProfile(ctx context.Context, p models.Profile) error {
	var dob *string

	if p.DateOfBirth != nil {
		d := p.DateOfBirth.Format(time.DateOnly)
		dob = &d
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, date_of_birth, gender)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			date_of_birth = excluded.date_of_birth,
			gender = excluded.gender
	`, p.UserID, dob, fromGender(p.Gender))
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

// Measurements lists a user's stored measurements ordered by day and code.
func (s *SQLiteStore) Measurements(ctx context.Context, userID string, f Filter) ([]models.NormalizedMeasurement, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)

	if f.BiomarkerCode != "" {
		where = append(where, "biomarker_code = ?")
		args = append(args, f.BiomarkerCode)
	}

	if !f.From.IsZero() {
		where = append(where, "day >= ?")
		args = append(args, f.From.Format(time.DateOnly))
	}

	if !f.To.IsZero() {
		where = append(where, "day <= ?")
		args = append(args, f.To.Format(time.DateOnly))
	}

	query := `SELECT ` + measurementColumns + ` FROM measurements WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY day, biomarker_code`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}

	return collectSQLiteMeasurements(rows)
}

// Variants lists a user's stored genetic variants ordered by gene.
func (s *SQLiteStore) Variants(ctx context.Context, userID string) ([]models.GeneticVariant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, rsid, gene, genotype, chromosome, position, condition, vendor,
			risk_score, significance, interpretation, upload_id
		FROM genetic_variants
		WHERE user_id = ?
		ORDER BY gene, rsid
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	defer rows.Close()

	var out []models.GeneticVariant

	for rows.Next() {
		var (
			v              models.GeneticVariant
			score          sql.NullFloat64
			sig, interpret sql.NullString
		)

		if err := rows.Scan(&v.UserID, &v.RSID, &v.Gene, &v.Genotype, &v.Chromosome, &v.Position,
			&v.Condition, &v.Vendor, &score, &sig, &interpret, &v.UploadID); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}

		if score.Valid {
			v.Rule = toRule(&score.Float64, &sig.String, &interpret.String)
		}

		out = append(out, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variants: %w", err)
	}

	return out, nil
}

// Uploads lists a user's uploads, newest first.
func (s *SQLiteStore) Uploads(ctx context.Context, userID string) ([]models.Upload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, filename, format, variant, size_bytes, received_at, status, error
		FROM uploads
		WHERE user_id = ?
		ORDER BY received_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var out []models.Upload

	for rows.Next() {
		var (
			u                models.Upload
			received, status string
		)

		if err := rows.Scan(&u.ID, &u.UserID, &u.Filename, &u.Format, &u.Variant, &u.SizeBytes,
			&received, &status, &u.Error); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}

		if u.ReceivedAt, err = time.Parse(sqliteTime, received); err != nil {
			return nil, fmt.Errorf("failed to parse upload time: %w", err)
		}

		u.Status = models.UploadStatus(status)
		out = append(out, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating uploads: %w", err)
	}

	return out, nil
}

// Candidates lists an upload's unresolved readings in parse order.
func (s *SQLiteStore) Candidates(ctx context.Context, userID string, uploadID uuid.UUID) ([]models.Unresolved, error) {
	var out []models.Unresolved

	err := s.Update(ctx, userID, func(t Tx) error {
		if _, err := t.Upload(ctx, userID, uploadID); err != nil {
			return err
		}

		rows, err := t.(*sqliteTx).tx.QueryContext(ctx, `SELECT `+candidateColumns+` FROM parse_candidates
			WHERE upload_id = ? AND user_id = ?
			ORDER BY seq`, uploadID.String(), userID)
		if err != nil {
			return fmt.Errorf("failed to list candidates: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var r candidateRow
			if err := rows.Scan(r.dest()...); err != nil {
				return fmt.Errorf("failed to scan candidate: %w", err)
			}

			u, err := r.unresolved()
			if err != nil {
				return err
			}

			out = append(out, u)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating candidates: %w", err)
		}

		return nil
	})

	return out, err
}

// DeleteUpload removes an upload and everything it wrote.
func (s *SQLiteStore) DeleteUpload(ctx context.Context, userID string, uploadID uuid.UUID) (Deleted, error) {
	var out Deleted

	err := s.Update(ctx, userID, func(t Tx) error {
		tx := t.(*sqliteTx).tx

		if _, err := t.Upload(ctx, userID, uploadID); err != nil {
			return err
		}

		id := uploadID.String()

		res, err := tx.ExecContext(ctx, `DELETE FROM measurements WHERE upload_id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete measurements: %w", err)
		}

		out.Measurements, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx, `DELETE FROM genetic_variants WHERE upload_id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete variants: %w", err)
		}

		out.Variants, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx, `DELETE FROM parse_candidates WHERE upload_id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete candidates: %w", err)
		}

		out.Candidates, _ = res.RowsAffected()

		if _, err := tx.ExecContext(ctx, `DELETE FROM uploads WHERE id = ? AND user_id = ?`, id, userID); err != nil {
			return fmt.Errorf("failed to delete upload: %w", err)
		}

		return nil
	})

	return out, err
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) MeasurementsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.NormalizedMeasurement, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+measurementColumns+` FROM measurements
		WHERE user_id = ? AND day BETWEEN ? AND ?`,
		userID, from.Format(time.DateOnly), to.Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}

	return collectSQLiteMeasurements(rows)
}

func (t *sqliteTx) InsertMeasurements(ctx context.Context, ms []models.NormalizedMeasurement) error {
	if len(ms) == 0 {
		return nil
	}

	stmt, err := t.tx.PrepareContext(ctx, `INSERT INTO measurements (`+measurementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare measurement insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range ms {
		if _, err := stmt.ExecContext(ctx, m.ID.String(), m.UserID, m.BiomarkerCode, m.Value, m.Unit,
			m.Day.Format(time.DateOnly), string(m.Source), string(m.Status), m.RefLow, m.RefHigh,
			m.UploadID.String(), m.OriginalName, m.IngestedAt.UTC().Format(sqliteTime)); err != nil {
			return fmt.Errorf("failed to insert measurement %s/%s: %w", m.BiomarkerCode, m.Day.Format(time.DateOnly), err)
		}
	}

	return nil
}

func (t *sqliteTx) DeleteMeasurements(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		if _, err := t.tx.ExecContext(ctx, `DELETE FROM measurements WHERE id = ?`, id.String()); err != nil {
			return fmt.Errorf("failed to delete measurement: %w", err)
		}
	}

	return nil
}

func (t *sqliteTx) UpsertVariants(ctx context.Context, vs []models.GeneticVariant) error {
	for _, v := range vs {
		score, sig, interpret := fromRule(v.Rule)

		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO genetic_variants (user_id, rsid, gene, genotype, chromosome, position, condition,
				vendor, risk_score, significance, interpretation, upload_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, rsid) DO UPDATE SET
				gene = excluded.gene,
				genotype = excluded.genotype,
				chromosome = excluded.chromosome,
				position = excluded.position,
				condition = excluded.condition,
				vendor = excluded.vendor,
				risk_score = excluded.risk_score,
				significance = excluded.significance,
				interpretation = excluded.interpretation,
				upload_id = excluded.upload_id
		`, v.UserID, v.RSID, v.Gene, v.Genotype, v.Chromosome, v.Position, v.Condition,
			v.Vendor, score, sig, interpret, v.UploadID.String())
		if err != nil {
			return fmt.Errorf("failed to upsert variant %s: %w", v.RSID, err)
		}
	}

	return nil
}

func (t *sqliteTx) SaveUpload(ctx context.Context, u models.Upload) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO uploads (id, user_id, filename, format, variant, size_bytes, received_at, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status, error = excluded.error
	`, u.ID.String(), u.UserID, u.Filename, u.Format, u.Variant, u.SizeBytes,
		u.ReceivedAt.UTC().Format(sqliteTime), string(u.Status), u.Error)
	if err != nil {
		return fmt.Errorf("failed to save upload: %w", err)
	}

	return nil
}

func (t *sqliteTx) Upload(ctx context.Context, userID string, id uuid.UUID) (models.Upload, error) {
	var (
		u                models.Upload
		received, status string
	)

	err := t.tx.QueryRowContext(ctx, `
		SELECT id, user_id, filename, format, variant, size_bytes, received_at, status, error
		FROM uploads
		WHERE id = ? AND user_id = ?
	`, id.String(), userID).Scan(&u.ID, &u.UserID, &u.Filename, &u.Format, &u.Variant, &u.SizeBytes,
		&received, &status, &u.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Upload{}, ErrUploadNotFound
	}

	if err != nil {
		return models.Upload{}, fmt.Errorf("failed to get upload: %w", err)
	}

	if u.ReceivedAt, err = time.Parse(sqliteTime, received); err != nil {
		return models.Upload{}, fmt.Errorf("failed to parse upload time: %w", err)
	}

	u.Status = models.UploadStatus(status)

	return u, nil
}

func (t *sqliteTx) UpdateClassification(ctx context.Context, ms []models.NormalizedMeasurement) error {
	for _, m := range ms {
		if _, err := t.tx.ExecContext(ctx, `UPDATE measurements SET status = ?, ref_low = ?, ref_high = ?
			WHERE id = ? AND user_id = ?`,
			string(m.Status), m.RefLow, m.RefHigh, m.ID.String(), m.UserID); err != nil {
			return fmt.Errorf("failed to update measurement %s: %w", m.ID, err)
		}
	}

	return nil
}

func (t *sqliteTx) SaveCandidates(ctx context.Context, userID string, cs []models.Unresolved) error {
	for i, c := range cs {
		suggestions, err := encodeSuggestions(c.Suggestions)
		if err != nil {
			return err
		}

		if _, err := t.tx.ExecContext(ctx, `
			INSERT INTO parse_candidates (id, user_id, upload_id, seq, name, value_raw, unit_raw,
				sample_time_raw, source_kind, record, reason, suggestions)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID.String(), userID, c.UploadID.String(), i, c.Name, c.Value, c.Unit, c.Timestamp,
			string(c.Source), c.Record, string(c.Reason), suggestions); err != nil {
			return fmt.Errorf("failed to save candidate %q: %w", c.Name, err)
		}
	}

	return nil
}

func (t *sqliteTx) Candidate(ctx context.Context, userID string, uploadID, id uuid.UUID) (models.Unresolved, error) {
	var r candidateRow

	err := t.tx.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM parse_candidates
		WHERE id = ? AND upload_id = ? AND user_id = ?`,
		id.String(), uploadID.String(), userID).Scan(r.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Unresolved{}, ErrCandidateNotFound
	}

	if err != nil {
		return models.Unresolved{}, fmt.Errorf("failed to get candidate: %w", err)
	}

	return r.unresolved()
}

func collectSQLiteMeasurements(rows *sql.Rows) ([]models.NormalizedMeasurement, error) {
	defer rows.Close()

	var out []models.NormalizedMeasurement

	for rows.Next() {
		var (
			m                             models.NormalizedMeasurement
			day, source, status, ingested string
			low, high                     sql.NullFloat64
		)

		if err := rows.Scan(&m.ID, &m.UserID, &m.BiomarkerCode, &m.Value, &m.Unit, &day, &source, &status,
			&low, &high, &m.UploadID, &m.OriginalName, &ingested); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}

		var err error
		if m.Day, err = scanDay(day); err != nil {
			return nil, fmt.Errorf("failed to parse measurement day: %w", err)
		}

		if m.IngestedAt, err = time.Parse(sqliteTime, ingested); err != nil {
			return nil, fmt.Errorf("failed to parse ingestion time: %w", err)
		}

		if low.Valid {
			m.RefLow = &low.Float64
		}

		if high.Valid {
			m.RefHigh = &high.Float64
		}

		m.Source = models.SourceKind(source)
		m.Status = models.Status(status)
		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating measurements: %w", err)
	}

	return out, nil
}
