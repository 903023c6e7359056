/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/humaidq/labwave/models"
)

const measurementColumns = `id, user_id, biomarker_code, value, unit, day, source_kind, status,
	ref_low, ref_high, upload_id, original_name, ingested_at`

// PostgresStore keeps measurements in Postgres. Per-user writes are
// serialized with a transaction-scoped advisory lock.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an initialized pool.
func NewPostgresStore(p *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: p}
}

// Close closes the underlying pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()

	if pool == s.pool {
		pool = nil
	}

	return nil
}

// userLockKey maps a user id onto the advisory lock keyspace.
func userLockKey(userID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("labwave:measurements:"))
	_, _ = h.Write([]byte(userID))

	return int64(h.Sum64())
}

// Update runs fn in a transaction holding the user's advisory lock.
func (s *PostgresStore) Update(ctx context.Context, userID string, fn func(Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("Failed to rollback measurement transaction", "user", userID, "error", err)
		}
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", userLockKey(userID)); err != nil {
		return fmt.Errorf("failed to acquire user lock: %w", err)
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Profile returns the stored profile for a user.
func (s *PostgresStore) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	p := &models.Profile{UserID: userID}

	var (
		dob    *time.Time
		gender *string
	)

	err := s.pool.QueryRow(ctx, `SELECT date_of_birth, gender FROM profiles WHERE user_id = $1`, userID).Scan(&dob, &gender)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.DateOfBirth = dob
	p.Gender = toGender(gender)

	return p, nil
}

// SaveProfile creates or replaces a profile.
func (s *PostgresStore) SaveProfile(ctx context.Context, p models.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, date_of_birth, gender)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET
			date_of_birth = EXCLUDED.date_of_birth,
			gender = EXCLUDED.gender,
			updated_at = now()
	`, p.UserID, p.DateOfBirth, fromGender(p.Gender))
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

// Measurements lists a user's stored measurements ordered by day and code.
func (s *PostgresStore) Measurements(ctx context.Context, userID string, f Filter) ([]models.NormalizedMeasurement, error) {
	query := `SELECT ` + measurementColumns + ` FROM measurements
		WHERE user_id = $1
		  AND ($2::text = '' OR biomarker_code = $2::text)
		  AND ($3::date IS NULL OR day >= $3::date)
		  AND ($4::date IS NULL OR day <= $4::date)
		ORDER BY day, biomarker_code`

	rows, err := s.pool.Query(ctx, query, userID, f.BiomarkerCode, optionalDate(f.From), optionalDate(f.To))
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}

	return collectMeasurements(rows)
}

// Variants lists a user's stored genetic variants ordered by gene.
func (s *PostgresStore) Variants(ctx context.Context, userID string) ([]models.GeneticVariant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, rsid, gene, genotype, chromosome, position, condition, vendor,
			risk_score, significance, interpretation, upload_id
		FROM genetic_variants
		WHERE user_id = $1
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
			score          *float64
			sig, interpret *string
		)

		if err := rows.Scan(&v.UserID, &v.RSID, &v.Gene, &v.Genotype, &v.Chromosome, &v.Position,
			&v.Condition, &v.Vendor, &score, &sig, &interpret, &v.UploadID); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}

		v.Rule = toRule(score, sig, interpret)
		out = append(out, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variants: %w", err)
	}

	return out, nil
}

// Uploads lists a user's uploads, newest first.
func (s *PostgresStore) Uploads(ctx context.Context, userID string) ([]models.Upload, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, filename, format, variant, size_bytes, received_at, status, error
		FROM uploads
		WHERE user_id = $1
		ORDER BY received_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var out []models.Upload

	for rows.Next() {
		var (
			u      models.Upload
			status string
		)

		if err := rows.Scan(&u.ID, &u.UserID, &u.Filename, &u.Format, &u.Variant, &u.SizeBytes,
			&u.ReceivedAt, &status, &u.Error); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
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
func (s *PostgresStore) Candidates(ctx context.Context, userID string, uploadID uuid.UUID) ([]models.Unresolved, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM uploads WHERE id = $1 AND user_id = $2)`,
		uploadID, userID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check upload: %w", err)
	}

	if !exists {
		return nil, ErrUploadNotFound
	}

	rows, err := s.pool.Query(ctx, `SELECT `+candidateColumns+` FROM parse_candidates
		WHERE upload_id = $1 AND user_id = $2
		ORDER BY seq`, uploadID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var out []models.Unresolved

	for rows.Next() {
		var r candidateRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}

		u, err := r.unresolved()
		if err != nil {
			return nil, err
		}

		out = append(out, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}

	return out, nil
}

// DeleteUpload removes an upload and everything it wrote.
func (s *PostgresStore) DeleteUpload(ctx context.Context, userID string, uploadID uuid.UUID) (Deleted, error) {
	var out Deleted

	err := s.Update(ctx, userID, func(t Tx) error {
		tx := t.(*pgTx).tx

		if _, err := t.Upload(ctx, userID, uploadID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM measurements WHERE upload_id = $1 AND user_id = $2`, uploadID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete measurements: %w", err)
		}

		out.Measurements = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM genetic_variants WHERE upload_id = $1 AND user_id = $2`, uploadID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete variants: %w", err)
		}

		out.Variants = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM parse_candidates WHERE upload_id = $1 AND user_id = $2`, uploadID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete candidates: %w", err)
		}

		out.Candidates = tag.RowsAffected()

		if _, err := tx.Exec(ctx, `DELETE FROM uploads WHERE id = $1 AND user_id = $2`, uploadID, userID); err != nil {
			return fmt.Errorf("failed to delete upload: %w", err)
		}

		return nil
	})

	return out, err
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) MeasurementsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.NormalizedMeasurement, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+measurementColumns+` FROM measurements
		WHERE user_id = $1 AND day BETWEEN $2 AND $3`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}

	return collectMeasurements(rows)
}

func (t *pgTx) InsertMeasurements(ctx context.Context, ms []models.NormalizedMeasurement) error {
	if len(ms) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range ms {
		batch.Queue(`INSERT INTO measurements (`+measurementColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			m.ID, m.UserID, m.BiomarkerCode, m.Value, m.Unit, m.Day, string(m.Source), string(m.Status),
			m.RefLow, m.RefHigh, m.UploadID, m.OriginalName, m.IngestedAt)
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert measurements: %w", err)
	}

	return nil
}

func (t *pgTx) DeleteMeasurements(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	if _, err := t.tx.Exec(ctx, `DELETE FROM measurements WHERE id = ANY($1::uuid[])`, keys); err != nil {
		return fmt.Errorf("failed to delete measurements: %w", err)
	}

	return nil
}

func (t *pgTx) UpsertVariants(ctx context.Context, vs []models.GeneticVariant) error {
	if len(vs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, v := range vs {
		score, sig, interpret := fromRule(v.Rule)
		batch.Queue(`
			INSERT INTO genetic_variants (user_id, rsid, gene, genotype, chromosome, position, condition,
				vendor, risk_score, significance, interpretation, upload_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (user_id, rsid)
			DO UPDATE SET
				gene = EXCLUDED.gene,
				genotype = EXCLUDED.genotype,
				chromosome = EXCLUDED.chromosome,
				position = EXCLUDED.position,
				condition = EXCLUDED.condition,
				vendor = EXCLUDED.vendor,
				risk_score = EXCLUDED.risk_score,
				significance = EXCLUDED.significance,
				interpretation = EXCLUDED.interpretation,
				upload_id = EXCLUDED.upload_id
		`, v.UserID, v.RSID, v.Gene, v.Genotype, v.Chromosome, v.Position, v.Condition,
			v.Vendor, score, sig, interpret, v.UploadID)
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert variants: %w", err)
	}

	return nil
}

func (t *pgTx) SaveUpload(ctx context.Context, u models.Upload) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO uploads (id, user_id, filename, format, variant, size_bytes, received_at, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET status = EXCLUDED.status, error = EXCLUDED.error
	`, u.ID, u.UserID, u.Filename, u.Format, u.Variant, u.SizeBytes, u.ReceivedAt, string(u.Status), u.Error)
	if err != nil {
		return fmt.Errorf("failed to save upload: %w", err)
	}

	return nil
}

func (t *pgTx) Upload(ctx context.Context, userID string, id uuid.UUID) (models.Upload, error) {
	var (
		u      models.Upload
		status string
	)

	err := t.tx.QueryRow(ctx, `
		SELECT id, user_id, filename, format, variant, size_bytes, received_at, status, error
		FROM uploads
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&u.ID, &u.UserID, &u.Filename, &u.Format, &u.Variant, &u.SizeBytes,
		&u.ReceivedAt, &status, &u.Error)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Upload{}, ErrUploadNotFound
	}

	if err != nil {
		return models.Upload{}, fmt.Errorf("failed to get upload: %w", err)
	}

	u.Status = models.UploadStatus(status)

	return u, nil
}

func (t *pgTx) UpdateClassification(ctx context.Context, ms []models.NormalizedMeasurement) error {
	if len(ms) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range ms {
		batch.Queue(`UPDATE measurements SET status = $1, ref_low = $2, ref_high = $3
			WHERE id = $4 AND user_id = $5`,
			string(m.Status), m.RefLow, m.RefHigh, m.ID, m.UserID)
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to update classification: %w", err)
	}

	return nil
}

func (t *pgTx) SaveCandidates(ctx context.Context, userID string, cs []models.Unresolved) error {
	if len(cs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, c := range cs {
		suggestions, err := encodeSuggestions(c.Suggestions)
		if err != nil {
			return err
		}

		batch.Queue(`
			INSERT INTO parse_candidates (id, user_id, upload_id, seq, name, value_raw, unit_raw,
				sample_time_raw, source_kind, record, reason, suggestions)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb)
		`, c.ID, userID, c.UploadID, i, c.Name, c.Value, c.Unit, c.Timestamp,
			string(c.Source), c.Record, string(c.Reason), suggestions)
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save candidates: %w", err)
	}

	return nil
}

func (t *pgTx) Candidate(ctx context.Context, userID string, uploadID, id uuid.UUID) (models.Unresolved, error) {
	var r candidateRow

	err := t.tx.QueryRow(ctx, `SELECT `+candidateColumns+` FROM parse_candidates
		WHERE id = $1 AND upload_id = $2 AND user_id = $3`, id, uploadID, userID).Scan(r.dest()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Unresolved{}, ErrCandidateNotFound
	}

	if err != nil {
		return models.Unresolved{}, fmt.Errorf("failed to get candidate: %w", err)
	}

	return r.unresolved()
}

func collectMeasurements(rows pgx.Rows) ([]models.NormalizedMeasurement, error) {
	defer rows.Close()

	var out []models.NormalizedMeasurement

	for rows.Next() {
		var (
			m              models.NormalizedMeasurement
			source, status string
		)

		if err := rows.Scan(&m.ID, &m.UserID, &m.BiomarkerCode, &m.Value, &m.Unit, &m.Day, &source, &status,
			&m.RefLow, &m.RefHigh, &m.UploadID, &m.OriginalName, &m.IngestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}

		m.Source = models.SourceKind(source)
		m.Status = models.Status(status)
		m.Day = models.Day(m.Day)
		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating measurements: %w", err)
	}

	return out, nil
}

func optionalDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}

func toGender(s *string) *models.Gender {
	if s == nil {
		return nil
	}

	g, ok := models.ParseGender(*s)
	if !ok {
		return nil
	}

	return &g
}

func fromGender(g *models.Gender) *string {
	if g == nil {
		return nil
	}

	s := string(*g)

	return &s
}

func toRule(score *float64, sig, interpret *string) *models.GenotypeRule {
	if score == nil {
		return nil
	}

	r := &models.GenotypeRule{RiskScore: *score}
	if sig != nil {
		r.Significance = models.SignificanceLevel(*sig)
	}

	if interpret != nil {
		r.Interpretation = *interpret
	}

	return r
}

func fromRule(r *models.GenotypeRule) (*float64, *string, *string) {
	if r == nil {
		return nil, nil, nil
	}

	score := r.RiskScore
	sig := string(r.Significance)
	interpret := r.Interpretation

	return &score, &sig, &interpret
}
