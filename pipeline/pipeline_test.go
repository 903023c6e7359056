// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humaidq/labwave/catalog"
	"github.com/humaidq/labwave/db"
	"github.com/humaidq/labwave/models"
	"github.com/humaidq/labwave/resolver"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newPipeline(t *testing.T, opts Options) (*Pipeline, *db.SQLiteStore) {
	t.Helper()

	store, err := db.NewSQLiteStore(filepath.Join(t.TempDir(), "labwave.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	r, err := resolver.New(catalog.Default(), 0)
	require.NoError(t, err)

	if opts.Now == nil {
		opts.Now = func() time.Time { return now }
	}

	return New(store, r, opts), store
}

func csvInput(user string, rows ...string) Input {
	data := "date,name,value,unit,source\n" + strings.Join(rows, "\n") + "\n"
	return Input{UserID: user, Filename: "labs.csv", Data: []byte(data)}
}

func stored(t *testing.T, p *Pipeline, user string) []models.NormalizedMeasurement {
	t.Helper()

	ms, err := p.Measurements(context.Background(), user, db.Filter{})
	require.NoError(t, err)

	return ms
}

func TestLabWinsOverWearable(t *testing.T) {
	t.Parallel()

	p, _ := newPipeline(t, Options{})

	res, err := p.Process(context.Background(), csvInput("u1",
		"2024-01-01,Glucose,95,mg/dL,lab",
		"2024-01-01,Glucose,98,mg/dL,wearable",
	))
	require.NoError(t, err)
	assert.Len(t, res.Written, 1)
	assert.Equal(t, 1, res.Discarded)

	ms := stored(t, p, "u1")
	require.Len(t, ms, 1)
	assert.Equal(t, "GLU", ms[0].BiomarkerCode)
	assert.InDelta(t, 95.0, ms[0].Value, 1e-9)
	assert.Equal(t, models.SourceLabFile, ms[0].Source)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ms[0].Day)

	// A later wearable-only upload does not displace the lab value.
	_, err = p.Process(context.Background(), csvInput("u1", "2024-01-01,Glucose,101,mg/dL,wearable"))
	require.NoError(t, err)

	ms = stored(t, p, "u1")
	require.Len(t, ms, 1)
	assert.InDelta(t, 95.0, ms[0].Value, 1e-9)
}

func TestReprocessingIsIdempotent(t *testing.T) {
	t.Parallel()

	p, _ := newPipeline(t, Options{})
	in := csvInput("u1",
		"2024-01-01,Glucose,5.5,mmol/L,lab",
		"2024-01-01,HDL Cholesterol,55,mg/dL,lab",
		"2024-01-02,Glucose,92,mg/dL,lab",
	)

	first, err := p.Process(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, first.Written, 3)

	before := stored(t, p, "u1")

	second, err := p.Process(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, second.Written)
	assert.Equal(t, 3, second.Unchanged)
	assert.Zero(t, second.Superseded)

	assert.Equal(t, before, stored(t, p, "u1"))

	// Converted to the canonical unit.
	assert.InDelta(t, 5.5*18.016, before[0].Value, 1e-6)
	assert.Equal(t, "mg/dL", before[0].Unit)
}

func TestNewerLabValueSupersedes(t *testing.T) {
	t.Parallel()

	clock := now
	p, _ := newPipeline(t, Options{Now: func() time.Time { return clock }})

	_, err := p.Process(context.Background(), csvInput("u1", "2024-01-01,Glucose,95,mg/dL,lab"))
	require.NoError(t, err)

	clock = now.Add(time.Hour)

	res, err := p.Process(context.Background(), csvInput("u1", "2024-01-01,Glucose,97,mg/dL,lab"))
	require.NoError(t, err)
	assert.Len(t, res.Written, 1)
	assert.Equal(t, 1, res.Superseded)

	ms := stored(t, p, "u1")
	require.Len(t, ms, 1)
	assert.InDelta(t, 97.0, ms[0].Value, 1e-9)
}

func TestClassificationUsesProfile(t *testing.T) {
	t.Parallel()

	p, _ := newPipeline(t, Options{})
	ctx := context.Background()

	dob := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	female := models.GenderFemale
	require.NoError(t, p.SetProfile(ctx, models.Profile{UserID: "u1", DateOfBirth: &dob, Gender: &female}))

	res, err := p.Process(ctx, csvInput("u1",
		"2024-01-01,HDL,46,mg/dL,lab",
		"2024-01-01,Glucose,150,mg/dL,lab",
		"2024-01-01,Glucose,90,mg/dL,manual",
	))
	require.NoError(t, err)
	require.Len(t, res.Written, 2)

	byCode := map[string]models.NormalizedMeasurement{}
	for _, m := range stored(t, p, "u1") {
		byCode[m.BiomarkerCode] = m
	}

	assert.Equal(t, models.StatusBorderline, byCode["HDL"].Status)
	require.NotNil(t, byCode["HDL"].RefLow)
	assert.InDelta(t, 50.0, *byCode["HDL"].RefLow, 1e-9)
	assert.Equal(t, models.StatusOutOfRange, byCode["GLU"].Status)

	// Without a profile, age-dependent ranges cannot be evaluated.
	_, err = p.Process(ctx, csvInput("u2", "2024-01-01,Glucose,90,mg/dL,lab"))
	require.NoError(t, err)

	ms := stored(t, p, "u2")
	require.Len(t, ms, 1)
	assert.Equal(t, models.StatusUnknown, ms[0].Status)
}

func TestRejectedUploads(t *testing.T) {
	t.Parallel()

	p, _ := newPipeline(t, Options{MaxUploadBytes: 64})
	ctx := context.Background()

	_, err := p.Process(ctx, Input{UserID: "u1", Filename: "empty.csv"})
	require.ErrorIs(t, err, models.ErrEmptyUpload)

	_, err = p.Process(ctx, Input{UserID: "u1", Filename: "big.csv", Data: make([]byte, 65)})
	require.ErrorIs(t, err, models.ErrUploadTooLarge)

	_, err = p.Process(ctx, Input{UserID: "u1", Filename: "blob.bin", Data: []byte{0, 1, 2, 3, 0xff}})
	require.ErrorIs(t, err, models.ErrUnrecognizedFormat)

	var ufe *models.UnrecognizedFormatError
	require.True(t, errors.As(err, &ufe))

	// Only the format failure is recorded; size checks reject up front.
	ups, err := p.Uploads(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, ups, 1)
	assert.Equal(t, models.UploadFailed, ups[0].Status)
	assert.Equal(t, "blob.bin", ups[0].Filename)
	assert.NotEmpty(t, ups[0].Error)
}

func TestUnresolvedAndConfirm(t *testing.T) {
	t.Parallel()

	p, _ := newPipeline(t, Options{})
	ctx := context.Background()

	res, err := p.Process(ctx, csvInput("u1",
		"2024-01-01,Glucose,95,mg/dL,lab",
		"2024-01-01,Mystery marker,5.1,mmol/L,lab",
		"2024-01-01,HDL,55,furlongs,lab",
	))
	require.NoError(t, err)
	require.Len(t, res.Written, 1)
	require.Len(t, res.Unresolved, 2)

	reasons := map[models.UnresolvedReason]models.Unresolved{}
	for _, u := range res.Unresolved {
		reasons[u.Reason] = u
	}

	require.Contains(t, reasons, models.ReasonNoMatch)
	require.Contains(t, reasons, models.ReasonUnitMismatch)

	mystery := reasons[models.ReasonNoMatch]
	assert.Equal(t, res.Upload.ID, mystery.UploadID)

	// Both readings are kept with the upload until the user answers.
	kept, err := p.Candidates(ctx, "u1", res.Upload.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Unresolved, kept)

	confirm := func(id uuid.UUID, code, ts string) (models.NormalizedMeasurement, bool, error) {
		return p.Confirm(ctx, Confirmation{UserID: "u1", UploadID: res.Upload.ID, CandidateID: id, Code: code, Timestamp: ts})
	}

	// The user maps the reading to a biomarker whose units fit. It is
	// ingested no earlier than the stored lab glucose, so it replaces it.
	m, written, err := confirm(mystery.ID, "GLU", "")
	require.NoError(t, err)
	require.True(t, written)
	assert.Equal(t, "GLU", m.BiomarkerCode)
	assert.InDelta(t, 5.1*18.016, m.Value, 1e-6)
	assert.Equal(t, res.Upload.ID, m.UploadID)

	ms := stored(t, p, "u1")
	require.Len(t, ms, 1)
	assert.Equal(t, m.ID, ms[0].ID)

	_, written, err = confirm(mystery.ID, "GLU", "2024-01-05")
	require.NoError(t, err)
	require.True(t, written)

	// Confirming the same reading again changes nothing.
	_, written, err = confirm(mystery.ID, "GLU", "2024-01-05")
	require.NoError(t, err)
	assert.False(t, written)

	// A unit that does not fit the chosen biomarker stays unresolved.
	_, _, err = confirm(reasons[models.ReasonUnitMismatch].ID, "HDL", "")

	var u models.Unresolved
	require.True(t, errors.As(err, &u))
	assert.Equal(t, models.ReasonUnitMismatch, u.Reason)

	_, _, err = confirm(mystery.ID, "NOPE", "")
	require.ErrorIs(t, err, models.ErrUnknownBiomarker)

	_, _, err = confirm(uuid.New(), "GLU", "")
	require.ErrorIs(t, err, db.ErrCandidateNotFound)

	assert.Len(t, stored(t, p, "u1"), 2)

	// Deleting the upload drops its kept readings too.
	deleted, err := p.DeleteUpload(ctx, "u1", res.Upload.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted.Candidates)
}

func TestConfirmRequiresOwnUpload(t *testing.T) {
	t.Parallel()

	p, _ := newPipeline(t, Options{})
	ctx := context.Background()

	res, err := p.Process(ctx, csvInput("alice", "2024-01-01,Mystery marker,5.1,mmol/L,lab"))
	require.NoError(t, err)
	require.Len(t, res.Unresolved, 1)

	candidate := res.Unresolved[0].ID

	// Another user cannot attach a reading to alice's upload.
	_, _, err = p.Confirm(ctx, Confirmation{UserID: "bob", UploadID: res.Upload.ID, CandidateID: candidate, Code: "GLU"})
	require.ErrorIs(t, err, db.ErrUploadNotFound)

	// An upload id that was never issued is rejected as well.
	_, _, err = p.Confirm(ctx, Confirmation{UserID: "carol", UploadID: uuid.New(), CandidateID: candidate, Code: "GLU"})
	require.ErrorIs(t, err, db.ErrUploadNotFound)

	assert.Empty(t, stored(t, p, "bob"))
	assert.Empty(t, stored(t, p, "carol"))
	assert.Empty(t, stored(t, p, "alice"))

	_, err = p.Candidates(ctx, "bob", res.Upload.ID)
	require.ErrorIs(t, err, db.ErrUploadNotFound)

	// Alice's own upload stays intact and confirmable.
	_, err = p.DeleteUpload(ctx, "bob", res.Upload.ID)
	require.ErrorIs(t, err, db.ErrUploadNotFound)

	_, written, err := p.Confirm(ctx, Confirmation{UserID: "alice", UploadID: res.Upload.ID, CandidateID: candidate, Code: "GLU"})
	require.NoError(t, err)
	assert.True(t, written)
	assert.Len(t, stored(t, p, "alice"), 1)
}

func TestSuggestionsRecomputed(t *testing.T) {
	t.Parallel()

	p, _ := newPipeline(t, Options{})
	ctx := context.Background()

	res, err := p.Process(ctx, csvInput("u1", "2024-01-01,Vitamin B1,40,pmol/L,lab"))
	require.NoError(t, err)
	require.Len(t, res.Unresolved, 1)

	got, err := p.Suggestions(ctx, "u1", res.Upload.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotEmpty(t, got[0].Suggestions)
	assert.Equal(t, "B12", got[0].Suggestions[0].Code)
	assert.Equal(t, res.Unresolved[0].ID, got[0].ID)
}

func TestManualEntryRanksBelowLab(t *testing.T) {
	t.Parallel()

	clock := now
	p, _ := newPipeline(t, Options{Now: func() time.Time { return clock }})
	ctx := context.Background()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := p.Process(ctx, csvInput("u1", "2024-01-01,Glucose,95,mg/dL,lab"))
	require.NoError(t, err)

	// Entered later, but a lab value for the same day still wins.
	clock = now.Add(time.Hour)

	m, written, err := p.AddManual(ctx, ManualEntry{UserID: "u1", Code: "GLU", Value: 5.0, Unit: "mmol/L", Day: day})
	require.NoError(t, err)
	assert.False(t, written)
	assert.Equal(t, models.SourceManual, m.Source)

	ms := stored(t, p, "u1")
	require.Len(t, ms, 1)
	assert.InDelta(t, 95.0, ms[0].Value, 1e-9)
	assert.Equal(t, models.SourceLabFile, ms[0].Source)

	// On a day without other values the manual entry is stored.
	m, written, err = p.AddManual(ctx, ManualEntry{UserID: "u1", Code: "GLU", Value: 101, Unit: "mg/dL"})
	require.NoError(t, err)
	require.True(t, written)
	assert.Equal(t, models.Day(clock), m.Day)
	assert.Equal(t, models.SourceManual, m.Source)

	ups, err := p.Uploads(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, ups, 3)

	// A later manual value replaces an earlier one on the same day.
	clock = now.Add(2 * time.Hour)

	_, written, err = p.AddManual(ctx, ManualEntry{UserID: "u1", Code: "GLU", Value: 99, Unit: "mg/dL"})
	require.NoError(t, err)
	assert.True(t, written)

	_, _, err = p.AddManual(ctx, ManualEntry{UserID: "u1", Code: "GLU", Value: 5, Unit: "kg"})

	var u models.Unresolved
	require.True(t, errors.As(err, &u))
	assert.Equal(t, models.ReasonUnitMismatch, u.Reason)

	_, _, err = p.AddManual(ctx, ManualEntry{UserID: "u1", Code: "NOPE", Value: 1})
	require.ErrorIs(t, err, models.ErrUnknownBiomarker)
}

func TestReclassifyAfterProfileChange(t *testing.T) {
	t.Parallel()

	p, _ := newPipeline(t, Options{})
	ctx := context.Background()

	_, err := p.Process(ctx, csvInput("u1",
		"2024-01-01,HDL,46,mg/dL,lab",
		"2024-01-01,Glucose,150,mg/dL,lab",
	))
	require.NoError(t, err)

	for _, m := range stored(t, p, "u1") {
		assert.Equal(t, models.StatusUnknown, m.Status, m.BiomarkerCode)
	}

	dob := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	female := models.GenderFemale
	require.NoError(t, p.SetProfile(ctx, models.Profile{UserID: "u1", DateOfBirth: &dob, Gender: &female}))

	// Setting a profile alone leaves stored statuses as they were.
	for _, m := range stored(t, p, "u1") {
		assert.Equal(t, models.StatusUnknown, m.Status, m.BiomarkerCode)
	}

	got, err := p.Reclassify(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Reclassified{Checked: 2, Changed: 2}, got)

	byCode := map[string]models.NormalizedMeasurement{}
	for _, m := range stored(t, p, "u1") {
		byCode[m.BiomarkerCode] = m
	}

	assert.Equal(t, models.StatusBorderline, byCode["HDL"].Status)
	require.NotNil(t, byCode["HDL"].RefLow)
	assert.InDelta(t, 50.0, *byCode["HDL"].RefLow, 1e-9)
	assert.Equal(t, models.StatusOutOfRange, byCode["GLU"].Status)

	// Nothing left to change.
	got, err = p.Reclassify(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Reclassified{Checked: 2, Changed: 0}, got)
}

func TestWideTableIgnoresMetadataColumns(t *testing.T) {
	t.Parallel()

	p, _ := newPipeline(t, Options{})

	data := "Date,Glucose (mg/dL),HDL (mg/dL),Lab,Comment\n" +
		"2024-01-01,95,55,Invitro,fasting\n" +
		"2024-02-01,97,58,Helix,repeat\n"

	res, err := p.Process(context.Background(), Input{UserID: "u1", Filename: "wide.csv", Data: []byte(data)})
	require.NoError(t, err)
	assert.Len(t, res.Written, 4)
	assert.Empty(t, res.Unresolved)

	var skipped int

	for _, d := range res.Diagnostics {
		if strings.Contains(d.Message, "skipped column") {
			skipped++
		}
	}

	assert.Equal(t, 2, skipped)
}

func TestUndatedTextReport(t *testing.T) {
	t.Parallel()

	p, _ := newPipeline(t, Options{})

	res, err := p.Process(context.Background(), Input{
		UserID:   "u1",
		Filename: "report.txt",
		Data:     []byte("Glucose 95 mg/dL\nHDL Cholesterol 1,4 mmol/L\n"),
	})
	require.NoError(t, err)
	require.Len(t, res.Written, 2)

	for _, m := range res.Written {
		assert.Equal(t, models.Day(now), m.Day)
	}

	var missing int

	for _, d := range res.Diagnostics {
		if d.Kind == models.MissingTimestamp {
			missing++
		}
	}

	assert.GreaterOrEqual(t, missing, 1)
}

func TestGeneticUpload(t *testing.T) {
	t.Parallel()

	p, _ := newPipeline(t, Options{})
	ctx := context.Background()

	data := "# This data file generated by 23andMe\n" +
		"# rsid\tchromosome\tposition\tgenotype\n" +
		"rs671\t12\t112241766\tAA\n" +
		"rs4680\t22\t19951271\tGA\n" +
		"rs4477212\t1\t82154\tAA\n" +
		"rs1801133\t1\t11856378\t--\n"

	res, err := p.Process(ctx, Input{UserID: "u1", Filename: "genome.txt", Data: []byte(data)})
	require.NoError(t, err)
	assert.Empty(t, res.Written)
	require.Len(t, res.Variants, 2)

	summary, err := p.Genetics(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	require.Len(t, summary.HighRisk, 1)
	assert.Equal(t, "ALDH2", summary.HighRisk[0].Gene)
	require.Len(t, summary.ModerateRisk, 1)
	assert.Equal(t, "COMT", summary.ModerateRisk[0].Gene)

	deleted, err := p.DeleteUpload(ctx, "u1", res.Upload.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted.Variants)

	summary, err = p.Genetics(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
}

func TestDeleteUpload(t *testing.T) {
	t.Parallel()

	p, _ := newPipeline(t, Options{})
	ctx := context.Background()

	first, err := p.Process(ctx, csvInput("u1", "2024-01-01,Glucose,95,mg/dL,lab"))
	require.NoError(t, err)

	_, err = p.Process(ctx, csvInput("u1", "2024-01-02,Glucose,96,mg/dL,lab"))
	require.NoError(t, err)

	deleted, err := p.DeleteUpload(ctx, "u1", first.Upload.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted.Measurements)

	ms := stored(t, p, "u1")
	require.Len(t, ms, 1)
	assert.InDelta(t, 96.0, ms[0].Value, 1e-9)

	_, err = p.DeleteUpload(ctx, "u2", first.Upload.ID)
	require.ErrorIs(t, err, db.ErrUploadNotFound)
}

func TestMetricReportsMissingInput(t *testing.T) {
	t.Parallel()

	p, _ := newPipeline(t, Options{})
	ctx := context.Background()

	dob := time.Date(1974, 1, 1, 0, 0, 0, 0, time.UTC)
	male := models.GenderMale
	require.NoError(t, p.SetProfile(ctx, models.Profile{UserID: "u1", DateOfBirth: &dob, Gender: &male}))

	_, err := p.Process(ctx, csvInput("u1",
		"2024-01-01,ALB,4.5,,lab",
		"2024-01-01,CREAT,0.9,,lab",
		"2024-01-01,GLU,90,,lab",
		"2024-01-01,CRP,1.0,,lab",
		"2024-01-01,LYMPH_PCT,30,,lab",
		"2024-01-01,MCV,90,,lab",
		"2024-01-01,ALP,70,,lab",
		"2024-01-01,WBC,6,,lab",
	))
	require.NoError(t, err)

	_, err = p.Metric(ctx, "u1", "phenoage")

	var ide *models.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, []string{"RDW"}, ide.Missing)

	_, err = p.Process(ctx, csvInput("u1", "2024-01-01,RDW,13,,lab"))
	require.NoError(t, err)

	res, err := p.Metric(ctx, "u1", "phenoage")
	require.NoError(t, err)
	assert.Len(t, res.Contributing, 9)

	summary, err := p.BioAge(ctx, "u1")
	require.NoError(t, err)
	assert.Contains(t, summary.Results, "phenoage")

	_, err = p.Metric(ctx, "u1", "nope")
	require.Error(t, err)
}

func TestProcessBatch(t *testing.T) {
	t.Parallel()

	p, _ := newPipeline(t, Options{Workers: 3})

	var inputs []Input

	for i := range 12 {
		user := fmt.Sprintf("u%d", i%3)
		inputs = append(inputs, csvInput(user, fmt.Sprintf("2024-01-%02d,Glucose,%d,mg/dL,lab", i+1, 90+i)))
	}

	inputs = append(inputs, Input{UserID: "u0", Filename: "empty.csv"})

	items := p.ProcessBatch(context.Background(), inputs)
	require.Len(t, items, len(inputs))

	for i, item := range items[:12] {
		require.NoError(t, item.Err, "item %d", i)
		assert.Len(t, item.Result.Written, 1)
	}

	require.ErrorIs(t, items[12].Err, models.ErrEmptyUpload)

	for u := range 3 {
		assert.Len(t, stored(t, p, fmt.Sprintf("u%d", u)), 4)
	}

	assert.Zero(t, p.locks.held())
}

func TestUserLocksSerialize(t *testing.T) {
	t.Parallel()

	l := newUserLocks()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			unlock := l.lock("u1")
			defer unlock()

			mu.Lock()
			active++
			maxSeen = max(maxSeen, active)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, l.held())
}
