package resolutionrun

import (
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
)

func nopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.Open(t.Context(), database.Config{Driver: database.DriverSQLite, DSN: ":memory:", MaxOpenConns: 1}, nopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return NewRepository(db, nopLogger())
}

func runPipeline(t *testing.T) *resolution.Result {
	t.Helper()
	a := []models.RawRecord{
		{RecordID: "a1", Name: "Robert Smith", Street: "12 Oak St", PostalCode: "60601", Phone: "312-555-0100", Email: "bob@example.com"},
		{RecordID: "a2", Name: "Robert Smith", Street: "400 Lake Shore Dr", PostalCode: "60601", Phone: "312-555-0199", Email: "rsmith@example.org"},
		{RecordID: "a3", Name: "Ann Lee", PostalCode: "94105"},
	}
	b := []models.RawRecord{
		{RecordID: "b1", Name: "Bob Smith", Street: "12 Oak Street", PostalCode: "60601", Phone: "(312) 555-0100", Email: "BOB@example.com"},
		{RecordID: "b2", Name: "Zed Quinn", PostalCode: "10001"},
	}
	pipeline, err := resolution.New(nopLogger(), config.DefaultMatching())
	require.NoError(t, err)
	result, err := pipeline.Run(t.Context(), a, b)
	require.NoError(t, err)
	return result
}

func TestRepository_SaveAndGetRun(t *testing.T) {
	repo := newRepository(t)
	result := runPipeline(t)

	saved, err := repo.SaveRun(t.Context(), result)
	require.NoError(t, err)
	assert.Equal(t, result.RunID, saved.ID)

	run, err := repo.GetRun(t.Context(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, result.Stats, run.RunStats)
	assert.Equal(t, config.DefaultMatching().Thresholds, run.Thresholds)
	assert.Equal(t, 1, run.Matched)
	assert.Equal(t, 2, run.Comparisons)
}

func TestRepository_GetRun_NotFound(t *testing.T) {
	repo := newRepository(t)

	_, err := repo.GetRun(t.Context(), "missing")
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))

	_, err = repo.ListAudit(t.Context(), "missing", AuditFilter{})
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestRepository_ListResolved(t *testing.T) {
	repo := newRepository(t)
	result := runPipeline(t)
	_, err := repo.SaveRun(t.Context(), result)
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter ResolvedFilter
		want   []models.ResolvedRecord
	}{
		{"all in output order", ResolvedFilter{}, result.Resolved},
		{"by status", ResolvedFilter{Status: models.StatusUnmatchedA}, result.Resolved[1:3]},
		{"paged", ResolvedFilter{Limit: 2, Offset: 1}, result.Resolved[1:3]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListResolved(t.Context(), result.RunID, tt.filter)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].ID, got[i].ID)
				assert.Equal(t, tt.want[i].Status, got[i].Status)
				assert.Equal(t, tt.want[i].Name, got[i].Name)
				assert.InDelta(t, tt.want[i].Confidence, got[i].Confidence, 1e-12)
				assert.Equal(t, tt.want[i].Conflicts, got[i].Conflicts)
			}
		})
	}
}

func TestRepository_ListAudit(t *testing.T) {
	repo := newRepository(t)
	result := runPipeline(t)
	_, err := repo.SaveRun(t.Context(), result)
	require.NoError(t, err)

	var want []models.AuditEntry
	for entry := range result.Trail.All() {
		want = append(want, entry)
	}

	t.Run("all", func(t *testing.T) {
		got, err := repo.ListAudit(t.Context(), result.RunID, AuditFilter{})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("by record a", func(t *testing.T) {
		got, err := repo.ListAudit(t.Context(), result.RunID, AuditFilter{RecordAID: "a2"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a2", got[0].RecordAID)
		assert.False(t, got[0].Selected)
	})
}
