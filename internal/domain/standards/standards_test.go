package standards

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	r := Default()
	assert.Equal(t, 11, r.Len())

	s, err := r.Get("IS_2925_1984")
	require.NoError(t, err)
	assert.Equal(t, "Industrial Safety Helmets", s.Title)
	assert.Equal(t, "CRITICAL", s.Severity)

	p, err := r.Penalty("IS_3696_1966")
	require.NoError(t, err)
	assert.Equal(t, "₹1,00,000", p)
}

func TestGetUnknown(t *testing.T) {
	_, err := Default().Get("IS_0000_0000")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Default().Penalty("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	r := Default()

	ppe := r.Search("ppe", "")
	assert.Len(t, ppe, 3)
	for _, s := range ppe {
		assert.Equal(t, "PPE", s.Category)
	}

	critPPE := r.Search("PPE", "critical")
	require.Len(t, critPPE, 1)
	assert.Equal(t, "IS_2925_1984", critPPE[0].Code)

	assert.Len(t, r.Search("", ""), r.Len())
	assert.Empty(t, r.Search("PLUMBING", ""))
}

func TestCategoriesSorted(t *testing.T) {
	want := []string{"ELECTRICAL", "FALL_PROTECTION", "FIRE", "PPE", "STRUCTURAL"}
	if diff := cmp.Diff(want, Default().Categories()); diff != "" {
		t.Errorf("Categories mismatch (-want +got):\n%s", diff)
	}
}

func TestCriticalAndSummary(t *testing.T) {
	r := Default()
	assert.Len(t, r.Critical(), 5)

	sum := r.Summary()
	assert.Equal(t, 11, sum.Total)
	assert.Equal(t, 5, sum.BySeverity["CRITICAL"])
	assert.Equal(t, 4, sum.BySeverity["HIGH"])
	assert.Equal(t, 2, sum.BySeverity["MEDIUM"])
	assert.Equal(t, 3, sum.ByCategory["FALL_PROTECTION"])
}

func TestAllReturnsCopy(t *testing.T) {
	r := Default()
	all := r.All()
	all[0].Title = "changed"

	s, err := r.Get(all[0].Code)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", s.Title)
}

func TestNewNormalisesAndDeduplicates(t *testing.T) {
	r, err := New([]Standard{
		{Code: "A", Severity: "high", Category: "ppe", Title: "first"},
		{Code: "B", Severity: "medium", Category: "fire"},
		{Code: "A", Severity: "critical", Category: "ppe", Title: "second"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	a, err := r.Get("A")
	require.NoError(t, err)
	assert.Equal(t, "second", a.Title)
	assert.Equal(t, "CRITICAL", a.Severity)
	assert.Equal(t, "A", r.All()[0].Code)

	_, err = New([]Standard{{Code: " "}})
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"code":"X_1","title":"T","severity":"HIGH","category":"FIRE","penalty":"₹10"}]`), 0o600))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))
	_, err = LoadFile(path)
	assert.Error(t, err)

	r, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 11, r.Len())
}

func TestFormatForPrompt(t *testing.T) {
	out := Default().FormatForPrompt()
	assert.True(t, strings.HasPrefix(out, "INDIAN BIS CONSTRUCTION SAFETY STANDARDS:"))
	assert.Contains(t, out, "IS_4014_1967\nTitle: Steel Tubular Scaffolding")
	assert.Equal(t, 11, strings.Count(out, "Penalty: "))
}
