package report

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun() *RunResult {
	return &RunResult{
		ID:       uuid.NewString(),
		Kind:     Build,
		ExitCode: 1,
		Diagnostics: []Diagnostic{
			{Severity: SeverityError, Code: "CS1002", File: "/src/App/Program.cs", Line: 12, Col: 5, Message: "; expected", Project: "/src/App/App.csproj"},
			{Severity: SeverityWarning, Code: "CS0168", File: "/src/Lib/Util.cs", Line: 3, Col: 9, Message: "unused variable", Project: "/src/Lib/Lib.csproj"},
			{Severity: SeverityError, Code: "NU1101", Message: "Unable to find package Foo", Project: "/src/App/App.csproj"},
		},
	}
}

func TestQueries(t *testing.T) {
	r := sampleRun()

	assert.Len(t, ByProject(r, "/src/App/App.csproj"), 2)
	assert.Len(t, ByProject(r, "Lib.csproj"), 1)
	assert.Len(t, ByCode(r, "cs1002"), 1)
	assert.Len(t, ByFile(r, "Program.cs"), 1)
	assert.Empty(t, ByFile(r, "Missing.cs"))

	assert.Equal(t, 2, r.Count(SeverityError))
	assert.Equal(t, 1, r.Count(SeverityWarning))
	assert.True(t, r.HasErrors())
}

func TestQuery_Selector(t *testing.T) {
	r := sampleRun()
	assert.Len(t, Query(r, ""), 3)
	assert.Len(t, Query(r, "NU1101"), 1)
	assert.Len(t, Query(r, "App.csproj"), 2)
	assert.Len(t, Query(r, "Util.cs"), 1)
	assert.Empty(t, Query(r, "nothing"))
}

func TestExpect(t *testing.T) {
	r := sampleRun()
	assert.NoError(t, r.Expect(Build))
	assert.Error(t, r.Expect(Test))
}

func TestDiskStore_RoundTrip(t *testing.T) {
	s := NewDiskStoreAt(t.TempDir())
	r := sampleRun()
	r.Tests = &TestSummary{Failed: 1, Succeeded: 2, Total: 3}

	require.NoError(t, s.Save(r))
	got, err := s.Load(r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestDiskStore_RejectsInvalidID(t *testing.T) {
	s := NewDiskStoreAt(t.TempDir())
	_, err := s.Load("../../etc/passwd")
	assert.Error(t, err)
	assert.Error(t, s.Save(&RunResult{ID: "not-a-uuid"}))
}

func TestDiskStore_Missing(t *testing.T) {
	s := NewDiskStoreAt(t.TempDir())
	_, err := s.Load(uuid.NewString())
	assert.Error(t, err)
}

type countingStore struct {
	saved map[string]*RunResult
	loads int
}

func (c *countingStore) Save(r *RunResult) error {
	if c.saved == nil {
		c.saved = make(map[string]*RunResult)
	}
	c.saved[r.ID] = r
	return nil
}

func (c *countingStore) Load(id string) (*RunResult, error) {
	c.loads++
	if r, ok := c.saved[id]; ok {
		return r, nil
	}
	return nil, errors.New("not found")
}

func TestLRUStore_EvictsOldest(t *testing.T) {
	back := &countingStore{}
	s := NewLRUStore(2, back)

	a, b, c := sampleRun(), sampleRun(), sampleRun()
	require.NoError(t, s.Save(a))
	require.NoError(t, s.Save(b))

	// Touch a so that b becomes the oldest.
	_, err := s.Load(a.ID)
	require.NoError(t, err)
	require.NoError(t, s.Save(c))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 0, back.loads)

	// b was evicted and must come from the backing store.
	got, err := s.Load(b.ID)
	require.NoError(t, err)
	assert.Same(t, b, got)
	assert.Equal(t, 1, back.loads)
	assert.Equal(t, 2, s.Len())
}

func TestLRUStore_MissPropagatesError(t *testing.T) {
	s := NewLRUStore(0, &countingStore{})
	_, err := s.Load("missing")
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}
