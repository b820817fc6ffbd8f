package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ynm-safety/crm-import-cli/internal/model"
)

func newTestResolver(t *testing.T, st *fakeStore) *Resolver {
	t.Helper()
	r, err := NewResolver(context.Background(), st, NewMatcher(0, DefaultSynonyms()))
	require.NoError(t, err)
	return r
}

func TestResolver_MatchesSeededReference(t *testing.T) {
	st := newFakeStore()
	seeded := st.addRef(model.RefState, "Telangana", "")
	r := newTestResolver(t, st)

	id, err := r.ResolveState(context.Background(), "TELANGANA")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, id)
	assert.Equal(t, 0, r.CreatedCount())
}

func TestResolver_CreatesOnMiss(t *testing.T) {
	st := newFakeStore()
	r := newTestResolver(t, st)

	id, err := r.ResolveState(context.Background(), "  Telangana  ")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, r.CreatedCount())

	// The stored name is the cleaned display form, not the folded key.
	refs, err := st.ListReferences(context.Background(), model.RefState)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Telangana", refs[0].Name)
}

func TestResolver_CreatedReferenceMatchesLaterInRun(t *testing.T) {
	st := newFakeStore()
	r := newTestResolver(t, st)

	first, err := r.ResolveState(context.Background(), "Telangana")
	require.NoError(t, err)

	// Same value spelled differently later in the run must hit the new row,
	// not create a second one.
	second, err := r.ResolveState(context.Background(), "telangana ")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.CreatedCount())
}

func TestResolver_MemoizesIdenticalText(t *testing.T) {
	st := newFakeStore()
	st.addRef(model.RefState, "Telangana", "")
	r := newTestResolver(t, st)

	id1, err := r.ResolveState(context.Background(), "Telangana")
	require.NoError(t, err)

	// Drop the candidates behind the resolver's back; the memo must answer.
	r.refs[model.RefState] = nil
	id2, err := r.ResolveState(context.Background(), "Telangana")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestResolver_SubIndustryScopedToParent(t *testing.T) {
	st := newFakeStore()
	mfg := st.addRef(model.RefIndustry, "Manufacturing", "")
	retail := st.addRef(model.RefIndustry, "Retail", "")
	mfgGeneral := st.addRef(model.RefSubIndustry, "General", mfg.ID)
	retailGeneral := st.addRef(model.RefSubIndustry, "General", retail.ID)
	r := newTestResolver(t, st)

	id, err := r.ResolveSubIndustry(context.Background(), "General", mfg.ID)
	require.NoError(t, err)
	assert.Equal(t, mfgGeneral.ID, id)

	id, err = r.ResolveSubIndustry(context.Background(), "General", retail.ID)
	require.NoError(t, err)
	assert.Equal(t, retailGeneral.ID, id)
}

func TestResolver_SubIndustryRequiresIndustry(t *testing.T) {
	r := newTestResolver(t, newFakeStore())
	_, err := r.ResolveSubIndustry(context.Background(), "General", "")
	require.Error(t, err)
}

func TestResolver_CityScopedToState(t *testing.T) {
	st := newFakeStore()
	ts := st.addRef(model.RefState, "Telangana", "")
	mh := st.addRef(model.RefState, "Maharashtra", "")
	hyd := st.addRef(model.RefCity, "Hyderabad", ts.ID)
	r := newTestResolver(t, st)

	id, err := r.ResolveCity(context.Background(), "Hyderabad", ts.ID)
	require.NoError(t, err)
	assert.Equal(t, hyd.ID, id)

	// Same city name under another state is a different row.
	other, err := r.ResolveCity(context.Background(), "Hyderabad", mh.ID)
	require.NoError(t, err)
	assert.NotEqual(t, hyd.ID, other)
	assert.Equal(t, 1, r.CreatedCount())
}

func TestResolver_CityRequiresState(t *testing.T) {
	r := newTestResolver(t, newFakeStore())
	_, err := r.ResolveCity(context.Background(), "Hyderabad", "")
	require.Error(t, err)
}

func TestResolver_EmptyTextRejected(t *testing.T) {
	r := newTestResolver(t, newFakeStore())
	_, err := r.ResolveIndustry(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, 0, r.CreatedCount())
}

func TestResolver_FuzzyMatchAvoidsDuplicate(t *testing.T) {
	st := newFakeStore()
	seeded := st.addRef(model.RefCity, "Secunderabad", "state-1")
	st.refs[model.RefState] = []model.Reference{{ID: "state-1", Category: model.RefState, Name: "Telangana"}}
	r := newTestResolver(t, st)

	id, err := r.ResolveCity(context.Background(), "Secundrabad", "state-1")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, id)
	assert.Equal(t, 0, r.CreatedCount())
}
