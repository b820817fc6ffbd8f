package importer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ynm-safety/crm-import-cli/internal/model"
	"github.com/ynm-safety/crm-import-cli/internal/store"
)

// Resolver maps free-text reference values (industry, sub-industry, state,
// city) to reference-row ids, creating rows when no tier matches. One
// Resolver is built per run; it owns the in-run candidate cache and never
// outlives the run, so nothing leaks across imports.
type Resolver struct {
	store   store.Store
	matcher *Matcher
	log     *zap.Logger

	// candidates per category, seeded from the store at construction and
	// appended to as new references are created during the run.
	refs map[model.RefCategory][]model.Reference

	// memo caches normalized text -> resolved id per category so identical
	// text never triggers a second matching pass. City keys embed the state
	// id because city names are not globally unique.
	memo map[model.RefCategory]map[string]string

	// created counts new reference rows made during this run.
	created int
}

// NewResolver loads the current reference-table contents and returns a
// run-scoped resolver.
func NewResolver(ctx context.Context, st store.Store, matcher *Matcher) (*Resolver, error) {
	r := &Resolver{
		store:   st,
		matcher: matcher,
		log:     zap.L().With(zap.String("component", "resolver")),
		refs:    make(map[model.RefCategory][]model.Reference, 4),
		memo:    make(map[model.RefCategory]map[string]string, 4),
	}

	for _, cat := range []model.RefCategory{
		model.RefIndustry, model.RefSubIndustry, model.RefState, model.RefCity,
	} {
		refs, err := st.ListReferences(ctx, cat)
		if err != nil {
			return nil, eris.Wrapf(err, "resolver: load %s candidates", cat)
		}
		r.refs[cat] = refs
		r.memo[cat] = make(map[string]string)
	}

	return r, nil
}

// CreatedCount returns how many reference rows this run created.
func (r *Resolver) CreatedCount() int { return r.created }

// ResolveState resolves free text to a state id, creating the state when no
// tier matches.
func (r *Resolver) ResolveState(ctx context.Context, text string) (string, error) {
	return r.resolve(ctx, model.RefState, text, "")
}

// ResolveCity resolves a city within an already-resolved state. Callers must
// resolve the state first; an empty stateID is an error because city names
// are only unique per state.
func (r *Resolver) ResolveCity(ctx context.Context, text, stateID string) (string, error) {
	if stateID == "" {
		return "", eris.Errorf("resolver: city %q needs a resolved state", text)
	}
	return r.resolve(ctx, model.RefCity, text, stateID)
}

// ResolveIndustry resolves free text to an industry id.
func (r *Resolver) ResolveIndustry(ctx context.Context, text string) (string, error) {
	return r.resolve(ctx, model.RefIndustry, text, "")
}

// ResolveSubIndustry resolves a sub-industry scoped to its parent industry.
// A candidate under a different parent industry is never returned.
func (r *Resolver) ResolveSubIndustry(ctx context.Context, text, industryID string) (string, error) {
	if industryID == "" {
		return "", eris.Errorf("resolver: sub-industry %q needs a resolved industry", text)
	}
	return r.resolve(ctx, model.RefSubIndustry, text, industryID)
}

// resolve runs the tiered match for one category, memoizes the outcome, and
// creates a reference row on miss. parentID scopes sub-industries and cities.
func (r *Resolver) resolve(ctx context.Context, cat model.RefCategory, text, parentID string) (string, error) {
	key := NameKey(text)
	if key == "" {
		return "", eris.Errorf("resolver: empty %s text", cat)
	}
	memoKey := key
	if parentID != "" {
		memoKey = key + "\x00" + parentID
	}
	if id, ok := r.memo[cat][memoKey]; ok {
		return id, nil
	}

	cands := make([]Candidate, 0, len(r.refs[cat]))
	for _, ref := range r.refs[cat] {
		if parentID != "" && ref.ParentID != parentID {
			continue
		}
		cands = append(cands, Candidate{ID: ref.ID, Name: ref.Name})
	}

	if match, tier := r.matcher.Match(text, cands); match != nil {
		r.log.Debug("reference matched",
			zap.String("category", string(cat)),
			zap.String("text", text),
			zap.String("name", match.Name),
			zap.String("tier", string(tier)),
		)
		r.memo[cat][memoKey] = match.ID
		return match.ID, nil
	}

	created, err := r.store.CreateReference(ctx, model.Reference{
		Category: cat,
		Name:     CollapseSpace(text),
		ParentID: parentID,
	})
	if err != nil {
		return "", eris.Wrapf(err, "resolver: create %s %q", cat, text)
	}

	// Append so later rows in this run match it via the exact tier.
	r.refs[cat] = append(r.refs[cat], created)
	r.memo[cat][memoKey] = created.ID
	r.created++

	r.log.Info("reference created",
		zap.String("category", string(cat)),
		zap.String("name", created.Name),
		zap.String("id", created.ID),
	)
	return created.ID, nil
}
