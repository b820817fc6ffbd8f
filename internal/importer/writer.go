package importer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ynm-safety/crm-import-cli/internal/model"
	"github.com/ynm-safety/crm-import-cli/internal/store"
)

// Writer persists one aggregated, reference-resolved account subtree with
// update-or-insert semantics at each level, cascading generated ids downward.
// Failures below the account level are recorded in the result's error list
// and never abort the run.
type Writer struct {
	store    store.Store
	resolver *Resolver
	log      *zap.Logger
}

// NewWriter creates a Writer sharing the run's resolver.
func NewWriter(st store.Store, resolver *Resolver) *Writer {
	return &Writer{
		store:    st,
		resolver: resolver,
		log:      zap.L().With(zap.String("component", "writer")),
	}
}

// WriteAccount upserts the account, then its sub-accounts and contacts.
// An account-level failure skips the whole subtree (sub-accounts have no
// meaning without a parent id) but is still only a per-entity error.
func (w *Writer) WriteAccount(ctx context.Context, draft *AccountDraft, res *model.ImportResult) {
	acct, err := w.upsertAccount(ctx, draft, res)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("account %q: %v", draft.Name, err))
		return
	}

	for _, sub := range draft.Subs {
		subAcct, err := w.upsertSubAccount(ctx, acct.ID, sub, res)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("account %q sub-account %q: %v", draft.Name, sub.Name, err))
			continue
		}
		for _, c := range sub.Contacts {
			if err := w.upsertContact(ctx, acct.ID, subAcct.ID, c, res); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("account %q contact %q: %v", draft.Name, c.Name, err))
			}
		}
	}
}

// upsertAccount merges into an existing account or inserts a new one.
// Company stage/tag follow blank-never-overwrites-filled except stage, which
// is always updated when the incoming value is non-blank. Industry
// associations are appended only when the exact pair is absent.
func (w *Writer) upsertAccount(ctx context.Context, draft *AccountDraft, res *model.ImportResult) (*model.Account, error) {
	assocs := w.resolveIndustries(ctx, draft, res)

	existing, err := w.store.FindAccountByName(ctx, NameKey(draft.Name))
	if err != nil {
		return nil, err
	}

	if existing == nil {
		created, err := w.store.CreateAccount(ctx, model.Account{
			Name:         draft.Name,
			CompanyStage: draft.CompanyStage,
			CompanyTag:   draft.CompanyTag,
			Industries:   assocs,
		})
		if err != nil {
			return nil, err
		}
		res.AccountsCreated++
		w.log.Info("account created", zap.String("name", created.Name), zap.String("id", created.ID))
		return &created, nil
	}

	if draft.CompanyStage != "" {
		existing.CompanyStage = draft.CompanyStage
	}
	fillIfBlank(&existing.CompanyTag, draft.CompanyTag)
	for _, assoc := range assocs {
		if !existing.HasAssociation(assoc) {
			existing.Industries = append(existing.Industries, assoc)
		}
	}

	if err := w.store.UpdateAccount(ctx, *existing); err != nil {
		return nil, err
	}
	res.AccountsUpdated++
	return existing, nil
}

// resolveIndustries resolves the draft's (industry, sub-industry) text pairs.
// An unresolved industry drops that pair with a soft error; an unresolved
// sub-industry keeps the industry-only association.
func (w *Writer) resolveIndustries(ctx context.Context, draft *AccountDraft, res *model.ImportResult) []model.IndustryAssociation {
	var assocs []model.IndustryAssociation
	for _, pair := range draft.IndustryPairs {
		indID, err := w.resolver.ResolveIndustry(ctx, pair.Industry)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("account %q industry %q: %v", draft.Name, pair.Industry, err))
			continue
		}
		assoc := model.IndustryAssociation{IndustryID: indID}
		if pair.SubIndustry != "" {
			subID, err := w.resolver.ResolveSubIndustry(ctx, pair.SubIndustry, indID)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("account %q sub-industry %q: %v", draft.Name, pair.SubIndustry, err))
			} else {
				assoc.SubIndustryID = subID
			}
		}
		assocs = append(assocs, assoc)
	}
	return assocs
}

// upsertSubAccount merges or inserts a sub-account under the account id.
// Resolved state/city ids are written only when the incoming text resolved;
// they never blank out a previously-set id.
func (w *Writer) upsertSubAccount(ctx context.Context, accountID string, draft *SubAccountDraft, res *model.ImportResult) (*model.SubAccount, error) {
	stateID, cityID := w.resolveLocation(ctx, draft, res)

	existing, err := w.store.FindSubAccount(ctx, accountID, NameKey(draft.Name))
	if err != nil {
		return nil, err
	}

	if existing == nil {
		created, err := w.store.CreateSubAccount(ctx, model.SubAccount{
			AccountID:  accountID,
			Name:       draft.Name,
			Address:    draft.Address,
			StateID:    stateID,
			CityID:     cityID,
			Pincode:    draft.Pincode,
			OfficeType: draft.OfficeType,
		})
		if err != nil {
			return nil, err
		}
		res.SubAccountsCreated++
		w.log.Info("sub-account created",
			zap.String("account_id", accountID),
			zap.String("name", created.Name),
			zap.String("id", created.ID),
		)
		return &created, nil
	}

	fillIfBlank(&existing.Address, draft.Address)
	fillIfBlank(&existing.StateID, stateID)
	fillIfBlank(&existing.CityID, cityID)
	fillIfBlank(&existing.Pincode, draft.Pincode)
	fillIfBlank(&existing.OfficeType, draft.OfficeType)

	if err := w.store.UpdateSubAccount(ctx, *existing); err != nil {
		return nil, err
	}
	res.SubAccountsUpdated++
	return existing, nil
}

// resolveLocation resolves the draft's state and, when the state resolved,
// its city. Failures are soft: the id stays empty and the error is recorded.
func (w *Writer) resolveLocation(ctx context.Context, draft *SubAccountDraft, res *model.ImportResult) (stateID, cityID string) {
	if draft.State != "" {
		id, err := w.resolver.ResolveState(ctx, draft.State)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("sub-account %q state %q: %v", draft.Name, draft.State, err))
		} else {
			stateID = id
		}
	}
	if draft.City != "" {
		if stateID == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("sub-account %q city %q: skipped, state unresolved", draft.Name, draft.City))
			return
		}
		id, err := w.resolver.ResolveCity(ctx, draft.City, stateID)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("sub-account %q city %q: %v", draft.Name, draft.City, err))
		} else {
			cityID = id
		}
	}
	return
}

// upsertContact merges or inserts a contact under the sub-account id. Only
// non-blank incoming fields are applied to an existing row.
func (w *Writer) upsertContact(ctx context.Context, accountID, subAccountID string, draft *ContactDraft, res *model.ImportResult) error {
	existing, err := w.store.FindContact(ctx, subAccountID, NameKey(draft.Name))
	if err != nil {
		return err
	}

	if existing == nil {
		created, err := w.store.CreateContact(ctx, model.Contact{
			SubAccountID: subAccountID,
			AccountID:    accountID,
			Name:         draft.Name,
			Phone:        draft.PhoneList(),
			Email:        draft.Email,
			Designation:  draft.Designation,
		})
		if err != nil {
			return err
		}
		res.ContactsCreated++
		w.log.Info("contact created",
			zap.String("sub_account_id", subAccountID),
			zap.String("name", created.Name),
			zap.String("id", created.ID),
		)
		return nil
	}

	mergeContactPhones(existing, draft.Phones)
	fillIfBlank(&existing.Email, draft.Email)
	fillIfBlank(&existing.Designation, draft.Designation)

	if err := w.store.UpdateContact(ctx, *existing); err != nil {
		return err
	}
	res.ContactsUpdated++
	return nil
}

// mergeContactPhones unions incoming numbers into the stored delimited list,
// preserving stored order and never dropping an existing number.
func mergeContactPhones(c *model.Contact, incoming []string) {
	existing := SplitPhones(c.Phone)
	seen := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		seen[n] = struct{}{}
	}
	merged := existing
	for _, n := range incoming {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		merged = append(merged, n)
	}
	c.Phone = strings.Join(merged, " / ")
}
