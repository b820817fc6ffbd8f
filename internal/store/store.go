// Package store persists reconciled CRM entities and reference rows.
package store

import (
	"context"

	"github.com/ynm-safety/crm-import-cli/internal/model"
)

// Store defines the persistence boundary used by the import pipeline. Every
// lookup is by natural key; each call is independent — no multi-statement
// transaction is assumed. Find methods return (nil, nil) when no row exists.
type Store interface {
	// References
	ListReferences(ctx context.Context, category model.RefCategory) ([]model.Reference, error)
	CreateReference(ctx context.Context, ref model.Reference) (model.Reference, error)

	// Accounts
	FindAccountByName(ctx context.Context, nameKey string) (*model.Account, error)
	CreateAccount(ctx context.Context, a model.Account) (model.Account, error)
	UpdateAccount(ctx context.Context, a model.Account) error

	// SubAccounts
	FindSubAccount(ctx context.Context, accountID, nameKey string) (*model.SubAccount, error)
	CreateSubAccount(ctx context.Context, s model.SubAccount) (model.SubAccount, error)
	UpdateSubAccount(ctx context.Context, s model.SubAccount) error

	// Contacts
	FindContact(ctx context.Context, subAccountID, nameKey string) (*model.Contact, error)
	CreateContact(ctx context.Context, c model.Contact) (model.Contact, error)
	UpdateContact(ctx context.Context, c model.Contact) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
