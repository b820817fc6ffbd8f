package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ynm-safety/crm-import-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Used for local and
// development runs where a postgres instance is unavailable.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sqldb.Exec(pragma); err != nil {
			sqldb.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqldb}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reference_values (
	id         TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	name       TEXT NOT NULL,
	name_key   TEXT NOT NULL,
	parent_id  TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (category, parent_id, name_key)
);

CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	name_key      TEXT NOT NULL UNIQUE,
	company_stage TEXT NOT NULL DEFAULT '',
	company_tag   TEXT NOT NULL DEFAULT '',
	industries    TEXT NOT NULL DEFAULT '[]',
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sub_accounts (
	id          TEXT PRIMARY KEY,
	account_id  TEXT NOT NULL REFERENCES accounts(id),
	name        TEXT NOT NULL,
	name_key    TEXT NOT NULL,
	address     TEXT NOT NULL DEFAULT '',
	state_id    TEXT NOT NULL DEFAULT '',
	city_id     TEXT NOT NULL DEFAULT '',
	pincode     TEXT NOT NULL DEFAULT '',
	office_type TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL,
	UNIQUE (account_id, name_key)
);

CREATE TABLE IF NOT EXISTS contacts (
	id             TEXT PRIMARY KEY,
	sub_account_id TEXT NOT NULL REFERENCES sub_accounts(id),
	account_id     TEXT NOT NULL REFERENCES accounts(id),
	name           TEXT NOT NULL,
	name_key       TEXT NOT NULL,
	phone          TEXT NOT NULL DEFAULT '',
	email          TEXT NOT NULL DEFAULT '',
	designation    TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL,
	UNIQUE (sub_account_id, name_key)
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return eris.Wrap(s.db.Close(), "sqlite: close")
}

func (s *SQLiteStore) ListReferences(ctx context.Context, category model.RefCategory) ([]model.Reference, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, name, parent_id FROM reference_values WHERE category = ? ORDER BY name`,
		string(category),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list %s references", category)
	}
	defer rows.Close()

	var refs []model.Reference
	for rows.Next() {
		var r model.Reference
		if err := rows.Scan(&r.ID, &r.Category, &r.Name, &r.ParentID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan reference")
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

func (s *SQLiteStore) CreateReference(ctx context.Context, ref model.Reference) (model.Reference, error) {
	ref.ID = uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reference_values (id, category, name, name_key, parent_id) VALUES (?, ?, ?, ?, ?)`,
		ref.ID, string(ref.Category), ref.Name, nameKey(ref.Name), ref.ParentID,
	)
	if err != nil {
		return model.Reference{}, eris.Wrapf(err, "sqlite: insert %s reference %q", ref.Category, ref.Name)
	}
	return ref, nil
}

func (s *SQLiteStore) FindAccountByName(ctx context.Context, key string) (*model.Account, error) {
	var a model.Account
	var industriesJSON []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, company_stage, company_tag, industries, created_at, updated_at FROM accounts WHERE name_key = ?`,
		key,
	).Scan(&a.ID, &a.Name, &a.CompanyStage, &a.CompanyTag, &industriesJSON, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find account %q", key)
	}
	if err := json.Unmarshal(industriesJSON, &a.Industries); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal industries")
	}
	return &a, nil
}

func (s *SQLiteStore) CreateAccount(ctx context.Context, a model.Account) (model.Account, error) {
	a.ID = uuid.New().String()
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	industriesJSON, err := marshalAssociations(a.Industries)
	if err != nil {
		return model.Account{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, name_key, company_stage, company_tag, industries, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, nameKey(a.Name), a.CompanyStage, a.CompanyTag, string(industriesJSON), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return model.Account{}, eris.Wrapf(err, "sqlite: insert account %q", a.Name)
	}
	return a, nil
}

func (s *SQLiteStore) UpdateAccount(ctx context.Context, a model.Account) error {
	industriesJSON, err := marshalAssociations(a.Industries)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET company_stage = ?, company_tag = ?, industries = ?, updated_at = ? WHERE id = ?`,
		a.CompanyStage, a.CompanyTag, string(industriesJSON), time.Now().UTC(), a.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update account %s", a.ID)
	}
	return requireRow(res, "account", a.ID)
}

func (s *SQLiteStore) FindSubAccount(ctx context.Context, accountID, key string) (*model.SubAccount, error) {
	var sa model.SubAccount
	err := s.db.QueryRowContext(ctx,
		`SELECT id, account_id, name, address, state_id, city_id, pincode, office_type, created_at, updated_at
		 FROM sub_accounts WHERE account_id = ? AND name_key = ?`,
		accountID, key,
	).Scan(&sa.ID, &sa.AccountID, &sa.Name, &sa.Address, &sa.StateID, &sa.CityID, &sa.Pincode, &sa.OfficeType, &sa.CreatedAt, &sa.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find sub-account %q", key)
	}
	return &sa, nil
}

func (s *SQLiteStore) CreateSubAccount(ctx context.Context, sa model.SubAccount) (model.SubAccount, error) {
	sa.ID = uuid.New().String()
	now := time.Now().UTC()
	sa.CreatedAt, sa.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sub_accounts (id, account_id, name, name_key, address, state_id, city_id, pincode, office_type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sa.ID, sa.AccountID, sa.Name, nameKey(sa.Name), sa.Address, sa.StateID, sa.CityID, sa.Pincode, sa.OfficeType, sa.CreatedAt, sa.UpdatedAt,
	)
	if err != nil {
		return model.SubAccount{}, eris.Wrapf(err, "sqlite: insert sub-account %q", sa.Name)
	}
	return sa, nil
}

func (s *SQLiteStore) UpdateSubAccount(ctx context.Context, sa model.SubAccount) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sub_accounts SET address = ?, state_id = ?, city_id = ?, pincode = ?, office_type = ?, updated_at = ? WHERE id = ?`,
		sa.Address, sa.StateID, sa.CityID, sa.Pincode, sa.OfficeType, time.Now().UTC(), sa.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update sub-account %s", sa.ID)
	}
	return requireRow(res, "sub-account", sa.ID)
}

func (s *SQLiteStore) FindContact(ctx context.Context, subAccountID, key string) (*model.Contact, error) {
	var c model.Contact
	err := s.db.QueryRowContext(ctx,
		`SELECT id, sub_account_id, account_id, name, phone, email, designation, created_at, updated_at
		 FROM contacts WHERE sub_account_id = ? AND name_key = ?`,
		subAccountID, key,
	).Scan(&c.ID, &c.SubAccountID, &c.AccountID, &c.Name, &c.Phone, &c.Email, &c.Designation, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find contact %q", key)
	}
	return &c, nil
}

func (s *SQLiteStore) CreateContact(ctx context.Context, c model.Contact) (model.Contact, error) {
	c.ID = uuid.New().String()
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, sub_account_id, account_id, name, name_key, phone, email, designation, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SubAccountID, c.AccountID, c.Name, nameKey(c.Name), c.Phone, c.Email, c.Designation, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return model.Contact{}, eris.Wrapf(err, "sqlite: insert contact %q", c.Name)
	}
	return c, nil
}

func (s *SQLiteStore) UpdateContact(ctx context.Context, c model.Contact) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET phone = ?, email = ?, designation = ?, updated_at = ? WHERE id = ?`,
		c.Phone, c.Email, c.Designation, time.Now().UTC(), c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update contact %s", c.ID)
	}
	return requireRow(res, "contact", c.ID)
}

func requireRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
