package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ynm-safety/crm-import-cli/internal/db"
	"github.com/ynm-safety/crm-import-cli/internal/model"
	"github.com/ynm-safety/crm-import-cli/internal/normalize"
)

// nameKey is the natural-key form stored in the *_key columns.
func nameKey(s string) string { return normalize.Key(s) }

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns, minConns := int32(10), int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool exposes the pool for subsystems needing direct access (run log, seeding).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reference_values (
	id         TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	name       TEXT NOT NULL,
	name_key   TEXT NOT NULL,
	parent_id  TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_reference_natural_key
	ON reference_values(category, parent_id, name_key);

CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	name_key      TEXT NOT NULL UNIQUE,
	company_stage TEXT NOT NULL DEFAULT '',
	company_tag   TEXT NOT NULL DEFAULT '',
	industries    JSONB NOT NULL DEFAULT '[]',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
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
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
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
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (sub_account_id, name_key)
);

CREATE INDEX IF NOT EXISTS idx_reference_category ON reference_values(category);
CREATE INDEX IF NOT EXISTS idx_sub_accounts_account ON sub_accounts(account_id);
CREATE INDEX IF NOT EXISTS idx_contacts_sub_account ON contacts(sub_account_id);

CREATE TABLE IF NOT EXISTS import_log (
	id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	source       TEXT NOT NULL,
	status       TEXT NOT NULL,
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ,
	result       JSONB,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_import_log_started ON import_log(started_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ListReferences(ctx context.Context, category model.RefCategory) ([]model.Reference, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, category, name, parent_id FROM reference_values WHERE category = $1 ORDER BY name`,
		string(category),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list %s references", category)
	}
	defer rows.Close()

	var refs []model.Reference
	for rows.Next() {
		var r model.Reference
		if err := rows.Scan(&r.ID, &r.Category, &r.Name, &r.ParentID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan reference")
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

func (s *PostgresStore) CreateReference(ctx context.Context, ref model.Reference) (model.Reference, error) {
	ref.ID = uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reference_values (id, category, name, name_key, parent_id) VALUES ($1, $2, $3, $4, $5)`,
		ref.ID, string(ref.Category), ref.Name, nameKey(ref.Name), ref.ParentID,
	)
	if err != nil {
		return model.Reference{}, eris.Wrapf(err, "postgres: insert %s reference %q", ref.Category, ref.Name)
	}
	return ref, nil
}

func (s *PostgresStore) FindAccountByName(ctx context.Context, key string) (*model.Account, error) {
	var a model.Account
	var industriesJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, company_stage, company_tag, industries, created_at, updated_at FROM accounts WHERE name_key = $1`,
		key,
	).Scan(&a.ID, &a.Name, &a.CompanyStage, &a.CompanyTag, &industriesJSON, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find account %q", key)
	}
	if err := json.Unmarshal(industriesJSON, &a.Industries); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal industries")
	}
	return &a, nil
}

func (s *PostgresStore) CreateAccount(ctx context.Context, a model.Account) (model.Account, error) {
	a.ID = uuid.New().String()
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	industriesJSON, err := marshalAssociations(a.Industries)
	if err != nil {
		return model.Account{}, err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO accounts (id, name, name_key, company_stage, company_tag, industries, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.Name, nameKey(a.Name), a.CompanyStage, a.CompanyTag, industriesJSON, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return model.Account{}, eris.Wrapf(err, "postgres: insert account %q", a.Name)
	}
	return a, nil
}

func (s *PostgresStore) UpdateAccount(ctx context.Context, a model.Account) error {
	industriesJSON, err := marshalAssociations(a.Industries)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET company_stage = $1, company_tag = $2, industries = $3, updated_at = $4 WHERE id = $5`,
		a.CompanyStage, a.CompanyTag, industriesJSON, time.Now().UTC(), a.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update account %s", a.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("account not found: %s", a.ID)
	}
	return nil
}

func (s *PostgresStore) FindSubAccount(ctx context.Context, accountID, key string) (*model.SubAccount, error) {
	var sa model.SubAccount
	err := s.pool.QueryRow(ctx,
		`SELECT id, account_id, name, address, state_id, city_id, pincode, office_type, created_at, updated_at
		 FROM sub_accounts WHERE account_id = $1 AND name_key = $2`,
		accountID, key,
	).Scan(&sa.ID, &sa.AccountID, &sa.Name, &sa.Address, &sa.StateID, &sa.CityID, &sa.Pincode, &sa.OfficeType, &sa.CreatedAt, &sa.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find sub-account %q", key)
	}
	return &sa, nil
}

func (s *PostgresStore) CreateSubAccount(ctx context.Context, sa model.SubAccount) (model.SubAccount, error) {
	sa.ID = uuid.New().String()
	now := time.Now().UTC()
	sa.CreatedAt, sa.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO sub_accounts (id, account_id, name, name_key, address, state_id, city_id, pincode, office_type, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sa.ID, sa.AccountID, sa.Name, nameKey(sa.Name), sa.Address, sa.StateID, sa.CityID, sa.Pincode, sa.OfficeType, sa.CreatedAt, sa.UpdatedAt,
	)
	if err != nil {
		return model.SubAccount{}, eris.Wrapf(err, "postgres: insert sub-account %q", sa.Name)
	}
	return sa, nil
}

func (s *PostgresStore) UpdateSubAccount(ctx context.Context, sa model.SubAccount) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sub_accounts SET address = $1, state_id = $2, city_id = $3, pincode = $4, office_type = $5, updated_at = $6 WHERE id = $7`,
		sa.Address, sa.StateID, sa.CityID, sa.Pincode, sa.OfficeType, time.Now().UTC(), sa.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update sub-account %s", sa.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("sub-account not found: %s", sa.ID)
	}
	return nil
}

func (s *PostgresStore) FindContact(ctx context.Context, subAccountID, key string) (*model.Contact, error) {
	var c model.Contact
	err := s.pool.QueryRow(ctx,
		`SELECT id, sub_account_id, account_id, name, phone, email, designation, created_at, updated_at
		 FROM contacts WHERE sub_account_id = $1 AND name_key = $2`,
		subAccountID, key,
	).Scan(&c.ID, &c.SubAccountID, &c.AccountID, &c.Name, &c.Phone, &c.Email, &c.Designation, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find contact %q", key)
	}
	return &c, nil
}

func (s *PostgresStore) CreateContact(ctx context.Context, c model.Contact) (model.Contact, error) {
	c.ID = uuid.New().String()
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO contacts (id, sub_account_id, account_id, name, name_key, phone, email, designation, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.SubAccountID, c.AccountID, c.Name, nameKey(c.Name), c.Phone, c.Email, c.Designation, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return model.Contact{}, eris.Wrapf(err, "postgres: insert contact %q", c.Name)
	}
	return c, nil
}

func (s *PostgresStore) UpdateContact(ctx context.Context, c model.Contact) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET phone = $1, email = $2, designation = $3, updated_at = $4 WHERE id = $5`,
		c.Phone, c.Email, c.Designation, time.Now().UTC(), c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update contact %s", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("contact not found: %s", c.ID)
	}
	return nil
}

func marshalAssociations(assocs []model.IndustryAssociation) ([]byte, error) {
	if assocs == nil {
		assocs = []model.IndustryAssociation{}
	}
	b, err := json.Marshal(assocs)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal industries")
	}
	return b, nil
}
