package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/taka-pay/taka_pay/internal/storage"
)

const walletColumns = `id, owner_id, type, currency, status, balance, min_balance,
        daily_limit, monthly_limit, daily_spent, monthly_spent, last_reset_at, created_at, updated_at`

// PostgresStore persists wallets in PostgreSQL. All statements run through
// storage.QuerierFrom so they join an open transaction when one is carried by
// the context.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a wallet store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a wallet record.
func (s *PostgresStore) Create(ctx context.Context, w Wallet) error {
	walletID, err := uuid.Parse(w.ID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(w.OwnerID)
	if err != nil {
		return err
	}
	q := storage.QuerierFrom(ctx, s.db)
	_, err = q.Exec(ctx, `INSERT INTO wallets (id, owner_id, type, currency, status, balance, min_balance,
        daily_limit, monthly_limit, daily_spent, monthly_spent, last_reset_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		walletID, ownerID, string(w.Type), w.Currency, string(w.Status), w.Balance, w.MinBalance,
		w.DailyLimit, w.MonthlyLimit, w.DailySpent, w.MonthlySpent, w.LastResetAt.UTC(), w.CreatedAt.UTC(), w.UpdatedAt.UTC())
	return err
}

// Get fetches a wallet by identifier.
func (s *PostgresStore) Get(ctx context.Context, id string) (Wallet, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return Wallet{}, ErrNotFound
	}
	q := storage.QuerierFrom(ctx, s.db)
	row := q.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, walletID)
	return scanWallet(row)
}

// GetByOwner fetches the wallet belonging to the given owner.
func (s *PostgresStore) GetByOwner(ctx context.Context, ownerID string) (Wallet, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return Wallet{}, ErrNotFound
	}
	q := storage.QuerierFrom(ctx, s.db)
	row := q.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE owner_id = $1`, owner)
	return scanWallet(row)
}

// GetByType fetches the oldest wallet of the given type. Used to locate the
// platform system wallet.
func (s *PostgresStore) GetByType(ctx context.Context, t Type) (Wallet, error) {
	q := storage.QuerierFrom(ctx, s.db)
	row := q.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE type = $1 ORDER BY created_at LIMIT 1`, string(t))
	return scanWallet(row)
}

// Credit atomically increments the balance of an active wallet.
func (s *PostgresStore) Credit(ctx context.Context, id string, amount decimal.Decimal) (Wallet, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return Wallet{}, ErrNotFound
	}
	q := storage.QuerierFrom(ctx, s.db)
	row := q.QueryRow(ctx, `UPDATE wallets SET balance = balance + $2, updated_at = now()
        WHERE id = $1 AND status = 'ACTIVE'
        RETURNING `+walletColumns, walletID, amount)
	w, err := scanWallet(row)
	if errors.Is(err, ErrNotFound) {
		return Wallet{}, s.classify(ctx, id)
	}
	return w, err
}

// ConditionalDebit is the compare-and-swap the engine relies on: the balance
// precondition is evaluated by the database at commit time, which is what
// protects concurrent debits against lost updates.
func (s *PostgresStore) ConditionalDebit(ctx context.Context, id string, amount, required decimal.Decimal) (Wallet, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return Wallet{}, ErrNotFound
	}
	q := storage.QuerierFrom(ctx, s.db)
	row := q.QueryRow(ctx, `UPDATE wallets
        SET balance = balance - $2,
            daily_spent = daily_spent + $2,
            monthly_spent = monthly_spent + $2,
            updated_at = now()
        WHERE id = $1 AND status = 'ACTIVE' AND balance >= $3 AND balance - $2 >= min_balance
        RETURNING `+walletColumns, walletID, amount, required)
	w, err := scanWallet(row)
	if errors.Is(err, ErrNotFound) {
		return Wallet{}, s.classify(ctx, id)
	}
	return w, err
}

// ResetLimits zeroes the selected spent counters and stamps the reset instant.
func (s *PostgresStore) ResetLimits(ctx context.Context, id string, daily, monthly bool, at time.Time) error {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	q := storage.QuerierFrom(ctx, s.db)
	tag, err := q.Exec(ctx, `UPDATE wallets
        SET daily_spent = CASE WHEN $2 THEN 0 ELSE daily_spent END,
            monthly_spent = CASE WHEN $3 THEN 0 ELSE monthly_spent END,
            last_reset_at = $4,
            updated_at = now()
        WHERE id = $1`, walletID, daily, monthly, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus transitions the wallet lifecycle state.
func (s *PostgresStore) SetStatus(ctx context.Context, id string, status Status) error {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	q := storage.QuerierFrom(ctx, s.db)
	tag, err := q.Exec(ctx, `UPDATE wallets SET status = $2, updated_at = now() WHERE id = $1`, walletID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// classify turns a zero-row conditional update into the precise failure.
func (s *PostgresStore) classify(ctx context.Context, id string) error {
	w, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !w.Active() {
		return ErrInactive
	}
	return ErrInsufficientBalance
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w           Wallet
		idVal       uuid.UUID
		ownerID     uuid.UUID
		typ, status string
	)
	err := row.Scan(&idVal, &ownerID, &typ, &w.Currency, &status, &w.Balance, &w.MinBalance,
		&w.DailyLimit, &w.MonthlyLimit, &w.DailySpent, &w.MonthlySpent, &w.LastResetAt, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.ID = idVal.String()
	w.OwnerID = ownerID.String()
	w.Type = Type(typ)
	w.Status = Status(status)
	w.LastResetAt = w.LastResetAt.UTC()
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	return w, nil
}
