package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taka-pay/taka_pay/internal/storage"
)

const txnColumns = `id, reference, type, amount, fee, commission, net_amount,
        from_wallet_id, to_wallet_id, initiated_by, processed_by, status, description, created_at`

// PostgresLedger persists transactions in PostgreSQL.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Append inserts a transaction. The reference column carries a unique
// constraint; a violation surfaces as ErrDuplicateReference.
func (l *PostgresLedger) Append(ctx context.Context, txn Transaction) error {
	txnID, err := uuid.Parse(txn.ID)
	if err != nil {
		return err
	}
	fromID, err := uuid.Parse(txn.FromWalletID)
	if err != nil {
		return err
	}
	var toID *uuid.UUID
	if txn.ToWalletID != "" {
		parsed, err := uuid.Parse(txn.ToWalletID)
		if err != nil {
			return err
		}
		toID = &parsed
	}
	var processedBy *string
	if txn.Actor.Mediated() {
		processedBy = &txn.Actor.ProcessedBy
	}

	q := storage.QuerierFrom(ctx, l.db)
	_, err = q.Exec(ctx, `INSERT INTO transactions (id, reference, type, amount, fee, commission, net_amount,
        from_wallet_id, to_wallet_id, initiated_by, processed_by, status, description, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		txnID, txn.Reference, string(txn.Type), txn.Amount, txn.Fee, txn.Commission, txn.NetAmount,
		fromID, toID, txn.Actor.InitiatedBy, processedBy, string(txn.Status), txn.Description, txn.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateReference
		}
		return err
	}
	return nil
}

// Get fetches a transaction by identifier.
func (l *PostgresLedger) Get(ctx context.Context, id string) (Transaction, error) {
	txnID, err := uuid.Parse(id)
	if err != nil {
		return Transaction{}, ErrNotFound
	}
	q := storage.QuerierFrom(ctx, l.db)
	return scanTransaction(q.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions WHERE id = $1`, txnID))
}

// GetByReference fetches a transaction by its unique reference.
func (l *PostgresLedger) GetByReference(ctx context.Context, reference string) (Transaction, error) {
	q := storage.QuerierFrom(ctx, l.db)
	return scanTransaction(q.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions WHERE reference = $1`, reference))
}

// UpdateStatus moves a PENDING transaction to a terminal status.
func (l *PostgresLedger) UpdateStatus(ctx context.Context, id string, status TxnStatus) error {
	txnID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	q := storage.QuerierFrom(ctx, l.db)
	tag, err := q.Exec(ctx, `UPDATE transactions SET status = $2 WHERE id = $1 AND status = 'PENDING'`,
		txnID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := l.Get(ctx, id); getErr != nil {
			return getErr
		}
		return ErrStatusFinal
	}
	return nil
}

// ListByWallet returns the newest transactions where the wallet is source or
// destination.
func (l *PostgresLedger) ListByWallet(ctx context.Context, walletID string, limit int) ([]Transaction, error) {
	wID, err := uuid.Parse(walletID)
	if err != nil {
		return nil, ErrNotFound
	}
	if limit <= 0 {
		limit = 50
	}
	q := storage.QuerierFrom(ctx, l.db)
	rows, err := q.Query(ctx, `SELECT `+txnColumns+` FROM transactions
        WHERE from_wallet_id = $1 OR to_wallet_id = $1
        ORDER BY created_at DESC LIMIT $2`, wID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		txn         Transaction
		idVal       uuid.UUID
		fromID      uuid.UUID
		toID        *uuid.UUID
		processedBy *string
		typ, status string
	)
	err := row.Scan(&idVal, &txn.Reference, &typ, &txn.Amount, &txn.Fee, &txn.Commission, &txn.NetAmount,
		&fromID, &toID, &txn.Actor.InitiatedBy, &processedBy, &status, &txn.Description, &txn.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	txn.ID = idVal.String()
	txn.FromWalletID = fromID.String()
	if toID != nil {
		txn.ToWalletID = toID.String()
	}
	if processedBy != nil {
		txn.Actor.ProcessedBy = *processedBy
	}
	txn.Type = TxnType(typ)
	txn.Status = TxnStatus(status)
	txn.CreatedAt = txn.CreatedAt.UTC()
	return txn, nil
}
