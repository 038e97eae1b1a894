package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taka-pay/taka_pay/internal/storage"
)

const intentColumns = `id, owner_id, wallet_id, counterparty_id, type, amount, status,
        external_txn_id, gateway_payload, transaction_id, created_at, updated_at`

// PostgresRepository stores payment intents in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds an intent repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a payment intent record.
func (r *PostgresRepository) Create(ctx context.Context, intent Intent) error {
	intentID, err := uuid.Parse(intent.ID)
	if err != nil {
		return err
	}
	walletID, err := uuid.Parse(intent.WalletID)
	if err != nil {
		return err
	}
	var counterparty *uuid.UUID
	if intent.CounterpartyID != "" {
		parsed, err := uuid.Parse(intent.CounterpartyID)
		if err != nil {
			return err
		}
		counterparty = &parsed
	}
	var txnID *uuid.UUID
	if intent.TransactionID != "" {
		parsed, err := uuid.Parse(intent.TransactionID)
		if err != nil {
			return err
		}
		txnID = &parsed
	}

	q := storage.QuerierFrom(ctx, r.db)
	_, err = q.Exec(ctx, `INSERT INTO payment_intents (id, owner_id, wallet_id, counterparty_id, type, amount, status,
        external_txn_id, gateway_payload, transaction_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		intentID, intent.OwnerID, walletID, counterparty, string(intent.Type), intent.Amount, string(intent.Status),
		intent.ExternalTxnID, intent.GatewayPayload, txnID, intent.CreatedAt.UTC(), intent.UpdatedAt.UTC())
	return err
}

// Get fetches an intent by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Intent, error) {
	return r.getBy(ctx, `id = $1`, id, false)
}

// GetForUpdate fetches an intent by identifier holding a row lock.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (Intent, error) {
	return r.getBy(ctx, `id = $1`, id, true)
}

// GetByExternalID fetches an intent by its external transaction identifier.
func (r *PostgresRepository) GetByExternalID(ctx context.Context, externalTxnID string) (Intent, error) {
	return r.getBy(ctx, `external_txn_id = $1`, externalTxnID, false)
}

// GetByExternalIDForUpdate fetches an intent by external transaction
// identifier holding a row lock.
func (r *PostgresRepository) GetByExternalIDForUpdate(ctx context.Context, externalTxnID string) (Intent, error) {
	return r.getBy(ctx, `external_txn_id = $1`, externalTxnID, true)
}

func (r *PostgresRepository) getBy(ctx context.Context, where, arg string, forUpdate bool) (Intent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents WHERE ` + where
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var queryArg any = arg
	if where == `id = $1` {
		parsed, err := uuid.Parse(arg)
		if err != nil {
			return Intent{}, ErrNotFound
		}
		queryArg = parsed
	}
	q := storage.QuerierFrom(ctx, r.db)
	return scanIntent(q.QueryRow(ctx, query, queryArg))
}

// Update rewrites the mutable intent fields (status, external id, payload,
// transaction link).
func (r *PostgresRepository) Update(ctx context.Context, intent Intent) error {
	intentID, err := uuid.Parse(intent.ID)
	if err != nil {
		return ErrNotFound
	}
	var txnID *uuid.UUID
	if intent.TransactionID != "" {
		parsed, err := uuid.Parse(intent.TransactionID)
		if err != nil {
			return err
		}
		txnID = &parsed
	}
	q := storage.QuerierFrom(ctx, r.db)
	tag, err := q.Exec(ctx, `UPDATE payment_intents
        SET status = $2, external_txn_id = $3, gateway_payload = $4, transaction_id = $5, updated_at = now()
        WHERE id = $1`,
		intentID, string(intent.Status), intent.ExternalTxnID, intent.GatewayPayload, txnID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanIntent(row pgx.Row) (Intent, error) {
	var (
		intent       Intent
		idVal        uuid.UUID
		walletID     uuid.UUID
		counterparty *uuid.UUID
		txnID        *uuid.UUID
		typ, status  string
	)
	err := row.Scan(&idVal, &intent.OwnerID, &walletID, &counterparty, &typ, &intent.Amount, &status,
		&intent.ExternalTxnID, &intent.GatewayPayload, &txnID, &intent.CreatedAt, &intent.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Intent{}, ErrNotFound
		}
		return Intent{}, err
	}
	intent.ID = idVal.String()
	intent.WalletID = walletID.String()
	if counterparty != nil {
		intent.CounterpartyID = counterparty.String()
	}
	if txnID != nil {
		intent.TransactionID = txnID.String()
	}
	intent.Type = PaymentType(typ)
	intent.Status = IntentStatus(status)
	intent.CreatedAt = intent.CreatedAt.UTC()
	intent.UpdatedAt = intent.UpdatedAt.UTC()
	return intent, nil
}
