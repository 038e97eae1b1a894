package moneyrequest

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taka-pay/taka_pay/internal/storage"
)

const requestColumns = `id, requester_id, payer_id, amount, description, status, transaction_id, created_at, updated_at`

// PostgresRepository stores money requests in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a money request repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a money request record. The table carries a partial unique
// index on (requester_id, payer_id) WHERE status = 'PENDING', so two
// concurrent inserts for the same pair cannot both commit.
func (r *PostgresRepository) Create(ctx context.Context, req MoneyRequest) error {
	reqID, err := uuid.Parse(req.ID)
	if err != nil {
		return err
	}
	q := storage.QuerierFrom(ctx, r.db)
	_, err = q.Exec(ctx, `INSERT INTO money_requests (id, requester_id, payer_id, amount, description, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		reqID, req.RequesterID, req.PayerID, req.Amount, req.Description, string(req.Status), req.CreatedAt.UTC(), req.UpdatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicatePending
	}
	return err
}

// Get fetches a money request by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (MoneyRequest, error) {
	return r.getByID(ctx, id, false)
}

// GetForUpdate fetches a money request holding a row lock.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (MoneyRequest, error) {
	return r.getByID(ctx, id, true)
}

func (r *PostgresRepository) getByID(ctx context.Context, id string, forUpdate bool) (MoneyRequest, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return MoneyRequest{}, ErrNotFound
	}
	query := `SELECT ` + requestColumns + ` FROM money_requests WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	q := storage.QuerierFrom(ctx, r.db)
	return scanRequest(q.QueryRow(ctx, query, reqID))
}

// FindPending returns the PENDING request for the (requester, payer) pair.
func (r *PostgresRepository) FindPending(ctx context.Context, requesterID, payerID string) (MoneyRequest, error) {
	q := storage.QuerierFrom(ctx, r.db)
	return scanRequest(q.QueryRow(ctx, `SELECT `+requestColumns+` FROM money_requests
        WHERE requester_id = $1 AND payer_id = $2 AND status = 'PENDING'`, requesterID, payerID))
}

// ListForActor returns the actor's requests on either side, newest first.
func (r *PostgresRepository) ListForActor(ctx context.Context, actorID string, limit int) ([]MoneyRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	q := storage.QuerierFrom(ctx, r.db)
	rows, err := q.Query(ctx, `SELECT `+requestColumns+` FROM money_requests
        WHERE requester_id = $1 OR payer_id = $1
        ORDER BY created_at DESC LIMIT $2`, actorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []MoneyRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// Update rewrites the request's status and transaction link.
func (r *PostgresRepository) Update(ctx context.Context, req MoneyRequest) error {
	reqID, err := uuid.Parse(req.ID)
	if err != nil {
		return ErrNotFound
	}
	var txnID *uuid.UUID
	if req.TransactionID != "" {
		parsed, err := uuid.Parse(req.TransactionID)
		if err != nil {
			return err
		}
		txnID = &parsed
	}
	q := storage.QuerierFrom(ctx, r.db)
	tag, err := q.Exec(ctx, `UPDATE money_requests SET status = $2, transaction_id = $3, updated_at = now() WHERE id = $1`,
		reqID, string(req.Status), txnID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRequest(row pgx.Row) (MoneyRequest, error) {
	var (
		req    MoneyRequest
		idVal  uuid.UUID
		txnID  *uuid.UUID
		status string
	)
	err := row.Scan(&idVal, &req.RequesterID, &req.PayerID, &req.Amount, &req.Description, &status, &txnID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MoneyRequest{}, ErrNotFound
		}
		return MoneyRequest{}, err
	}
	req.ID = idVal.String()
	if txnID != nil {
		req.TransactionID = txnID.String()
	}
	req.Status = Status(status)
	req.CreatedAt = req.CreatedAt.UTC()
	req.UpdatedAt = req.UpdatedAt.UTC()
	return req, nil
}
