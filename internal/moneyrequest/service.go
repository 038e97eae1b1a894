package moneyrequest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taka-pay/taka_pay/internal/notification"
	"github.com/taka-pay/taka_pay/internal/storage"
	"github.com/taka-pay/taka_pay/internal/transfer"
	"github.com/taka-pay/taka_pay/internal/wallet"
)

// Service runs the request/approve/reject/cancel workflow. On approval it
// delegates the money movement to the transfer engine; a failed transfer
// leaves the request PENDING.
type Service struct {
	requests  Repository
	wallets   wallet.Store
	transfers *transfer.Service
	runner    storage.Runner
	notifier  notification.Notifier
}

// NewService constructs the money request service.
func NewService(requests Repository, wallets wallet.Store, transfers *transfer.Service, runner storage.Runner, notifier notification.Notifier) *Service {
	return &Service{requests: requests, wallets: wallets, transfers: transfers, runner: runner, notifier: notifier}
}

// CreateInput captures a new money request. RequesterID is the account that
// will receive money, PayerID the account being asked to send it.
type CreateInput struct {
	RequesterID string
	PayerID     string
	Amount      decimal.Decimal
	Description string
}

// Create opens a PENDING request. Only one PENDING request may exist per
// (requester, payer) pair.
func (s *Service) Create(ctx context.Context, input CreateInput) (MoneyRequest, error) {
	if !input.Amount.IsPositive() {
		return MoneyRequest{}, wallet.ErrInvalidAmount
	}
	if input.RequesterID == input.PayerID {
		return MoneyRequest{}, ErrSelfRequest
	}
	if _, err := s.wallets.GetByOwner(ctx, input.RequesterID); err != nil {
		return MoneyRequest{}, fmt.Errorf("requester wallet: %w", err)
	}
	if _, err := s.wallets.GetByOwner(ctx, input.PayerID); err != nil {
		return MoneyRequest{}, fmt.Errorf("payer wallet: %w", err)
	}

	now := time.Now().UTC()
	req := MoneyRequest{
		ID:          uuid.NewString(),
		RequesterID: input.RequesterID,
		PayerID:     input.PayerID,
		Amount:      input.Amount,
		Description: input.Description,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.runner.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.requests.FindPending(ctx, input.RequesterID, input.PayerID); err == nil {
			return ErrDuplicatePending
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		return s.requests.Create(ctx, req)
	})
	if err != nil {
		return MoneyRequest{}, err
	}

	s.notify(ctx, input.PayerID, fmt.Sprintf("Money request for %s received", input.Amount.StringFixed(2)))
	return req, nil
}

// Get fetches a request by identifier.
func (s *Service) Get(ctx context.Context, id string) (MoneyRequest, error) {
	return s.requests.Get(ctx, id)
}

// ListForActor returns the actor's requests on either side.
func (s *Service) ListForActor(ctx context.Context, actorID string, limit int) ([]MoneyRequest, error) {
	return s.requests.ListForActor(ctx, actorID, limit)
}

// Approve is restricted to the payer. It moves the money through the transfer
// engine and links the resulting transaction; if the transfer fails the
// request stays PENDING and the transfer error propagates.
func (s *Service) Approve(ctx context.Context, requestID, actorID string) (MoneyRequest, error) {
	var approved MoneyRequest
	err := s.runner.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.requests.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return ErrNotPending
		}
		if req.PayerID != actorID {
			return ErrForbidden
		}

		payerWallet, err := s.wallets.GetByOwner(ctx, req.PayerID)
		if err != nil {
			return fmt.Errorf("payer wallet: %w", err)
		}
		requesterWallet, err := s.wallets.GetByOwner(ctx, req.RequesterID)
		if err != nil {
			return fmt.Errorf("requester wallet: %w", err)
		}

		res, err := s.transfers.Transfer(ctx, transfer.Input{
			FromWalletID: payerWallet.ID,
			ToWalletID:   requesterWallet.ID,
			Amount:       req.Amount,
			Description:  req.Description,
			InitiatedBy:  req.PayerID,
		})
		if err != nil {
			return err
		}

		req.Status = StatusApproved
		req.TransactionID = res.Transaction.ID
		if err := s.requests.Update(ctx, req); err != nil {
			return err
		}
		approved = req
		return nil
	})
	if err != nil {
		return MoneyRequest{}, err
	}

	s.notify(ctx, approved.RequesterID, fmt.Sprintf("Your money request for %s was approved", approved.Amount.StringFixed(2)))
	return approved, nil
}

// Reject is restricted to the payer and only valid while PENDING.
func (s *Service) Reject(ctx context.Context, requestID, actorID string) (MoneyRequest, error) {
	return s.transition(ctx, requestID, actorID, payerRole, StatusRejected)
}

// Cancel is restricted to the requester and only valid while PENDING.
func (s *Service) Cancel(ctx context.Context, requestID, actorID string) (MoneyRequest, error) {
	return s.transition(ctx, requestID, actorID, requesterRole, StatusCancelled)
}

type role int

const (
	payerRole role = iota
	requesterRole
)

func (s *Service) transition(ctx context.Context, requestID, actorID string, who role, status Status) (MoneyRequest, error) {
	var updated MoneyRequest
	err := s.runner.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.requests.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return ErrNotPending
		}
		allowed := req.PayerID
		if who == requesterRole {
			allowed = req.RequesterID
		}
		if allowed != actorID {
			return ErrForbidden
		}
		req.Status = status
		if err := s.requests.Update(ctx, req); err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		return MoneyRequest{}, err
	}
	return updated, nil
}

func (s *Service) notify(ctx context.Context, destination, body string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{Kind: notification.KindMoneyRequest, Destination: destination, Body: body})
}
