package ledger

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/brokerledger/brokerledger/internal/shared"
)

// RepositoryPort defines data access methods for the transaction ledger.
type RepositoryPort interface {
	Append(ctx context.Context, input AppendTransactionInput) (*Transaction, error)
	List(ctx context.Context, filter ListTransactionsFilter) ([]Transaction, error)
}

// ActivityRecorder appends audit entries for UI timelines.
type ActivityRecorder interface {
	Record(ctx context.Context, act shared.Activity) error
}

// Service handles ledger business logic.
type Service struct {
	repo     RepositoryPort
	activity ActivityRecorder
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, activity ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, activity: activity, logger: logger}
}

// Append records a transaction. There is no update path: once created a
// transaction is immutable.
func (s *Service) Append(ctx context.Context, input AppendTransactionInput) (*Transaction, error) {
	if input.PartyID == 0 {
		return nil, shared.Invalid("party_id", "required")
	}
	if input.Amount.Sign() <= 0 {
		return nil, shared.Invalid("amount", "must be positive, got %s", input.Amount)
	}
	switch input.Type {
	case TypePayment, TypeRefund:
	default:
		return nil, shared.Invalid("type", "unknown transaction type %q", input.Type)
	}
	if input.OccurredAt.IsZero() {
		input.OccurredAt = time.Now()
	}
	if input.Reference == "" {
		input.Reference = uuid.NewString()
	}

	txn, err := s.repo.Append(ctx, input)
	if err != nil {
		return nil, err
	}

	if s.activity != nil {
		action := "transaction." + string(input.Type)
		if err := s.activity.Record(ctx, shared.Activity{
			ActorID:  input.ActorID,
			Action:   action,
			Entity:   "transaction",
			EntityID: strconv.FormatInt(txn.ID, 10),
			Meta: map[string]any{
				"amount":   txn.Amount.StringFixed(2),
				"party_id": txn.PartyID,
			},
		}); err != nil && s.logger != nil {
			s.logger.Warn("record activity", slog.String("action", action), slog.Any("error", err))
		}
	}
	return txn, nil
}

// List returns transactions matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListTransactionsFilter) ([]Transaction, error) {
	return s.repo.List(ctx, filter)
}
