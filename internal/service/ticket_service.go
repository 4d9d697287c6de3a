package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nagriksetu/report-service/internal/domain"
	"github.com/nagriksetu/report-service/internal/events"
	"github.com/nagriksetu/report-service/internal/repository"
	"github.com/nagriksetu/report-service/pkg/util"
)

const listCacheKey = "civic:tickets:all"

// TicketService handles the read path and the vote/status operations
// that mutate existing tickets.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Cache      *redis.Client
	CacheTTL   time.Duration
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
		logger:     deps.Logger,
	}
}

// GetTicket fetches one ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreError(err, id)
	}
	return ticket, nil
}

// ListTickets returns every ticket, newest first, for the map and the
// dashboard feed. Reads may be served from cache and observe slightly
// stale counts.
func (s *TicketService) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	if cached := s.readListCache(ctx); cached != nil {
		return cached, nil
	}

	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, util.NewStoreUnavailable(err)
	}
	s.writeListCache(ctx, tickets)
	return tickets, nil
}

// Vote records an explicit user endorsement by atomically incrementing
// the upvote counter. Distinct from report_count, which only the dedup
// engine touches.
func (s *TicketService) Vote(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.IncrementUpvotes(ctx, id)
	if err != nil {
		return nil, s.mapStoreError(err, id)
	}
	s.invalidateListCache(ctx)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketUpvoted,
		TicketID: ticket.ID,
		Payload:  events.TicketUpvotedPayload{Upvotes: ticket.Upvotes},
	})
	return ticket, nil
}

// SetStatus applies a lifecycle transition. Invalid transitions are
// rejected with state unchanged.
func (s *TicketService) SetStatus(ctx context.Context, id string, next domain.TicketStatus) (*domain.Ticket, error) {
	if !domain.ValidStatus(next) {
		return nil, util.NewInvalidInput("unknown status", map[string]any{"status": string(next)})
	}

	ticket, previous, err := s.tickets.SetStatus(ctx, id, next)
	if err != nil {
		return nil, s.mapStoreError(err, id)
	}
	s.invalidateListCache(ctx)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Payload: events.TicketStatusChangedPayload{
			// The prior status is read under the same row lock as the
			// transition, so concurrent transitions cannot skew it.
			OldStatus: previous,
			NewStatus: ticket.Status,
		},
	})
	return ticket, nil
}

// InvalidateListCache drops the cached listing after an external write.
func (s *TicketService) InvalidateListCache(ctx context.Context) {
	s.invalidateListCache(ctx)
}

func (s *TicketService) mapStoreError(err error, id string) error {
	var domainErr *util.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return util.NewNotFound("ticket", map[string]any{"id": id})
	}
	return util.NewStoreUnavailable(err)
}

func (s *TicketService) readListCache(ctx context.Context) []domain.Ticket {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, listCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var tickets []domain.Ticket
	if err := json.Unmarshal(raw, &tickets); err != nil {
		return nil
	}
	return tickets
}

func (s *TicketService) writeListCache(ctx context.Context, tickets []domain.Ticket) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(tickets)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, listCacheKey, raw, s.cacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.Warn("list cache write failed", zap.Error(err))
	}
}

func (s *TicketService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, listCacheKey).Err(); err != nil && s.logger != nil {
		s.logger.Warn("list cache invalidation failed", zap.Error(err))
	}
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
