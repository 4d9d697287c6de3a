package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nagriksetu/report-service/internal/domain"
	"github.com/nagriksetu/report-service/internal/geo"
	"github.com/nagriksetu/report-service/internal/lifecycle"
	"github.com/nagriksetu/report-service/internal/repository"
	"github.com/nagriksetu/report-service/pkg/util"
)

// memoryStore implements repository.TicketRepository in memory for
// engine tests. WithRegionLock holds one mutex for the whole
// find-then-act sequence, which satisfies the serialization contract the
// real store provides with advisory locks.
type memoryStore struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	seq     int
	base    time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		tickets: make(map[string]*domain.Ticket),
		base:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memoryStore) Insert(ctx context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(ticket)
}

func (s *memoryStore) insertLocked(ticket *domain.Ticket) error {
	s.seq++
	ticket.CreatedAt = s.base.Add(time.Duration(s.seq) * time.Millisecond)
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	s.tickets[ticket.ID] = &copied
	return nil
}

func (s *memoryStore) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (s *memoryStore) IncrementReportCount(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incrementReportCountLocked(id)
}

func (s *memoryStore) incrementReportCountLocked(id string) (*domain.Ticket, error) {
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket.ReportCount++
	ticket.UpdatedAt = time.Now()
	copied := *ticket
	return &copied, nil
}

func (s *memoryStore) IncrementUpvotes(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket.Upvotes++
	ticket.UpdatedAt = time.Now()
	copied := *ticket
	return &copied, nil
}

func (s *memoryStore) SetStatus(ctx context.Context, id string, next domain.TicketStatus) (*domain.Ticket, domain.TicketStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, "", pgx.ErrNoRows
	}
	previous := ticket.Status
	if !lifecycle.CanTransition(previous, next) {
		return nil, "", util.NewInvalidTransition(string(previous), string(next))
	}
	ticket.Status = next
	ticket.UpdatedAt = time.Now()
	copied := *ticket
	return &copied, previous, nil
}

func (s *memoryStore) QueryByCategoryNear(ctx context.Context, category domain.TicketCategory, center geo.Coordinate, radiusMeters float64, excludeStatuses []domain.TicketStatus) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryNearLocked(category, center, radiusMeters, excludeStatuses)
}

func (s *memoryStore) queryNearLocked(category domain.TicketCategory, center geo.Coordinate, radiusMeters float64, excludeStatuses []domain.TicketStatus) ([]domain.Ticket, error) {
	box := geo.BoxAround(center, radiusMeters)
	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if ticket.Category != category {
			continue
		}
		if ticket.Latitude < box.MinLat || ticket.Latitude > box.MaxLat {
			continue
		}
		if !box.ContainsLng(ticket.Longitude) {
			continue
		}
		excluded := false
		for _, status := range excludeStatuses {
			if ticket.Status == status {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (s *memoryStore) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.Ticket, 0, len(s.tickets))
	for _, ticket := range s.tickets {
		result = append(result, *ticket)
	}
	return result, nil
}

func (s *memoryStore) WithRegionLock(ctx context.Context, category domain.TicketCategory, center geo.Coordinate, radiusMeters float64, fn func(repository.TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memoryTxStore{store: s})
}

// memoryTxStore runs with the store mutex already held.
type memoryTxStore struct {
	store *memoryStore
}

func (t *memoryTxStore) QueryByCategoryNear(ctx context.Context, category domain.TicketCategory, center geo.Coordinate, radiusMeters float64, excludeStatuses []domain.TicketStatus) ([]domain.Ticket, error) {
	return t.store.queryNearLocked(category, center, radiusMeters, excludeStatuses)
}

func (t *memoryTxStore) Insert(ctx context.Context, ticket *domain.Ticket) error {
	return t.store.insertLocked(ticket)
}

func (t *memoryTxStore) IncrementReportCount(ctx context.Context, id string) (*domain.Ticket, error) {
	return t.store.incrementReportCountLocked(id)
}

// downStore fails every operation, standing in for an unreachable
// database.
type downStore struct{}

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

func (downStore) Insert(context.Context, *domain.Ticket) error { return errConnRefused }
func (downStore) GetByID(context.Context, string) (*domain.Ticket, error) {
	return nil, errConnRefused
}
func (downStore) IncrementReportCount(context.Context, string) (*domain.Ticket, error) {
	return nil, errConnRefused
}
func (downStore) IncrementUpvotes(context.Context, string) (*domain.Ticket, error) {
	return nil, errConnRefused
}
func (downStore) SetStatus(context.Context, string, domain.TicketStatus) (*domain.Ticket, domain.TicketStatus, error) {
	return nil, "", errConnRefused
}
func (downStore) QueryByCategoryNear(context.Context, domain.TicketCategory, geo.Coordinate, float64, []domain.TicketStatus) ([]domain.Ticket, error) {
	return nil, errConnRefused
}
func (downStore) ListAll(context.Context) ([]domain.Ticket, error) { return nil, errConnRefused }
func (downStore) WithRegionLock(context.Context, domain.TicketCategory, geo.Coordinate, float64, func(repository.TxStore) error) error {
	return errConnRefused
}
