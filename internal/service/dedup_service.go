package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nagriksetu/report-service/internal/domain"
	"github.com/nagriksetu/report-service/internal/events"
	"github.com/nagriksetu/report-service/internal/geo"
	"github.com/nagriksetu/report-service/internal/lifecycle"
	"github.com/nagriksetu/report-service/internal/observability"
	"github.com/nagriksetu/report-service/internal/repository"
	"github.com/nagriksetu/report-service/pkg/util"
)

// DefaultThresholdMeters is the merge distance used when none is
// configured.
const DefaultThresholdMeters = 25.0

// DedupService decides whether an incoming report describes an existing
// incident or a new one. The whole find-candidate-then-act sequence runs
// under a store region lock, so concurrent submissions for the same spot
// produce exactly one created ticket.
type DedupService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	threshold  float64
}

// DedupDependencies bundles collaborators for the dedup engine.
type DedupDependencies struct {
	TicketRepo      repository.TicketRepository
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	ThresholdMeters float64
}

// NewDedupService constructs the engine.
func NewDedupService(deps DedupDependencies) *DedupService {
	threshold := deps.ThresholdMeters
	if threshold <= 0 {
		threshold = DefaultThresholdMeters
	}
	return &DedupService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		threshold:  threshold,
	}
}

// ThresholdMeters returns the active merge distance.
func (s *DedupService) ThresholdMeters() float64 {
	return s.threshold
}

// SubmitInput describes one incoming citizen report.
type SubmitInput struct {
	Category    domain.TicketCategory
	Coordinate  geo.Coordinate
	Description string
	ImagePath   *string
}

// SubmitResult is the outcome of a submission. Merged distinguishes a
// duplicate absorbed into an existing ticket from a freshly created one;
// the caller surfaces that difference to the user.
type SubmitResult struct {
	Ticket         *domain.Ticket
	Merged         bool
	DistanceMeters float64
}

// Submit runs the dedup decision for one report: find the nearest
// merge-eligible ticket of the same category within the threshold and
// increment its report count, or insert a new Pending ticket.
func (s *DedupService) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	if !domain.ValidCategory(input.Category) {
		return nil, util.NewInvalidInput("unknown category", map[string]any{"category": string(input.Category)})
	}
	if !input.Coordinate.Valid() {
		return nil, util.NewInvalidInput("coordinate out of range", map[string]any{
			"lat": input.Coordinate.Lat,
			"lng": input.Coordinate.Lng,
		})
	}

	var result SubmitResult
	err := s.tickets.WithRegionLock(ctx, input.Category, input.Coordinate, s.threshold, func(tx repository.TxStore) error {
		candidates, err := tx.QueryByCategoryNear(ctx, input.Category, input.Coordinate, s.threshold, lifecycle.MergeExcludedStatuses())
		if err != nil {
			return err
		}

		best, bestDistance := s.nearestWithinThreshold(input.Coordinate, candidates)
		if best != nil {
			merged, err := tx.IncrementReportCount(ctx, best.ID)
			if err != nil {
				return err
			}
			result = SubmitResult{Ticket: merged, Merged: true, DistanceMeters: bestDistance}
			return nil
		}

		ticket := &domain.Ticket{
			ID:          uuid.NewString(),
			Category:    input.Category,
			Latitude:    input.Coordinate.Lat,
			Longitude:   input.Coordinate.Lng,
			Description: strings.TrimSpace(input.Description),
			Status:      domain.TicketStatusPending,
			ReportCount: 1,
			ImagePath:   input.ImagePath,
		}
		if err := tx.Insert(ctx, ticket); err != nil {
			return err
		}
		result = SubmitResult{Ticket: ticket, Merged: false}
		return nil
	})
	if err != nil {
		// A store failure must never read as "no duplicate found".
		var domainErr *util.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, util.NewStoreUnavailable(err)
	}

	s.metrics.RecordSubmission(result.Merged)
	s.publishOutcome(ctx, input, &result)
	return &result, nil
}

// nearestWithinThreshold picks the candidate with the smallest exact
// distance at or under the threshold. Equal distances break toward the
// earliest created ticket, so repeated ties always land on the same
// incident.
func (s *DedupService) nearestWithinThreshold(coord geo.Coordinate, candidates []domain.Ticket) (*domain.Ticket, float64) {
	var best *domain.Ticket
	bestDistance := 0.0
	for i := range candidates {
		candidate := &candidates[i]
		distance := geo.DistanceMeters(coord, geo.Coordinate{Lat: candidate.Latitude, Lng: candidate.Longitude})
		if distance > s.threshold {
			continue
		}
		switch {
		case best == nil:
		case distance < bestDistance:
		case distance == bestDistance && candidate.CreatedAt.Before(best.CreatedAt):
		default:
			continue
		}
		best = candidate
		bestDistance = distance
	}
	return best, bestDistance
}

func (s *DedupService) publishOutcome(ctx context.Context, input SubmitInput, result *SubmitResult) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		TicketID:  result.Ticket.ID,
		Timestamp: time.Now(),
	}
	if result.Merged {
		event.Type = events.EventReportMerged
		event.Payload = events.ReportMergedPayload{
			Category:       input.Category,
			DistanceMeters: result.DistanceMeters,
			ReportCount:    result.Ticket.ReportCount,
		}
	} else {
		event.Type = events.EventReportCreated
		event.Payload = events.ReportCreatedPayload{
			Category:  input.Category,
			Latitude:  input.Coordinate.Lat,
			Longitude: input.Coordinate.Lng,
		}
	}
	_ = s.dispatcher.Publish(ctx, event)
}
