package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nagriksetu/report-service/internal/domain"
	"github.com/nagriksetu/report-service/internal/geo"
	"github.com/nagriksetu/report-service/internal/lifecycle"
	"github.com/nagriksetu/report-service/pkg/util"
)

// Lock cells quantize the globe into a fixed grid. Any two submissions
// within the dedup threshold of each other always share at least one
// cell of their bounding boxes, so locking every overlapped cell
// serializes racing writers for the same incident region.
const lockCellDegrees = 0.001

// lngCellSpan is the number of lock cells in a full circle of longitude
// at lockCellDegrees resolution. Cell indices are folded modulo this
// span so both sides of the ±180° antimeridian land on the same cells.
const lngCellSpan = int64(360 / lockCellDegrees)

// TxStore exposes the ticket operations available inside a region-locked
// transaction. The dedup engine runs its find-candidate-then-act
// sequence entirely through one of these.
type TxStore interface {
	QueryByCategoryNear(ctx context.Context, category domain.TicketCategory, center geo.Coordinate, radiusMeters float64, excludeStatuses []domain.TicketStatus) ([]domain.Ticket, error)
	Insert(ctx context.Context, ticket *domain.Ticket) error
	IncrementReportCount(ctx context.Context, id string) (*domain.Ticket, error)
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Insert(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	IncrementReportCount(ctx context.Context, id string) (*domain.Ticket, error)
	IncrementUpvotes(ctx context.Context, id string) (*domain.Ticket, error)
	// SetStatus applies a lifecycle transition and reports the status
	// the ticket held before it, read under the same row lock.
	SetStatus(ctx context.Context, id string, next domain.TicketStatus) (*domain.Ticket, domain.TicketStatus, error)
	QueryByCategoryNear(ctx context.Context, category domain.TicketCategory, center geo.Coordinate, radiusMeters float64, excludeStatuses []domain.TicketStatus) ([]domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)

	// WithRegionLock runs fn inside a transaction holding advisory
	// locks over every lock cell the radius around center touches for
	// the given category. Two calls whose regions overlap serialize;
	// the transaction commits when fn returns nil and rolls back
	// otherwise.
	WithRegionLock(ctx context.Context, category domain.TicketCategory, center geo.Coordinate, radiusMeters float64, fn func(TxStore) error) error
}

const ticketColumns = `id, category, latitude, longitude, description, status, report_count, upvotes, image_path, created_at, updated_at`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Insert(ctx context.Context, ticket *domain.Ticket) error {
	return insertTicket(ctx, r.pool, ticket)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM civic_tickets WHERE id=$1`, ticketColumns)
	return scanTicketRow(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) IncrementReportCount(ctx context.Context, id string) (*domain.Ticket, error) {
	return incrementReportCount(ctx, r.pool, id)
}

func (r *ticketRepository) IncrementUpvotes(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`
        UPDATE civic_tickets SET upvotes = upvotes + 1, updated_at = NOW()
        WHERE id=$1
        RETURNING %s`, ticketColumns)
	return scanTicketRow(r.pool.QueryRow(ctx, query, id))
}

// SetStatus locks the row, validates the transition against the
// lifecycle state machine, and applies it. An invalid transition rolls
// back with state unchanged. The returned prior status comes from the
// row-locked read, so it is exactly the state the transition replaced.
func (r *ticketRepository) SetStatus(ctx context.Context, id string, next domain.TicketStatus) (*domain.Ticket, domain.TicketStatus, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, "", err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var current domain.TicketStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM civic_tickets WHERE id=$1 FOR UPDATE`, id).Scan(&current); err != nil {
		return nil, "", err
	}
	if !lifecycle.CanTransition(current, next) {
		return nil, "", util.NewInvalidTransition(string(current), string(next))
	}

	query := fmt.Sprintf(`
        UPDATE civic_tickets SET status=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING %s`, ticketColumns)
	ticket, err := scanTicketRow(tx.QueryRow(ctx, query, next, id))
	if err != nil {
		return nil, "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, "", err
	}
	return ticket, current, nil
}

func (r *ticketRepository) QueryByCategoryNear(ctx context.Context, category domain.TicketCategory, center geo.Coordinate, radiusMeters float64, excludeStatuses []domain.TicketStatus) ([]domain.Ticket, error) {
	return queryByCategoryNear(ctx, r.pool, category, center, radiusMeters, excludeStatuses)
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM civic_tickets ORDER BY created_at DESC`, ticketColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) WithRegionLock(ctx context.Context, category domain.TicketCategory, center geo.Coordinate, radiusMeters float64, fn func(TxStore) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Locks are taken in sorted key order so overlapping regions never
	// deadlock each other. pg_advisory_xact_lock releases on commit or
	// rollback.
	for _, key := range regionLockKeys(category, center, radiusMeters) {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, key); err != nil {
			return err
		}
	}

	if err := fn(&txTicketStore{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// txTicketStore is the transaction-scoped view handed to the dedup
// engine under a region lock.
type txTicketStore struct {
	tx pgx.Tx
}

func (s *txTicketStore) QueryByCategoryNear(ctx context.Context, category domain.TicketCategory, center geo.Coordinate, radiusMeters float64, excludeStatuses []domain.TicketStatus) ([]domain.Ticket, error) {
	return queryByCategoryNear(ctx, s.tx, category, center, radiusMeters, excludeStatuses)
}

func (s *txTicketStore) Insert(ctx context.Context, ticket *domain.Ticket) error {
	return insertTicket(ctx, s.tx, ticket)
}

func (s *txTicketStore) IncrementReportCount(ctx context.Context, id string) (*domain.Ticket, error) {
	return incrementReportCount(ctx, s.tx, id)
}

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertTicket(ctx context.Context, q rowQuerier, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO civic_tickets (id, category, latitude, longitude, description, status, report_count, upvotes, image_path)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at, updated_at`
	return q.QueryRow(ctx, query,
		ticket.ID,
		ticket.Category,
		ticket.Latitude,
		ticket.Longitude,
		ticket.Description,
		ticket.Status,
		ticket.ReportCount,
		ticket.Upvotes,
		ticket.ImagePath,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
}

func incrementReportCount(ctx context.Context, q rowQuerier, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`
        UPDATE civic_tickets SET report_count = report_count + 1, updated_at = NOW()
        WHERE id=$1
        RETURNING %s`, ticketColumns)
	return scanTicketRow(q.QueryRow(ctx, query, id))
}

func queryByCategoryNear(ctx context.Context, q rowQuerier, category domain.TicketCategory, center geo.Coordinate, radiusMeters float64, excludeStatuses []domain.TicketStatus) ([]domain.Ticket, error) {
	box := geo.BoxAround(center, radiusMeters)

	args := []any{category, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng}
	clauses := []string{
		"category=$1",
		"latitude BETWEEN $2 AND $3",
	}
	if box.WrapsLng() {
		// The box crosses the antimeridian, so the longitude range
		// splits into two intervals meeting at ±180.
		clauses = append(clauses, "(longitude BETWEEN $4 AND 180 OR longitude BETWEEN -180 AND $5)")
	} else {
		clauses = append(clauses, "longitude BETWEEN $4 AND $5")
	}
	if len(excludeStatuses) > 0 {
		placeholders := make([]string, len(excludeStatuses))
		for i, status := range excludeStatuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status NOT IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM civic_tickets WHERE %s`,
		ticketColumns, strings.Join(clauses, " AND "))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// regionLockKeys returns the sorted advisory lock keys for every grid
// cell the bounding box of radiusMeters around center overlaps.
func regionLockKeys(category domain.TicketCategory, center geo.Coordinate, radiusMeters float64) []int64 {
	box := geo.BoxAround(center, radiusMeters)

	minLatCell := int64(math.Floor(box.MinLat / lockCellDegrees))
	maxLatCell := int64(math.Floor(box.MaxLat / lockCellDegrees))
	minLngCell := int64(math.Floor(box.MinLng / lockCellDegrees))
	maxLngCell := int64(math.Floor(box.MaxLng / lockCellDegrees))
	if box.WrapsLng() {
		// Walk across the seam; each index is folded back into the
		// canonical grid below.
		maxLngCell += lngCellSpan
	}

	seen := make(map[int64]struct{})
	for latCell := minLatCell; latCell <= maxLatCell; latCell++ {
		for lngCell := minLngCell; lngCell <= maxLngCell; lngCell++ {
			seen[cellLockKey(category, latCell, normalizeLngCell(lngCell))] = struct{}{}
		}
	}
	keys := make([]int64, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// normalizeLngCell folds a longitude cell index into [-lngCellSpan/2,
// lngCellSpan/2), so the cell east of +180 and the cell at -180 share
// one lock key.
func normalizeLngCell(cell int64) int64 {
	half := lngCellSpan / 2
	cell = (cell + half) % lngCellSpan
	if cell < 0 {
		cell += lngCellSpan
	}
	return cell - half
}

func cellLockKey(category domain.TicketCategory, latCell, lngCell int64) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%d", category, latCell, lngCell)
	return int64(h.Sum64())
}

func scanTicketRow(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Category,
		&ticket.Latitude,
		&ticket.Longitude,
		&ticket.Description,
		&ticket.Status,
		&ticket.ReportCount,
		&ticket.Upvotes,
		&ticket.ImagePath,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Category,
			&ticket.Latitude,
			&ticket.Longitude,
			&ticket.Description,
			&ticket.Status,
			&ticket.ReportCount,
			&ticket.Upvotes,
			&ticket.ImagePath,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
