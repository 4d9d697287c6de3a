package service_test

import (
	"context"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/nagriksetu/report-service/internal/domain"
	"github.com/nagriksetu/report-service/internal/events"
	"github.com/nagriksetu/report-service/internal/service"
	"github.com/nagriksetu/report-service/pkg/util"
)

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) recorded() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.events...)
}

func newTicketService(store *memoryStore) *service.TicketService {
	return service.NewTicketService(service.TicketDependencies{
		TicketRepo: store,
	})
}

func seedTicket(store *memoryStore) *domain.Ticket {
	ticket := &domain.Ticket{
		ID:          "seed",
		Category:    domain.CategoryPothole,
		Latitude:    23.2599,
		Longitude:   77.4126,
		Description: "pothole outside the school gate",
		Status:      domain.TicketStatusPending,
		ReportCount: 1,
	}
	_ = store.Insert(context.Background(), ticket)
	return ticket
}

func TestVote(t *testing.T) {
	Convey("Given a ticket service", t, func() {
		ctx := context.Background()
		store := newMemoryStore()
		svc := newTicketService(store)
		seeded := seedTicket(store)

		Convey("Voting increments upvotes monotonically", func() {
			first, err := svc.Vote(ctx, seeded.ID)
			So(err, ShouldBeNil)
			So(first.Upvotes, ShouldEqual, 1)

			second, err := svc.Vote(ctx, seeded.ID)
			So(err, ShouldBeNil)
			So(second.Upvotes, ShouldEqual, 2)

			Convey("Report count is untouched by votes", func() {
				So(second.ReportCount, ShouldEqual, 1)
			})
		})

		Convey("Voting on a missing id reports NOT_FOUND", func() {
			_, err := svc.Vote(ctx, "no-such-ticket")
			So(util.HasCode(err, util.CodeNotFound), ShouldBeTrue)
		})
	})
}

func TestSetStatus(t *testing.T) {
	Convey("Given a ticket service", t, func() {
		ctx := context.Background()
		store := newMemoryStore()
		svc := newTicketService(store)
		seeded := seedTicket(store)

		Convey("The full dispute-reopen sequence succeeds", func() {
			ticket, err := svc.SetStatus(ctx, seeded.ID, domain.TicketStatusResolved)
			So(err, ShouldBeNil)
			So(ticket.Status, ShouldEqual, domain.TicketStatusResolved)

			ticket, err = svc.SetStatus(ctx, seeded.ID, domain.TicketStatusDisputed)
			So(err, ShouldBeNil)
			So(ticket.Status, ShouldEqual, domain.TicketStatusDisputed)

			ticket, err = svc.SetStatus(ctx, seeded.ID, domain.TicketStatusInProgress)
			So(err, ShouldBeNil)
			So(ticket.Status, ShouldEqual, domain.TicketStatusInProgress)

			ticket, err = svc.SetStatus(ctx, seeded.ID, domain.TicketStatusResolved)
			So(err, ShouldBeNil)
			So(ticket.Status, ShouldEqual, domain.TicketStatusResolved)
		})

		Convey("An illegal transition is rejected and leaves state unchanged", func() {
			_, err := svc.SetStatus(ctx, seeded.ID, domain.TicketStatusDisputed)
			So(util.HasCode(err, util.CodeInvalidTransition), ShouldBeTrue)

			current, err := svc.GetTicket(ctx, seeded.ID)
			So(err, ShouldBeNil)
			So(current.Status, ShouldEqual, domain.TicketStatusPending)
		})

		Convey("Disputed cannot fall back to Pending", func() {
			_, err := svc.SetStatus(ctx, seeded.ID, domain.TicketStatusResolved)
			So(err, ShouldBeNil)
			_, err = svc.SetStatus(ctx, seeded.ID, domain.TicketStatusDisputed)
			So(err, ShouldBeNil)

			_, err = svc.SetStatus(ctx, seeded.ID, domain.TicketStatusPending)
			So(util.HasCode(err, util.CodeInvalidTransition), ShouldBeTrue)
		})

		Convey("An unknown status string is invalid input", func() {
			_, err := svc.SetStatus(ctx, seeded.ID, domain.TicketStatus("ARCHIVED"))
			So(util.HasCode(err, util.CodeInvalidInput), ShouldBeTrue)
		})

		Convey("A missing id reports NOT_FOUND", func() {
			_, err := svc.SetStatus(ctx, "no-such-ticket", domain.TicketStatusResolved)
			So(util.HasCode(err, util.CodeNotFound), ShouldBeTrue)
		})
	})
}

func TestSetStatusEvents(t *testing.T) {
	Convey("Given a ticket service with an event dispatcher", t, func() {
		ctx := context.Background()
		store := newMemoryStore()
		dispatcher := &recordingDispatcher{}
		svc := service.NewTicketService(service.TicketDependencies{
			TicketRepo: store,
			Dispatcher: dispatcher,
		})
		seeded := seedTicket(store)

		Convey("Each transition event carries the status it replaced", func() {
			// The old status comes out of the same row-locked
			// transaction as the transition, not a separate read.
			_, err := svc.SetStatus(ctx, seeded.ID, domain.TicketStatusInProgress)
			So(err, ShouldBeNil)
			_, err = svc.SetStatus(ctx, seeded.ID, domain.TicketStatusResolved)
			So(err, ShouldBeNil)

			recorded := dispatcher.recorded()
			So(recorded, ShouldHaveLength, 2)

			first := recorded[0].Payload.(events.TicketStatusChangedPayload)
			So(recorded[0].Type, ShouldEqual, events.EventTicketStatusChanged)
			So(first.OldStatus, ShouldEqual, domain.TicketStatusPending)
			So(first.NewStatus, ShouldEqual, domain.TicketStatusInProgress)

			second := recorded[1].Payload.(events.TicketStatusChangedPayload)
			So(second.OldStatus, ShouldEqual, domain.TicketStatusInProgress)
			So(second.NewStatus, ShouldEqual, domain.TicketStatusResolved)
		})

		Convey("A rejected transition publishes nothing", func() {
			_, err := svc.SetStatus(ctx, seeded.ID, domain.TicketStatusDisputed)
			So(util.HasCode(err, util.CodeInvalidTransition), ShouldBeTrue)
			So(dispatcher.recorded(), ShouldBeEmpty)
		})
	})
}

func TestListTickets(t *testing.T) {
	Convey("Given a ticket service without a cache", t, func() {
		ctx := context.Background()
		store := newMemoryStore()
		svc := newTicketService(store)
		seedTicket(store)

		Convey("Listing returns the stored tickets", func() {
			tickets, err := svc.ListTickets(ctx)
			So(err, ShouldBeNil)
			So(tickets, ShouldHaveLength, 1)
			So(tickets[0].ID, ShouldEqual, "seed")
		})
	})
}
