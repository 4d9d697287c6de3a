package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nagriksetu/report-service/internal/config"
	"github.com/nagriksetu/report-service/internal/events"
)

// NotificationService forwards domain events to an outbound webhook so
// municipal staff tooling can react to new and escalating incidents.
type NotificationService struct {
	dispatcher events.Dispatcher
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(cfg config.NotificationConfig, dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

// RegisterHandlers subscribes to the events worth notifying on.
func (s *NotificationService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventReportCreated,
		events.EventReportMerged,
		events.EventTicketStatusChanged,
	} {
		s.dispatcher.Subscribe(eventType, s.handleEvent)
	}
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	s.logger.Info("notification",
		zap.String("event", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
	)
	if s.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("webhook delivery failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()
	return nil
}
