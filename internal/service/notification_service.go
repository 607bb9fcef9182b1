package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fundflow/internal/core/domain"
	"fundflow/internal/core/ports"

	"github.com/rs/zerolog"
)

// notifyRetryIntervals defines the delivery retry schedule.
var notifyRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	5 * time.Minute,
}

// Notification event types
const (
	EventWithdrawalRequested    = "WITHDRAWAL_REQUESTED"
	EventWithdrawalStatusChange = "WITHDRAWAL_STATUS_CHANGE"
)

// NotificationPayload is the JSON structure posted to the notification relay.
type NotificationPayload struct {
	EventType string           `json:"event_type"`
	Data      NotificationData `json:"data"`
	Signature string           `json:"signature"`
}

// NotificationData holds the withdrawal details carried in a notification.
type NotificationData struct {
	RecipientEmail       string `json:"recipient_email"`
	RecipientName        string `json:"recipient_name"`
	WithdrawalID         string `json:"withdrawal_id"`
	CampaignTitle        string `json:"campaign_title"`
	Status               string `json:"status"`
	Amount               int64  `json:"amount"`
	NetAmount            int64  `json:"net_amount"`
	ReviewNotes          string `json:"review_notes,omitempty"`
	RejectionReason      string `json:"rejection_reason,omitempty"`
	TransactionReference string `json:"transaction_reference,omitempty"`
	Timestamp            int64  `json:"timestamp"`
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// relayNotificationService implements ports.NotificationService by posting
// signed events to an external relay (the mailer). Delivery runs on its own
// goroutine; a dead relay never fails or slows a withdrawal operation.
type relayNotificationService struct {
	endpoint      string
	signingSecret string
	sigSvc        ports.SignatureService
	httpClient    HTTPClient
	log           zerolog.Logger
}

// NewRelayNotificationService creates a new relay-backed notification
// service. With an empty endpoint every send becomes a logged no-op.
func NewRelayNotificationService(endpoint, signingSecret string, sigSvc ports.SignatureService, httpClient HTTPClient, log zerolog.Logger) ports.NotificationService {
	return &relayNotificationService{
		endpoint:      endpoint,
		signingSecret: signingSecret,
		sigSvc:        sigSvc,
		httpClient:    httpClient,
		log:           log,
	}
}

// SendWithdrawalRequested notifies the organizer that their request was
// received.
func (s *relayNotificationService) SendWithdrawalRequested(ctx context.Context, organizer *domain.User, campaign *domain.Campaign, request *domain.WithdrawalRequest) {
	s.dispatch(EventWithdrawalRequested, NotificationData{
		RecipientEmail: organizer.Email,
		RecipientName:  organizer.Name,
		WithdrawalID:   request.ID.String(),
		CampaignTitle:  campaign.Title,
		Status:         string(request.Status),
		Amount:         request.Amount,
		NetAmount:      request.NetAmount,
		Timestamp:      time.Now().Unix(),
	})
}

// SendWithdrawalStatusChanged notifies the organizer of a review decision.
func (s *relayNotificationService) SendWithdrawalStatusChanged(ctx context.Context, email, name string, change ports.WithdrawalStatusChange) {
	s.dispatch(EventWithdrawalStatusChange, NotificationData{
		RecipientEmail:       email,
		RecipientName:        name,
		WithdrawalID:         change.RequestID.String(),
		CampaignTitle:        change.CampaignTitle,
		Status:               string(change.Status),
		Amount:               change.Amount,
		NetAmount:            change.NetAmount,
		ReviewNotes:          change.ReviewNotes,
		RejectionReason:      change.RejectionReason,
		TransactionReference: change.TransactionReference,
		Timestamp:            time.Now().Unix(),
	})
}

func (s *relayNotificationService) dispatch(eventType string, data NotificationData) {
	if s.endpoint == "" {
		s.log.Debug().Str("event_type", eventType).Msg("notification: no relay endpoint configured, skipping")
		return
	}

	dataBytes, err := json.Marshal(data)
	if err != nil {
		s.log.Error().Err(err).Str("event_type", eventType).Msg("notification: failed to marshal data")
		return
	}

	payload := NotificationPayload{
		EventType: eventType,
		Data:      data,
		Signature: s.sigSvc.Sign(s.signingSecret, string(dataBytes)),
	}

	go s.deliverWithRetries(payload)
}

// deliverWithRetries attempts delivery on the retry schedule, then gives up.
func (s *relayNotificationService) deliverWithRetries(payload NotificationPayload) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("withdrawal_id", payload.Data.WithdrawalID).Msg("notification: failed to marshal payload")
		return
	}

	for attempt := 0; attempt <= len(notifyRetryIntervals); attempt++ {
		if attempt > 0 {
			time.Sleep(notifyRetryIntervals[attempt-1])
		}

		req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewReader(payloadBytes))
		if err != nil {
			s.log.Error().Err(err).Str("withdrawal_id", payload.Data.WithdrawalID).Int("attempt", attempt+1).Msg("notification: failed to create request")
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			s.log.Warn().Err(err).Str("withdrawal_id", payload.Data.WithdrawalID).Int("attempt", attempt+1).Msg("notification: delivery failed")
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			s.log.Info().Str("withdrawal_id", payload.Data.WithdrawalID).Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("notification: delivered")
			return
		}

		s.log.Warn().Str("withdrawal_id", payload.Data.WithdrawalID).Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("notification: non-2xx response, retrying")
	}

	s.log.Error().Str("withdrawal_id", payload.Data.WithdrawalID).Msg("notification: all retry attempts exhausted")
}
