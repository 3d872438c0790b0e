package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/pkg/logger"
	"ai-reqanalyzer-be/internal/websocket"
	"ai-reqanalyzer-be/pkg/events"
	"ai-reqanalyzer-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// NotifierService consumes analysis events off the in-process bus and fans
// them out to connected websocket clients and the NATS stream.
type NotifierService struct {
	pubSub *gochannel.GoChannel
	hub    *websocket.Hub
	nats   *nats.Publisher
	logger logger.ILogger
}

func NewNotifierService(pubSub *gochannel.GoChannel, hub *websocket.Hub, natsPublisher *nats.Publisher, log logger.ILogger) *NotifierService {
	return &NotifierService{
		pubSub: pubSub,
		hub:    hub,
		nats:   natsPublisher,
		logger: log,
	}
}

// Start subscribes and processes until ctx is cancelled.
func (s *NotifierService) Start(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, constant.AnalysisEventsTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.handle(ctx, msg.Payload)
			msg.Ack()
		}
	}()
	return nil
}

type busEnvelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (s *NotifierService) handle(ctx context.Context, payload []byte) {
	var envelope busEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn("Notifier", "Dropping malformed event", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	event := events.BaseEvent{
		Type:       envelope.Type,
		Data:       envelope.Data,
		OccurredAt: envelope.OccurredAt,
	}

	if userId, ok := eventUserId(envelope.Data); ok && s.hub != nil {
		s.hub.SendEvent(userId, event)
	}

	if s.nats != nil {
		if err := s.nats.Publish(ctx, event); err != nil {
			s.logger.Warn("Notifier", "NATS publish failed", map[string]interface{}{
				"event": envelope.Type,
				"error": err.Error(),
			})
		}
	}
}

func eventUserId(data map[string]interface{}) (uuid.UUID, bool) {
	raw, ok := data["user_id"].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
