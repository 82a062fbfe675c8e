package service

import (
	"encoding/json"
	"fmt"

	"docmind-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// TopicSessionTitle carries first-exchange payloads to the in-process
// title-derivation worker.
const TopicSessionTitle = "session.title.derive"

// IPublisherService hands work to in-process background workers over
// watermill. Distinct from EventPublisher, which fans conversation
// outcomes out to external subscribers over NATS.
type IPublisherService interface {
	PublishSessionTitle(msg *dto.SessionTitleMessage) error
}

type publisherService struct {
	publisher message.Publisher
}

func NewPublisherService(publisher message.Publisher) IPublisherService {
	return &publisherService{publisher: publisher}
}

func (s *publisherService) PublishSessionTitle(msg *dto.SessionTitleMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal session title message: %w", err)
	}
	return s.publisher.Publish(TopicSessionTitle, message.NewMessage(uuid.NewString(), payload))
}
