package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"kitchen-board/internal/connections/rabbitmq"
	"kitchen-board/internal/domain"
)

const exchange = "board_status_fanout"

type statusEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	ChangedBy   string    `json:"changed_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher fans out store-confirmed status transitions so downstream
// displays and pagers can react without polling the board.
type Publisher struct {
	mq *rabbitmq.Client
}

func NewPublisher(mq *rabbitmq.Client) (*Publisher, error) {
	if err := mq.ExchangeDeclare(exchange, "fanout"); err != nil {
		return nil, err
	}
	return &Publisher{mq: mq}, nil
}

func (p *Publisher) StatusChanged(ctx context.Context, o domain.Order, from domain.Status) error {
	body, err := json.Marshal(statusEvent{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		OldStatus:   string(from),
		NewStatus:   string(o.Status),
		ChangedBy:   o.OwnerID,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return p.mq.Publish(ctx, exchange, "", amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		MessageId:     uuid.NewString(),
		CorrelationId: o.Number,
		Timestamp:     time.Now().UTC(),
		Headers: amqp.Table{
			"x-source": "kitchen-board",
		},
		Body: body,
	})
}
