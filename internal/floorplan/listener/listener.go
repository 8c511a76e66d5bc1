package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-layout-service/internal/floorplan"
	"github.com/fekuna/omnipos-layout-service/internal/floorplan/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/broker"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/logger"
	"go.uber.org/zap"
)

const (
	EventTableStatusChanged = "TableStatusChanged"
	EventOrderOpened        = "OrderOpened"
	EventBillRequested      = "BillRequested"
	EventOrderClosed        = "OrderClosed"
)

// TableStatusListener applies table status changes published by order
// processing.
type TableStatusListener struct {
	consumer broker.MessageReader
	uc       floorplan.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewTableStatusListener(consumer broker.MessageReader, uc floorplan.UseCase, logger logger.ZapLogger) *TableStatusListener {
	return &TableStatusListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		backoff:  time.Second,
	}
}

func (l *TableStatusListener) Start(ctx context.Context) {
	l.logger.Info("Starting table status Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping table status Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(l.backoff)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type TableEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   TablePayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type TablePayload struct {
	MerchantID string `json:"merchant_id"`
	TableID    string `json:"table_id"`
	OrderID    string `json:"order_id"`
	Status     string `json:"status"` // TableStatusChanged only
}

// statusFor maps an event onto the table status it implies.
func statusFor(event *TableEvent) (model.TableStatus, bool) {
	switch event.EventType {
	case EventTableStatusChanged:
		s := model.TableStatus(event.Payload.Status)
		return s, s.Valid()
	case EventOrderOpened:
		return model.TableOccupied, true
	case EventBillRequested:
		return model.TableBillRequested, true
	case EventOrderClosed:
		return model.TableAvailable, true
	}
	return "", false
}

func (l *TableStatusListener) processMessage(ctx context.Context, value []byte) {
	var event TableEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	status, ok := statusFor(&event)
	if !ok {
		return
	}
	// orders without a table (takeaway) carry no table id
	if event.Payload.TableID == "" || event.Payload.MerchantID == "" {
		return
	}

	l.logger.Info("Applying table status event",
		zap.String("event_type", event.EventType),
		zap.String("table_id", event.Payload.TableID),
		zap.String("status", string(status)),
	)

	_, err := l.uc.SetTableStatus(ctx, &dto.SetTableStatusInput{
		ID:         event.Payload.TableID,
		MerchantID: event.Payload.MerchantID,
		Status:     status,
	})
	if err != nil {
		l.logger.Error("Failed to update table status",
			zap.String("event_id", event.EventID),
			zap.String("table_id", event.Payload.TableID),
			zap.Error(err),
		)
	}
}
