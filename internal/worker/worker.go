package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"pricewatch/internal/broker"
	"pricewatch/internal/models"
	"pricewatch/internal/pipeline"
	"pricewatch/internal/redisclient"
	"pricewatch/internal/service"
	"pricewatch/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// IngestWorker consumes scraped items from the intake topic and runs
// each through validation and ingestion. Per-item failures are logged
// and the batch continues.
type IngestWorker struct {
	consumer  *broker.Consumer
	validator *pipeline.Validator
	ingest    *service.IngestService
	directory *service.RetailerDirectory
	logger    *zap.Logger
}

// NewIngestWorker creates a new ingest worker
func NewIngestWorker(
	consumer *broker.Consumer,
	validator *pipeline.Validator,
	ingest *service.IngestService,
	directory *service.RetailerDirectory,
) *IngestWorker {
	return &IngestWorker{
		consumer:  consumer,
		validator: validator,
		ingest:    ingest,
		directory: directory,
		logger:    util.GetLogger(),
	}
}

// Start starts the worker
func (w *IngestWorker) Start(ctx context.Context) error {
	log.Println("Starting ingest worker...")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *IngestWorker) Stop() error {
	log.Println("Stopping ingest worker...")
	w.validator.Close()
	return w.consumer.Close()
}

func (w *IngestWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	var event models.ItemScrapedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		w.logger.Error("Failed to unmarshal scraped item", zap.Error(err))
		return err
	}
	if event.Item == nil {
		w.logger.Warn("Scraped item event without item payload",
			zap.String("event_id", event.EventID))
		return nil
	}

	retailerID, err := w.directory.ResolveID(ctx, event.Retailer)
	if err != nil {
		w.logger.Error("Failed to resolve retailer for item",
			zap.String("retailer", event.Retailer),
			zap.String("url", event.Item.URL),
			zap.Error(err))
		return err
	}

	if err := w.validator.Process(event.Item); err != nil {
		w.logger.Warn("Item rejected by validation",
			zap.String("url", event.Item.URL),
			zap.String("website", event.Item.Website),
			zap.Error(err))
		return nil
	}

	if _, err := w.ingest.ProcessItem(ctx, event.Item, retailerID); err != nil {
		w.logger.Error("Failed to ingest item",
			zap.String("url", event.Item.URL),
			zap.Int64("retailer_id", retailerID),
			zap.Error(err))
	}
	return nil
}

// PriceAlertWorker consumes PriceChanged events, keeps the redis
// latest-price cache current and logs significant drops.
type PriceAlertWorker struct {
	consumer *broker.Consumer
	handler  *broker.EventHandler
	redis    *redisclient.Client
	logger   *zap.Logger
}

// NewPriceAlertWorker creates a new price alert worker
func NewPriceAlertWorker(consumer *broker.Consumer, redis *redisclient.Client) *PriceAlertWorker {
	w := &PriceAlertWorker{
		consumer: consumer,
		redis:    redis,
		logger:   util.GetLogger(),
	}

	handler := broker.NewEventHandler()
	handler.OnPriceChanged(w.handlePriceChanged)
	w.handler = handler

	return w
}

// Start starts the price alert worker
func (pw *PriceAlertWorker) Start(ctx context.Context) error {
	log.Println("Starting price alert worker...")
	return pw.consumer.StartConsuming(ctx, pw.handler.HandleMessage)
}

// Stop stops the price alert worker
func (pw *PriceAlertWorker) Stop() error {
	log.Println("Stopping price alert worker...")
	return pw.consumer.Close()
}

func (pw *PriceAlertWorker) handlePriceChanged(ctx context.Context, event *models.PriceChangedEvent) error {
	currency := ""
	if event.Currency != nil {
		currency = *event.Currency
	}

	if pw.redis != nil {
		err := pw.redis.SetLatestPrice(ctx, event.RetailerProductID, redisclient.LatestPrice{
			Price:     event.NewPrice,
			Currency:  currency,
			UpdatedAt: time.Now(),
		})
		if err != nil {
			pw.logger.Warn("Failed to cache latest price",
				zap.Int64("retailer_product_id", event.RetailerProductID),
				zap.Error(err))
		}
	}

	if event.NewPrice < event.OldPrice {
		pw.logger.Info("Price drop detected",
			zap.Int64("retailer_product_id", event.RetailerProductID),
			zap.String("url", event.URL),
			zap.Float64("old_price", event.OldPrice),
			zap.Float64("new_price", event.NewPrice),
			zap.Float64("change_percent", event.ChangePercent))
	}
	return nil
}
