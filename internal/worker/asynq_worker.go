package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/catalog-next/internal/importer"
	"github.com/catalog-next/internal/logger"
	"github.com/catalog-next/internal/provider"
	"github.com/catalog-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCatalogImport, c.handleCatalogImport)
}

func (c *Consumer) handleCatalogImport(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_catalog_import_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CatalogImportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_catalog_import_unmarshal_failed", "error", err)
		return err
	}
	if c.ImportManager == nil {
		logger.Warnw("worker_catalog_import_skip_manager_nil", "triggered_by", payload.TriggeredBy)
		return nil
	}

	report, err := c.ImportManager.Run()
	if err != nil {
		if errors.Is(err, importer.ErrImportRunning) {
			logger.Warnw("worker_catalog_import_already_running", "triggered_by", payload.TriggeredBy)
			return nil
		}
		logger.Errorw("worker_catalog_import_failed", "triggered_by", payload.TriggeredBy, "error", err)
		return err
	}
	logger.Infow("worker_catalog_import_finished",
		"triggered_by", payload.TriggeredBy,
		"summary", report.Summary(),
	)
	return nil
}
