package worker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/refboard/internal/logger"
	"github.com/refboard/internal/provider"
	"github.com/refboard/internal/queue"

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
	mux.HandleFunc(queue.TaskConversionAlert, c.handleConversionAlert)
	mux.HandleFunc(queue.TaskStatsDigest, c.handleStatsDigest)
}

func (c *Consumer) handleConversionAlert(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_conversion_alert_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ConversionAlertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_conversion_alert_unmarshal_failed", "error", err)
		return err
	}
	if strings.TrimSpace(payload.ClickID) == "" {
		logger.Debugw("worker_conversion_alert_skip_invalid_payload")
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_conversion_alert_skip_notification_service_nil", "click_id", payload.ClickID)
		return nil
	}
	if err := c.NotificationService.HandleConversionAlert(payload); err != nil {
		logger.Warnw("worker_conversion_alert_failed", "click_id", payload.ClickID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleStatsDigest(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_stats_digest_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.StatsDigestPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_stats_digest_unmarshal_failed", "error", err)
		return err
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_stats_digest_skip_notification_service_nil")
		return nil
	}
	if err := c.NotificationService.HandleStatsDigest(payload); err != nil {
		logger.Warnw("worker_stats_digest_failed", "error", err)
		return err
	}
	return nil
}
