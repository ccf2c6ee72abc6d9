package worker

import (
	"context"
	"errors"
	"time"

	"github.com/refboard/internal/config"
	"github.com/refboard/internal/logger"
	"github.com/refboard/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.digestInterval() > 0 {
		go s.runStatsDigestLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) digestInterval() time.Duration {
	if s == nil || s.consumer == nil || s.consumer.Config == nil {
		return 0
	}
	minutes := s.consumer.Config.Referral.DigestIntervalMinutes
	if minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

func (s *Service) runStatsDigestLoop(ctx context.Context) {
	interval := s.digestInterval()
	if interval <= 0 || s.consumer == nil || s.consumer.NotificationService == nil {
		return
	}
	runOnce := func() {
		if err := s.consumer.NotificationService.HandleStatsDigest(queue.StatsDigestPayload{}); err != nil {
			logger.Warnw("worker_stats_digest_loop_failed", "error", err)
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
