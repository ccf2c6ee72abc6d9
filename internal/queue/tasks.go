package queue

import (
	"encoding/json"

	"github.com/refboard/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskConversionAlert 转化提醒任务
	TaskConversionAlert = constants.TaskConversionAlert
	// TaskStatsDigest 统计摘要任务
	TaskStatsDigest = constants.TaskStatsDigest
)

// ConversionAlertPayload 转化提醒任务载荷
type ConversionAlertPayload struct {
	ClickID string `json:"click_id"`
}

// StatsDigestPayload 统计摘要任务载荷
type StatsDigestPayload struct {
	Locale string `json:"locale"`
}

// NewConversionAlertTask 创建转化提醒任务
func NewConversionAlertTask(payload ConversionAlertPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConversionAlert, body), nil
}

// NewStatsDigestTask 创建统计摘要任务
func NewStatsDigestTask(payload StatsDigestPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatsDigest, body), nil
}
