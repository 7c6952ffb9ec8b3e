package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"QuantDataHub/pkg/model"
)

// SyncRunEvent 同步任务完成事件，发布到sync.<job>主题
type SyncRunEvent struct {
	RunID      string    `json:"run_id"`
	Job        string    `json:"job"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Message    string    `json:"message,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// EventPublisher 同步事件发布接口，NATS不可用时可用空实现替代
type EventPublisher interface {
	PublishSyncRun(run *model.SyncRun) error
}

// NATSPublisher 基于JetStream的事件发布器
type NATSPublisher struct {
	client *NATSClient
}

// NewNATSPublisher 创建事件发布器
func NewNATSPublisher(client *NATSClient) *NATSPublisher {
	return &NATSPublisher{client: client}
}

// PublishSyncRun 发布一次同步任务的执行结果
func (p *NATSPublisher) PublishSyncRun(run *model.SyncRun) error {
	event := SyncRunEvent{
		RunID:     run.ID,
		Job:       string(run.Job),
		Total:     run.Total,
		Succeeded: run.Succeeded,
		Failed:    run.Failed,
		Message:   run.Message,
	}
	if run.FinishedAt != nil {
		event.FinishedAt = *run.FinishedAt
	}
	subject := fmt.Sprintf("sync.%s", run.Job)
	return p.client.Publish(subject, event)
}

// SubscribeSyncRuns 订阅同步完成事件，每条事件解析后交给handler处理，
// 解析失败的消息Nak后等待重投
func SubscribeSyncRuns(client *NATSClient, consumerName string, handler func(SyncRunEvent)) error {
	return client.Subscribe("SYNC_STREAM", consumerName, "sync.*", func(data []byte) error {
		event, err := decodeSyncRunEvent(data)
		if err != nil {
			return err
		}
		handler(event)
		return nil
	})
}

// decodeSyncRunEvent 反序列化同步完成事件
func decodeSyncRunEvent(data []byte) (SyncRunEvent, error) {
	var event SyncRunEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return SyncRunEvent{}, fmt.Errorf("解析同步事件失败: %w", err)
	}
	if event.Job == "" {
		return SyncRunEvent{}, fmt.Errorf("同步事件缺少job字段")
	}
	return event, nil
}

// NopPublisher 空事件发布器，NATS未配置时使用
type NopPublisher struct{}

func (NopPublisher) PublishSyncRun(run *model.SyncRun) error {
	return nil
}
