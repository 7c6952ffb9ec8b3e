package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantDataHub/pkg/model"
)

func TestDecodeSyncRunEvent(t *testing.T) {
	finished := time.Date(2024, 3, 29, 16, 40, 0, 0, time.Local)
	payload, err := json.Marshal(SyncRunEvent{
		RunID:      "9b2f1a60-0000-0000-0000-000000000000",
		Job:        string(model.JobKlines),
		Total:      300,
		Succeeded:  298,
		Failed:     2,
		Message:    "失败股票: 600000.SH,000001.SZ",
		FinishedAt: finished,
	})
	require.NoError(t, err)

	event, err := decodeSyncRunEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, string(model.JobKlines), event.Job)
	assert.Equal(t, 300, event.Total)
	assert.Equal(t, 2, event.Failed)
	assert.True(t, finished.Equal(event.FinishedAt))
}

func TestDecodeSyncRunEventInvalid(t *testing.T) {
	_, err := decodeSyncRunEvent([]byte("不是JSON"))
	require.Error(t, err)

	// 缺少job字段的事件视为非法
	_, err = decodeSyncRunEvent([]byte(`{"total": 10}`))
	require.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	run := &model.SyncRun{Job: model.JobCalendar}
	assert.NoError(t, NopPublisher{}.PublishSyncRun(run))
}
