package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantDataHub/pkg/database"
	"QuantDataHub/pkg/model"
)

func seedBenchmark(t *testing.T, db *database.MySQL, codes []string) {
	t.Helper()
	sector := &model.Sector{SectorName: "沪深A股"}
	require.NoError(t, db.Sector().Create(sector))
	_, err := db.SectorStock().ReplaceForSector(sector.ID, codes)
	require.NoError(t, err)
}

func TestSyncKlinesFullThenIncremental(t *testing.T) {
	src := &fakeSource{
		klines: map[string][]model.Kline{
			"000001.SZ": {
				makeKline("000001.SZ", day(2024, 1, 2), 10),
				makeKline("000001.SZ", day(2024, 1, 3), 10.5),
				makeKline("000001.SZ", day(2024, 1, 4), 11),
			},
		},
	}
	svc, db := setupService(t, src)

	run, err := svc.SyncKlines(KlineOptions{
		StockCodes: []string{"000001.SZ"},
		Period:     model.PeriodDaily,
		Start:      day(2024, 1, 1),
		End:        day(2024, 1, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 0, run.Failed)

	count, err := db.Kline(model.PeriodDaily).Count("000001.SZ")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// 扩大范围再同步，应从已有最新时间的次日开始增量拉取
	src.fetchRequests = nil
	_, err = svc.SyncKlines(KlineOptions{
		StockCodes: []string{"000001.SZ"},
		Period:     model.PeriodDaily,
		Start:      day(2024, 1, 1),
		End:        day(2024, 1, 5),
	})
	require.NoError(t, err)

	require.Len(t, src.fetchRequests, 1)
	assert.Equal(t, day(2024, 1, 4), src.fetchRequests[0].start)

	count, err = db.Kline(model.PeriodDaily).Count("000001.SZ")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestSyncKlinesSkipUpToDate(t *testing.T) {
	src := &fakeSource{
		klines: map[string][]model.Kline{
			"000001.SZ": {makeKline("000001.SZ", day(2024, 1, 5), 10)},
		},
	}
	svc, _ := setupService(t, src)

	_, err := svc.SyncKlines(KlineOptions{
		StockCodes: []string{"000001.SZ"},
		Period:     model.PeriodDaily,
		Start:      day(2024, 1, 1),
		End:        day(2024, 1, 5),
	})
	require.NoError(t, err)

	// 已是最新，第二次同步不应再发起拉取
	src.fetchRequests = nil
	run, err := svc.SyncKlines(KlineOptions{
		StockCodes: []string{"000001.SZ"},
		Period:     model.PeriodDaily,
		Start:      day(2024, 1, 1),
		End:        day(2024, 1, 5),
	})
	require.NoError(t, err)
	assert.Empty(t, src.fetchRequests)
	assert.Equal(t, 1, run.Succeeded)
}

func TestSyncKlinesPartialFailure(t *testing.T) {
	src := &fakeSource{
		klines: map[string][]model.Kline{
			"000001.SZ": {makeKline("000001.SZ", day(2024, 1, 2), 10)},
			"000002.SZ": {makeKline("000002.SZ", day(2024, 1, 2), 20)},
		},
		failKlines: map[string]bool{"000002.SZ": true},
	}
	svc, db := setupService(t, src)

	run, err := svc.SyncKlines(KlineOptions{
		StockCodes: []string{"000001.SZ", "000002.SZ"},
		Period:     model.PeriodDaily,
		Start:      day(2024, 1, 1),
		End:        day(2024, 1, 5),
	})
	// 单只失败不导致整体报错
	require.NoError(t, err)
	assert.Equal(t, 2, run.Total)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 1, run.Failed)
	assert.Contains(t, run.Message, "000002.SZ")

	count, err := db.Kline(model.PeriodDaily).Count("000001.SZ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSyncKlinesDefaultCodes(t *testing.T) {
	src := &fakeSource{
		klines: map[string][]model.Kline{
			"000001.SZ": {makeKline("000001.SZ", day(2024, 1, 2), 10)},
		},
	}
	svc, db := setupService(t, src)
	seedBenchmark(t, db, []string{"000001.SZ"})

	run, err := svc.SyncKlines(KlineOptions{
		Start: day(2024, 1, 1),
		End:   day(2024, 1, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, run.Total)
	assert.Equal(t, model.JobKlines, run.Job)
}

func TestSyncKlinesNoBenchmark(t *testing.T) {
	src := &fakeSource{}
	svc, _ := setupService(t, src)

	_, err := svc.SyncKlines(KlineOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "沪深A股")
}

func TestSyncKlinesInvalidPeriod(t *testing.T) {
	src := &fakeSource{}
	svc, _ := setupService(t, src)

	_, err := svc.SyncKlines(KlineOptions{
		StockCodes: []string{"000001.SZ"},
		Period:     model.Period("hourly"),
	})
	require.Error(t, err)
}
