package syncer

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"QuantDataHub/pkg/logger"
	"QuantDataHub/pkg/model"
)

// KlineOptions K线同步参数，零值字段使用默认值
type KlineOptions struct {
	StockCodes []string     // 为空时取基准板块全部成分股
	Period     model.Period // 为空时同步日K
	Start      time.Time    // 零值时取回看年数之前
	End        time.Time    // 零值时按16点规则取当天或前一天
}

// SyncKlines 增量同步K线。流程：
//  1. 补全默认参数
//  2. 触发网关批量下载到本地缓存，失败仅告警
//  3. 工作池逐只股票增量同步：已有数据时从最新时间之后拉取，已是最新则跳过
//  4. 汇总结果，单只失败不重试不中断
func (s *Service) SyncKlines(opts KlineOptions) (*model.SyncRun, error) {
	run, err := s.db.SyncRun().Start(model.JobKlines)
	if err != nil {
		return nil, err
	}

	period := opts.Period
	if period == "" {
		period = model.PeriodDaily
	}
	if !period.Valid() {
		err := fmt.Errorf("不支持的K线周期: %s", period)
		s.finishRun(run, 0, 0, 0, err.Error())
		return run, err
	}

	codes := opts.StockCodes
	if len(codes) == 0 {
		codes, err = s.defaultCodes()
		if err != nil {
			s.finishRun(run, 0, 0, 0, err.Error())
			return run, err
		}
	}

	start, end := opts.Start, opts.End
	if start.IsZero() || end.IsZero() {
		defStart, defEnd := s.defaultRange()
		if start.IsZero() {
			start = defStart
		}
		if end.IsZero() {
			end = defEnd
		}
	}

	logger.Info(fmt.Sprintf("开始同步%s，共%d只股票，范围%s至%s",
		period.CNName(), len(codes), start.Format("2006-01-02"), end.Format("2006-01-02")))

	// 批量下载为增量同步预热本地缓存，失败不影响后续逐股拉取
	if err := s.klineSrc.DownloadHistory(codes, period, start, end, true); err != nil {
		logger.Warn(fmt.Sprintf("批量下载历史数据失败: %v", err))
	}

	type result struct {
		code    string
		count   int
		skipped bool
		err     error
	}

	jobs := make(chan string)
	results := make(chan result, len(codes))
	bar := progressbar.Default(int64(len(codes)), "同步"+period.CNName())

	var wg sync.WaitGroup
	for i := 0; i < s.maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for code := range jobs {
				count, skipped, err := s.syncOneKline(code, period, start, end)
				results <- result{code: code, count: count, skipped: skipped, err: err}
				bar.Add(1)
			}
		}()
	}

	for _, code := range codes {
		jobs <- code
	}
	close(jobs)
	wg.Wait()
	close(results)

	var succeeded, failed, skipped, total int
	var failedCodes []string
	for r := range results {
		if r.err != nil {
			logger.Warn(fmt.Sprintf("同步股票%s%s失败: %v", r.code, period.CNName(), r.err))
			failed++
			failedCodes = append(failedCodes, r.code)
			continue
		}
		succeeded++
		total += r.count
		if r.skipped {
			skipped++
		}
	}

	message := ""
	if len(failedCodes) > 0 {
		message = fmt.Sprintf("失败股票: %s", strings.Join(failedCodes, ","))
	}
	logger.Info(fmt.Sprintf("%s同步完成，成功%d只（其中%d只已是最新），失败%d只，写入%d条",
		period.CNName(), succeeded, skipped, failed, total))
	s.finishRun(run, len(codes), succeeded, failed, message)
	return run, nil
}

// syncOneKline 单只股票的增量同步，返回写入条数与是否跳过
func (s *Service) syncOneKline(code string, period model.Period, start, end time.Time) (int, bool, error) {
	klineDB := s.db.Kline(period)

	latest, ok, err := klineDB.GetLatestTime(code)
	if err != nil {
		return 0, false, err
	}

	fetchStart := start
	if ok {
		// 已是最新则跳过，否则从最新记录的次日开始拉
		if !latest.Before(end) {
			return 0, true, nil
		}
		next := latest.AddDate(0, 0, 1)
		if next.After(fetchStart) {
			fetchStart = next
		}
	}

	klines, err := s.klineSrc.FetchKlines(code, period, fetchStart, end)
	if err != nil {
		return 0, false, err
	}
	if len(klines) == 0 {
		return 0, false, nil
	}

	count, err := klineDB.UpsertBatch(klines)
	if err != nil {
		return 0, false, err
	}
	return count, false, nil
}
