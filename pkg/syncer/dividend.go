package syncer

import (
	"fmt"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"QuantDataHub/pkg/logger"
	"QuantDataHub/pkg/model"
)

// dividendBatchSize 每批处理的股票数，批间打印进度
const dividendBatchSize = 100

// DividendOptions 除权数据同步参数
type DividendOptions struct {
	StockCodes []string  // 为空时取基准板块全部成分股
	Start      time.Time // 零值时取回看年数之前
	End        time.Time // 零值时按16点规则取当天或前一天
}

// SyncDividends 同步除权数据，按批次逐只拉取并upsert，
// 收集失败股票列表，单只失败不中断
func (s *Service) SyncDividends(opts DividendOptions) (*model.SyncRun, error) {
	run, err := s.db.SyncRun().Start(model.JobDividends)
	if err != nil {
		return nil, err
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

	logger.Info(fmt.Sprintf("开始同步除权数据，共%d只股票，范围%s至%s",
		len(codes), start.Format("2006-01-02"), end.Format("2006-01-02")))

	bar := progressbar.Default(int64(len(codes)), "同步除权数据")
	var succeeded, total int
	var failedCodes []string

	for batchStart := 0; batchStart < len(codes); batchStart += dividendBatchSize {
		batchEnd := batchStart + dividendBatchSize
		if batchEnd > len(codes) {
			batchEnd = len(codes)
		}

		for _, code := range codes[batchStart:batchEnd] {
			bar.Add(1)

			factors, err := s.dividendSrc.FetchDividFactors(code, start, end)
			if err != nil {
				logger.Warn(fmt.Sprintf("获取股票%s除权数据失败: %v", code, err))
				failedCodes = append(failedCodes, code)
				continue
			}

			count, err := s.db.Dividend().UpsertBatch(factors)
			if err != nil {
				logger.Warn(fmt.Sprintf("写入股票%s除权数据失败: %v", code, err))
				failedCodes = append(failedCodes, code)
				continue
			}
			succeeded++
			total += count
		}

		logger.Info(fmt.Sprintf("除权数据同步进度: %d/%d", batchEnd, len(codes)))
	}

	message := ""
	if len(failedCodes) > 0 {
		message = fmt.Sprintf("失败股票: %s", strings.Join(failedCodes, ","))
	}
	logger.Info(fmt.Sprintf("除权数据同步完成，成功%d只，失败%d只，写入%d条",
		succeeded, len(failedCodes), total))
	s.finishRun(run, len(codes), succeeded, len(failedCodes), message)
	return run, nil
}
