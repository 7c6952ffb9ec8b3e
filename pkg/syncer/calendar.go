package syncer

import (
	"fmt"
	"time"

	"QuantDataHub/pkg/logger"
	"QuantDataHub/pkg/model"
)

// SyncCalendar 全量同步交易日历：拉取全部交易日，计算派生字段后整表替换
func (s *Service) SyncCalendar() (*model.SyncRun, error) {
	run, err := s.db.SyncRun().Start(model.JobCalendar)
	if err != nil {
		return nil, err
	}

	dates, err := s.calendarSrc.FetchTradeDates()
	if err != nil {
		s.finishRun(run, 0, 0, 0, err.Error())
		return run, fmt.Errorf("同步交易日历失败: %w", err)
	}

	calendars := buildCalendars(dates)

	deleted, err := s.db.Calendar().DeleteAll()
	if err != nil {
		s.finishRun(run, len(calendars), 0, len(calendars), err.Error())
		return run, err
	}
	logger.Info(fmt.Sprintf("清空旧交易日历%d条", deleted))

	inserted, err := s.db.Calendar().BatchCreate(calendars)
	if err != nil {
		s.finishRun(run, len(calendars), 0, len(calendars), err.Error())
		return run, err
	}

	logger.Info(fmt.Sprintf("交易日历同步完成，共%d个交易日", inserted))
	s.finishRun(run, len(calendars), inserted, 0, "")
	return run, nil
}

// buildCalendars 构建交易日历记录并标记月末/季末/年末交易日
func buildCalendars(dates []time.Time) []model.TradeCalendar {
	calendars := make([]model.TradeCalendar, 0, len(dates))
	for _, d := range dates {
		calendars = append(calendars, model.NewTradeCalendar(d))
	}

	// 每个(年,月)的最后一个交易日即月末；3/6/9/12月的月末为季末；12月的月末为年末
	lastOfMonth := make(map[[2]int]int)
	for i, c := range calendars {
		key := [2]int{c.Year, c.Month}
		if prev, ok := lastOfMonth[key]; !ok || calendars[prev].TradeDate.Before(c.TradeDate) {
			lastOfMonth[key] = i
		}
	}
	for _, i := range lastOfMonth {
		calendars[i].IsMonthEnd = true
		switch calendars[i].Month {
		case 3, 6, 9, 12:
			calendars[i].IsQuarterEnd = true
		}
		if calendars[i].Month == 12 {
			calendars[i].IsYearEnd = true
		}
	}
	return calendars
}
