package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTradeCalendar(t *testing.T) {
	// 2024-03-29是周五，为2024年Q1第13周
	d := time.Date(2024, 3, 29, 0, 0, 0, 0, time.Local)
	cal := NewTradeCalendar(d)

	assert.Equal(t, 2024, cal.Year)
	assert.Equal(t, 3, cal.Month)
	assert.Equal(t, 29, cal.Day)
	assert.Equal(t, 5, cal.Weekday)
	assert.Equal(t, 1, cal.Quarter)
	assert.Equal(t, 13, cal.WeekOfYear)
	assert.False(t, cal.IsMonthEnd)
	assert.False(t, cal.IsQuarterEnd)
	assert.False(t, cal.IsYearEnd)
}

func TestNewTradeCalendarSundayWeekday(t *testing.T) {
	// 周日应转换为7而不是0
	d := time.Date(2024, 6, 30, 0, 0, 0, 0, time.Local)
	cal := NewTradeCalendar(d)

	assert.Equal(t, 7, cal.Weekday)
	assert.Equal(t, 2, cal.Quarter)
}

func TestNewTradeCalendarQuarters(t *testing.T) {
	cases := []struct {
		month   time.Month
		quarter int
	}{
		{time.January, 1},
		{time.March, 1},
		{time.April, 2},
		{time.September, 3},
		{time.October, 4},
		{time.December, 4},
	}
	for _, c := range cases {
		cal := NewTradeCalendar(time.Date(2024, c.month, 15, 0, 0, 0, 0, time.Local))
		assert.Equal(t, c.quarter, cal.Quarter, "month=%d", c.month)
	}
}
