package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"QuantDataHub/pkg/cache"
	"QuantDataHub/pkg/database"
	"QuantDataHub/pkg/logger"
	"QuantDataHub/pkg/model"
	"QuantDataHub/pkg/syncer"
)

// Handlers API处理程序
type Handlers struct {
	db         *database.MySQL
	klineCache *cache.KlineCache
	syncSvc    *syncer.Service
}

// NewHandlers 创建新的API处理程序
func NewHandlers(db *database.MySQL, klineCache *cache.KlineCache, syncSvc *syncer.Service) *Handlers {
	return &Handlers{
		db:         db,
		klineCache: klineCache,
		syncSvc:    syncSvc,
	}
}

// HealthCheck 健康检查处理程序
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck 就绪检查处理程序，检查数据库连通性
func (h *Handlers) ReadinessCheck(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// parseDate 解析YYYY-MM-DD格式的日期参数
func parseDate(c *gin.Context, name string) (time.Time, bool) {
	value := c.Query(name)
	if value == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": name + "参数不能为空",
		})
		return time.Time{}, false
	}
	date, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("%s参数格式错误，应为YYYY-MM-DD: %s", name, value),
		})
		return time.Time{}, false
	}
	return date, true
}

// GetCalendar 获取指定范围内的交易日历
func (h *Handlers) GetCalendar(c *gin.Context) {
	start, ok := parseDate(c, "start")
	if !ok {
		return
	}
	end, ok := parseDate(c, "end")
	if !ok {
		return
	}

	cals, err := h.db.Calendar().GetRange(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "查询交易日历失败: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  cals,
		"count": len(cals),
	})
}

// GetNextTradeDate 获取指定日期后的下一个交易日
func (h *Handlers) GetNextTradeDate(c *gin.Context) {
	date, ok := parseDate(c, "date")
	if !ok {
		return
	}

	next, err := h.db.Calendar().GetNext(date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "查询下一交易日失败: " + err.Error(),
		})
		return
	}
	if next == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "日期" + date.Format("2006-01-02") + "之后没有交易日",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": next,
	})
}

// IsTradeDate 检查指定日期是否为交易日
func (h *Handlers) IsTradeDate(c *gin.Context) {
	date, ok := parseDate(c, "date")
	if !ok {
		return
	}

	isTrade, err := h.db.Calendar().IsTradeDate(date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "查询交易日失败: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":          date.Format("2006-01-02"),
		"is_trade_date": isTrade,
	})
}

// ListSectors 获取板块列表
func (h *Handlers) ListSectors(c *gin.Context) {
	var (
		sectors []model.Sector
		err     error
	)
	if prefix := c.Query("prefix"); prefix != "" {
		sectors, err = h.db.Sector().ListByPrefix(prefix)
	} else {
		sectors, err = h.db.Sector().List()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "查询板块列表失败: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  sectors,
		"count": len(sectors),
	})
}

// CreateSectorRequest 创建板块请求
type CreateSectorRequest struct {
	SectorName string `json:"sector_name" binding:"required"`
}

// CreateSector 手动创建板块
func (h *Handlers) CreateSector(c *gin.Context) {
	var req CreateSectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	existing, err := h.db.Sector().GetByName(req.SectorName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "查询板块失败: " + err.Error(),
		})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error": "板块[" + req.SectorName + "]已存在",
		})
		return
	}

	sector := &model.Sector{SectorName: req.SectorName}
	if err := h.db.Sector().Create(sector); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "创建板块失败: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"data": sector,
	})
}

// GetSectorStocks 获取板块成分股
func (h *Handlers) GetSectorStocks(c *gin.Context) {
	name := c.Param("name")

	sector, err := h.db.Sector().GetByName(name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "查询板块失败: " + err.Error(),
		})
		return
	}
	if sector == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "板块[" + name + "]不存在",
		})
		return
	}

	codes, err := h.db.SectorStock().GetCodesBySectorName(name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "查询板块成分股失败: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sector": sector.SectorName,
		"data":   codes,
		"count":  len(codes),
	})
}

// GetKlines 获取K线数据，经过Redis缓存
func (h *Handlers) GetKlines(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "code参数不能为空",
		})
		return
	}

	periodParam := c.DefaultQuery("period", string(model.PeriodDaily))
	period, err := model.ParsePeriod(periodParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	start, ok := parseDate(c, "start")
	if !ok {
		return
	}
	end, ok := parseDate(c, "end")
	if !ok {
		return
	}

	klines, err := h.klineCache.GetRange(c.Request.Context(), period, code, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "查询K线数据失败: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":   code,
		"period": period,
		"data":   klines,
		"count":  len(klines),
	})
}

// GetDividends 获取除权数据
func (h *Handlers) GetDividends(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "code参数不能为空",
		})
		return
	}
	start, ok := parseDate(c, "start")
	if !ok {
		return
	}
	end, ok := parseDate(c, "end")
	if !ok {
		return
	}

	factors, err := h.db.Dividend().GetByStockAndDateRange(code, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "查询除权数据失败: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":  code,
		"data":  factors,
		"count": len(factors),
	})
}

// ListSyncRuns 获取最近的同步记录
func (h *Handlers) ListSyncRuns(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.db.SyncRun().ListRecent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "查询同步记录失败: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  runs,
		"count": len(runs),
	})
}

// TriggerSync 触发一次同步任务，异步执行立即返回
func (h *Handlers) TriggerSync(c *gin.Context) {
	job := c.Param("job")

	var runner func() (*model.SyncRun, error)
	switch job {
	case "calendar":
		runner = h.syncSvc.SyncCalendar
	case "sectors":
		runner = h.syncSvc.SyncSectors
	case "sector-stocks":
		runner = func() (*model.SyncRun, error) {
			return h.syncSvc.SyncSectorStocks(nil)
		}
	case "klines":
		opts := syncer.KlineOptions{}
		if p := c.Query("period"); p != "" {
			period, err := model.ParsePeriod(p)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			opts.Period = period
		}
		runner = func() (*model.SyncRun, error) {
			return h.syncSvc.SyncKlines(opts)
		}
	case "dividends":
		runner = func() (*model.SyncRun, error) {
			return h.syncSvc.SyncDividends(syncer.DividendOptions{})
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "不支持的同步任务: " + job,
		})
		return
	}

	go func() {
		if _, err := runner(); err != nil {
			logger.Error(fmt.Sprintf("同步任务%s执行失败: %v", job, err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status": "accepted",
		"job":    job,
	})
}
