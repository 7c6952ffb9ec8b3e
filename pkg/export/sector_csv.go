package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"QuantDataHub/pkg/logger"
)

// ExportSectorStocks 按板块名前缀导出成分股CSV。
// 每个前缀生成一个文件<prefix>_sectors_stocks.csv，行格式stock_code,sector_name，
// 同一前缀下重复出现的股票代码仅保留首次出现的行
func (e *Exporter) ExportSectorStocks(prefixes []string) error {
	for _, prefix := range prefixes {
		if err := e.exportSectorPrefix(prefix); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) exportSectorPrefix(prefix string) error {
	sectors, err := e.db.Sector().ListByPrefix(prefix)
	if err != nil {
		return err
	}
	if len(sectors) == 0 {
		return fmt.Errorf("没有匹配前缀[%s]的板块", prefix)
	}

	type row struct {
		stockCode  string
		sectorName string
	}
	var rows []row
	seen := make(map[string]bool)
	dups := 0
	for _, sector := range sectors {
		stocks, err := e.db.SectorStock().GetBySectorName(sector.SectorName)
		if err != nil {
			return err
		}
		for _, stock := range stocks {
			if seen[stock.StockCode] {
				dups++
				continue
			}
			seen[stock.StockCode] = true
			rows = append(rows, row{stockCode: stock.StockCode, sectorName: sector.SectorName})
		}
	}

	path := filepath.Join(e.dataDir, prefix+"_sectors_stocks.csv")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建导出目录失败: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建CSV文件失败: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, r := range rows {
		if err := w.Write([]string{r.stockCode, r.sectorName}); err != nil {
			return fmt.Errorf("写入CSV失败: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("写入CSV失败: %w", err)
	}

	logger.Info(fmt.Sprintf("前缀[%s]成分股导出完成，共%d个板块、%d只股票，去重%d条",
		prefix, len(sectors), len(rows), dups))
	return nil
}
