package syncer

import (
	"fmt"
	"strings"

	"github.com/schollz/progressbar/v3"

	"QuantDataHub/pkg/logger"
	"QuantDataHub/pkg/model"
)

// SyncSectors 同步板块列表，仅新增不删除，已有板块保持不变
func (s *Service) SyncSectors() (*model.SyncRun, error) {
	run, err := s.db.SyncRun().Start(model.JobSectors)
	if err != nil {
		return nil, err
	}

	names, err := s.sectorSrc.FetchSectorList()
	if err != nil {
		s.finishRun(run, 0, 0, 0, err.Error())
		return run, fmt.Errorf("同步板块列表失败: %w", err)
	}

	var created, failed int
	for _, name := range names {
		existing, err := s.db.Sector().GetByName(name)
		if err != nil {
			failed++
			continue
		}
		if existing != nil {
			continue
		}
		if err := s.db.Sector().Create(&model.Sector{SectorName: name}); err != nil {
			logger.Warn(fmt.Sprintf("创建板块[%s]失败: %v", name, err))
			failed++
			continue
		}
		created++
	}

	logger.Info(fmt.Sprintf("板块列表同步完成，共%d个板块，新增%d个", len(names), created))
	s.finishRun(run, len(names), len(names)-failed, failed, "")
	return run, nil
}

// SyncSectorStocks 同步板块成分股。sectorNames为空时同步全部板块，
// 每个板块的成分股整体替换，单板块失败不中断
func (s *Service) SyncSectorStocks(sectorNames []string) (*model.SyncRun, error) {
	run, err := s.db.SyncRun().Start(model.JobSectorStocks)
	if err != nil {
		return nil, err
	}

	sectors, err := s.resolveSectors(sectorNames)
	if err != nil {
		s.finishRun(run, 0, 0, 0, err.Error())
		return run, err
	}

	bar := progressbar.Default(int64(len(sectors)), "同步板块成分股")
	var succeeded, failed int
	var failedNames []string
	for _, sector := range sectors {
		bar.Add(1)

		codes, err := s.sectorSrc.FetchSectorStocks(sector.SectorName)
		if err != nil {
			logger.Warn(fmt.Sprintf("获取板块[%s]成分股失败: %v", sector.SectorName, err))
			failed++
			failedNames = append(failedNames, sector.SectorName)
			continue
		}

		if _, err := s.db.SectorStock().ReplaceForSector(sector.ID, codes); err != nil {
			logger.Warn(fmt.Sprintf("写入板块[%s]成分股失败: %v", sector.SectorName, err))
			failed++
			failedNames = append(failedNames, sector.SectorName)
			continue
		}
		succeeded++
	}

	message := ""
	if len(failedNames) > 0 {
		message = fmt.Sprintf("失败板块: %s", strings.Join(failedNames, ","))
	}
	logger.Info(fmt.Sprintf("板块成分股同步完成，成功%d个，失败%d个", succeeded, failed))
	s.finishRun(run, len(sectors), succeeded, failed, message)
	return run, nil
}

// resolveSectors 根据板块名列表解析出板块记录，空列表表示全部板块
func (s *Service) resolveSectors(sectorNames []string) ([]model.Sector, error) {
	if len(sectorNames) == 0 {
		sectors, err := s.db.Sector().List()
		if err != nil {
			return nil, err
		}
		if len(sectors) == 0 {
			return nil, fmt.Errorf("板块列表为空，请先同步板块列表")
		}
		return sectors, nil
	}

	sectors := make([]model.Sector, 0, len(sectorNames))
	for _, name := range sectorNames {
		sector, err := s.db.Sector().GetByName(name)
		if err != nil {
			return nil, err
		}
		if sector == nil {
			return nil, fmt.Errorf("板块[%s]不存在", name)
		}
		sectors = append(sectors, *sector)
	}
	return sectors, nil
}
