package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/matt-ortiz/PyScheduler/internal/common"
	"github.com/matt-ortiz/PyScheduler/internal/model"
)

// CreateRunningExecution inserts the QUEUED/RUNNING placeholder row the
// Execution Engine writes before a script's process is even spawned,
// so a crash mid-run still leaves a trace for the orphan sweep.
func (s *Store) CreateRunningExecution(ctx context.Context, e *model.ExecutionRecord) error {
	return WithRetry(ctx, func() error {
		return s.db.WithContext(ctx).Create(e).Error
	})
}

func (s *Store) GetExecution(ctx context.Context, id uint) (*model.ExecutionRecord, error) {
	var e model.ExecutionRecord
	err := s.db.WithContext(ctx).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewErrNo(common.KindNotFound, "execution record not found")
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// FinalizeExecution writes the terminal fields once, inside the same
// transaction as the script's counter bump — an ExecutionRecord is
// write-once past this call (spec §3/§4.1).
func (s *Store) FinalizeExecution(tx *gorm.DB, e *model.ExecutionRecord) error {
	return tx.Model(&model.ExecutionRecord{}).Where("id = ? AND status = ?", e.ID, model.StatusRunning).Updates(map[string]any{
		"finished_at":      e.FinishedAt,
		"duration_ms":      e.DurationMs,
		"status":           e.Status,
		"exit_code":        e.ExitCode,
		"stdout":           e.Stdout,
		"stderr":           e.Stderr,
		"stdout_truncated": e.StdoutTruncated,
		"stderr_truncated": e.StderrTruncated,
		"memory_mb":        e.MemoryMB,
		"cpu_percent":      e.CPUPercent,
	}).Error
}

// HasRunningExecution reports whether a script already has an
// in-flight run, backing the at-most-one-active-run-per-script policy.
func (s *Store) HasRunningExecution(ctx context.Context, scriptID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ExecutionRecord{}).
		Where("script_id = ? AND status = ?", scriptID, model.StatusRunning).
		Count(&count).Error
	return count > 0, err
}

// ListRunningOlderThan finds RUNNING rows started before cutoff — used
// by the boot-time orphan reconciliation sweep.
func (s *Store) ListRunningOlderThan(ctx context.Context, cutoff time.Time) ([]model.ExecutionRecord, error) {
	var out []model.ExecutionRecord
	err := s.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", model.StatusRunning, cutoff).
		Find(&out).Error
	return out, err
}

// ExecutionFilter narrows ListExecutions; zero values are "no filter".
type ExecutionFilter struct {
	ScriptID   *uint
	Status     model.ExecutionStatus
	Since      *time.Time
	Until      *time.Time
	SearchText string
	Limit      int
	Offset     int
}

func (s *Store) ListExecutions(ctx context.Context, f ExecutionFilter) ([]model.ExecutionRecord, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.ExecutionRecord{})
	q = applyExecutionFilter(q, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	var out []model.ExecutionRecord
	err := q.Order("started_at desc").Limit(limit).Offset(f.Offset).Find(&out).Error
	return out, total, err
}

func applyExecutionFilter(q *gorm.DB, f ExecutionFilter) *gorm.DB {
	if f.ScriptID != nil {
		q = q.Where("script_id = ?", *f.ScriptID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Since != nil {
		q = q.Where("started_at >= ?", *f.Since)
	}
	if f.Until != nil {
		q = q.Where("started_at <= ?", *f.Until)
	}
	if f.SearchText != "" {
		like := "%" + f.SearchText + "%"
		q = q.Where("stdout LIKE ? OR stderr LIKE ?", like, like)
	}
	return q
}

// ExecutionStats summarizes a filtered window for the logs dashboard.
type ExecutionStats struct {
	Total       int64
	Success     int64
	Failed      int64
	Timeout     int64
	AvgDuration float64
}

func (s *Store) ExecutionStatsFor(ctx context.Context, f ExecutionFilter) (ExecutionStats, error) {
	var stats ExecutionStats
	q := s.db.WithContext(ctx).Model(&model.ExecutionRecord{})
	q = applyExecutionFilter(q, f)
	if err := q.Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	type row struct {
		Status string
		N      int64
	}
	var rows []row
	q2 := s.db.WithContext(ctx).Model(&model.ExecutionRecord{})
	q2 = applyExecutionFilter(q2, f)
	if err := q2.Select("status, count(*) as n").Group("status").Scan(&rows).Error; err != nil {
		return stats, err
	}
	for _, r := range rows {
		switch model.ExecutionStatus(r.Status) {
		case model.StatusSuccess:
			stats.Success = r.N
		case model.StatusFailed:
			stats.Failed = r.N
		case model.StatusTimeout:
			stats.Timeout = r.N
		}
	}

	var avg float64
	q3 := s.db.WithContext(ctx).Model(&model.ExecutionRecord{}).Where("duration_ms IS NOT NULL")
	q3 = applyExecutionFilter(q3, f)
	_ = q3.Select("COALESCE(AVG(duration_ms), 0)").Scan(&avg)
	stats.AvgDuration = avg

	return stats, nil
}

func (s *Store) DeleteExecution(ctx context.Context, id uint) error {
	return WithRetry(ctx, func() error {
		res := s.db.WithContext(ctx).Delete(&model.ExecutionRecord{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.NewErrNo(common.KindNotFound, "execution record not found")
		}
		return nil
	})
}

// DeleteExecutionsOlderThan is the bulk-cleanup half of retention: drop
// every terminal record started before cutoff.
func (s *Store) DeleteExecutionsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var affected int64
	err := WithRetry(ctx, func() error {
		res := s.db.WithContext(ctx).Where("started_at < ? AND status != ?", cutoff, model.StatusRunning).Delete(&model.ExecutionRecord{})
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}

// PruneExcessPerScript keeps only the newest `keep` records for each
// script, deleting the rest — the count-bound half of retention.
func (s *Store) PruneExcessPerScript(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	var scriptIDs []uint
	if err := s.db.WithContext(ctx).Model(&model.Script{}).Pluck("id", &scriptIDs).Error; err != nil {
		return 0, err
	}

	var total int64
	for _, id := range scriptIDs {
		var keepIDs []uint
		if err := s.db.WithContext(ctx).Model(&model.ExecutionRecord{}).
			Where("script_id = ? AND status != ?", id, model.StatusRunning).
			Order("started_at desc").Limit(keep).Pluck("id", &keepIDs).Error; err != nil {
			return total, err
		}
		q := s.db.WithContext(ctx).Where("script_id = ? AND status != ?", id, model.StatusRunning)
		if len(keepIDs) > 0 {
			q = q.Where("id NOT IN ?", keepIDs)
		}
		res := q.Delete(&model.ExecutionRecord{})
		if res.Error != nil {
			return total, res.Error
		}
		total += res.RowsAffected
	}
	return total, nil
}
