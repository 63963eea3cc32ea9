package store

import (
	"context"
	"strconv"
	"time"
)

// RunRetention applies the two retention bounds read from Settings:
// a per-script row cap and a maximum age. Either bound of zero/absent
// disables that half of the sweep.
func (s *Store) RunRetention(ctx context.Context) (prunedByCount, prunedByAge int64, err error) {
	maxLogsStr, err := s.GetSetting(ctx, "max_execution_logs", "0")
	if err != nil {
		return 0, 0, err
	}
	retentionDaysStr, err := s.GetSetting(ctx, "log_retention_days", "0")
	if err != nil {
		return 0, 0, err
	}

	maxLogs, _ := strconv.Atoi(maxLogsStr)
	retentionDays, _ := strconv.Atoi(retentionDaysStr)

	if maxLogs > 0 {
		prunedByCount, err = s.PruneExcessPerScript(ctx, maxLogs)
		if err != nil {
			return prunedByCount, 0, err
		}
	}
	if retentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		prunedByAge, err = s.DeleteExecutionsOlderThan(ctx, cutoff)
		if err != nil {
			return prunedByCount, prunedByAge, err
		}
	}
	return prunedByCount, prunedByAge, nil
}
