package httpapi

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matt-ortiz/PyScheduler/internal/common"
	"github.com/matt-ortiz/PyScheduler/internal/model"
	"github.com/matt-ortiz/PyScheduler/internal/store"
)

func (s *Server) listExecutions(c *gin.Context) {
	f, err := parseExecutionFilter(c)
	if err != nil {
		common.Error(c, err)
		return
	}
	records, total, err := s.store.ListExecutions(c.Request.Context(), f)
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, gin.H{"records": records, "total": total})
}

func (s *Server) executionStats(c *gin.Context) {
	f, err := parseExecutionFilter(c)
	if err != nil {
		common.Error(c, err)
		return
	}
	stats, err := s.store.ExecutionStatsFor(c.Request.Context(), f)
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, stats)
}

func (s *Server) getExecution(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, "invalid execution id"))
		return
	}
	rec, err := s.store.GetExecution(c.Request.Context(), id)
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, rec)
}

func (s *Server) deleteExecutionLog(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, "invalid execution id"))
		return
	}
	if err := s.store.DeleteExecution(c.Request.Context(), id); err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, nil)
}

// cleanupLogs runs the same retention sweep the server's hourly
// background loop runs (spec §4.5), on demand from the UI.
func (s *Server) cleanupLogs(c *gin.Context) {
	prunedByCount, prunedByAge, err := s.store.RunRetention(c.Request.Context())
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, gin.H{"pruned_by_count": prunedByCount, "pruned_by_age": prunedByAge})
}

func parseExecutionFilter(c *gin.Context) (store.ExecutionFilter, error) {
	var f store.ExecutionFilter
	if v := c.Query("script_id"); v != "" {
		id, err := parseUintQuery(v)
		if err != nil {
			return f, common.NewErrNo(common.KindValidation, "invalid script_id")
		}
		f.ScriptID = &id
	}
	if v := c.Query("status"); v != "" {
		f.Status = model.ExecutionStatus(v)
	}
	f.SearchText = c.Query("q")
	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, common.NewErrNo(common.KindValidation, "invalid since timestamp")
		}
		f.Since = &t
	}
	if v := c.Query("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, common.NewErrNo(common.KindValidation, "invalid until timestamp")
		}
		f.Until = &t
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, common.NewErrNo(common.KindValidation, "invalid limit")
		}
		f.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, common.NewErrNo(common.KindValidation, "invalid offset")
		}
		f.Offset = n
	}
	return f, nil
}
