package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matt-ortiz/PyScheduler/internal/common"
	"github.com/matt-ortiz/PyScheduler/internal/model"
	"github.com/matt-ortiz/PyScheduler/internal/scheduler"
)

type triggerRequest struct {
	ScriptID uint                `json:"script_id" binding:"required"`
	Kind     model.TriggerKind   `json:"kind" binding:"required"`
	Config   model.TriggerConfig `json:"config"`
	Enabled  *bool               `json:"enabled"`
}

func (s *Server) listTriggers(c *gin.Context) {
	scriptID, err := parseUintParam(c, "scriptId")
	if err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, "invalid scriptId"))
		return
	}
	triggers, err := s.store.ListTriggersForScript(c.Request.Context(), scriptID)
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, triggers)
}

func (s *Server) createTrigger(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, err.Error()))
		return
	}
	if err := validateTriggerConfig(req.Kind, req.Config); err != nil {
		common.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := s.store.GetScript(ctx, req.ScriptID); err != nil {
		common.Error(c, err)
		return
	}

	t := &model.Trigger{
		ScriptID: req.ScriptID,
		Kind:     req.Kind,
		Config:   req.Config,
		Enabled:  boolOrDefault(req.Enabled, true),
	}
	if err := s.store.CreateTrigger(ctx, t); err != nil {
		common.Error(c, err)
		return
	}
	s.sched.Rearm(ctx, t.ID)
	common.Created(c, t)
}

func (s *Server) updateTrigger(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, "invalid trigger id"))
		return
	}

	ctx := c.Request.Context()
	t, err := s.store.GetTrigger(ctx, id)
	if err != nil {
		common.Error(c, err)
		return
	}

	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, err.Error()))
		return
	}
	if err := validateTriggerConfig(req.Kind, req.Config); err != nil {
		common.Error(c, err)
		return
	}

	t.Kind = req.Kind
	t.Config = req.Config
	t.Enabled = boolOrDefault(req.Enabled, t.Enabled)

	if err := s.store.UpdateTrigger(ctx, t); err != nil {
		common.Error(c, err)
		return
	}
	s.sched.Rearm(ctx, t.ID)
	common.Success(c, t)
}

func (s *Server) deleteTrigger(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, "invalid trigger id"))
		return
	}
	s.sched.Cancel(id)
	if err := s.store.DeleteTrigger(c.Request.Context(), id); err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, nil)
}

func (s *Server) validateCron(c *gin.Context) {
	var body struct {
		Expression string `json:"expression" binding:"required"`
		Timezone   string `json:"timezone"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, err.Error()))
		return
	}
	tz := defaultString(body.Timezone, "UTC")
	preview := scheduler.PreviewCron(body.Expression, tz, time.Now())
	common.Success(c, preview)
}

func validateTriggerConfig(kind model.TriggerKind, cfg model.TriggerConfig) error {
	switch kind {
	case model.TriggerCron:
		if cfg.Expression == "" {
			return common.NewErrNo(common.KindValidation, "cron trigger requires an expression")
		}
		tz := defaultString(cfg.Timezone, "UTC")
		if _, err := scheduler.ParseCron(cfg.Expression); err != nil {
			return common.NewErrNo(common.KindValidation, err.Error())
		}
		if _, err := scheduler.NextCronFire(cfg.Expression, tz, time.Now()); err != nil {
			return common.NewErrNo(common.KindValidation, err.Error())
		}
	case model.TriggerInterval:
		if cfg.Seconds <= 0 {
			return common.NewErrNo(common.KindValidation, "interval trigger requires seconds > 0")
		}
	case model.TriggerManual, model.TriggerStartup:
		// no configuration to validate
	default:
		return common.NewErrNo(common.KindValidation, "unknown trigger kind")
	}
	return nil
}
