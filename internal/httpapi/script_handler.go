package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matt-ortiz/PyScheduler/internal/common"
	"github.com/matt-ortiz/PyScheduler/internal/environment"
	"github.com/matt-ortiz/PyScheduler/internal/model"
	"github.com/matt-ortiz/PyScheduler/internal/queue"
)

type scriptRequest struct {
	Name               string             `json:"name" binding:"required"`
	FolderID           *uint              `json:"folder_id"`
	Description        string             `json:"description"`
	Content            string             `json:"content" binding:"required"`
	InterpreterVersion string             `json:"interpreter_version"`
	Requirements       string             `json:"requirements"`
	Environment        model.EnvMap       `json:"environment"`
	Enabled            *bool              `json:"enabled"`
	AutoSave           *bool              `json:"auto_save"`
	EmailOnCompletion  bool               `json:"email_on_completion"`
	EmailRecipients    string             `json:"email_recipients"`
	EmailTriggerType   model.EmailTrigger `json:"email_trigger_type"`
}

func (s *Server) listScripts(c *gin.Context) {
	var folderID *uint
	if v := c.Query("folder_id"); v != "" {
		id, err := parseUintQuery(v)
		if err != nil {
			common.Error(c, common.NewErrNo(common.KindValidation, "invalid folder_id"))
			return
		}
		folderID = &id
	}
	scripts, err := s.store.ListScripts(c.Request.Context(), folderID)
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, scripts)
}

func (s *Server) getScript(c *gin.Context) {
	script, err := s.store.GetScriptBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, script)
}

func (s *Server) createScript(c *gin.Context) {
	var req scriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, err.Error()))
		return
	}
	if err := validateScriptRequest(req); err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, err.Error()))
		return
	}

	ctx := c.Request.Context()
	slug, err := environment.ResolveUniqueSlug(ctx, s.store, req.Name, req.FolderID, nil)
	if err != nil {
		common.Error(c, err)
		return
	}

	script := &model.Script{
		Name:               req.Name,
		Slug:               slug,
		FolderID:           req.FolderID,
		Description:        req.Description,
		Content:            req.Content,
		InterpreterVersion: defaultString(req.InterpreterVersion, "3.12"),
		Requirements:       req.Requirements,
		Environment:        req.Environment,
		Enabled:            boolOrDefault(req.Enabled, true),
		AutoSave:           boolOrDefault(req.AutoSave, true),
		EmailOnCompletion:  req.EmailOnCompletion,
		EmailRecipients:    req.EmailRecipients,
		EmailTriggerType:   emailTriggerOrDefault(req.EmailTriggerType),
	}
	if err := s.store.CreateScript(ctx, script); err != nil {
		common.Error(c, err)
		return
	}
	common.Created(c, script)
}

func (s *Server) updateScript(c *gin.Context) {
	ctx := c.Request.Context()
	script, err := s.store.GetScriptBySlug(ctx, c.Param("slug"))
	if err != nil {
		common.Error(c, err)
		return
	}

	var req scriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, err.Error()))
		return
	}
	if err := validateScriptRequest(req); err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, err.Error()))
		return
	}

	if req.Name != script.Name || !sameFolderID(req.FolderID, script.FolderID) {
		slug, err := environment.ResolveUniqueSlug(ctx, s.store, req.Name, req.FolderID, &script.ID)
		if err != nil {
			common.Error(c, err)
			return
		}
		script.Slug = slug
	}

	script.Name = req.Name
	script.FolderID = req.FolderID
	script.Description = req.Description
	script.Content = req.Content
	script.InterpreterVersion = defaultString(req.InterpreterVersion, script.InterpreterVersion)
	script.Requirements = req.Requirements
	script.Environment = req.Environment
	script.Enabled = boolOrDefault(req.Enabled, script.Enabled)
	script.AutoSave = boolOrDefault(req.AutoSave, script.AutoSave)
	script.EmailOnCompletion = req.EmailOnCompletion
	script.EmailRecipients = req.EmailRecipients
	script.EmailTriggerType = emailTriggerOrDefault(req.EmailTriggerType)

	if err := s.store.UpdateScript(ctx, script); err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, script)
}

// autoSaveScript is the lightweight content-only PATCH the editor's
// debounced autosave hits, so it skips slug recomputation entirely.
func (s *Server) autoSaveScript(c *gin.Context) {
	ctx := c.Request.Context()
	script, err := s.store.GetScriptBySlug(ctx, c.Param("slug"))
	if err != nil {
		common.Error(c, err)
		return
	}
	if !script.AutoSave {
		common.Error(c, common.NewErrNo(common.KindValidation, "auto-save is disabled for this script"))
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, err.Error()))
		return
	}
	script.Content = body.Content
	if err := s.store.UpdateScript(ctx, script); err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, gin.H{"saved": true})
}

// deleteScript drops the Script row and then, best-effort, its on-disk
// directory tree (spec §4.3 Cleanup). The directory layout is resolved
// before the DB delete since it walks the folder ancestry through the
// store.
func (s *Server) deleteScript(c *gin.Context) {
	ctx := c.Request.Context()
	script, err := s.store.GetScriptBySlug(ctx, c.Param("slug"))
	if err != nil {
		common.Error(c, err)
		return
	}
	folderPath, err := environment.FolderPathFor(ctx, s.store, script.FolderID)
	if err != nil {
		common.Error(c, err)
		return
	}
	layout := s.env.PathsFor(script.Slug, folderPath)

	if err := s.store.DeleteScript(ctx, script.ID); err != nil {
		common.Error(c, err)
		return
	}
	if err := s.env.Cleanup(layout); err != nil {
		common.GetLogger().Sugar().Warnw("cleanup script directory", "slug", script.Slug, "err", err)
	}
	common.Success(c, nil)
}

// executeScript enqueues a manual run. It never runs the script
// inline — the Run Queue and worker pool own execution (spec §4.3).
func (s *Server) executeScript(c *gin.Context) {
	ctx := c.Request.Context()
	script, err := s.store.GetScriptBySlug(ctx, c.Param("slug"))
	if err != nil {
		common.Error(c, err)
		return
	}
	if !script.Enabled {
		common.Error(c, common.NewErrNo(common.KindValidation, "script is disabled"))
		return
	}
	if running, err := s.store.HasRunningExecution(ctx, script.ID); err != nil {
		common.Error(c, err)
		return
	} else if running {
		common.Error(c, common.ErrAlreadyRunning)
		return
	}

	correlationID := uuid.NewString()
	if err := s.queue.Enqueue(queue.RunRequest{ScriptID: script.ID, TriggeredBy: string(model.TriggeredByManual), CorrelationID: correlationID}); err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, gin.H{"queued": true, "correlation_id": correlationID})
}

// triggerByURLKey is the unauthenticated URL-trigger endpoint (spec
// §5): it authenticates via ?api_key= against the stored Settings
// value rather than the bearer-token middleware.
func (s *Server) triggerByURLKey(c *gin.Context) {
	ctx := c.Request.Context()
	key, err := s.store.GetSetting(ctx, model.SettingAPIKey, "")
	if err != nil {
		common.Error(c, err)
		return
	}
	if key == "" || c.Query("api_key") != key {
		common.Error(c, common.NewErrNo(common.KindAuth, "invalid or missing api_key"))
		return
	}

	script, err := s.store.GetScriptBySlug(ctx, c.Param("slug"))
	if err != nil {
		common.Error(c, err)
		return
	}
	if !script.Enabled {
		common.Error(c, common.NewErrNo(common.KindValidation, "script is disabled"))
		return
	}
	correlationID := uuid.NewString()
	if err := s.queue.Enqueue(queue.RunRequest{ScriptID: script.ID, TriggeredBy: string(model.TriggeredByURL), CorrelationID: correlationID}); err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, gin.H{"queued": true, "correlation_id": correlationID})
}

func (s *Server) venvInfo(c *gin.Context) {
	ctx := c.Request.Context()
	script, err := s.store.GetScriptBySlug(ctx, c.Param("slug"))
	if err != nil {
		common.Error(c, err)
		return
	}
	folderPath, err := environment.FolderPathFor(ctx, s.store, script.FolderID)
	if err != nil {
		common.Error(c, err)
		return
	}
	layout := s.env.PathsFor(script.Slug, folderPath)
	common.Success(c, s.env.Inspect(ctx, layout))
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func boolOrDefault(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func emailTriggerOrDefault(v model.EmailTrigger) model.EmailTrigger {
	if v == "" {
		return model.EmailTriggerAll
	}
	return v
}

func sameFolderID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
