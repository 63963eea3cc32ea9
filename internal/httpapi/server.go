// Package httpapi is the HTTP surface (spec §5): a gin router exposing
// script/folder/trigger CRUD, execution log queries, the live-event
// WebSocket stream, and auth, generalizing the teacher's flat
// handler-per-route registration (peace/cmd/server/main.go) into a
// Server holding the dependencies each handler needs instead of the
// teacher's package-level DAO singletons.
package httpapi

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/matt-ortiz/PyScheduler/internal/config"
	"github.com/matt-ortiz/PyScheduler/internal/environment"
	"github.com/matt-ortiz/PyScheduler/internal/fanout"
	"github.com/matt-ortiz/PyScheduler/internal/queue"
	"github.com/matt-ortiz/PyScheduler/internal/scheduler"
	"github.com/matt-ortiz/PyScheduler/internal/store"
)

// Server wires the store, scheduler, queue, and fan-out bus into a gin
// engine. It has no long-lived state of its own beyond those handles.
type Server struct {
	store *store.Store
	env   *environment.Manager
	bus   *fanout.Bus
	queue *queue.Queue
	sched *scheduler.Scheduler
	cfg   config.Config
}

func New(s *store.Store, env *environment.Manager, bus *fanout.Bus, q *queue.Queue, sched *scheduler.Scheduler, cfg config.Config) *Server {
	return &Server{store: s, env: env, bus: bus, queue: q, sched: sched, cfg: cfg}
}

// Router builds the gin engine and registers every route. Mirrors the
// teacher's flat route list, grouped here under /api to match the
// spec's HTTP surface.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/api/health", s.health)
	r.POST("/api/auth/login", s.login)
	r.GET("/ws", s.streamEvents)

	// URL-triggered execution authenticates via its own api_key query
	// param (spec §5), not the bearer middleware.
	r.GET("/api/scripts/:slug/trigger", s.triggerByURLKey)

	api := r.Group("/api")
	api.Use(authMiddleware(s.cfg.SecretKey))
	{
		api.GET("/folders", s.listFolders)
		api.POST("/folders", s.createFolder)
		api.DELETE("/folders/:id", s.deleteFolder)

		api.GET("/scripts", s.listScripts)
		api.POST("/scripts", s.createScript)
		api.GET("/scripts/:slug", s.getScript)
		api.PUT("/scripts/:slug", s.updateScript)
		api.DELETE("/scripts/:slug", s.deleteScript)
		api.PATCH("/scripts/:slug/auto-save", s.autoSaveScript)
		api.POST("/scripts/:slug/execute", s.executeScript)
		api.GET("/scripts/:slug/venv-info", s.venvInfo)

		api.GET("/execution/triggers/:scriptId", s.listTriggers)
		api.POST("/execution/triggers", s.createTrigger)
		api.PUT("/execution/triggers/:id", s.updateTrigger)
		api.DELETE("/execution/triggers/:id", s.deleteTrigger)
		api.POST("/execution/validate-cron", s.validateCron)

		api.GET("/logs", s.listExecutions)
		api.GET("/logs/stats", s.executionStats)
		api.GET("/logs/:id", s.getExecution)
		api.DELETE("/logs/:id", s.deleteExecutionLog)
		api.POST("/logs/cleanup", s.cleanupLogs)
	}

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
	}
}

func parseUintQuery(v string) (uint, error) {
	n, err := strconv.ParseUint(v, 10, 64)
	return uint(n), err
}

func parseUintParam(c *gin.Context, name string) (uint, error) {
	return parseUintQuery(c.Param(name))
}
