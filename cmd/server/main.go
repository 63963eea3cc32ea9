package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/matt-ortiz/PyScheduler/internal/common"
	"github.com/matt-ortiz/PyScheduler/internal/config"
	"github.com/matt-ortiz/PyScheduler/internal/engine"
	"github.com/matt-ortiz/PyScheduler/internal/environment"
	"github.com/matt-ortiz/PyScheduler/internal/fanout"
	"github.com/matt-ortiz/PyScheduler/internal/httpapi"
	"github.com/matt-ortiz/PyScheduler/internal/model"
	"github.com/matt-ortiz/PyScheduler/internal/notify"
	"github.com/matt-ortiz/PyScheduler/internal/queue"
	"github.com/matt-ortiz/PyScheduler/internal/scheduler"
	"github.com/matt-ortiz/PyScheduler/internal/store"
)

// retentionInterval is how often the background sweep enforces the
// Settings-configured log retention policy (§4.1's ticker-driven
// Store task, no external scheduler involved).
const retentionInterval = 1 * time.Hour

func main() {
	cfg := config.Load()
	common.InitLog(cfg.LogPath)
	logger := common.GetLogger().Sugar()
	defer common.GetLogger().Sync()

	s, err := store.Open(filepath.Join(cfg.DataPath, "scheduler.db"))
	if err != nil {
		logger.Fatalw("open store", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seedSettings(ctx, s, cfg)
	seedAdmin(ctx, s, cfg, logger)
	reconcileOrphans(ctx, s, cfg, logger)

	env := environment.NewManager(cfg.DataPath)
	bus := fanout.New(cfg.SubscriberMailbox)
	q := queue.New(cfg.RunQueueCapacity)
	notifier := notify.NewLoggingNotifier()
	eng := engine.New(s, env, bus, notifier, cfg)
	q.Start(ctx, cfg.WorkerPoolSize, eng.Handle)

	sched := scheduler.New(s, q, bus)
	if err := sched.Boot(ctx); err != nil {
		logger.Errorw("scheduler boot", "err", err)
	}

	go runRetentionLoop(ctx, s, logger)

	srv := httpapi.New(s, env, bus, q, sched, cfg)
	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: srv.Router(),
	}

	go func() {
		var err error
		if cfg.TLSCertPath != "" && cfg.TLSKeyPath != "" {
			err = httpServer.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatalw("http server", "err", err)
		}
	}()
	logger.Infow("server started", "port", cfg.HTTPPort)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)

	sched.Shutdown()
	q.Stop()
	cancel()
}

// seedSettings writes the Settings rows every handler reads defaults
// from, only when absent (spec §6.1/§6.3: database.py's api_key row).
func seedSettings(ctx context.Context, s *store.Store, cfg config.Config) {
	seed := func(key, value, description string) {
		if err := s.SeedSettingIfAbsent(ctx, key, value, description); err != nil {
			common.GetLogger().Sugar().Warnw("seed setting", "key", key, "err", err)
		}
	}
	seed(model.SettingAPIKey, cfg.DefaultAPIKey, "API key for URL-triggered script execution")
	seed(model.SettingRateLimitEnabled, strconv.FormatBool(cfg.RateLimitEnabled), "Whether rate limiting is enforced")
	seed(model.SettingDefaultTimeout, strconv.Itoa(cfg.DefaultScriptTimeoutSeconds), "Default script timeout, seconds")
	seed(model.SettingDefaultMemoryLimit, strconv.Itoa(cfg.DefaultMemoryLimitMB), "Default memory limit, MB")
	seed(model.SettingMaxExecutionLogs, "100", "Execution records retained per script")
	seed(model.SettingLogRetentionDays, "30", "Days an execution record is retained")
}

// seedAdmin creates the single bootstrap admin user when the Users
// table is empty, generating a random password when none is
// configured (spec §6.3, hardening original_source/backend/database.py's
// unconditional admin/admin seed).
func seedAdmin(ctx context.Context, s *store.Store, cfg config.Config, logger interface {
	Warnw(string, ...any)
	Errorw(string, ...any)
}) {
	count, err := s.CountUsers(ctx)
	if err != nil {
		logger.Errorw("count users", "err", err)
		return
	}
	if count > 0 {
		return
	}

	password := cfg.AdminPassword
	if password == "" {
		generated, err := randomPassword(16)
		if err != nil {
			logger.Errorw("generate admin password", "err", err)
			return
		}
		password = generated
		logger.Warnw("generated admin password; change it after first login", "username", cfg.AdminUsername, "password", password)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Errorw("hash admin password", "err", err)
		return
	}

	admin := &model.User{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		IsAdmin:      true,
	}
	if err := s.CreateUser(ctx, admin); err != nil {
		logger.Errorw("create admin user", "err", err)
	}
}

func randomPassword(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// reconcileOrphans rewrites RUNNING execution records abandoned by a
// prior process (crash, kill -9) to FAILED, so a restart never leaves
// permanently-stuck "running" rows that block the
// at-most-one-active-run-per-script policy forever.
func reconcileOrphans(ctx context.Context, s *store.Store, cfg config.Config, logger interface {
	Warnw(string, ...any)
	Errorw(string, ...any)
}) {
	cutoff := time.Now().Add(-time.Duration(cfg.OrphanGraceSeconds) * time.Second)
	orphans, err := s.ListRunningOlderThan(ctx, cutoff)
	if err != nil {
		logger.Errorw("list orphaned executions", "err", err)
		return
	}
	for _, rec := range orphans {
		rec := rec
		now := time.Now()
		rec.FinishedAt = &now
		rec.Status = model.StatusFailed
		rec.Stderr = rec.Stderr + "\n[abandoned on restart: no process survived the previous shutdown]"

		txErr := s.Transaction(ctx, func(tx *gorm.DB) error {
			if err := s.FinalizeExecution(tx, &rec); err != nil {
				return err
			}
			return s.RecordRunOutcome(tx, rec.ScriptID, false, now)
		})
		if txErr != nil {
			logger.Warnw("reconcile orphaned execution", "execution_id", rec.ID, "err", txErr)
		}
	}
}

func runRetentionLoop(ctx context.Context, s *store.Store, logger interface {
	Infow(string, ...any)
	Errorw(string, ...any)
}) {
	ticker := time.NewTicker(retentionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prunedByCount, prunedByAge, err := s.RunRetention(ctx)
			if err != nil {
				logger.Errorw("retention sweep", "err", err)
				continue
			}
			if prunedByCount > 0 || prunedByAge > 0 {
				logger.Infow("retention sweep", "pruned_by_count", prunedByCount, "pruned_by_age", prunedByAge)
			}
		}
	}
}
