package webapp

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hybridui/suite/internal/config"
	"github.com/hybridui/suite/pkg/authclient"
	"github.com/hybridui/suite/pkg/sessioncache"
)

// Watcher periodically reconciles every cached session against the session
// service. A confirmed-dead session is evicted; a session close to expiry is
// refreshed; an unreachable service changes nothing, so users keep working
// through a session-service outage.
type Watcher struct {
	cache   *sessioncache.Cache
	auth    *authclient.Client
	cfg     config.WatchConfig
	logger  *zap.Logger
	cron    *cron.Cron
	running atomic.Bool
}

func NewWatcher(cache *sessioncache.Cache, auth *authclient.Client, cfg config.WatchConfig, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		cache:  cache,
		auth:   auth,
		cfg:    cfg,
		logger: logger,
	}
}

// Start schedules the sweep. Stop must be called on shutdown.
func (w *Watcher) Start() error {
	w.cron = cron.New()
	if _, err := w.cron.AddFunc(fmt.Sprintf("@every %s", w.cfg.Interval), w.Sweep); err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info("session watcher started", zap.Duration("interval", w.cfg.Interval))
	return nil
}

func (w *Watcher) Stop() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

// Sweep runs one reconciliation pass. Overlapping passes are skipped: a slow
// session service must not stack probes.
func (w *Watcher) Sweep() {
	if !w.running.CompareAndSwap(false, true) {
		w.logger.Debug("sweep still in progress, skipping tick")
		return
	}
	defer w.running.Store(false)

	err := w.cache.ForEach(func(localID string, entry sessioncache.Entry) error {
		w.reconcile(localID, entry)
		return nil
	})
	if err != nil {
		w.logger.Error("session sweep failed", zap.Error(err))
	}
}

func (w *Watcher) reconcile(localID string, entry sessioncache.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.ProbeTimeout)
	defer cancel()

	resp, err := w.auth.Validate(ctx, entry.Token)
	if err != nil {
		// Fail open: transport trouble is not evidence the session died.
		w.logger.Warn("validation probe failed, keeping cached session",
			zap.String("local_id", localID), zap.Error(err))
		return
	}

	if !resp.Valid {
		w.logger.Info("session no longer valid, evicting",
			zap.String("local_id", localID),
			zap.String("username", entry.User.Username))
		if err := w.cache.Evict(localID); err != nil {
			w.logger.Error("session eviction failed", zap.Error(err))
		}
		return
	}

	if resp.User != nil {
		entry.User = *resp.User
	}
	if resp.ExpiresAt != nil {
		entry.ExpiresAt = *resp.ExpiresAt
	}

	if time.Until(entry.ExpiresAt) < w.cfg.RefreshBuffer {
		refreshed, err := w.auth.Refresh(ctx, entry.Token)
		if err != nil {
			w.logger.Warn("session refresh failed", zap.String("local_id", localID), zap.Error(err))
		} else {
			entry.ExpiresAt = refreshed.ExpiresAt
			w.logger.Info("session refreshed",
				zap.String("local_id", localID),
				zap.Time("expires_at", refreshed.ExpiresAt))
		}
	}

	if err := w.cache.Store(localID, entry); err != nil {
		w.logger.Error("session cache write failed", zap.Error(err))
	}
}
