package services

import (
	"time"

	"github.com/alphabatem/common/context"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// MaintenanceService runs the hourly storage sweeps: expired rate limit
// windows and hints cache entries past their retention.
type MaintenanceService struct {
	context.DefaultService

	sqlSvc *SqliteService

	cron *cron.Cron
}

const MAINTENANCE_SVC = "maintenance_svc"

func (svc MaintenanceService) Id() string {
	return MAINTENANCE_SVC
}

func (svc *MaintenanceService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)

	svc.cron = cron.New()
	if _, err := svc.cron.AddFunc("@hourly", svc.Sweep); err != nil {
		return err
	}
	svc.cron.Start()

	// Clear anything left over from before the last shutdown.
	go svc.Sweep()

	return nil
}

func (svc *MaintenanceService) Shutdown() {
	if svc.cron != nil {
		stopCtx := svc.cron.Stop()
		<-stopCtx.Done()
	}
}

// Sweep deletes expired rate limit windows and stale hints cache rows.
// Both deletes are idempotent so overlapping runs are harmless.
func (svc *MaintenanceService) Sweep() {
	windows, err := svc.sqlSvc.CleanupExpiredWindows()
	if err != nil {
		log.Printf("Rate limit cleanup failed: %v", err)
	} else if windows > 0 {
		log.WithField("rows", windows).Info("Removed expired rate limit windows")
	}

	hints, err := svc.sqlSvc.CleanupStaleHints(time.Now().Add(-hintsCacheTTL))
	if err != nil {
		log.Printf("Hints cache cleanup failed: %v", err)
	} else if hints > 0 {
		log.WithField("rows", hints).Info("Removed stale hints cache entries")
	}
}
