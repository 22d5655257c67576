package cron

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/pkg/errors"
	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"github.com/customeros/invoicestack/config"
	"github.com/customeros/invoicestack/interfaces"
	cron_config "github.com/customeros/invoicestack/internal/cron/config"
	"github.com/customeros/invoicestack/internal/enum"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/tracing"
	"github.com/customeros/invoicestack/internal/utils"
)

const (
	// GroupScans is the group for mailbox scan jobs
	GroupScans = "scans"

	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second
)

var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupScans: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg         *config.Config
	log         logger.Logger
	cron        *cronv3.Cron
	k8s         kubernetes.Interface
	stopCh      chan struct{}
	stopOnce    sync.Once
	jobIDs      map[string]cronv3.EntryID
	credentials interfaces.MailCredentialRepository
	scanner     interfaces.ScannerService
	publisher   interfaces.EventPublisher
}

func NewCronManager(
	cfg *config.Config,
	log logger.Logger,
	k8s kubernetes.Interface,
	credentials interfaces.MailCredentialRepository,
	scanner interfaces.ScannerService,
	publisher interfaces.EventPublisher,
) *CronManager {
	return &CronManager{
		cfg:         cfg,
		log:         log,
		k8s:         k8s,
		stopCh:      make(chan struct{}),
		jobIDs:      make(map[string]cronv3.EntryID),
		credentials: credentials,
		scanner:     scanner,
		publisher:   publisher,
	}
}

// Start initializes and starts the cron manager with leader election
// If k8s is nil, it will start in local mode without leader election
func (cm *CronManager) Start(podName, namespace string) error {
	if cm.k8s == nil || os.Getenv("LOCAL_DEV") == "true" {
		cm.log.Info("Starting cron manager in local mode")
		cm.StartCron()
		return nil
	}

	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      "invoicestack-cron-leader",
			Namespace: namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: podName,
		},
	}

	errCh := make(chan error, 1)

	go func() {
		le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            lock,
			ReleaseOnCancel: true,
			LeaseDuration:   LeaseDuration,
			RenewDeadline:   RenewDeadline,
			RetryPeriod:     RetryPeriod,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(ctx context.Context) {
					cm.StartCron()
				},
				OnStoppedLeading: func() {
					cm.log.Info("Leader lost - stopping crons")
					cm.Stop()
				},
				OnNewLeader: func(identity string) {
					cm.log.Infof("New leader elected: %s", identity)
				},
			},
		})
		if err != nil {
			errCh <- err
			return
		}

		le.Run(context.Background())
	}()

	// Wait briefly to see if leader election fails immediately
	select {
	case err := <-errCh:
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		cm.StartCron()
	case <-time.After(5 * time.Second):
	}

	return nil
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	cm.stopOnce.Do(func() {
		// running scan loops stop between users
		close(cm.stopCh)
		if cm.cron != nil {
			cm.log.Info("Stopping cron manager")
			ctx := cm.cron.Stop()
			// Wait for jobs to finish
			<-ctx.Done()
		}
	})
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	if cronConfig.CronScheduleIncrementalScans != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleIncrementalScans, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupScans].Lock()
			defer jobLocks.locks[GroupScans].Unlock()
			cm.runIncrementalScans(context.Background())
		})
		if err != nil {
			cm.log.Fatalf("Could not add incremental scans cron job: %v", err)
		}
		cm.jobIDs["incremental_scans"] = id
		cm.log.Infof("Registered incremental scans job with schedule: %s", cronConfig.CronScheduleIncrementalScans)
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// runIncrementalScans queues an incremental scan per connected user when the broker is
// available, and otherwise scans each user in turn.
func (cm *CronManager) runIncrementalScans(ctx context.Context) {
	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.runIncrementalScans")
	defer span.Finish()
	tracing.TagComponentCronJob(span)
	ctx = utils.SetAppSourceInContext(ctx, utils.AppSourceCron)

	userIds, err := cm.credentials.ListUserIds(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to list connected users: %v", err)
		return
	}
	span.LogKV("users", len(userIds))

	queued, scanned, failed := 0, 0, 0
	for _, userId := range userIds {
		select {
		case <-cm.stopCh:
			cm.log.Info("Cron manager stopping, leaving remaining scans for the next run")
			return
		default:
		}

		if cm.publisher.Enabled() {
			if err = cm.publisher.PublishScanRequested(ctx, userId, enum.ScanModeIncremental); err != nil {
				failed++
				cm.log.Errorf("Failed to queue scan for user %s: %v", userId, err)
				continue
			}
			queued++
			continue
		}

		if _, err = cm.scanner.Scan(ctx, userId, enum.ScanModeIncremental); err != nil {
			if errors.Is(err, invoicestack_errors.ErrNotConnected) {
				continue
			}
			failed++
			cm.log.Errorf("Incremental scan for user %s failed: %v", userId, err)
			continue
		}
		scanned++
	}

	cm.log.Infof("Incremental scans: %d users, %d queued, %d scanned, %d failed", len(userIds), queued, scanned, failed)
}
