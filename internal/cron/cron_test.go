package cron

import (
	"context"
	"os"
	"testing"

	"github.com/pkg/errors"
	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"k8s.io/client-go/kubernetes"

	"github.com/customeros/invoicestack/config"
	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/internal/enum"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/mocks"
)

type mockKubernetesInterface struct {
	kubernetes.Interface
	mock.Mock
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func testConfig() *config.Config {
	return &config.Config{
		AppConfig: &config.AppConfig{
			Logger: &logger.Config{
				LogLevel: "info",
			},
		},
	}
}

func TestNewCronManager(t *testing.T) {
	cfg := testConfig()
	log := getLogger()
	k8s := &mockKubernetesInterface{}

	cm := NewCronManager(cfg, log, k8s, nil, nil, nil)

	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.Equal(t, k8s, cm.k8s)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_RegisterJobs(t *testing.T) {
	os.Setenv("CRON_SCHEDULE_INCREMENTAL_SCANS", "0 */5 * * * *")
	defer os.Unsetenv("CRON_SCHEDULE_INCREMENTAL_SCANS")

	cm := NewCronManager(testConfig(), getLogger(), nil, nil, nil, nil)
	c := cronv3.New(cronv3.WithSeconds())

	cm.registerJobs(c)

	assert.Len(t, cm.jobIDs, 2)
	assert.Contains(t, cm.jobIDs, "heartbeat")
	assert.Contains(t, cm.jobIDs, "incremental_scans")
	assert.Len(t, c.Entries(), 2)
}

func TestCronManager_Stop(t *testing.T) {
	cm := NewCronManager(testConfig(), getLogger(), &mockKubernetesInterface{}, nil, nil, nil)

	mockCron := cronv3.New()
	mockCron.Start()
	cm.cron = mockCron

	cm.Stop()
	// second stop, e.g. leadership lost after shutdown, must not panic
	cm.Stop()

	select {
	case <-cm.stopCh:
	default:
		t.Error("Stop channel was not closed")
	}
}

func TestRunIncrementalScans_QueuesWhenBrokerEnabled(t *testing.T) {
	credentials := &mocks.MailCredentialRepository{}
	credentials.On("ListUserIds", mock.Anything).Return([]string{"user-1", "user-2"}, nil)
	publisher := &mocks.EventPublisher{}
	publisher.On("Enabled").Return(true)
	publisher.On("PublishScanRequested", mock.Anything, "user-1", enum.ScanModeIncremental).Return(nil).Once()
	publisher.On("PublishScanRequested", mock.Anything, "user-2", enum.ScanModeIncremental).Return(errors.New("broker down")).Once()
	scanner := &mocks.ScannerService{}

	cm := NewCronManager(testConfig(), getLogger(), nil, credentials, scanner, publisher)
	cm.runIncrementalScans(context.Background())

	publisher.AssertExpectations(t)
	scanner.AssertNotCalled(t, "Scan", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunIncrementalScans_ScansInlineWithoutBroker(t *testing.T) {
	credentials := &mocks.MailCredentialRepository{}
	credentials.On("ListUserIds", mock.Anything).Return([]string{"user-1", "user-2", "user-3"}, nil)
	publisher := &mocks.EventPublisher{}
	publisher.On("Enabled").Return(false)
	scanner := &mocks.ScannerService{}
	scanner.On("Scan", mock.Anything, "user-1", enum.ScanModeIncremental).Return(&dto.ScanResult{Found: 1}, nil).Once()
	scanner.On("Scan", mock.Anything, "user-2", enum.ScanModeIncremental).
		Return(nil, errors.Wrap(invoicestack_errors.ErrRefreshFailed, "invalid_grant")).Once()
	scanner.On("Scan", mock.Anything, "user-3", enum.ScanModeIncremental).Return(&dto.ScanResult{}, nil).Once()

	cm := NewCronManager(testConfig(), getLogger(), nil, credentials, scanner, publisher)
	cm.runIncrementalScans(context.Background())

	// one user failing does not stop the others
	scanner.AssertExpectations(t)
	publisher.AssertNotCalled(t, "PublishScanRequested", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunIncrementalScans_ListFailure(t *testing.T) {
	credentials := &mocks.MailCredentialRepository{}
	credentials.On("ListUserIds", mock.Anything).Return(nil, errors.New("connection refused"))
	scanner := &mocks.ScannerService{}

	cm := NewCronManager(testConfig(), getLogger(), nil, credentials, scanner, &mocks.EventPublisher{})
	cm.runIncrementalScans(context.Background())

	scanner.AssertNotCalled(t, "Scan", mock.Anything, mock.Anything, mock.Anything)
}
