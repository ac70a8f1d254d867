package jobs

import (
	"context"
	"log/slog"
	"time"

	"orderflow/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

const DefaultDriverAssignmentSchedule = "@every 30s"

type RetryHandler interface {
	Handle(ctx context.Context, command commands.RetryDriverAssignmentsCommand) (commands.RetryResult, error)
}

// DriverAssignmentJob re-runs the driver assignment workflow for READY orders
// that found no driver in range when they became ready.
type DriverAssignmentJob struct {
	handler   RetryHandler
	schedule  string
	batchSize int
	timeout   time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewDriverAssignmentJob creates the job. An empty schedule means every 30
// seconds; each run is bounded by timeout.
func NewDriverAssignmentJob(
	handler RetryHandler,
	schedule string,
	batchSize int,
	timeout time.Duration,
	logger *slog.Logger,
) *DriverAssignmentJob {
	if schedule == "" {
		schedule = DefaultDriverAssignmentSchedule
	}
	if batchSize <= 0 {
		batchSize = commands.DefaultRetryBatchSize
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &DriverAssignmentJob{
		handler:   handler,
		schedule:  schedule,
		batchSize: batchSize,
		timeout:   timeout,
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:    logger.With("component", "driver_assignment_job"),
	}
}

// Start schedules the job. A run still in progress when the next one is due
// makes that next run skip.
func (j *DriverAssignmentJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.Run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Driver assignment job started", "schedule", j.schedule)
	return nil
}

// Run performs a single retry pass.
func (j *DriverAssignmentJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	cmd, err := commands.NewRetryDriverAssignmentsCommand(j.batchSize)
	if err != nil {
		j.logger.ErrorContext(ctx, "Driver assignment job misconfigured", "error", err)
		return
	}
	if _, err = j.handler.Handle(ctx, cmd); err != nil {
		j.logger.ErrorContext(ctx, "Driver assignment job failed", "error", err)
	}
}

// Stop stops the scheduler and waits for a running pass to finish.
func (j *DriverAssignmentJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Driver assignment job stopped")
}
