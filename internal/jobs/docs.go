// Package jobs provides scheduled background tasks of the order service.
//
// Jobs are built on github.com/robfig/cron/v3 and managed through JobManager:
//
//	retry := jobs.NewDriverAssignmentJob(retryHandler, "@every 30s", 50, 20*time.Second, logger)
//	jobManager := jobs.NewJobManager(retry)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Available Jobs
//
// DriverAssignmentJob picks up READY orders that still have no driver. The
// assignment workflow leaves an order READY when no driver is within range of
// its site, so without this job such an order would only move on a manual
// trigger.
package jobs
