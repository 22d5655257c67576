package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Incremental mailbox scans for every connected user, every 15 minutes
	CronScheduleIncrementalScans string `env:"CRON_SCHEDULE_INCREMENTAL_SCANS" envDefault:"0 */15 * * * *"`
}
