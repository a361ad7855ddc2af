/*
Package config loads the scheduler's configuration tree from a YAML
file with environment-variable overrides, using viper: file values are
the baseline and STOWSCHED_-prefixed environment variables (dots
replaced with underscores) take precedence. No command-line flag
overrides a config value; cmd/stowsched's --config flag only names the
file to load.

The key tree mirrors spec.md §6 exactly:

	scheduler.<starter>.enabled
	scheduler.<starter>.<starter>_period
	scheduler.<starter>.autoapprove
	scheduler.recover_dc.{keys_cf, timestamp_cf, min_key_loss}
	scheduler.move.{uncoupled_space_max_bytes, uncoupled_space_min_bytes,
	                 uncoupled_diff_sensitive_percent, move_period}
	scheduler.ttl_cleanup.{yt_cluster, yt_token, yt_attempts, yt_delay,
	                        aggregation_table, tskv_log_table, ttl_threshold}
	jobs.<type>.max_executing_jobs
	jobs.<type>.resources_limits.{HOST_IN, HOST_OUT, CPU, FS}
	jobs.ttl_cleanup_job.max_idle_days
	metadata.scheduler.db
*/
package config
