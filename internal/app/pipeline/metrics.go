package pipeline

// Metric names understood by the default observability adapter.
const (
	MetricCycles              = "catalink_cycles_total"
	MetricExtractsWritten     = "catalink_extracts_written_total"
	MetricExtractFailures     = "catalink_extract_failures_total"
	MetricChannelUnresolved   = "catalink_channel_unresolved_total"
	MetricLiveRebinds         = "catalink_live_rebinds_total"
	MetricLiveRebindFailures  = "catalink_live_rebind_failures_total"
	MetricReveals             = "catalink_reveals_total"
	MetricActiveChannels      = "catalink_active_channels"
	MetricCycleDuration       = "catalink_cycle_duration_seconds"
	MetricExtractWriteLatency = "catalink_extract_write_seconds"
)
