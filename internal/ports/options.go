package ports

import "time"

const (
	TriggerTimeStep = "timestep"
	TriggerTime     = "time"
)

// Trigger decides on which cycles an action fires.
type Trigger struct {
	Kind      string  `yaml:"kind"`      // "timestep" or "time"
	Frequency int     `yaml:"frequency"` // cycles between firings for timestep
	Interval  float64 `yaml:"interval"`  // simulation time between firings for time
}

// RunOptions is built once at startup and passed by value afterwards.
type RunOptions struct {
	GlobalTrigger Trigger

	ExtractsEnabled  bool
	ExtractsDir      string
	ExtractFrequency int
	ExtractTemplate  string
	ExtractFormats   []string

	LiveEnabled         bool
	LiveTrigger         Trigger
	LiveYield           time.Duration
	MergePartitionsOnly bool

	// Workers > 0 resolves and updates channels concurrently.
	Workers int
}
