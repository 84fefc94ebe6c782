package config

// Default returns the default configuration. Values mirror the
// reference run setup for the teacher loop.
func Default() *Config {
	return &Config{
		Task:                           "teacher",
		TotalIterations:                1000,
		CheckpointPerIteration:         false,
		FreezeConjecturer:              false,
		TrainPolicyOnHindsightExamples: true,
		MCTSOnly:                       false,
		EarlyExit:                      true,
		DifficultyBuckets: []Bucket{
			{Name: "hard", Percentile: 33},
			{Name: "medium", Percentile: 66},
			{Name: "easy", Percentile: 100},
		},
		MaxMCTSNodes: 1000,
		Seed:         0,
		GoalsDir:     "goals",
		TheoriesDir:  "theories",
		RunDir:       ".",
		Dispatcher:   "sync",
		MaxWorkers:   8,
		Metrics: Metrics{
			Backend: "jsonl",
			Path:    "metrics.jsonl",
		},
		Logging: Logging{
			Level: "INFO",
		},
	}
}
