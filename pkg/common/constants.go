package common

const (
	// RedisKeyRunLock is the cross-process run lock, keyed by target branch.
	RedisKeyRunLock = "prediction:run_lock:%s"

	// SnapshotFileName and HistoryFileName are the default published outputs.
	SnapshotFileName = "predictions.json"
	HistoryFileName  = "history.csv"
)
