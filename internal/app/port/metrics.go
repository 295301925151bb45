package port

// MetricsRecorder records gameplay and API activity.
type MetricsRecorder interface {
	RecordRequest(endpoint, outcome string)
	RecordBattle(won bool, fragments int)
	RecordLevelUp()
	RecordEggsMinted(count int)
	RecordWallet(outcome string)
}
