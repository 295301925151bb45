package entity

import "time"

// BatchProgress is a snapshot of a batch run, exposed on the status endpoint.
type BatchProgress struct {
	RunID            string    `json:"runId"`
	StartedAt        time.Time `json:"startedAt"`
	FinishedAt       time.Time `json:"finishedAt"`
	TotalWallets     int       `json:"totalWallets"`
	ProcessedWallets int       `json:"processedWallets"`
	CurrentWallet    string    `json:"currentWallet,omitempty"`
	Wins             int       `json:"wins"`
	Losses           int       `json:"losses"`
	Fragments        int       `json:"fragments"`
	EggsMinted       int       `json:"eggsMinted"`
	Failures         []string  `json:"failures,omitempty"`
}
