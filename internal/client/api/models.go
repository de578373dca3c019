package api

import "time"

type Owner struct {
	Table string `json:"table"`
	ID    int64  `json:"id"`
}

type File struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	Owner     *Owner    `json:"owner,omitempty"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

type SweepResult struct {
	Candidates      int      `json:"candidates"`
	Deleted         int      `json:"deleted"`
	Skipped         int      `json:"skipped"`
	RecordFailures  int      `json:"record_failures"`
	StorageFailures []string `json:"storage_failures,omitempty"`
}
