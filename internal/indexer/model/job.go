package model

import (
	"encoding/json"
	"time"
)

// JobStatus is a lifecycle state of an indexing job.
type JobStatus string

var (
	JobCreated JobStatus = "created"
	JobRunning JobStatus = "running"
	JobPaused  JobStatus = "paused"
	// JobFailed is reserved for an executor reporting pipeline failure.
	JobFailed JobStatus = "failed"
)

// JobMode selects which addresses a job indexes.
type JobMode string

var (
	JobModeAllAddresses JobMode = "all_addresses"
	JobModeAddressList  JobMode = "address_list"
)

// Job is a persisted indexing job.
type Job struct {
	JobID          string          `json:"job_id"`
	Mode           JobMode         `json:"mode"`
	Status         JobStatus       `json:"status"`
	ProgressHeight int64           `json:"progress_height"`
	UpdatedAt      time.Time       `json:"updated_at"`
	LastError      *string         `json:"last_error"`
	ConfigSnapshot json.RawMessage `json:"config_snapshot"`
}

// JobSummary is the list view of a job.
type JobSummary struct {
	JobID          string    `json:"job_id"`
	Mode           JobMode   `json:"mode"`
	Status         JobStatus `json:"status"`
	ProgressHeight int64     `json:"progress_height"`
	TipHeight      *int64    `json:"tip_height"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastError      *string   `json:"last_error"`
}

// JobSpec is the desired state of a job taken from configuration.
type JobSpec struct {
	JobID    string
	Mode     JobMode
	Snapshot json.RawMessage
}
