// internal/process/job.go
package process

// JobStatus represents the lifecycle state of a derivation job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Job captures the minimal metadata the worker tracks for auditing purposes.
type Job struct {
	ID        string
	Kind      string
	ObjectKey string
	Status    JobStatus
	Error     string
}

func NewJob(kind, id, objectKey string) *Job {
	return &Job{
		ID:        id,
		Kind:      kind,
		ObjectKey: objectKey,
		Status:    JobStatusPending,
	}
}

func MarkRunning(j *Job)   { j.Status = JobStatusRunning }
func MarkSucceeded(j *Job) { j.Status = JobStatusSucceeded }
func MarkFailed(j *Job, err error) {
	j.Status = JobStatusFailed
	if err != nil {
		j.Error = err.Error()
	}
}
