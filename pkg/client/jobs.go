package client

import (
	"context"
	"net/url"
	"time"

	"github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/molecule"
)

// JobsClient submits and tracks asynchronous calculation jobs.
type JobsClient struct {
	client *Client
}

// SubmitJobRequest describes an asynchronous job.
type SubmitJobRequest struct {
	SMILES      []string                 `json:"smiles,omitempty"`
	Molecules   []molecule.MoleculeInput `json:"molecules,omitempty"`
	Descriptors []string                 `json:"descriptors,omitempty"`
	// Export writes the result table as CSV to object storage.
	Export bool `json:"export,omitempty"`
	// Index adds the rows to the similarity index.
	Index bool `json:"index,omitempty"`
}

// SubmitJobResponse acknowledges an accepted job.
type SubmitJobResponse struct {
	JobID       string    `json:"job_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Job is the tracked state of a job.
type Job struct {
	JobID        string     `json:"job_id"`
	Status       string     `json:"status"`
	Molecules    int        `json:"molecules"`
	Failed       int        `json:"failed"`
	Descriptors  []string   `json:"descriptors"`
	ExportObject string     `json:"export_object,omitempty"`
	Error        string     `json:"error,omitempty"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Done reports whether the job reached a terminal status.
func (j *Job) Done() bool { return j.Status == "succeeded" || j.Status == "failed" }

func (j *JobsClient) Submit(ctx context.Context, req *SubmitJobRequest) (*SubmitJobResponse, error) {
	if req == nil || len(req.SMILES)+len(req.Molecules) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "at least one molecule is required")
	}
	var resp SubmitJobResponse
	if err := j.client.post(ctx, "/api/v1/jobs", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (j *JobsClient) Get(ctx context.Context, jobID string) (*Job, error) {
	if jobID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "job id is required")
	}
	var job Job
	if err := j.client.get(ctx, "/api/v1/jobs/"+url.PathEscape(jobID), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Wait polls the job every interval until it is done or ctx ends.
func (j *JobsClient) Wait(ctx context.Context, jobID string, interval time.Duration) (*Job, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		job, err := j.Get(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Done() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

//Personal.AI order the ending
