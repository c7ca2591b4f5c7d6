package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/turtacn/MolDescriptor/internal/infrastructure/database/postgres"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
)

// JobStatus is the lifecycle state of a calculation job.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// JobRecord is the stored view of a calculation job.
type JobRecord struct {
	JobID        string     `json:"job_id"`
	Status       JobStatus  `json:"status"`
	Molecules    int        `json:"molecules"`
	Failed       int        `json:"failed"`
	Descriptors  []string   `json:"descriptors"`
	ExportObject string     `json:"export_object,omitempty"`
	Error        string     `json:"error,omitempty"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// JobRepository tracks calculation jobs. Start doubles as the idempotency
// check for redelivered job messages.
type JobRepository struct {
	conn   *postgres.Connection
	logger logging.Logger
}

func NewJobRepository(conn *postgres.Connection, log logging.Logger) *JobRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &JobRepository{conn: conn, logger: log}
}

// Start records job as running. It returns false when the job was already
// recorded.
func (r *JobRepository) Start(ctx context.Context, job descriptor.CalculationJob) (bool, error) {
	res, err := r.conn.DB().ExecContext(ctx,
		`INSERT INTO calculation_jobs (job_id, status, molecules, descriptors, submitted_at)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT (job_id) DO NOTHING`,
		job.JobID, string(JobRunning), len(job.Molecules), pq.Array(job.Descriptors), job.SubmittedAt.Time(),
	)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to record calculation job")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to record calculation job")
	}
	if n == 0 {
		r.logger.Info("calculation job already recorded", logging.String("job_id", job.JobID))
	}
	return n > 0, nil
}

// Complete stores the outcome carried by ev.
func (r *JobRepository) Complete(ctx context.Context, ev descriptor.CalculationCompleted) error {
	status := JobSucceeded
	if ev.Error != "" {
		status = JobFailed
	}
	res, err := r.conn.DB().ExecContext(ctx,
		`UPDATE calculation_jobs
		SET status = $2, failed = $3, export_object = $4, error = $5, completed_at = $6
		WHERE job_id = $1`,
		ev.JobID, string(status), ev.Failed, ev.ExportObject, ev.Error, time.Now().UTC(),
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to complete calculation job")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.New(appErrors.ErrCodeNotFound, "calculation job not found").WithDetail(ev.JobID)
	}
	return nil
}

// Get loads one job.
func (r *JobRepository) Get(ctx context.Context, jobID string) (*JobRecord, error) {
	var (
		rec         JobRecord
		status      string
		completedAt sql.NullTime
	)
	err := r.conn.DB().QueryRowContext(ctx,
		`SELECT job_id, status, molecules, failed, descriptors, export_object, error, submitted_at, completed_at
		FROM calculation_jobs WHERE job_id = $1`, jobID,
	).Scan(&rec.JobID, &status, &rec.Molecules, &rec.Failed, pq.Array(&rec.Descriptors),
		&rec.ExportObject, &rec.Error, &rec.SubmittedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, appErrors.New(appErrors.ErrCodeNotFound, "calculation job not found").WithDetail(jobID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to load calculation job")
	}
	rec.Status = JobStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}
	return &rec, nil
}

//Personal.AI order the ending
