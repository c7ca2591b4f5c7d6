package minio

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
)

const csvContentType = "text/csv; charset=utf-8"

// ExportStore is what the calculation service needs from object storage.
type ExportStore interface {
	Export(ctx context.Context, jobID string, table descriptor.Table) (*ExportResult, error)
	Download(ctx context.Context, key string, w io.Writer) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, limit int) ([]ObjectInfo, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type ExportResult struct {
	Bucket     string
	Key        string
	ETag       string
	Size       int64
	UploadedAt time.Time
}

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	JobID        string
}

type exportRepository struct {
	client *Client
	logger logging.Logger
}

func NewExportRepository(client *Client, log logging.Logger) ExportStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &exportRepository{client: client, logger: log.Named("export-store")}
}

// ExportKey returns the object key a job's table is written to.
func ExportKey(prefix, jobID string) string {
	return prefix + jobID + ".csv"
}

// Export renders table as CSV and uploads it under the job's key, replacing
// any earlier export of the same job.
func (r *exportRepository) Export(ctx context.Context, jobID string, table descriptor.Table) (*ExportResult, error) {
	if jobID == "" || strings.ContainsAny(jobID, "/\\") {
		return nil, ErrInvalidObjectID.WithDetail(jobID)
	}
	api, err := r.client.handle()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := descriptor.WriteCSV(&buf, table); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to render csv")
	}

	key := ExportKey(r.client.ExportPrefix(), jobID)
	info, err := api.PutObject(ctx, r.client.Bucket(), key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{
		ContentType: csvContentType,
		UserMetadata: map[string]string{
			"job-id":    jobID,
			"molecules": strconv.Itoa(len(table.Rows)),
			"columns":   strconv.Itoa(len(table.Columns)),
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeObjectStorage, "failed to upload export %s", key)
	}

	r.logger.Info("export uploaded", logging.String("key", key), logging.Int64("size", info.Size))
	return &ExportResult{
		Bucket:     r.client.Bucket(),
		Key:        key,
		ETag:       info.ETag,
		Size:       info.Size,
		UploadedAt: time.Now().UTC(),
	}, nil
}

func (r *exportRepository) Download(ctx context.Context, key string, w io.Writer) error {
	api, err := r.client.handle()
	if err != nil {
		return err
	}
	obj, err := api.GetObject(ctx, r.client.Bucket(), key, minio.GetObjectOptions{})
	if err != nil {
		return mapObjectError(err, key)
	}
	defer obj.Close()

	if _, err := io.Copy(w, obj); err != nil {
		return mapObjectError(err, key)
	}
	return nil
}

func (r *exportRepository) Exists(ctx context.Context, key string) (bool, error) {
	api, err := r.client.handle()
	if err != nil {
		return false, err
	}
	if _, err := api.StatObject(ctx, r.client.Bucket(), key, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeObjectStorage, "stat failed")
	}
	return true, nil
}

func (r *exportRepository) Delete(ctx context.Context, key string) error {
	api, err := r.client.handle()
	if err != nil {
		return err
	}
	if err := api.RemoveObject(ctx, r.client.Bucket(), key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeObjectStorage, "delete failed")
	}
	return nil
}

// List returns up to limit exports in key order. limit <= 0
// means 1000.
func (r *exportRepository) List(ctx context.Context, limit int) ([]ObjectInfo, error) {
	api, err := r.client.handle()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1000
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prefix := r.client.ExportPrefix()
	var out []ObjectInfo
	for obj := range api.ListObjects(ctx, r.client.Bucket(), minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeObjectStorage, "list failed")
		}
		out = append(out, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			JobID:        strings.TrimSuffix(strings.TrimPrefix(obj.Key, prefix), ".csv"),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *exportRepository) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return r.client.PresignedGetURL(ctx, key, expiry)
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func mapObjectError(err error, key string) error {
	if isNoSuchKey(err) {
		return ErrObjectNotFound.WithDetail(key)
	}
	return errors.Wrapf(err, errors.ErrCodeObjectStorage, "download %s failed", key)
}

//Personal.AI order the ending
