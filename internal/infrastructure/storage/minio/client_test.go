package minio

import (
	"context"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/MolDescriptor/internal/config"
	appErrors "github.com/turtacn/MolDescriptor/pkg/errors"
)

type MockMinIOAPI struct {
	mock.Mock
}

func (m *MockMinIOAPI) ListBuckets(ctx context.Context) ([]minio.BucketInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).([]minio.BucketInfo), args.Error(1)
}

func (m *MockMinIOAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockMinIOAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucketName, opts).Error(0)
}

func (m *MockMinIOAPI) SetBucketLifecycle(ctx context.Context, bucketName string, cfg *lifecycle.Configuration) error {
	return m.Called(ctx, bucketName, cfg).Error(0)
}

func (m *MockMinIOAPI) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	args := m.Called(ctx, bucketName, opts)
	return args.Get(0).(<-chan minio.ObjectInfo)
}

func (m *MockMinIOAPI) PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error) {
	args := m.Called(ctx, bucketName, objectName, expiry, reqParams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*url.URL), args.Error(1)
}

func (m *MockMinIOAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

// GetObject cannot return a usable *minio.Object without a server, so only
// the error path is mockable.
func (m *MockMinIOAPI) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	return nil, args.Error(1)
}

func (m *MockMinIOAPI) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return m.Called(ctx, bucketName, objectName, opts).Error(0)
}

func (m *MockMinIOAPI) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

type ClientTestSuite struct {
	suite.Suite
	api    *MockMinIOAPI
	client *Client
}

func (s *ClientTestSuite) SetupTest() {
	s.api = new(MockMinIOAPI)
	s.client = newClient(s.api, config.MinIOConfig{Bucket: "exports", ExportPrefix: "calc"}, nil)
}

func (s *ClientTestSuite) TearDownTest() {
	s.api.AssertExpectations(s.T())
}

func (s *ClientTestSuite) TestApplyDefaults() {
	cfg := applyDefaults(config.MinIOConfig{})
	s.Equal("us-east-1", cfg.Region)
	s.Equal("moldesc-exports", cfg.Bucket)
	s.Equal("exports/", cfg.ExportPrefix)
	s.Equal(time.Hour, cfg.PresignExpiry)

	s.Equal("calc/", s.client.ExportPrefix())
}

func (s *ClientTestSuite) TestEnsureBucket_Creates() {
	s.api.On("BucketExists", mock.Anything, "exports").Return(false, nil)
	s.api.On("MakeBucket", mock.Anything, "exports", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)
	s.NoError(s.client.EnsureBucket(context.Background()))
}

func (s *ClientTestSuite) TestEnsureBucket_Exists() {
	s.api.On("BucketExists", mock.Anything, "exports").Return(true, nil)
	s.NoError(s.client.EnsureBucket(context.Background()))
}

func (s *ClientTestSuite) TestEnsureBucket_Error() {
	s.api.On("BucketExists", mock.Anything, "exports").Return(false, errors.New("denied"))
	err := s.client.EnsureBucket(context.Background())
	s.True(appErrors.IsCode(err, appErrors.ErrCodeObjectStorage))
}

func (s *ClientTestSuite) TestSetupLifecycle_ToleratesFailure() {
	s.api.On("SetBucketLifecycle", mock.Anything, "exports", mock.MatchedBy(func(c *lifecycle.Configuration) bool {
		return len(c.Rules) == 1 && c.Rules[0].RuleFilter.Prefix == "calc/"
	})).Return(errors.New("not implemented"))
	s.client.setupLifecycle(context.Background())
}

func (s *ClientTestSuite) TestPresignedGetURL() {
	u, _ := url.Parse("http://minio/exports/calc/j.csv?sig=1")
	s.api.On("PresignedGetObject", mock.Anything, "exports", "calc/j.csv", time.Hour, url.Values(nil)).Return(u, nil)

	got, err := s.client.PresignedGetURL(context.Background(), "calc/j.csv", 0)
	s.NoError(err)
	s.Equal(u.String(), got)
}

func (s *ClientTestSuite) TestHealthCheck() {
	s.api.On("ListBuckets", mock.Anything).Return([]minio.BucketInfo{{Name: "exports"}}, nil)
	s.api.On("BucketExists", mock.Anything, "exports").Return(true, nil)

	status, err := s.client.HealthCheck(context.Background())
	s.NoError(err)
	s.True(status.Healthy)
}

func (s *ClientTestSuite) TestHealthCheck_MissingBucket() {
	s.api.On("ListBuckets", mock.Anything).Return([]minio.BucketInfo{}, nil)
	s.api.On("BucketExists", mock.Anything, "exports").Return(false, nil)

	status, err := s.client.HealthCheck(context.Background())
	s.True(appErrors.IsCode(err, appErrors.ErrCodeNotFound))
	s.False(status.Healthy)
}

func (s *ClientTestSuite) TestClosed() {
	s.NoError(s.client.Close())
	_, err := s.client.PresignedGetURL(context.Background(), "k", 0)
	s.ErrorIs(err, ErrClientClosed)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func TestMapObjectError(t *testing.T) {
	err := mapObjectError(minio.ErrorResponse{Code: "NoSuchKey"}, "k")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeNotFound))

	err = mapObjectError(errors.New("reset"), "k")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeObjectStorage))
}

//Personal.AI order the ending
