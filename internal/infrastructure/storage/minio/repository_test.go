package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/MolDescriptor/internal/config"
	appErrors "github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
)

type ExportRepositoryTestSuite struct {
	suite.Suite
	api  *MockMinIOAPI
	repo ExportStore
}

func (s *ExportRepositoryTestSuite) SetupTest() {
	s.api = new(MockMinIOAPI)
	client := newClient(s.api, config.MinIOConfig{Bucket: "exports"}, nil)
	s.repo = NewExportRepository(client, nil)
}

func (s *ExportRepositoryTestSuite) TearDownTest() {
	s.api.AssertExpectations(s.T())
}

func sampleTable() descriptor.Table {
	return descriptor.Table{
		Columns: []descriptor.Column{
			{Name: "Radius", Type: descriptor.ValueInt},
			{Name: "PetitjeanIndex", Type: descriptor.ValueFloat},
		},
		Rows: []descriptor.Row{
			{MoleculeID: "butane", SMILES: "CCCC", Cells: []descriptor.Cell{
				{Name: "Radius", Value: descriptor.IntValue(2)},
				{Name: "PetitjeanIndex", Value: descriptor.FloatValue(0.5)},
			}},
			{MoleculeID: "bad", SMILES: "C(", Error: "unclosed branch"},
		},
	}
}

func (s *ExportRepositoryTestSuite) TestExport() {
	var uploaded []byte
	s.api.On("PutObject", mock.Anything, "exports", "exports/job-1.csv", mock.Anything, mock.Anything,
		mock.MatchedBy(func(o minio.PutObjectOptions) bool {
			return o.ContentType == csvContentType && o.UserMetadata["molecules"] == "2" && o.UserMetadata["job-id"] == "job-1"
		})).
		Run(func(args mock.Arguments) {
			uploaded, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{ETag: "etag", Size: 64}, nil)

	res, err := s.repo.Export(context.Background(), "job-1", sampleTable())
	s.Require().NoError(err)
	s.Equal("exports/job-1.csv", res.Key)
	s.Equal("exports", res.Bucket)
	s.Equal("etag", res.ETag)

	lines := strings.Split(strings.TrimSpace(string(uploaded)), "\n")
	s.Require().Len(lines, 3)
	s.Equal("id,smiles,Radius,PetitjeanIndex,error", lines[0])
	s.Equal("butane,CCCC,2,0.5,", lines[1])
	s.Equal("bad,C(,nan,nan,unclosed branch", lines[2])
}

func (s *ExportRepositoryTestSuite) TestExport_InvalidJobID() {
	_, err := s.repo.Export(context.Background(), "../x", sampleTable())
	s.True(appErrors.IsCode(err, appErrors.ErrCodeValidation))
	_, err = s.repo.Export(context.Background(), "", sampleTable())
	s.True(appErrors.IsCode(err, appErrors.ErrCodeValidation))
}

func (s *ExportRepositoryTestSuite) TestExport_UploadError() {
	s.api.On("PutObject", mock.Anything, "exports", "exports/job-2.csv", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("quota"))
	_, err := s.repo.Export(context.Background(), "job-2", sampleTable())
	s.True(appErrors.IsCode(err, appErrors.ErrCodeObjectStorage))
}

func (s *ExportRepositoryTestSuite) TestDownload_NotFound() {
	s.api.On("GetObject", mock.Anything, "exports", "exports/nope.csv", mock.Anything).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey"})
	err := s.repo.Download(context.Background(), "exports/nope.csv", &bytes.Buffer{})
	s.True(appErrors.IsCode(err, appErrors.ErrCodeNotFound))
}

func (s *ExportRepositoryTestSuite) TestExists() {
	s.api.On("StatObject", mock.Anything, "exports", "a", mock.Anything).Return(minio.ObjectInfo{Key: "a"}, nil)
	s.api.On("StatObject", mock.Anything, "exports", "b", mock.Anything).Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"})

	ok, err := s.repo.Exists(context.Background(), "a")
	s.NoError(err)
	s.True(ok)
	ok, err = s.repo.Exists(context.Background(), "b")
	s.NoError(err)
	s.False(ok)
}

func (s *ExportRepositoryTestSuite) TestDelete() {
	s.api.On("RemoveObject", mock.Anything, "exports", "exports/j.csv", mock.Anything).Return(nil)
	s.NoError(s.repo.Delete(context.Background(), "exports/j.csv"))
}

func (s *ExportRepositoryTestSuite) TestList() {
	ch := make(chan minio.ObjectInfo, 3)
	ch <- minio.ObjectInfo{Key: "exports/j1.csv", Size: 10}
	ch <- minio.ObjectInfo{Key: "exports/j2.csv", Size: 20}
	ch <- minio.ObjectInfo{Key: "exports/j3.csv", Size: 30}
	close(ch)
	s.api.On("ListObjects", mock.Anything, "exports", minio.ListObjectsOptions{Prefix: "exports/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))

	objs, err := s.repo.List(context.Background(), 2)
	s.Require().NoError(err)
	s.Require().Len(objs, 2)
	s.Equal("j1", objs[0].JobID)
	s.Equal(int64(20), objs[1].Size)
}

func TestExportRepositorySuite(t *testing.T) {
	suite.Run(t, new(ExportRepositoryTestSuite))
}

//Personal.AI order the ending
