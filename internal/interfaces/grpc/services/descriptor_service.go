// Package services implements the gRPC services. Messages are
// google.protobuf.Struct documents carrying the same JSON shapes as the
// HTTP API, so no generated stubs are needed to call them.
package services

import (
	"context"
	"encoding/json"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/MolDescriptor/internal/application/calculation"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
)

// DescriptorServiceName is the fully qualified gRPC service name.
const DescriptorServiceName = "moldesc.v1.DescriptorService"

// DescriptorService exposes calculation.Service over gRPC.
type DescriptorService struct {
	svc    calculation.Service
	logger logging.Logger
}

// NewDescriptorService creates a DescriptorService.
func NewDescriptorService(svc calculation.Service, logger logging.Logger) *DescriptorService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DescriptorService{svc: svc, logger: logger.Named("grpc")}
}

// Calculate mirrors POST /api/v1/descriptors/calculate.
func (s *DescriptorService) Calculate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req descriptor.CalculateRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	resp, err := s.svc.Calculate(ctx, &req)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return toStruct(resp)
}

// ListDescriptors returns {"descriptors": [...]}.
func (s *DescriptorService) ListDescriptors(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	infos, err := s.svc.ListDescriptors(ctx)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return toStruct(map[string]interface{}{"descriptors": infos})
}

// GetMoleculeResults expects {"molecule_id": "..."}.
func (s *DescriptorService) GetMoleculeResults(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	row, err := s.svc.GetMoleculeResults(ctx, in.GetFields()["molecule_id"].GetStringValue())
	if err != nil {
		return nil, s.toStatus(err)
	}
	return toStruct(row)
}

// Similar returns {"hits": [...]}.
func (s *DescriptorService) Similar(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req descriptor.SimilarRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	hits, err := s.svc.Similar(ctx, &req)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return toStruct(map[string]interface{}{"hits": hits})
}

// SubmitJob assigns a job ID when the request has none and returns it.
func (s *DescriptorService) SubmitJob(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var job descriptor.CalculationJob
	if err := fromStruct(in, &job); err != nil {
		return nil, err
	}
	if job.JobID == "" {
		fresh := descriptor.NewCalculationJob(job.Molecules, job.Descriptors...)
		fresh.Export, fresh.Index = job.Export, job.Index
		job = fresh
	}
	if err := s.svc.SubmitJob(ctx, job); err != nil {
		return nil, s.toStatus(err)
	}
	return toStruct(map[string]interface{}{"job_id": job.JobID})
}

// GetJob expects {"job_id": "..."}.
func (s *DescriptorService) GetJob(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	rec, err := s.svc.GetJob(ctx, in.GetFields()["job_id"].GetStringValue())
	if err != nil {
		return nil, s.toStatus(err)
	}
	return toStruct(rec)
}

// ─────────────────────────────────────────────────────────────────────────────
// Service descriptor
// ─────────────────────────────────────────────────────────────────────────────

type structMethod func(*DescriptorService, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, fn structMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*DescriptorService)
			if interceptor == nil {
				return fn(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + DescriptorServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return fn(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

// DescriptorServiceDesc registers DescriptorService on a grpc.Server.
var DescriptorServiceDesc = grpc.ServiceDesc{
	ServiceName: DescriptorServiceName,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		unary("Calculate", (*DescriptorService).Calculate),
		unary("ListDescriptors", (*DescriptorService).ListDescriptors),
		unary("GetMoleculeResults", (*DescriptorService).GetMoleculeResults),
		unary("Similar", (*DescriptorService).Similar),
		unary("SubmitJob", (*DescriptorService).SubmitJob),
		unary("GetJob", (*DescriptorService).GetJob),
	},
	Metadata: "moldesc/v1/descriptor_service",
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "response encoding failed")
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Error(codes.Internal, "response encoding failed")
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "response encoding failed")
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, dst interface{}) error {
	raw, err := json.Marshal(in.AsMap())
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	return nil
}

// toStatus maps an AppError onto a gRPC status through its HTTP status.
// Internal failures are logged and masked.
func (s *DescriptorService) toStatus(err error) error {
	code := codes.Internal
	switch errors.HTTPStatus(err) {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = codes.InvalidArgument
	case http.StatusNotFound:
		code = codes.NotFound
	case http.StatusConflict:
		code = codes.AlreadyExists
	case http.StatusServiceUnavailable:
		code = codes.Unavailable
	case http.StatusGatewayTimeout:
		code = codes.DeadlineExceeded
	case http.StatusNotImplemented:
		code = codes.Unimplemented
	}
	if code == codes.Internal {
		s.logger.Error("request failed", logging.Err(err))
		return status.Error(codes.Internal, "internal server error")
	}
	return status.Errorf(code, "%s", err.Error())
}

//Personal.AI order the ending
