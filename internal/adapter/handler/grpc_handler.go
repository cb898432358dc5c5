package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/lot-allocation/internal/core/allocation"
	"github.com/rl1809/lot-allocation/internal/core/service"
)

const allocationServiceName = "allocation.v1.AllocationService"

const (
	runAllocationMethod = "/" + allocationServiceName + "/RunAllocation"
	listResultsMethod   = "/" + allocationServiceName + "/ListResults"
)

type RunAllocationRequest struct {
	AllocationMethod string `json:"allocation_method"`
}

type ListResultsRequest struct{}

type ListResultsResponse struct {
	Results []AllocationResultResponse `json:"results"`
}

type allocationServer interface {
	RunAllocation(context.Context, *RunAllocationRequest) (*PassReportResponse, error)
	ListResults(context.Context, *ListResultsRequest) (*ListResultsResponse, error)
}

type GRPCHandler struct {
	allocations AllocationRunner
	logger      *zap.Logger
}

func NewGRPCHandler(allocations AllocationRunner, logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{allocations: allocations, logger: logger}
}

// Register exposes the handler on s. Messages travel as JSON; clients must
// call with grpc.CallContentSubtype("json").
func (h *GRPCHandler) Register(s *grpc.Server) {
	s.RegisterService(&allocationServiceDesc, h)
}

func (h *GRPCHandler) RunAllocation(ctx context.Context, req *RunAllocationRequest) (*PassReportResponse, error) {
	report, err := h.allocations.Run(ctx, req.AllocationMethod)
	if err != nil {
		switch {
		case errors.Is(err, allocation.ErrUnknownStrategy):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, service.ErrPassInProgress):
			return nil, status.Error(codes.Aborted, err.Error())
		default:
			h.logger.Error("allocation pass failed", zap.Error(err))
			return nil, status.Error(codes.Internal, "allocation pass failed")
		}
	}

	resp := toPassReportResponse(report)
	return &resp, nil
}

func (h *GRPCHandler) ListResults(ctx context.Context, _ *ListResultsRequest) (*ListResultsResponse, error) {
	results, err := h.allocations.Results(ctx)
	if err != nil {
		h.logger.Error("list allocation results failed", zap.Error(err))
		return nil, status.Error(codes.Internal, "list allocation results failed")
	}
	return &ListResultsResponse{Results: toResultResponses(results)}, nil
}

var allocationServiceDesc = grpc.ServiceDesc{
	ServiceName: allocationServiceName,
	HandlerType: (*allocationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RunAllocation", Handler: runAllocationHandler},
		{MethodName: "ListResults", Handler: listResultsHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func runAllocationHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RunAllocationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(allocationServer).RunAllocation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: runAllocationMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(allocationServer).RunAllocation(ctx, req.(*RunAllocationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listResultsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListResultsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(allocationServer).ListResults(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listResultsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(allocationServer).ListResults(ctx, req.(*ListResultsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// GRPCClient calls the allocation service over an existing connection.
type GRPCClient struct {
	conn grpc.ClientConnInterface
}

func NewGRPCClient(conn grpc.ClientConnInterface) *GRPCClient {
	return &GRPCClient{conn: conn}
}

func (c *GRPCClient) RunAllocation(ctx context.Context, method string) (*PassReportResponse, error) {
	out := new(PassReportResponse)
	err := c.conn.Invoke(ctx, runAllocationMethod, &RunAllocationRequest{AllocationMethod: method}, out,
		grpc.CallContentSubtype(jsonCodecName))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GRPCClient) ListResults(ctx context.Context) (*ListResultsResponse, error) {
	out := new(ListResultsResponse)
	err := c.conn.Invoke(ctx, listResultsMethod, &ListResultsRequest{}, out,
		grpc.CallContentSubtype(jsonCodecName))
	if err != nil {
		return nil, err
	}
	return out, nil
}
