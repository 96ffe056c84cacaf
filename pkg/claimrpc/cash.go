package claimrpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// CashServiceName is the fully-qualified name of the CashService.
const CashServiceName = "claimflow.v1.CashService"

const (
	CashServiceRecordAssignmentProcedure     = "/claimflow.v1.CashService/RecordAssignment"
	CashServiceListOpenAssignmentsProcedure  = "/claimflow.v1.CashService/ListOpenAssignments"
	CashServiceGetBalanceProcedure           = "/claimflow.v1.CashService/GetBalance"
	CashServiceCreateReturnRequestProcedure  = "/claimflow.v1.CashService/CreateReturnRequest"
	CashServiceApproveReturnRequestProcedure = "/claimflow.v1.CashService/ApproveReturnRequest"
	CashServiceRejectReturnRequestProcedure  = "/claimflow.v1.CashService/RejectReturnRequest"
	CashServiceGetReturnRequestProcedure     = "/claimflow.v1.CashService/GetReturnRequest"
)

// CashServiceHandler is implemented by the server side of CashService.
type CashServiceHandler interface {
	RecordAssignment(context.Context, *connect.Request[RecordAssignmentRequest]) (*connect.Response[RecordAssignmentResponse], error)
	ListOpenAssignments(context.Context, *connect.Request[ListOpenAssignmentsRequest]) (*connect.Response[ListOpenAssignmentsResponse], error)
	GetBalance(context.Context, *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error)
	CreateReturnRequest(context.Context, *connect.Request[CreateReturnRequestRequest]) (*connect.Response[ReturnRequestResponse], error)
	ApproveReturnRequest(context.Context, *connect.Request[ApproveReturnRequestRequest]) (*connect.Response[ApproveReturnRequestResponse], error)
	RejectReturnRequest(context.Context, *connect.Request[RejectReturnRequestRequest]) (*connect.Response[ReturnRequestResponse], error)
	GetReturnRequest(context.Context, *connect.Request[GetReturnRequestRequest]) (*connect.Response[ReturnRequestResponse], error)
}

// NewCashServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewCashServiceHandler(svc CashServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithCodec()}, opts...)

	routes := map[string]http.Handler{
		CashServiceRecordAssignmentProcedure:     connect.NewUnaryHandler(CashServiceRecordAssignmentProcedure, svc.RecordAssignment, opts...),
		CashServiceListOpenAssignmentsProcedure:  connect.NewUnaryHandler(CashServiceListOpenAssignmentsProcedure, svc.ListOpenAssignments, opts...),
		CashServiceGetBalanceProcedure:           connect.NewUnaryHandler(CashServiceGetBalanceProcedure, svc.GetBalance, opts...),
		CashServiceCreateReturnRequestProcedure:  connect.NewUnaryHandler(CashServiceCreateReturnRequestProcedure, svc.CreateReturnRequest, opts...),
		CashServiceApproveReturnRequestProcedure: connect.NewUnaryHandler(CashServiceApproveReturnRequestProcedure, svc.ApproveReturnRequest, opts...),
		CashServiceRejectReturnRequestProcedure:  connect.NewUnaryHandler(CashServiceRejectReturnRequestProcedure, svc.RejectReturnRequest, opts...),
		CashServiceGetReturnRequestProcedure:     connect.NewUnaryHandler(CashServiceGetReturnRequestProcedure, svc.GetReturnRequest, opts...),
	}
	return "/" + CashServiceName + "/", route(routes)
}

// CashServiceClient is a client for CashService.
type CashServiceClient interface {
	CashServiceHandler
}

// NewCashServiceClient constructs a client for CashService.
func NewCashServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) CashServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithCodec()}, opts...)

	return &cashServiceClient{
		recordAssignment:     connect.NewClient[RecordAssignmentRequest, RecordAssignmentResponse](httpClient, baseURL+CashServiceRecordAssignmentProcedure, opts...),
		listOpenAssignments:  connect.NewClient[ListOpenAssignmentsRequest, ListOpenAssignmentsResponse](httpClient, baseURL+CashServiceListOpenAssignmentsProcedure, opts...),
		getBalance:           connect.NewClient[GetBalanceRequest, GetBalanceResponse](httpClient, baseURL+CashServiceGetBalanceProcedure, opts...),
		createReturnRequest:  connect.NewClient[CreateReturnRequestRequest, ReturnRequestResponse](httpClient, baseURL+CashServiceCreateReturnRequestProcedure, opts...),
		approveReturnRequest: connect.NewClient[ApproveReturnRequestRequest, ApproveReturnRequestResponse](httpClient, baseURL+CashServiceApproveReturnRequestProcedure, opts...),
		rejectReturnRequest:  connect.NewClient[RejectReturnRequestRequest, ReturnRequestResponse](httpClient, baseURL+CashServiceRejectReturnRequestProcedure, opts...),
		getReturnRequest:     connect.NewClient[GetReturnRequestRequest, ReturnRequestResponse](httpClient, baseURL+CashServiceGetReturnRequestProcedure, opts...),
	}
}

type cashServiceClient struct {
	recordAssignment     *connect.Client[RecordAssignmentRequest, RecordAssignmentResponse]
	listOpenAssignments  *connect.Client[ListOpenAssignmentsRequest, ListOpenAssignmentsResponse]
	getBalance           *connect.Client[GetBalanceRequest, GetBalanceResponse]
	createReturnRequest  *connect.Client[CreateReturnRequestRequest, ReturnRequestResponse]
	approveReturnRequest *connect.Client[ApproveReturnRequestRequest, ApproveReturnRequestResponse]
	rejectReturnRequest  *connect.Client[RejectReturnRequestRequest, ReturnRequestResponse]
	getReturnRequest     *connect.Client[GetReturnRequestRequest, ReturnRequestResponse]
}

func (c *cashServiceClient) RecordAssignment(ctx context.Context, req *connect.Request[RecordAssignmentRequest]) (*connect.Response[RecordAssignmentResponse], error) {
	return c.recordAssignment.CallUnary(ctx, req)
}

func (c *cashServiceClient) ListOpenAssignments(ctx context.Context, req *connect.Request[ListOpenAssignmentsRequest]) (*connect.Response[ListOpenAssignmentsResponse], error) {
	return c.listOpenAssignments.CallUnary(ctx, req)
}

func (c *cashServiceClient) GetBalance(ctx context.Context, req *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error) {
	return c.getBalance.CallUnary(ctx, req)
}

func (c *cashServiceClient) CreateReturnRequest(ctx context.Context, req *connect.Request[CreateReturnRequestRequest]) (*connect.Response[ReturnRequestResponse], error) {
	return c.createReturnRequest.CallUnary(ctx, req)
}

func (c *cashServiceClient) ApproveReturnRequest(ctx context.Context, req *connect.Request[ApproveReturnRequestRequest]) (*connect.Response[ApproveReturnRequestResponse], error) {
	return c.approveReturnRequest.CallUnary(ctx, req)
}

func (c *cashServiceClient) RejectReturnRequest(ctx context.Context, req *connect.Request[RejectReturnRequestRequest]) (*connect.Response[ReturnRequestResponse], error) {
	return c.rejectReturnRequest.CallUnary(ctx, req)
}

func (c *cashServiceClient) GetReturnRequest(ctx context.Context, req *connect.Request[GetReturnRequestRequest]) (*connect.Response[ReturnRequestResponse], error) {
	return c.getReturnRequest.CallUnary(ctx, req)
}
