package claimrpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// ClaimServiceName is the fully-qualified name of the ClaimService.
const ClaimServiceName = "claimflow.v1.ClaimService"

const (
	ClaimServiceFileClaimProcedure         = "/claimflow.v1.ClaimService/FileClaim"
	ClaimServiceSubmitClaimProcedure       = "/claimflow.v1.ClaimService/SubmitClaim"
	ClaimServiceAssignClaimProcedure       = "/claimflow.v1.ClaimService/AssignClaim"
	ClaimServiceVerifyClaimProcedure       = "/claimflow.v1.ClaimService/VerifyClaim"
	ClaimServiceApproveClaimProcedure      = "/claimflow.v1.ClaimService/ApproveClaim"
	ClaimServiceRejectClaimProcedure       = "/claimflow.v1.ClaimService/RejectClaim"
	ClaimServiceGetClaimProcedure          = "/claimflow.v1.ClaimService/GetClaim"
	ClaimServiceGetClaimHistoryProcedure   = "/claimflow.v1.ClaimService/GetClaimHistory"
	ClaimServiceListNotificationsProcedure = "/claimflow.v1.ClaimService/ListNotifications"
)

// ClaimServiceHandler is implemented by the server side of ClaimService.
type ClaimServiceHandler interface {
	FileClaim(context.Context, *connect.Request[FileClaimRequest]) (*connect.Response[ClaimResponse], error)
	SubmitClaim(context.Context, *connect.Request[SubmitClaimRequest]) (*connect.Response[ClaimResponse], error)
	AssignClaim(context.Context, *connect.Request[AssignClaimRequest]) (*connect.Response[ClaimResponse], error)
	VerifyClaim(context.Context, *connect.Request[DecideClaimRequest]) (*connect.Response[ClaimResponse], error)
	ApproveClaim(context.Context, *connect.Request[DecideClaimRequest]) (*connect.Response[ClaimResponse], error)
	RejectClaim(context.Context, *connect.Request[DecideClaimRequest]) (*connect.Response[ClaimResponse], error)
	GetClaim(context.Context, *connect.Request[GetClaimRequest]) (*connect.Response[ClaimResponse], error)
	GetClaimHistory(context.Context, *connect.Request[GetClaimRequest]) (*connect.Response[GetClaimHistoryResponse], error)
	ListNotifications(context.Context, *connect.Request[ListNotificationsRequest]) (*connect.Response[ListNotificationsResponse], error)
}

// NewClaimServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewClaimServiceHandler(svc ClaimServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithCodec()}, opts...)

	routes := map[string]http.Handler{
		ClaimServiceFileClaimProcedure:         connect.NewUnaryHandler(ClaimServiceFileClaimProcedure, svc.FileClaim, opts...),
		ClaimServiceSubmitClaimProcedure:       connect.NewUnaryHandler(ClaimServiceSubmitClaimProcedure, svc.SubmitClaim, opts...),
		ClaimServiceAssignClaimProcedure:       connect.NewUnaryHandler(ClaimServiceAssignClaimProcedure, svc.AssignClaim, opts...),
		ClaimServiceVerifyClaimProcedure:       connect.NewUnaryHandler(ClaimServiceVerifyClaimProcedure, svc.VerifyClaim, opts...),
		ClaimServiceApproveClaimProcedure:      connect.NewUnaryHandler(ClaimServiceApproveClaimProcedure, svc.ApproveClaim, opts...),
		ClaimServiceRejectClaimProcedure:       connect.NewUnaryHandler(ClaimServiceRejectClaimProcedure, svc.RejectClaim, opts...),
		ClaimServiceGetClaimProcedure:          connect.NewUnaryHandler(ClaimServiceGetClaimProcedure, svc.GetClaim, opts...),
		ClaimServiceGetClaimHistoryProcedure:   connect.NewUnaryHandler(ClaimServiceGetClaimHistoryProcedure, svc.GetClaimHistory, opts...),
		ClaimServiceListNotificationsProcedure: connect.NewUnaryHandler(ClaimServiceListNotificationsProcedure, svc.ListNotifications, opts...),
	}
	return "/" + ClaimServiceName + "/", route(routes)
}

// ClaimServiceClient is a client for ClaimService.
type ClaimServiceClient interface {
	ClaimServiceHandler
}

// NewClaimServiceClient constructs a client for ClaimService. baseURL is the
// server root, e.g. http://localhost:8080.
func NewClaimServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ClaimServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithCodec()}, opts...)

	return &claimServiceClient{
		fileClaim:         connect.NewClient[FileClaimRequest, ClaimResponse](httpClient, baseURL+ClaimServiceFileClaimProcedure, opts...),
		submitClaim:       connect.NewClient[SubmitClaimRequest, ClaimResponse](httpClient, baseURL+ClaimServiceSubmitClaimProcedure, opts...),
		assignClaim:       connect.NewClient[AssignClaimRequest, ClaimResponse](httpClient, baseURL+ClaimServiceAssignClaimProcedure, opts...),
		verifyClaim:       connect.NewClient[DecideClaimRequest, ClaimResponse](httpClient, baseURL+ClaimServiceVerifyClaimProcedure, opts...),
		approveClaim:      connect.NewClient[DecideClaimRequest, ClaimResponse](httpClient, baseURL+ClaimServiceApproveClaimProcedure, opts...),
		rejectClaim:       connect.NewClient[DecideClaimRequest, ClaimResponse](httpClient, baseURL+ClaimServiceRejectClaimProcedure, opts...),
		getClaim:          connect.NewClient[GetClaimRequest, ClaimResponse](httpClient, baseURL+ClaimServiceGetClaimProcedure, opts...),
		getClaimHistory:   connect.NewClient[GetClaimRequest, GetClaimHistoryResponse](httpClient, baseURL+ClaimServiceGetClaimHistoryProcedure, opts...),
		listNotifications: connect.NewClient[ListNotificationsRequest, ListNotificationsResponse](httpClient, baseURL+ClaimServiceListNotificationsProcedure, opts...),
	}
}

type claimServiceClient struct {
	fileClaim         *connect.Client[FileClaimRequest, ClaimResponse]
	submitClaim       *connect.Client[SubmitClaimRequest, ClaimResponse]
	assignClaim       *connect.Client[AssignClaimRequest, ClaimResponse]
	verifyClaim       *connect.Client[DecideClaimRequest, ClaimResponse]
	approveClaim      *connect.Client[DecideClaimRequest, ClaimResponse]
	rejectClaim       *connect.Client[DecideClaimRequest, ClaimResponse]
	getClaim          *connect.Client[GetClaimRequest, ClaimResponse]
	getClaimHistory   *connect.Client[GetClaimRequest, GetClaimHistoryResponse]
	listNotifications *connect.Client[ListNotificationsRequest, ListNotificationsResponse]
}

func (c *claimServiceClient) FileClaim(ctx context.Context, req *connect.Request[FileClaimRequest]) (*connect.Response[ClaimResponse], error) {
	return c.fileClaim.CallUnary(ctx, req)
}

func (c *claimServiceClient) SubmitClaim(ctx context.Context, req *connect.Request[SubmitClaimRequest]) (*connect.Response[ClaimResponse], error) {
	return c.submitClaim.CallUnary(ctx, req)
}

func (c *claimServiceClient) AssignClaim(ctx context.Context, req *connect.Request[AssignClaimRequest]) (*connect.Response[ClaimResponse], error) {
	return c.assignClaim.CallUnary(ctx, req)
}

func (c *claimServiceClient) VerifyClaim(ctx context.Context, req *connect.Request[DecideClaimRequest]) (*connect.Response[ClaimResponse], error) {
	return c.verifyClaim.CallUnary(ctx, req)
}

func (c *claimServiceClient) ApproveClaim(ctx context.Context, req *connect.Request[DecideClaimRequest]) (*connect.Response[ClaimResponse], error) {
	return c.approveClaim.CallUnary(ctx, req)
}

func (c *claimServiceClient) RejectClaim(ctx context.Context, req *connect.Request[DecideClaimRequest]) (*connect.Response[ClaimResponse], error) {
	return c.rejectClaim.CallUnary(ctx, req)
}

func (c *claimServiceClient) GetClaim(ctx context.Context, req *connect.Request[GetClaimRequest]) (*connect.Response[ClaimResponse], error) {
	return c.getClaim.CallUnary(ctx, req)
}

func (c *claimServiceClient) GetClaimHistory(ctx context.Context, req *connect.Request[GetClaimRequest]) (*connect.Response[GetClaimHistoryResponse], error) {
	return c.getClaimHistory.CallUnary(ctx, req)
}

func (c *claimServiceClient) ListNotifications(ctx context.Context, req *connect.Request[ListNotificationsRequest]) (*connect.Response[ListNotificationsResponse], error) {
	return c.listNotifications.CallUnary(ctx, req)
}

// route dispatches on the exact procedure path.
func route(routes map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
