package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/claimflow/internal/workflow"
	"github.com/mmynk/claimflow/pkg/claimrpc"
)

// CashService implements the Connect CashService.
type CashService struct {
	returns *workflow.Returns
}

var _ claimrpc.CashServiceHandler = (*CashService)(nil)

// NewCashService creates a CashService over the return request flow.
func NewCashService(returns *workflow.Returns) *CashService {
	return &CashService{returns: returns}
}

// RecordAssignment records cash handed out by the calling cashier.
func (s *CashService) RecordAssignment(ctx context.Context, req *connect.Request[claimrpc.RecordAssignmentRequest]) (*connect.Response[claimrpc.RecordAssignmentResponse], error) {
	cashierID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("RecordAssignment request received",
		"cashier_id", cashierID,
		"recipient_id", req.Msg.RecipientID,
		"amount", req.Msg.Amount,
	)

	a, err := s.returns.RecordAssignment(ctx, cashierID, req.Msg.RecipientID, req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&claimrpc.RecordAssignmentResponse{Assignment: assignmentToRPC(a)}), nil
}

// ListOpenAssignments lists open assignments between the caller and a
// counterpart. A cashier names the recipient; a recipient names the cashier.
func (s *CashService) ListOpenAssignments(ctx context.Context, req *connect.Request[claimrpc.ListOpenAssignmentsRequest]) (*connect.Response[claimrpc.ListOpenAssignmentsResponse], error) {
	callerID, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	recipientID, cashierID := req.Msg.RecipientID, req.Msg.CashierID
	switch {
	case recipientID != "" && cashierID == "":
		cashierID = callerID
	case cashierID != "" && recipientID == "":
		recipientID = callerID
	default:
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("exactly one of recipient_id or cashier_id is required"))
	}

	open, err := s.returns.OpenAssignments(ctx, recipientID, cashierID)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]*claimrpc.Assignment, len(open))
	for i, a := range open {
		out[i] = assignmentToRPC(a)
	}
	return connect.NewResponse(&claimrpc.ListOpenAssignmentsResponse{Assignments: out}), nil
}

// GetBalance returns the caller's balance.
func (s *CashService) GetBalance(ctx context.Context, req *connect.Request[claimrpc.GetBalanceRequest]) (*connect.Response[claimrpc.GetBalanceResponse], error) {
	accountID, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := s.returns.Balance(ctx, accountID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&claimrpc.GetBalanceResponse{AccountID: accountID, Balance: balance}), nil
}

// CreateReturnRequest asks a cashier to take money back from the caller.
func (s *CashService) CreateReturnRequest(ctx context.Context, req *connect.Request[claimrpc.CreateReturnRequestRequest]) (*connect.Response[claimrpc.ReturnRequestResponse], error) {
	requesterID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateReturnRequest request received",
		"requester_id", requesterID,
		"cashier_id", req.Msg.CashierID,
		"amount", req.Msg.Amount,
	)

	r, err := s.returns.CreateReturnRequest(ctx, requesterID, req.Msg.CashierID, req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&claimrpc.ReturnRequestResponse{Request: returnRequestToRPC(r)}), nil
}

// ApproveReturnRequest approves a request addressed to the calling cashier.
// A request the balance no longer covers is rejected and reported as
// failed_precondition; the rejected request is only logged here and can be
// read back with GetReturnRequest.
func (s *CashService) ApproveReturnRequest(ctx context.Context, req *connect.Request[claimrpc.ApproveReturnRequestRequest]) (*connect.Response[claimrpc.ApproveReturnRequestResponse], error) {
	cashierID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ApproveReturnRequest request received", "request_id", req.Msg.RequestID, "cashier_id", cashierID)

	result, err := s.returns.ApproveReturnRequest(ctx, req.Msg.RequestID, cashierID)
	if err != nil {
		// result is non-nil only for a request rejected at approval.
		if result != nil {
			slog.Warn("Return request rejected at approval",
				"request_id", req.Msg.RequestID,
				"reason", result.Request.RejectionReason,
			)
		}
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&claimrpc.ApproveReturnRequestResponse{
		Request:             returnRequestToRPC(result.Request),
		ClosedAssignmentIDs: result.Closed,
		Uncovered:           result.Uncovered,
	}), nil
}

// RejectReturnRequest rejects a request addressed to the calling cashier.
func (s *CashService) RejectReturnRequest(ctx context.Context, req *connect.Request[claimrpc.RejectReturnRequestRequest]) (*connect.Response[claimrpc.ReturnRequestResponse], error) {
	cashierID, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	r, err := s.returns.RejectReturnRequest(ctx, req.Msg.RequestID, cashierID, req.Msg.Reason)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&claimrpc.ReturnRequestResponse{Request: returnRequestToRPC(r)}), nil
}

// GetReturnRequest returns a request visible to its requester or cashier.
func (s *CashService) GetReturnRequest(ctx context.Context, req *connect.Request[claimrpc.GetReturnRequestRequest]) (*connect.Response[claimrpc.ReturnRequestResponse], error) {
	callerID, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	r, err := s.returns.Request(ctx, req.Msg.RequestID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if callerID != r.RequesterID && callerID != r.CashierID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("return request belongs to other accounts"))
	}
	return connect.NewResponse(&claimrpc.ReturnRequestResponse{Request: returnRequestToRPC(r)}), nil
}
