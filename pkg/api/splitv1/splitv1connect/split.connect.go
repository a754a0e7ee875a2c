// Package splitv1connect wires the splitsettle.v1.SplitService messages to
// Connect handlers and clients.
package splitv1connect

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"connectrpc.com/connect"

	splitv1 "github.com/mmynk/splitsettle/pkg/api/splitv1"
)

// SplitServiceName is the fully-qualified name of the SplitService service.
const SplitServiceName = "splitsettle.v1.SplitService"

// Procedure paths, each "/" + SplitServiceName + "/" + method.
const (
	SplitServiceCreateSplitProcedure   = "/splitsettle.v1.SplitService/CreateSplit"
	SplitServiceGetSplitProcedure      = "/splitsettle.v1.SplitService/GetSplit"
	SplitServiceListSplitsProcedure    = "/splitsettle.v1.SplitService/ListSplits"
	SplitServicePreviewSplitProcedure  = "/splitsettle.v1.SplitService/PreviewSplit"
	SplitServiceRecordPaymentProcedure = "/splitsettle.v1.SplitService/RecordPayment"
	SplitServiceGetProgressProcedure   = "/splitsettle.v1.SplitService/GetProgress"
	SplitServiceListPaymentsProcedure  = "/splitsettle.v1.SplitService/ListPayments"
	SplitServiceParseReceiptProcedure  = "/splitsettle.v1.SplitService/ParseReceipt"
)

// PublicProcedures do not need an authenticated caller.
var PublicProcedures = map[string]bool{
	SplitServicePreviewSplitProcedure: true,
	SplitServiceParseReceiptProcedure: true,
}

// SplitServiceHandler is implemented by the split service.
type SplitServiceHandler interface {
	CreateSplit(context.Context, *connect.Request[splitv1.CreateSplitRequest]) (*connect.Response[splitv1.CreateSplitResponse], error)
	GetSplit(context.Context, *connect.Request[splitv1.GetSplitRequest]) (*connect.Response[splitv1.GetSplitResponse], error)
	ListSplits(context.Context, *connect.Request[splitv1.ListSplitsRequest]) (*connect.Response[splitv1.ListSplitsResponse], error)
	PreviewSplit(context.Context, *connect.Request[splitv1.PreviewSplitRequest]) (*connect.Response[splitv1.PreviewSplitResponse], error)
	RecordPayment(context.Context, *connect.Request[splitv1.RecordPaymentRequest]) (*connect.Response[splitv1.RecordPaymentResponse], error)
	GetProgress(context.Context, *connect.Request[splitv1.GetProgressRequest]) (*connect.Response[splitv1.GetProgressResponse], error)
	ListPayments(context.Context, *connect.Request[splitv1.ListPaymentsRequest]) (*connect.Response[splitv1.ListPaymentsResponse], error)
	ParseReceipt(context.Context, *connect.Request[splitv1.ParseReceiptRequest]) (*connect.Response[splitv1.ParseReceiptResponse], error)
}

// NewSplitServiceHandler builds an HTTP handler for svc and returns the path
// to mount it on. Options apply to every procedure.
func NewSplitServiceHandler(svc SplitServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	readOnly := append(slices.Clip(opts), connect.WithIdempotency(connect.IdempotencyNoSideEffects))
	// Reads that may settle a fully paid split as they load it.
	reconciling := append(slices.Clip(opts), connect.WithIdempotency(connect.IdempotencyIdempotent))

	handlers := map[string]http.Handler{
		SplitServiceCreateSplitProcedure:   connect.NewUnaryHandler(SplitServiceCreateSplitProcedure, svc.CreateSplit, opts...),
		SplitServiceGetSplitProcedure:      connect.NewUnaryHandler(SplitServiceGetSplitProcedure, svc.GetSplit, reconciling...),
		SplitServiceListSplitsProcedure:    connect.NewUnaryHandler(SplitServiceListSplitsProcedure, svc.ListSplits, readOnly...),
		SplitServicePreviewSplitProcedure:  connect.NewUnaryHandler(SplitServicePreviewSplitProcedure, svc.PreviewSplit, readOnly...),
		SplitServiceRecordPaymentProcedure: connect.NewUnaryHandler(SplitServiceRecordPaymentProcedure, svc.RecordPayment, opts...),
		SplitServiceGetProgressProcedure:   connect.NewUnaryHandler(SplitServiceGetProgressProcedure, svc.GetProgress, reconciling...),
		SplitServiceListPaymentsProcedure:  connect.NewUnaryHandler(SplitServiceListPaymentsProcedure, svc.ListPayments, reconciling...),
		SplitServiceParseReceiptProcedure:  connect.NewUnaryHandler(SplitServiceParseReceiptProcedure, svc.ParseReceipt, readOnly...),
	}

	return "/" + SplitServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// SplitServiceClient is a client for the splitsettle.v1.SplitService service.
type SplitServiceClient interface {
	CreateSplit(context.Context, *connect.Request[splitv1.CreateSplitRequest]) (*connect.Response[splitv1.CreateSplitResponse], error)
	GetSplit(context.Context, *connect.Request[splitv1.GetSplitRequest]) (*connect.Response[splitv1.GetSplitResponse], error)
	ListSplits(context.Context, *connect.Request[splitv1.ListSplitsRequest]) (*connect.Response[splitv1.ListSplitsResponse], error)
	PreviewSplit(context.Context, *connect.Request[splitv1.PreviewSplitRequest]) (*connect.Response[splitv1.PreviewSplitResponse], error)
	RecordPayment(context.Context, *connect.Request[splitv1.RecordPaymentRequest]) (*connect.Response[splitv1.RecordPaymentResponse], error)
	GetProgress(context.Context, *connect.Request[splitv1.GetProgressRequest]) (*connect.Response[splitv1.GetProgressResponse], error)
	ListPayments(context.Context, *connect.Request[splitv1.ListPaymentsRequest]) (*connect.Response[splitv1.ListPaymentsResponse], error)
	ParseReceipt(context.Context, *connect.Request[splitv1.ParseReceiptRequest]) (*connect.Response[splitv1.ParseReceiptResponse], error)
}

// NewSplitServiceClient constructs a client for the service at baseURL.
func NewSplitServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SplitServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &splitServiceClient{
		createSplit:   connect.NewClient[splitv1.CreateSplitRequest, splitv1.CreateSplitResponse](httpClient, baseURL+SplitServiceCreateSplitProcedure, opts...),
		getSplit:      connect.NewClient[splitv1.GetSplitRequest, splitv1.GetSplitResponse](httpClient, baseURL+SplitServiceGetSplitProcedure, opts...),
		listSplits:    connect.NewClient[splitv1.ListSplitsRequest, splitv1.ListSplitsResponse](httpClient, baseURL+SplitServiceListSplitsProcedure, opts...),
		previewSplit:  connect.NewClient[splitv1.PreviewSplitRequest, splitv1.PreviewSplitResponse](httpClient, baseURL+SplitServicePreviewSplitProcedure, opts...),
		recordPayment: connect.NewClient[splitv1.RecordPaymentRequest, splitv1.RecordPaymentResponse](httpClient, baseURL+SplitServiceRecordPaymentProcedure, opts...),
		getProgress:   connect.NewClient[splitv1.GetProgressRequest, splitv1.GetProgressResponse](httpClient, baseURL+SplitServiceGetProgressProcedure, opts...),
		listPayments:  connect.NewClient[splitv1.ListPaymentsRequest, splitv1.ListPaymentsResponse](httpClient, baseURL+SplitServiceListPaymentsProcedure, opts...),
		parseReceipt:  connect.NewClient[splitv1.ParseReceiptRequest, splitv1.ParseReceiptResponse](httpClient, baseURL+SplitServiceParseReceiptProcedure, opts...),
	}
}

type splitServiceClient struct {
	createSplit   *connect.Client[splitv1.CreateSplitRequest, splitv1.CreateSplitResponse]
	getSplit      *connect.Client[splitv1.GetSplitRequest, splitv1.GetSplitResponse]
	listSplits    *connect.Client[splitv1.ListSplitsRequest, splitv1.ListSplitsResponse]
	previewSplit  *connect.Client[splitv1.PreviewSplitRequest, splitv1.PreviewSplitResponse]
	recordPayment *connect.Client[splitv1.RecordPaymentRequest, splitv1.RecordPaymentResponse]
	getProgress   *connect.Client[splitv1.GetProgressRequest, splitv1.GetProgressResponse]
	listPayments  *connect.Client[splitv1.ListPaymentsRequest, splitv1.ListPaymentsResponse]
	parseReceipt  *connect.Client[splitv1.ParseReceiptRequest, splitv1.ParseReceiptResponse]
}

func (c *splitServiceClient) CreateSplit(ctx context.Context, req *connect.Request[splitv1.CreateSplitRequest]) (*connect.Response[splitv1.CreateSplitResponse], error) {
	return c.createSplit.CallUnary(ctx, req)
}

func (c *splitServiceClient) GetSplit(ctx context.Context, req *connect.Request[splitv1.GetSplitRequest]) (*connect.Response[splitv1.GetSplitResponse], error) {
	return c.getSplit.CallUnary(ctx, req)
}

func (c *splitServiceClient) ListSplits(ctx context.Context, req *connect.Request[splitv1.ListSplitsRequest]) (*connect.Response[splitv1.ListSplitsResponse], error) {
	return c.listSplits.CallUnary(ctx, req)
}

func (c *splitServiceClient) PreviewSplit(ctx context.Context, req *connect.Request[splitv1.PreviewSplitRequest]) (*connect.Response[splitv1.PreviewSplitResponse], error) {
	return c.previewSplit.CallUnary(ctx, req)
}

func (c *splitServiceClient) RecordPayment(ctx context.Context, req *connect.Request[splitv1.RecordPaymentRequest]) (*connect.Response[splitv1.RecordPaymentResponse], error) {
	return c.recordPayment.CallUnary(ctx, req)
}

func (c *splitServiceClient) GetProgress(ctx context.Context, req *connect.Request[splitv1.GetProgressRequest]) (*connect.Response[splitv1.GetProgressResponse], error) {
	return c.getProgress.CallUnary(ctx, req)
}

func (c *splitServiceClient) ListPayments(ctx context.Context, req *connect.Request[splitv1.ListPaymentsRequest]) (*connect.Response[splitv1.ListPaymentsResponse], error) {
	return c.listPayments.CallUnary(ctx, req)
}

func (c *splitServiceClient) ParseReceipt(ctx context.Context, req *connect.Request[splitv1.ParseReceiptRequest]) (*connect.Response[splitv1.ParseReceiptResponse], error) {
	return c.parseReceipt.CallUnary(ctx, req)
}

// UnimplementedSplitServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedSplitServiceHandler struct{}

var errUnimplemented = errors.New("not implemented")

func (UnimplementedSplitServiceHandler) CreateSplit(context.Context, *connect.Request[splitv1.CreateSplitRequest]) (*connect.Response[splitv1.CreateSplitResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedSplitServiceHandler) GetSplit(context.Context, *connect.Request[splitv1.GetSplitRequest]) (*connect.Response[splitv1.GetSplitResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedSplitServiceHandler) ListSplits(context.Context, *connect.Request[splitv1.ListSplitsRequest]) (*connect.Response[splitv1.ListSplitsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedSplitServiceHandler) PreviewSplit(context.Context, *connect.Request[splitv1.PreviewSplitRequest]) (*connect.Response[splitv1.PreviewSplitResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedSplitServiceHandler) RecordPayment(context.Context, *connect.Request[splitv1.RecordPaymentRequest]) (*connect.Response[splitv1.RecordPaymentResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedSplitServiceHandler) GetProgress(context.Context, *connect.Request[splitv1.GetProgressRequest]) (*connect.Response[splitv1.GetProgressResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedSplitServiceHandler) ListPayments(context.Context, *connect.Request[splitv1.ListPaymentsRequest]) (*connect.Response[splitv1.ListPaymentsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedSplitServiceHandler) ParseReceipt(context.Context, *connect.Request[splitv1.ParseReceiptRequest]) (*connect.Response[splitv1.ParseReceiptResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}
