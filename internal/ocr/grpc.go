package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strconv"
	"time"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/resilience"
	"github.com/GriffinCanCode/screenwatch/internal/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Wire contract of the recognition sidecar. Requests carry a PNG in a
// BytesValue; responses carry the text in a StringValue.
const (
	ServiceName       = "screenwatch.ocr.v1.OCRService"
	extractTextMethod = "/" + ServiceName + "/ExtractText"

	// PageSegModeKey carries Options.PageSegMode as request metadata.
	PageSegModeKey = "x-ocr-psm"
)

// DefaultTimeout bounds a single remote recognition call.
const DefaultTimeout = 10 * time.Second

// GRPCEngine calls a remote recognition server guarded by a circuit breaker
// and transient-error retries.
type GRPCEngine struct {
	conn    grpc.ClientConnInterface
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
	timeout time.Duration
}

// NewGRPCEngine wraps conn. A non-positive timeout selects DefaultTimeout.
func NewGRPCEngine(conn grpc.ClientConnInterface, timeout time.Duration) *GRPCEngine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GRPCEngine{
		conn:    conn,
		breaker: resilience.New(resilience.OCRConfig()),
		retry:   resilience.DefaultRetryConfig(),
		timeout: timeout,
	}
}

// Breaker exposes the engine's circuit breaker for health reporting.
func (e *GRPCEngine) Breaker() *resilience.Breaker { return e.breaker }

// ExtractText implements Engine.
func (e *GRPCEngine) ExtractText(ctx context.Context, img image.Image, opts Options) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	if opts.PageSegMode != PageSegAuto {
		ctx = metadata.AppendToOutgoingContext(ctx, PageSegModeKey, strconv.Itoa(opts.PageSegMode))
	}

	text, err := resilience.Call(e.breaker, func() (string, error) {
		var text string
		err := resilience.Retry(ctx, e.retry, func(ctx context.Context) error {
			callCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()

			out := new(wrapperspb.StringValue)
			if err := e.conn.Invoke(callCtx, extractTextMethod, wrapperspb.Bytes(data), out); err != nil {
				return err
			}
			text = out.GetValue()
			return nil
		})
		return text, err
	})
	if err != nil {
		if errors.Is(err, resilience.ErrOpen) {
			return "", apperrors.Wrap(err, apperrors.CodeOCRUnavailable, "recognition server unavailable")
		}
		return "", apperrors.FromGRPCError(err, apperrors.CodeOCRFailed)
	}
	return text, nil
}

// ServiceDesc describes the recognition service for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Engine)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExtractText", Handler: extractTextHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "screenwatch/ocr/v1/ocr.proto",
}

// RegisterServer exposes engine on s, so a local engine can act as the sidecar.
func RegisterServer(s grpc.ServiceRegistrar, engine Engine) {
	s.RegisterService(&ServiceDesc, engine)
}

func extractTextHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, req any) (any, error) {
		return serveExtractText(ctx, srv.(Engine), req.(*wrapperspb.BytesValue))
	}
	if interceptor == nil {
		return handle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: extractTextMethod}
	return interceptor(ctx, in, info, handle)
}

func serveExtractText(ctx context.Context, engine Engine, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	ctx = trace.Into(ctx, trace.FromIncoming(ctx))

	img, err := png.Decode(bytes.NewReader(in.GetValue()))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "decode image: "+err.Error())
	}

	text, err := engine.ExtractText(ctx, img, Options{PageSegMode: pageSegFromMetadata(ctx)})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr.GRPCStatus().Err()
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	trace.Logger(ctx).Debug("ocr served", "chars", len(text))
	return wrapperspb.String(text), nil
}

func pageSegFromMetadata(ctx context.Context) int {
	md, _ := metadata.FromIncomingContext(ctx)
	vals := md.Get(PageSegModeKey)
	if len(vals) == 0 {
		return PageSegAuto
	}
	n, err := strconv.Atoi(vals[0])
	if err != nil {
		return PageSegAuto
	}
	return n
}
