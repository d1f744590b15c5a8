package gateway_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/arkflow-dev/gozeebe/gateway"
	"github.com/arkflow-dev/gozeebe/internal/gatewaypb"
	"github.com/arkflow-dev/gozeebe/zberrors"
)

// fakeGatewayClient drives gateway.Adapter's guard() without a real gRPC
// server: Topology is the simplest unary RPC, so its queued results are
// used to exercise the circuit breaker directly.
type fakeGatewayClient struct {
	gatewaypb.GatewayClient

	results []error
	calls   int
}

func (f *fakeGatewayClient) Topology(ctx context.Context, in *gatewaypb.TopologyRequest, opts ...grpc.CallOption) (*gatewaypb.TopologyResponse, error) {
	i := f.calls
	f.calls++
	if i < len(f.results) && f.results[i] != nil {
		return nil, f.results[i]
	}
	return &gatewaypb.TopologyResponse{}, nil
}

func unavailable() error { return status.Error(codes.Unavailable, "no route to gateway") }

func TestGuardResetsAttemptCounterAfterASuccess(t *testing.T) {
	fake := &fakeGatewayClient{results: []error{unavailable(), unavailable(), nil, unavailable(), unavailable(), nil}}
	a := gateway.New(fake, nil, 2, zap.NewNop())

	// Two retryable failures then a success, twice over: if the counter
	// didn't reset on success, the second round's two failures would push
	// total attempts past MaxConnectionRetries=2 and trip the breaker.
	for round := 0; round < 2; round++ {
		var un *zberrors.UnavailableError

		_, err := a.Topology(context.Background())
		require.ErrorAs(t, err, &un)

		_, err = a.Topology(context.Background())
		require.ErrorAs(t, err, &un)

		_, err = a.Topology(context.Background())
		require.NoError(t, err)
	}
}

func TestGuardTripsClosedAfterExceedingMaxConnectionRetries(t *testing.T) {
	fake := &fakeGatewayClient{results: []error{unavailable(), unavailable(), unavailable()}}
	a := gateway.New(fake, nil, 1, zap.NewNop())

	var un *zberrors.UnavailableError

	_, err := a.Topology(context.Background())
	require.ErrorAs(t, err, &un, "first retryable failure: attempts=1, within MaxConnectionRetries")

	_, err = a.Topology(context.Background())
	require.ErrorAs(t, err, &un, "second retryable failure: attempts=2, exceeds MaxConnectionRetries=1, trips closed")

	callsBeforeClosed := fake.calls
	_, err = a.Topology(context.Background())
	require.ErrorAs(t, err, &un)
	assert.Equal(t, callsBeforeClosed, fake.calls, "closed adapter must fail fast without attempting the RPC")
}

func TestGuardNeverTripsWhenMaxConnectionRetriesIsUnbounded(t *testing.T) {
	fails := make([]error, 10)
	for i := range fails {
		fails[i] = unavailable()
	}
	fake := &fakeGatewayClient{results: fails}
	a := gateway.New(fake, nil, -1, zap.NewNop())

	for i := 0; i < len(fails); i++ {
		var un *zberrors.UnavailableError
		_, err := a.Topology(context.Background())
		require.ErrorAs(t, err, &un)
	}
	assert.Equal(t, len(fails), fake.calls, "every call should have reached the RPC; the breaker never trips with -1")
}

func TestGuardDoesNotTripOnNonRetryableFailures(t *testing.T) {
	fake := &fakeGatewayClient{results: []error{
		status.Error(codes.NotFound, "no such process"),
		status.Error(codes.NotFound, "no such process"),
		status.Error(codes.NotFound, "no such process"),
	}}
	a := gateway.New(fake, nil, 1, zap.NewNop())

	for i := 0; i < 3; i++ {
		var nf *zberrors.NotFoundError
		_, err := a.Topology(context.Background())
		require.ErrorAs(t, err, &nf, "NotFound is not retryable, so it must never count toward the breaker")
	}
	assert.Equal(t, 3, fake.calls, "non-retryable failures must not trip the breaker or block subsequent RPCs")
}
