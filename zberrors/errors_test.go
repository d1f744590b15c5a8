package zberrors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/arkflow-dev/gozeebe/zberrors"
)

func TestFromStatusMapsEveryGRPCCodeToItsTaxonomyEntry(t *testing.T) {
	tests := []struct {
		name      string
		code      codes.Code
		wantErr   any
		retryable bool
	}{
		{"not found", codes.NotFound, &zberrors.NotFoundError{}, false},
		{"failed precondition", codes.FailedPrecondition, &zberrors.InvalidStateError{}, false},
		{"already exists", codes.AlreadyExists, &zberrors.AlreadyExistsError{}, false},
		{"resource exhausted", codes.ResourceExhausted, &zberrors.BackPressureError{}, true},
		{"unavailable", codes.Unavailable, &zberrors.UnavailableError{}, true},
		{"invalid argument", codes.InvalidArgument, &zberrors.InvalidPayloadError{}, false},
		{"deadline exceeded", codes.DeadlineExceeded, &zberrors.DeadlineError{}, true},
		{"canceled", codes.Canceled, &zberrors.CancelledError{}, false},
		{"internal", codes.Internal, &zberrors.InternalError{}, true},
		{"unknown", codes.Unknown, &zberrors.InternalError{}, true},
		{"unimplemented", codes.Unimplemented, &zberrors.InternalError{}, true},
		{"data loss", codes.DataLoss, &zberrors.InternalError{}, true},
		{"unset falls back to internal", codes.Code(999), &zberrors.InternalError{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := status.Error(tt.code, "boom")

			got := zberrors.FromStatus(in)

			assert.IsType(t, tt.wantErr, got)
			assert.Equal(t, tt.retryable, zberrors.Retryable(got))
		})
	}
}

func TestFromStatusPassesThroughNilAndNonGRPCErrors(t *testing.T) {
	assert.NoError(t, zberrors.FromStatus(nil))

	plain := assert.AnError
	got := zberrors.FromStatus(plain)
	assert.Same(t, plain, got)
}
