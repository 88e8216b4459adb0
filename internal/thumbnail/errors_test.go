package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gvasconcelos/thumbsvc/internal/extractor"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: KindTimeout,
		},
		{
			name: "wrapped deadline",
			err:  fmt.Errorf("resolving: %w", context.DeadlineExceeded),
			want: KindTimeout,
		},
		{
			name: "extraction timeout stage",
			err:  &extractor.ExtractionError{Stage: extractor.StageTimeout, Err: errors.New("killed")},
			want: KindTimeout,
		},
		{
			name: "extraction probe stage",
			err:  &extractor.ExtractionError{Stage: extractor.StageProbe, Err: errors.New("moov atom not found")},
			want: KindFormat,
		},
		{
			name: "extraction encode stage",
			err:  &extractor.ExtractionError{Stage: extractor.StageExtract, Err: errors.New("exit status 1")},
			want: KindGeneration,
		},
		{
			name: "zero duration source",
			err:  fmt.Errorf("probing: %w", extractor.ErrZeroDuration),
			want: KindFormat,
		},
		{
			name: "connection refused",
			err:  errors.New("dial tcp 10.0.0.1:443: connection refused"),
			want: KindNetwork,
		},
		{
			name: "rate limited",
			err:  errors.New("upstream said too many requests"),
			want: KindQuota,
		},
		{
			name: "unknown defaults to generation",
			err:  errors.New("something odd"),
			want: KindGeneration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestClassifyPassthrough(t *testing.T) {
	orig := NewError(KindQuota, errors.New("throttled"))
	wrapped := fmt.Errorf("resolving: %w", orig)

	got := Classify(wrapped)
	assert.Equal(t, KindQuota, got.Kind)
}

func TestKindRetryable(t *testing.T) {
	assert.True(t, KindNetwork.Retryable())
	assert.True(t, KindTimeout.Retryable())
	assert.False(t, KindFormat.Retryable())
	assert.False(t, KindGeneration.Retryable())
	assert.False(t, KindQuota.Retryable())
}
