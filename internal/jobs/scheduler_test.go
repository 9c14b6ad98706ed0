package jobs

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRefresher struct {
	calls atomic.Int32
}

func (r *countingRefresher) Refresh(context.Context) {
	r.calls.Add(1)
}

func TestNewScheduler(t *testing.T) {
	tests := []struct {
		name        string
		spec        string
		wantErr     bool
		wantEnabled bool
	}{
		{name: "disabled", spec: ""},
		{name: "descriptor", spec: "@every 5m", wantEnabled: true},
		{name: "five fields", spec: "*/10 * * * *", wantEnabled: true},
		{name: "with seconds", spec: "0 */10 * * * *", wantEnabled: true},
		{name: "garbage", spec: "every now and then", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScheduler(tt.spec, &countingRefresher{}, zap.NewNop())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEnabled, s.Enabled())
		})
	}
}

func TestScheduler_JobRefreshes(t *testing.T) {
	r := &countingRefresher{}
	s, err := NewScheduler("@every 1h", r, nil)
	require.NoError(t, err)

	entries := s.sched.Entries()
	require.Len(t, entries, 1)
	entries[0].Job.Run()
	entries[0].Job.Run()

	assert.Equal(t, int32(2), r.calls.Load())
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := NewScheduler("@every 1h", &countingRefresher{}, nil)
	require.NoError(t, err)

	s.Start()
	s.Stop()

	disabled, err := NewScheduler("", &countingRefresher{}, nil)
	require.NoError(t, err)
	disabled.Start()
	disabled.Stop()
}
