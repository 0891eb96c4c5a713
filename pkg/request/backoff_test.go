package request

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProviderBackoff_ExponentialDelay(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		wantMinMs int64
		wantMaxMs int64
	}{
		{"First failure", 1, 900, 1200},
		{"Second failure", 2, 1900, 2400},
		{"Third failure", 3, 3900, 4800},
		{"Max cap hit", 10, 59000, 66000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewProviderBackoff(1*time.Second, 60*time.Second)
			for i := 0; i < tt.failures; i++ {
				b.RecordFailure("content.poppyandbuddy.com")
			}

			fc, nextAllowed := b.GetState("content.poppyandbuddy.com")
			assert.Equal(t, tt.failures, fc)

			delayMs := time.Until(nextAllowed).Milliseconds()
			assert.GreaterOrEqual(t, delayMs, tt.wantMinMs)
			assert.LessOrEqual(t, delayMs, tt.wantMaxMs)
		})
	}
}

func TestProviderBackoff_GradualRecovery(t *testing.T) {
	b := NewProviderBackoff(1*time.Second, 60*time.Second)
	for i := 0; i < 3; i++ {
		b.RecordFailure("host")
	}

	b.RecordSuccess("host")
	fc, _ := b.GetState("host")
	assert.Equal(t, 2, fc)

	b.RecordSuccess("host")
	b.RecordSuccess("host")
	fc, next := b.GetState("host")
	assert.Equal(t, 0, fc)
	assert.True(t, next.IsZero())
}

func TestProviderBackoff_IsolatedHosts(t *testing.T) {
	b := NewProviderBackoff(1*time.Second, 60*time.Second)
	b.RecordFailure("a.example")
	b.RecordFailure("a.example")

	fc1, _ := b.GetState("a.example")
	fc2, _ := b.GetState("b.example")
	assert.Equal(t, 2, fc1)
	assert.Equal(t, 0, fc2)
}

func TestProviderBackoff_WaitHonoursContext(t *testing.T) {
	b := NewProviderBackoff(time.Minute, time.Hour)
	b.RecordFailure("slow.example")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Wait(ctx, "slow.example"), context.DeadlineExceeded)
	assert.NoError(t, b.Wait(context.Background(), "fresh.example"))
}
