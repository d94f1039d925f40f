package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeLists struct {
	ensured int32
	pruned  int32
}

func (f *fakeLists) EnsureCurrentDay(ctx context.Context) (bool, error) {
	atomic.AddInt32(&f.ensured, 1)
	return true, nil
}

func (f *fakeLists) PruneExpired(ctx context.Context) ([]string, error) {
	atomic.AddInt32(&f.pruned, 1)
	return []string{"2024-01-01"}, nil
}

type fakeCache struct{ purged int32 }

func (f *fakeCache) Purge() error {
	atomic.AddInt32(&f.purged, 1)
	return nil
}

func TestRegisterDailyJobs(t *testing.T) {
	s := NewScheduler(zap.NewNop(), time.UTC)
	require.NoError(t, RegisterDailyJobs(s, &fakeLists{}, &fakeCache{}))
	assert.Equal(t, 3, s.Len())

	s2 := NewScheduler(zap.NewNop(), time.UTC)
	require.NoError(t, RegisterDailyJobs(s2, &fakeLists{}, nil))
	assert.Equal(t, 2, s2.Len())
}

func TestAdd_InvalidSpec(t *testing.T) {
	s := NewScheduler(zap.NewNop(), nil)
	err := s.Add("bad", "every day", func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

func TestScheduler_RunsAndStops(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewScheduler(zap.New(core), time.UTC)

	ran := make(chan struct{}, 1)
	require.NoError(t, s.Add("tick", "* * * * * *", func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return errors.New("boom")
	}))

	s.Start()
	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("job failed").Len() > 0
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_RecoversPanics(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewScheduler(zap.New(core), time.UTC)

	s.run("panicky", func(ctx context.Context) error { panic("oops") })
	assert.Equal(t, 1, logs.FilterMessage("job panicked").Len())

	s.run("jobs", func(ctx context.Context) error { return nil })
	assert.Equal(t, 1, logs.FilterMessage("job completed").Len())
	s.cancel()
}
