package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_SweepOnceDrainsInBatches(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 5; i++ {
		env.upload(t, fmt.Sprintf("f%d.txt", i), "x")
	}
	env.clock.Set(t0.Add(8 * time.Minute))
	live := env.upload(t, "live.txt", "y")

	env.clock.Set(t0.Add(15 * time.Minute))
	sw := NewSweeper(env.svc, time.Minute, 2, discardLogger())

	assert.Equal(t, 5, sw.SweepOnce(context.Background()))
	assert.Len(t, env.repo.records, 1)
	assert.True(t, env.repo.has(live.ID))
	assert.Len(t, env.store.objects, 1)
}

func TestSweeper_NothingToDo(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "a.txt", "x")

	sw := NewSweeper(env.svc, time.Minute, 0, discardLogger())
	assert.Equal(t, DefaultSweepSize, sw.batch)
	assert.Zero(t, sw.SweepOnce(context.Background()))
	assert.Len(t, env.repo.records, 1)
}

func TestSweeper_StuckRecordsDoNotLoopForever(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		env.upload(t, fmt.Sprintf("f%d.txt", i), "x")
	}
	env.repo.deleteErr = errors.New("db read-only")
	env.clock.Set(t0.Add(time.Hour))

	sw := NewSweeper(env.svc, time.Minute, 3, discardLogger())
	assert.Zero(t, sw.SweepOnce(context.Background()), "records still present are not reaped")
	assert.Len(t, env.repo.records, 3)
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "a.txt", "x")
	env.clock.Set(t0.Add(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSweeper(env.svc, 5*time.Millisecond, 10, discardLogger()).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return env.repo.count() == 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
