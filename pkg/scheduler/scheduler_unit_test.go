package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/cuemby/stowsched/pkg/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimedQueue_RunsDueTasksInOrder(t *testing.T) {
	q := NewTimedQueue()
	q.Start()
	defer q.Stop()

	var mu sync.Mutex
	var order []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	now := time.Now()
	q.AddTaskAt("second", now.Add(40*time.Millisecond), record("second"))
	q.AddTaskAt("first", now.Add(10*time.Millisecond), record("first"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestTimedQueue_ReinsertingSameNameReplaces(t *testing.T) {
	q := NewTimedQueue()
	q.Start()
	defer q.Stop()

	var mu sync.Mutex
	ran := ""

	q.AddTaskAt("task", time.Now().Add(time.Hour), func() {
		mu.Lock()
		ran = "stale"
		mu.Unlock()
	})
	q.AddTaskAt("task", time.Now().Add(5*time.Millisecond), func() {
		mu.Lock()
		ran = "fresh"
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ran != ""
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "fresh", ran)
}

func TestRegisterPeriodicFunc_SkipsWhenDisabled(t *testing.T) {
	q := NewTimedQueue()
	locker := lock.NewMemLocker()

	var ran bool
	RegisterPeriodicFunc(q, locker, "recover_dc", "", StarterConfig{Enabled: false}, func() { ran = true })

	q.Start()
	defer q.Stop()
	time.Sleep(20 * time.Millisecond)

	assert.False(t, ran)
}

func TestRegisterPeriodicFunc_SkipsWhenLockHeld(t *testing.T) {
	q := NewTimedQueue()
	locker := lock.NewMemLocker()

	lk, err := locker.TryLock("scheduler/recover_dc", "someone-else")
	require.NoError(t, err)
	defer lk.Unlock()

	var ran bool
	RegisterPeriodicFunc(q, locker, "recover_dc", "", StarterConfig{Enabled: true, Period: time.Hour}, func() { ran = true })

	q.Start()
	defer q.Stop()
	time.Sleep(20 * time.Millisecond)

	assert.False(t, ran)
}

func TestRegisterPeriodicFunc_RunsAndReleasesLock(t *testing.T) {
	q := NewTimedQueue()
	locker := lock.NewMemLocker()

	var mu sync.Mutex
	runs := 0
	RegisterPeriodicFunc(q, locker, "recover_dc", "", StarterConfig{Enabled: true, Period: time.Hour}, func() {
		mu.Lock()
		runs++
		mu.Unlock()
	})

	q.Start()
	defer q.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs == 1
	}, time.Second, 5*time.Millisecond)

	lk, err := locker.TryLock("scheduler/recover_dc", "someone-else")
	require.NoError(t, err, "lock must be released after the run completes")
	lk.Unlock()
}
