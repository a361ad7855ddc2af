package schederr

import (
	"errors"
	"testing"

	"github.com/cuemby/stowsched/pkg/lock"
	"github.com/stretchr/testify/assert"
)

type fakeFinder map[string]bool

func (f fakeFinder) Exists(jobID string) bool { return f[jobID] }

func TestHolderJobID(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantID string
		wantOk bool
	}{
		{"quoted trailing id is not numeric", `lock: "1001:1002" held by "42"`, "", false},
		{"plain numeric token", "lock held by 42", "42", true},
		{"non numeric trailing token", "lock held by unknown", "", false},
		{"empty string", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := HolderJobID(tt.raw)
			assert.Equal(t, tt.wantOk, ok)
			if ok {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestProcessLockException_KnownHolder(t *testing.T) {
	err := &lock.HeldError{Name: "1001:1002", Holder: "42"}
	result := ProcessLockException("Failed to create", err, fakeFinder{"42": true})

	var conflict *CrossJobConflict
	assert.ErrorAs(t, result, &conflict)
	assert.True(t, conflict.HolderKnown)
	assert.Equal(t, "42", conflict.HolderJob)
}

func TestProcessLockException_UnknownHolder(t *testing.T) {
	err := &lock.HeldError{Name: "1001:1002", Holder: "99"}
	result := ProcessLockException("Failed to cancel", err, fakeFinder{})

	var conflict *CrossJobConflict
	assert.ErrorAs(t, result, &conflict)
	assert.False(t, conflict.HolderKnown)
}

func TestProcessLockException_NonLockError(t *testing.T) {
	result := ProcessLockException("Failed to create", errors.New("boom"), nil)

	var transient *Transient
	assert.ErrorAs(t, result, &transient)
}
