package lock

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/raft"
)

// leaseCommand is one entry applied through the Raft log.
type leaseCommand struct {
	Op     string `json:"op"` // "acquire" or "release"
	Name   string `json:"name"`
	Holder string `json:"holder"`
}

// leaseFSM is the Raft finite state machine backing RaftLocker: a flat
// table of name -> holder, replicated through the Raft log.
type leaseFSM struct {
	mu    sync.RWMutex
	table map[string]string
}

func newLeaseFSM() *leaseFSM {
	return &leaseFSM{table: make(map[string]string)}
}

func (f *leaseFSM) holderOf(name string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	h, ok := f.table[name]
	return h, ok
}

// Apply applies one committed log entry. The return value becomes the
// result future.Response() sees in RaftLocker.TryLock.
func (f *leaseFSM) Apply(l *raft.Log) interface{} {
	var cmd leaseCommand
	if err := json.Unmarshal(l.Data, &cmd); err != nil {
		return fmt.Errorf("lock: unmarshal command: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch cmd.Op {
	case "acquire":
		if existing, ok := f.table[cmd.Name]; ok && existing != cmd.Holder {
			return &HeldError{Name: cmd.Name, Holder: existing}
		}
		f.table[cmd.Name] = cmd.Holder
		return nil
	case "release":
		if existing, ok := f.table[cmd.Name]; ok && existing == cmd.Holder {
			delete(f.table, cmd.Name)
		}
		return nil
	default:
		return fmt.Errorf("lock: unknown command %q", cmd.Op)
	}
}

func (f *leaseFSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	table := make(map[string]string, len(f.table))
	for k, v := range f.table {
		table[k] = v
	}
	return &leaseSnapshot{table: table}, nil
}

func (f *leaseFSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	var table map[string]string
	if err := json.NewDecoder(rc).Decode(&table); err != nil {
		return fmt.Errorf("lock: decode snapshot: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table = table
	return nil
}

type leaseSnapshot struct {
	table map[string]string
}

func (s *leaseSnapshot) Persist(sink raft.SnapshotSink) error {
	err := json.NewEncoder(sink).Encode(s.table)
	if err != nil {
		sink.Cancel()
		return err
	}
	return sink.Close()
}

func (s *leaseSnapshot) Release() {}
