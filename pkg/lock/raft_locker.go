package lock

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
)

// RaftConfig configures a RaftLocker's underlying consensus group.
type RaftConfig struct {
	NodeID   string
	BindAddr string
	DataDir  string
	// Bootstrap starts a brand-new single-node cluster. Joining an
	// existing cluster is done afterwards via AddVoter on the leader's
	// Raft handle.
	Bootstrap bool
}

// RaftLocker is a Locker whose lease table is replicated via Raft, so
// that two scheduler instances racing to admit the same candidate
// never both succeed. Only the current leader can grant or release
// leases; followers return ErrNotLeader.
type RaftLocker struct {
	raft *raft.Raft
	fsm  *leaseFSM
}

// NewRaftLocker brings up a Raft node dedicated to the lease table and
// wraps it as a Locker. The wiring is a TCP transport, a file snapshot
// store, and a BoltDB-backed log and stable store.
func NewRaftLocker(cfg RaftConfig) (*RaftLocker, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("lock: create data dir: %w", err)
	}

	raftConfig := raft.DefaultConfig()
	raftConfig.LocalID = raft.ServerID(cfg.NodeID)

	addr, err := net.ResolveTCPAddr("tcp", cfg.BindAddr)
	if err != nil {
		return nil, fmt.Errorf("lock: resolve bind address: %w", err)
	}
	transport, err := raft.NewTCPTransport(cfg.BindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("lock: create transport: %w", err)
	}

	snapshotStore, err := raft.NewFileSnapshotStore(cfg.DataDir, 2, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("lock: create snapshot store: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "lock-raft-log.db"))
	if err != nil {
		return nil, fmt.Errorf("lock: create log store: %w", err)
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "lock-raft-stable.db"))
	if err != nil {
		return nil, fmt.Errorf("lock: create stable store: %w", err)
	}

	fsm := newLeaseFSM()
	r, err := raft.NewRaft(raftConfig, fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return nil, fmt.Errorf("lock: create raft: %w", err)
	}

	if cfg.Bootstrap {
		configuration := raft.Configuration{
			Servers: []raft.Server{
				{ID: raftConfig.LocalID, Address: transport.LocalAddr()},
			},
		}
		if err := r.BootstrapCluster(configuration).Error(); err != nil {
			return nil, fmt.Errorf("lock: bootstrap cluster: %w", err)
		}
	}

	return &RaftLocker{raft: r, fsm: fsm}, nil
}

// AddVoter adds another scheduler instance to the lease-table cluster.
// Must be called against the current leader.
func (l *RaftLocker) AddVoter(nodeID, addr string) error {
	return l.raft.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(addr), 0, 10*time.Second).Error()
}

// IsLeader reports whether this node currently services writes.
func (l *RaftLocker) IsLeader() bool {
	return l.raft.State() == raft.Leader
}

func (l *RaftLocker) TryLock(name, holder string) (Lock, error) {
	if !l.IsLeader() {
		return nil, ErrNotLeader
	}

	cmd, err := encodeLeaseCommand(leaseCommand{Op: "acquire", Name: name, Holder: holder})
	if err != nil {
		return nil, err
	}

	future := l.raft.Apply(cmd, 5*time.Second)
	if err := future.Error(); err != nil {
		return nil, fmt.Errorf("lock: apply acquire: %w", err)
	}
	if resp := future.Response(); resp != nil {
		if err, ok := resp.(error); ok {
			return nil, err
		}
	}

	return &raftLock{locker: l, name: name, holder: holder}, nil
}

func (l *RaftLocker) release(name, holder string) error {
	if !l.IsLeader() {
		return ErrNotLeader
	}
	cmd, err := encodeLeaseCommand(leaseCommand{Op: "release", Name: name, Holder: holder})
	if err != nil {
		return err
	}
	return l.raft.Apply(cmd, 5*time.Second).Error()
}

// Shutdown tears down the underlying Raft node.
func (l *RaftLocker) Shutdown() error {
	return l.raft.Shutdown().Error()
}

type raftLock struct {
	locker   *RaftLocker
	name     string
	holder   string
	released bool
}

func (r *raftLock) Name() string   { return r.name }
func (r *raftLock) Holder() string { return r.holder }

func (r *raftLock) Unlock() error {
	if r.released {
		return nil
	}
	r.released = true
	return r.locker.release(r.name, r.holder)
}
