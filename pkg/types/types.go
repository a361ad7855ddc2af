package types

// GroupType classifies the role a group currently plays.
type GroupType string

const (
	GroupTypeData       GroupType = "data"
	GroupTypeUncoupled  GroupType = "uncoupled"
	GroupTypeReserved   GroupType = "reserved"
	GroupTypeCache      GroupType = "cache"
)

// CacheNamespace is the namespace id reserved for cache groupsets; the
// move starter never migrates data out of it (nothing is gained from
// moving keys that are about to expire from cache).
const CacheNamespace = "storage_cache"

// Group is the smallest storage unit: a numeric id, a type, an
// optional backing node-backend, and an optional groupset membership.
type Group struct {
	ID          int
	Type        GroupType
	CoupleID    string // empty when the group belongs to no groupset
	NodeBackend *NodeBackend
	WantDefrag  bool
}

// NodeBackend is a single on-disk elliptics backend: one host, one
// filesystem, one directory.
type NodeBackend struct {
	Host      string
	Port      int
	Family    int
	BackendID int
	BasePath  string
	FSID      uint64
	Stat      NodeBackendStat
}

// FSKey identifies a filesystem; it is shared by potentially multiple
// node-backends on the same host.
func (nb *NodeBackend) FSKey() FSKey {
	return FSKey{Host: nb.Host, FSID: nb.FSID}
}

// NodeBackendStat carries the live statistics exposed by one backend.
type NodeBackendStat struct {
	TotalSpace       int64
	UsedSpace        int64
	VFSFreeSpace     int64
	MaxBlobBaseSize  int64
	Files            int64
	FilesRemoved     int64
	FilesRemovedSize int64
}

// FSKey identifies a filesystem by (host address, fsid).
type FSKey struct {
	Host string
	FSID uint64
}

// Host carries the datacenter tag resolved through the inventory tree
// and a flat per-resource capacity of 100 abstract units.
type Host struct {
	Addr     string
	DC       string
	Capacity int
}

// CoupleStatus is the lifecycle state of a groupset.
type CoupleStatus string

const (
	CoupleStatusInit      CoupleStatus = "init"
	CoupleStatusOK        CoupleStatus = "ok"
	CoupleStatusFull      CoupleStatus = "full"
	CoupleStatusBad       CoupleStatus = "bad"
	CoupleStatusBroken    CoupleStatus = "broken"
	CoupleStatusFrozen    CoupleStatus = "frozen"
	CoupleStatusMigrating CoupleStatus = "migrating"
)

// GoodStatuses is the GOOD_STATUSES subset: groupsets healthy enough to
// be considered for recovery, defragmentation, or migration.
var GoodStatuses = map[CoupleStatus]bool{
	CoupleStatusOK:   true,
	CoupleStatusFull: true,
}

// Good reports whether the status belongs to GOOD_STATUSES.
func (s CoupleStatus) Good() bool {
	return GoodStatuses[s]
}

// Groupset (a.k.a. couple) is an ordered set of groups that together
// store one replica class.
type Groupset struct {
	ID               string // canonical "gid0:gid1:...:gidN" form
	Groups           []int
	Status           CoupleStatus
	Namespace        string
	FilesRemovedSize int64
	KeysDiff         int64 // max(per-group key count) - min(per-group key count)
}

func (g *Groupset) String() string {
	return g.ID
}

// ResourceType is the scheduler's accounting vocabulary.
type ResourceType string

const (
	ResourceGroup   ResourceType = "group"
	ResourceHostIn  ResourceType = "host_in"
	ResourceHostOut ResourceType = "host_out"
	ResourceCPU     ResourceType = "cpu"
	ResourceFS      ResourceType = "fs"
)

// ResourceKey uniquely identifies one resource instance in the
// scheduler's utilisation table: a group id, a host address (for
// HOST_IN/HOST_OUT/CPU), or a (host, fsid) pair (for FS).
type ResourceKey struct {
	Type    ResourceType
	GroupID int
	Host    string
	FSID    uint64
}

func GroupResourceKey(gid int) ResourceKey {
	return ResourceKey{Type: ResourceGroup, GroupID: gid}
}

func HostResourceKey(rt ResourceType, host string) ResourceKey {
	return ResourceKey{Type: rt, Host: host}
}

func FSResourceKey(host string, fsid uint64) ResourceKey {
	return ResourceKey{Type: ResourceFS, Host: host, FSID: fsid}
}

// FSRef names one filesystem a job declares it will touch.
type FSRef struct {
	Host string
	FSID uint64
}

// ResourceDeclaration is the raw shape a job reports about itself,
// before the scheduler converts it into percent-of-capacity demand:
// host addresses for HOST_IN/HOST_OUT/CPU, (host,fsid) pairs for FS.
type ResourceDeclaration struct {
	HostIn  []string
	HostOut []string
	CPU     []string
	FS      []FSRef
}

// ReportedResources is the return value of a job type's static
// report_resources(params) function: the groups it will lock plus the
// host/fs resources it declares.
type ReportedResources struct {
	Groups    []int
	Resources ResourceDeclaration
}

// JobType names one of the four job families the scheduler admits.
type JobType string

const (
	JobTypeRecoverDC     JobType = "recover_dc"
	JobTypeCoupleDefrag  JobType = "couple_defrag"
	JobTypeMove          JobType = "move"
	JobTypeTTLCleanup    JobType = "ttl_cleanup"
	// JobTypeMDSCleanup is a subtask spawned by a ttl_cleanup job's
	// task graph, not a standalone starter (see SPEC_FULL.md's
	// supplemented features). It still needs a resource-reporter
	// entry so CreateJobs can compute its demand.
	JobTypeMDSCleanup JobType = "mds_cleanup"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	StatusNotApproved JobStatus = "not_approved"
	StatusNew         JobStatus = "new"
	StatusExecuting   JobStatus = "executing"
	StatusPending     JobStatus = "pending"
	StatusBroken      JobStatus = "broken"
	StatusCompleted   JobStatus = "completed"
	StatusCancelled   JobStatus = "cancelled"
)

// ActiveStatuses are the statuses under which a job still holds its
// declared resources.
var ActiveStatuses = []JobStatus{
	StatusNotApproved, StatusNew, StatusExecuting, StatusPending, StatusBroken,
}

// Active reports whether the job is still holding resources.
func (s JobStatus) Active() bool {
	for _, active := range ActiveStatuses {
		if s == active {
			return true
		}
	}
	return false
}

// Terminal reports whether the job has reached a final state.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Job is the unit admitted by the scheduler.
type Job struct {
	ID             string
	Type           JobType
	Status         JobStatus
	InvolvedGroups []int
	Resources      ResourceDeclaration
	Priority       int
	Params         map[string]any
	NeedApproving  bool
}

// HistoricRecord maps a groupset identity to the timestamps at which
// it was last recovered and last TTL-swept.
type HistoricRecord struct {
	CoupleID     string
	RecoverTS    int64
	TTLCleanupTS int64
}
