package core

import (
	"math/big"
	"sync"

	"courseledger/core/events"
	"courseledger/core/state"
	"courseledger/native/checkin"
	"courseledger/native/courses"
	"courseledger/storage"
)

// Node owns the state manager and the native engines, and imposes the global
// serial order on state-mutating operations: every call runs to completion
// under one lock, so a submission either fully commits or fully fails with no
// partial write visible to any other caller.
type Node struct {
	mu sync.Mutex

	state   *state.Manager
	checkin *checkin.Engine
	courses *courses.Engine
}

// NewNode wires the engines against the supplied database and event emitter.
func NewNode(db storage.Database, emitter events.Emitter) *Node {
	manager := state.NewManager(db)

	checkinEngine := checkin.NewEngine()
	checkinEngine.SetState(manager)
	checkinEngine.SetEmitter(emitter)

	coursesEngine := courses.NewEngine()
	coursesEngine.SetState(manager)
	coursesEngine.SetEmitter(emitter)

	return &Node{
		state:   manager,
		checkin: checkinEngine,
		courses: coursesEngine,
	}
}

// CheckinEngine exposes the underlying engine for test and tooling overrides.
func (n *Node) CheckinEngine() *checkin.Engine { return n.checkin }

// CoursesEngine exposes the underlying engine for test and tooling overrides.
func (n *Node) CoursesEngine() *courses.Engine { return n.courses }

// Bootstrap installs the configured trusted authorizer and reward schedule
// when state carries neither. Re-running against an initialised database is a
// no-op so operator config never silently overrides administrative updates.
func (n *Node) Bootstrap(authorizer [20]byte, params checkin.Params) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok, err := n.checkin.Authorizer(); err != nil {
		return err
	} else if !ok && authorizer != ([20]byte{}) {
		if err := n.checkin.SetAuthorizer(authorizer); err != nil {
			return err
		}
	}
	configured, err := n.checkin.ParamsConfigured()
	if err != nil {
		return err
	}
	if configured {
		return nil
	}
	return n.checkin.SetParams(params)
}

// --- Check-in operations ---

// CheckinSubmit applies a daily check-in under the global operation order.
func (n *Node) CheckinSubmit(user [20]byte, day uint64, message string, signature []byte) (*checkin.CheckInRecord, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.checkin.CheckIn(user, day, message, signature)
}

// CheckinHistory returns the user's chronological check-in records.
func (n *Node) CheckinHistory(user [20]byte) ([]checkin.CheckInRecord, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.checkin.History(user)
}

// CheckinStatus returns the user's attendance summary for the current day.
func (n *Node) CheckinStatus(user [20]byte) (*checkin.Status, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.checkin.Status(user)
}

// CheckinParams returns the active reward schedule.
func (n *Node) CheckinParams() (checkin.Params, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.checkin.Params()
}

// CheckinSetParams installs a new reward schedule.
func (n *Node) CheckinSetParams(params checkin.Params) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.checkin.SetParams(params)
}

// CheckinAuthorizer returns the configured trusted authorizer.
func (n *Node) CheckinAuthorizer() ([20]byte, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.checkin.Authorizer()
}

// CheckinSetAuthorizer rotates the trusted authorizer.
func (n *Node) CheckinSetAuthorizer(authorizer [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.checkin.SetAuthorizer(authorizer)
}

// --- Course registry operations ---

// CoursesIssue registers a new course credential.
func (n *Node) CoursesIssue(creator [20]byte, title, description string, price, reward *big.Int, metadataURI string) (*courses.Course, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.courses.Issue(creator, title, description, price, reward, metadataURI)
}

// CoursesGet returns the course issued under the supplied identifier.
func (n *Node) CoursesGet(id uint64) (*courses.Course, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.courses.GetByID(id)
}

// CoursesByOwner returns the identifiers issued by the creator.
func (n *Node) CoursesByOwner(creator [20]byte) ([]uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.courses.GetByOwner(creator)
}

// CoursesCount returns the total number of issued courses.
func (n *Node) CoursesCount() (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.courses.Count()
}
