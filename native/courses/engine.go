package courses

import (
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"time"

	"courseledger/core/events"
	coretypes "courseledger/core/types"
)

var (
	// ErrCourseNotFound marks lookups for identifiers that were never issued.
	ErrCourseNotFound = errors.New("courses: course not found")
	// ErrTitleRequired marks issuance requests without a title.
	ErrTitleRequired = errors.New("courses: title required")
	// ErrAmountNegative marks issuance requests with negative pricing metadata.
	ErrAmountNegative = errors.New("courses: price and reward must not be negative")

	errNilState = errors.New("courses engine: state not configured")
)

type engineState interface {
	CourseNextID() (uint64, error)
	CourseGet(id uint64) (*Course, bool, error)
	CoursePut(course *Course) error
	CourseOwnerAppend(creator [20]byte, id uint64) error
	CourseOwnerList(creator [20]byte) ([]uint64, error)
	CourseCount() (uint64, error)
}

// Engine wires course credential issuance with persistence and event emission.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a courses engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *coretypes.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func sanitizeAmount(v *big.Int) (*big.Int, error) {
	if v == nil {
		return big.NewInt(0), nil
	}
	if v.Sign() < 0 {
		return nil, ErrAmountNegative
	}
	return new(big.Int).Set(v), nil
}

// Issue registers a new course credential under the creator's ownership and
// returns the issued record.
func (e *Engine) Issue(creator [20]byte, title string, description string, price *big.Int, reward *big.Int, metadataURI string) (*Course, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" {
		return nil, ErrTitleRequired
	}
	sanitizedPrice, err := sanitizeAmount(price)
	if err != nil {
		return nil, err
	}
	sanitizedReward, err := sanitizeAmount(reward)
	if err != nil {
		return nil, err
	}
	id, err := e.state.CourseNextID()
	if err != nil {
		return nil, err
	}
	course := &Course{
		ID:          id,
		Creator:     creator,
		Title:       trimmedTitle,
		Description: strings.TrimSpace(description),
		Price:       sanitizedPrice,
		Reward:      sanitizedReward,
		MetadataURI: strings.TrimSpace(metadataURI),
		CreatedAt:   e.now(),
	}
	if err := e.state.CoursePut(course); err != nil {
		return nil, err
	}
	if err := e.state.CourseOwnerAppend(creator, id); err != nil {
		return nil, err
	}
	e.emit(CourseIssuedEvent(course.ID, hexAddr(creator), course.Title, course.Price.String(), course.Reward.String()))
	return course.Clone(), nil
}

// GetByID returns the course issued under the supplied identifier.
func (e *Engine) GetByID(id uint64) (*Course, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	course, ok, err := e.state.CourseGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || course == nil {
		return nil, ErrCourseNotFound
	}
	return course.Clone(), nil
}

// GetByOwner returns the identifiers of every course issued by the creator,
// in issuance order.
func (e *Engine) GetByOwner(creator [20]byte) ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.CourseOwnerList(creator)
}

// Count returns the total number of issued courses.
func (e *Engine) Count() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.CourseCount()
}
