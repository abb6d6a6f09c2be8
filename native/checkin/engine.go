package checkin

import (
	"encoding/hex"
	"time"

	"courseledger/core/events"
	coretypes "courseledger/core/types"
)

type engineState interface {
	CheckinMarkGet(user [20]byte, day uint64) (bool, error)
	CheckinMarkPut(user [20]byte, day uint64) error
	CheckinRecordsAppend(user [20]byte, record *CheckInRecord) error
	CheckinRecordsList(user [20]byte) ([]CheckInRecord, error)
	CheckinExperienceGet(user [20]byte) (uint64, error)
	CheckinExperienceAdd(user [20]byte, amount uint64) (uint64, error)
	CheckinParamsGet() (*Params, bool, error)
	CheckinParamsPut(params *Params) error
	CheckinAuthorizerGet() ([20]byte, bool, error)
	CheckinAuthorizerPut(authorizer [20]byte) error
}

// Engine wires the check-in orchestrator with persistence and event emission.
// It owns the four ordered admission checks, the streak computation, and the
// reward bookkeeping for every accepted daily check-in.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a check-in engine with default dependencies.
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

// SetNowFunc overrides the trusted time source used for deterministic testing.
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

// CheckIn processes a daily attendance submission. The day transitions from
// unclaimed to claimed exactly once; all admission checks run before any
// state is written so a rejected call leaves no trace.
func (e *Engine) CheckIn(user [20]byte, day uint64, message string, signature []byte) (*CheckInRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if !ValidDayKey(day) {
		return nil, ErrInvalidDay
	}
	marked, err := e.state.CheckinMarkGet(user, day)
	if err != nil {
		return nil, err
	}
	if marked {
		return nil, ErrDuplicateCheckIn
	}
	now := e.now()
	if day > NormalizeDay(now) {
		return nil, ErrFutureDate
	}
	authorizer, ok, err := e.state.CheckinAuthorizerGet()
	if err != nil {
		return nil, err
	}
	if !ok || authorizer == ([20]byte{}) {
		return nil, ErrAuthorizerUnset
	}
	if !VerifyAttestation(authorizer, user, day, message, signature) {
		return nil, ErrInvalidAuthorization
	}
	params, err := e.Params()
	if err != nil {
		return nil, err
	}
	priorStreak, err := e.ConsecutiveDays(user, day)
	if err != nil {
		return nil, err
	}
	reward := params.RewardFor(priorStreak)
	record := &CheckInRecord{
		Timestamp:  now,
		Experience: reward,
		Message:    message,
	}
	if err := e.state.CheckinRecordsAppend(user, record); err != nil {
		return nil, err
	}
	if err := e.state.CheckinMarkPut(user, day); err != nil {
		return nil, err
	}
	total, err := e.state.CheckinExperienceAdd(user, reward)
	if err != nil {
		return nil, err
	}
	e.emit(CheckInCompletedEvent(hexAddr(user), record.Timestamp, day, reward, message))
	e.emit(ExperienceGrantedEvent(hexAddr(user), reward, total, ExperienceReasonDailyCheckIn))
	return record, nil
}

// History returns the user's check-in records in chronological order.
func (e *Engine) History(user [20]byte) ([]CheckInRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.CheckinRecordsList(user)
}

// Experience returns the user's cumulative experience counter.
func (e *Engine) Experience(user [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.CheckinExperienceGet(user)
}

// Status reports the user's attendance state as of the current calendar day:
// whether today is already claimed, the streak ending at today, and the
// cumulative counters.
func (e *Engine) Status(user [20]byte) (*Status, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	day := NormalizeDay(e.now())
	checked, err := e.state.CheckinMarkGet(user, day)
	if err != nil {
		return nil, err
	}
	// Walking from the next day counts today itself when it is marked.
	streak, err := e.ConsecutiveDays(user, day+DaySeconds)
	if err != nil {
		return nil, err
	}
	experience, err := e.state.CheckinExperienceGet(user)
	if err != nil {
		return nil, err
	}
	records, err := e.state.CheckinRecordsList(user)
	if err != nil {
		return nil, err
	}
	return &Status{
		Day:        day,
		CheckedIn:  checked,
		Streak:     streak,
		Experience: experience,
		Records:    uint64(len(records)),
	}, nil
}

// Params resolves the active reward schedule, falling back to module defaults
// when no administrative override has been stored.
func (e *Engine) Params() (Params, error) {
	if e == nil || e.state == nil {
		return Params{}, errNilState
	}
	stored, ok, err := e.state.CheckinParamsGet()
	if err != nil {
		return Params{}, err
	}
	if !ok || stored == nil {
		return DefaultParams(), nil
	}
	return *stored, nil
}

// ParamsConfigured reports whether an explicit reward schedule is stored in
// state, as opposed to the module defaults being in effect.
func (e *Engine) ParamsConfigured() (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	_, ok, err := e.state.CheckinParamsGet()
	return ok, err
}

// SetParams installs a new reward schedule. Takes effect for subsequent
// check-ins only; historical records are untouched.
func (e *Engine) SetParams(params Params) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := params.Validate(); err != nil {
		return err
	}
	if err := e.state.CheckinParamsPut(&params); err != nil {
		return err
	}
	e.emit(ParamsUpdatedEvent(params))
	return nil
}

// Authorizer returns the configured trusted authorizer, if any.
func (e *Engine) Authorizer() ([20]byte, bool, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, false, errNilState
	}
	return e.state.CheckinAuthorizerGet()
}

// SetAuthorizer rotates the trusted authorizer identity.
func (e *Engine) SetAuthorizer(authorizer [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if authorizer == ([20]byte{}) {
		return ErrAuthorizerInvalid
	}
	if err := e.state.CheckinAuthorizerPut(authorizer); err != nil {
		return err
	}
	e.emit(AuthorizerRotatedEvent(hexAddr(authorizer)))
	return nil
}
