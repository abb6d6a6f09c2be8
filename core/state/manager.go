package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"courseledger/native/checkin"
	"courseledger/native/courses"
	"courseledger/storage"
)

// Manager mediates every state read and write against the backing key-value
// store. Values are RLP encoded; stored mirror structs keep the encoding to
// RLP-friendly field types (unsigned integers, strings, byte arrays).
type Manager struct {
	db storage.Database
}

// NewManager constructs a state manager over the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) kvPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) kvGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// --- Attendance ledger ---

// CheckinMarkGet reports whether the user already holds an accepted check-in
// for the supplied day key.
func (m *Manager) CheckinMarkGet(user [20]byte, day uint64) (bool, error) {
	var marked bool
	ok, err := m.kvGet(checkinMarkKey(user, day), &marked)
	if err != nil {
		return false, err
	}
	return ok && marked, nil
}

// CheckinMarkPut records the user's attendance for the supplied day key.
// Marks are monotonic: the ledger never stores false.
func (m *Manager) CheckinMarkPut(user [20]byte, day uint64) error {
	return m.kvPut(checkinMarkKey(user, day), true)
}

// --- Check-in records ---

type storedCheckInRecord struct {
	Timestamp  uint64
	Experience uint64
	Message    string
}

// CheckinRecordsAppend appends the record to the user's chronological log.
func (m *Manager) CheckinRecordsAppend(user [20]byte, record *checkin.CheckInRecord) error {
	if record == nil {
		return fmt.Errorf("state: check-in record required")
	}
	var stored []storedCheckInRecord
	if _, err := m.kvGet(checkinLogKey(user), &stored); err != nil {
		return err
	}
	entry := storedCheckInRecord{
		Experience: record.Experience,
		Message:    record.Message,
	}
	if record.Timestamp > 0 {
		entry.Timestamp = uint64(record.Timestamp)
	}
	stored = append(stored, entry)
	return m.kvPut(checkinLogKey(user), stored)
}

// CheckinRecordsList returns the user's check-in history in insertion order.
func (m *Manager) CheckinRecordsList(user [20]byte) ([]checkin.CheckInRecord, error) {
	var stored []storedCheckInRecord
	if _, err := m.kvGet(checkinLogKey(user), &stored); err != nil {
		return nil, err
	}
	records := make([]checkin.CheckInRecord, 0, len(stored))
	for _, entry := range stored {
		records = append(records, checkin.CheckInRecord{
			Timestamp:  int64(entry.Timestamp),
			Experience: entry.Experience,
			Message:    entry.Message,
		})
	}
	return records, nil
}

// --- Experience counter ---

// CheckinExperienceGet returns the user's cumulative experience.
func (m *Manager) CheckinExperienceGet(user [20]byte) (uint64, error) {
	var total uint64
	if _, err := m.kvGet(checkinXPKey(user), &total); err != nil {
		return 0, err
	}
	return total, nil
}

// CheckinExperienceAdd credits experience to the user and returns the new total.
func (m *Manager) CheckinExperienceAdd(user [20]byte, amount uint64) (uint64, error) {
	total, err := m.CheckinExperienceGet(user)
	if err != nil {
		return 0, err
	}
	total += amount
	if err := m.kvPut(checkinXPKey(user), total); err != nil {
		return 0, err
	}
	return total, nil
}

// --- Module configuration ---

// CheckinParamsGet loads the stored reward schedule, if one has been set.
func (m *Manager) CheckinParamsGet() (*checkin.Params, bool, error) {
	var params checkin.Params
	ok, err := m.kvGet(checkinParamsKey, &params)
	if err != nil || !ok {
		return nil, false, err
	}
	return &params, true, nil
}

// CheckinParamsPut stores the reward schedule.
func (m *Manager) CheckinParamsPut(params *checkin.Params) error {
	if params == nil {
		return fmt.Errorf("state: params required")
	}
	return m.kvPut(checkinParamsKey, params)
}

// CheckinAuthorizerGet loads the trusted authorizer address, if configured.
func (m *Manager) CheckinAuthorizerGet() ([20]byte, bool, error) {
	var authorizer [20]byte
	ok, err := m.kvGet(checkinAuthParams, &authorizer)
	if err != nil || !ok {
		return [20]byte{}, false, err
	}
	return authorizer, true, nil
}

// CheckinAuthorizerPut stores the trusted authorizer address.
func (m *Manager) CheckinAuthorizerPut(authorizer [20]byte) error {
	return m.kvPut(checkinAuthParams, authorizer)
}

// --- Course registry ---

type storedCourse struct {
	ID          uint64
	Creator     [20]byte
	Title       string
	Description string
	Price       *big.Int
	Reward      *big.Int
	MetadataURI string
	CreatedAt   uint64
}

// CourseNextID reserves and returns the next sequential course identifier.
func (m *Manager) CourseNextID() (uint64, error) {
	var seq uint64
	if _, err := m.kvGet(courseSequenceKey, &seq); err != nil {
		return 0, err
	}
	seq++
	if err := m.kvPut(courseSequenceKey, seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// CourseCount returns the number of issued courses.
func (m *Manager) CourseCount() (uint64, error) {
	var seq uint64
	if _, err := m.kvGet(courseSequenceKey, &seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// CourseGet loads the course stored under the supplied identifier.
func (m *Manager) CourseGet(id uint64) (*courses.Course, bool, error) {
	var stored storedCourse
	ok, err := m.kvGet(courseItemKey(id), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	course := &courses.Course{
		ID:          stored.ID,
		Creator:     stored.Creator,
		Title:       stored.Title,
		Description: stored.Description,
		Price:       stored.Price,
		Reward:      stored.Reward,
		MetadataURI: stored.MetadataURI,
		CreatedAt:   int64(stored.CreatedAt),
	}
	if course.Price == nil {
		course.Price = big.NewInt(0)
	}
	if course.Reward == nil {
		course.Reward = big.NewInt(0)
	}
	return course, true, nil
}

// CoursePut stores the course record under its identifier.
func (m *Manager) CoursePut(course *courses.Course) error {
	if course == nil {
		return fmt.Errorf("state: course required")
	}
	stored := storedCourse{
		ID:          course.ID,
		Creator:     course.Creator,
		Title:       course.Title,
		Description: course.Description,
		Price:       course.Price,
		Reward:      course.Reward,
		MetadataURI: course.MetadataURI,
	}
	if course.CreatedAt > 0 {
		stored.CreatedAt = uint64(course.CreatedAt)
	}
	return m.kvPut(courseItemKey(course.ID), &stored)
}

// CourseOwnerAppend adds the identifier to the creator's issuance index.
func (m *Manager) CourseOwnerAppend(creator [20]byte, id uint64) error {
	ids, err := m.CourseOwnerList(creator)
	if err != nil {
		return err
	}
	ids = append(ids, id)
	return m.kvPut(courseOwnerKey(creator), ids)
}

// CourseOwnerList returns the identifiers issued by the creator in order.
func (m *Manager) CourseOwnerList(creator [20]byte) ([]uint64, error) {
	var ids []uint64
	if _, err := m.kvGet(courseOwnerKey(creator), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
