package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"courseledger/native/checkin"
	"courseledger/native/courses"
	"courseledger/storage"
)

func newTestManager() *Manager {
	return NewManager(storage.NewMemDB())
}

func TestAttendanceMarksRoundtrip(t *testing.T) {
	manager := newTestManager()
	user := [20]byte{0x01}
	day := uint64(checkin.DaySeconds * 20_000)

	marked, err := manager.CheckinMarkGet(user, day)
	require.NoError(t, err)
	require.False(t, marked)

	require.NoError(t, manager.CheckinMarkPut(user, day))

	marked, err = manager.CheckinMarkGet(user, day)
	require.NoError(t, err)
	require.True(t, marked)

	// Neighbouring days and other users stay unmarked.
	marked, err = manager.CheckinMarkGet(user, day+checkin.DaySeconds)
	require.NoError(t, err)
	require.False(t, marked)

	other := [20]byte{0x02}
	marked, err = manager.CheckinMarkGet(other, day)
	require.NoError(t, err)
	require.False(t, marked)
}

func TestCheckinRecordsAppendPreservesOrder(t *testing.T) {
	manager := newTestManager()
	user := [20]byte{0x01}

	records, err := manager.CheckinRecordsList(user)
	require.NoError(t, err)
	require.Empty(t, records)

	first := &checkin.CheckInRecord{Timestamp: 1_700_000_000, Experience: 10, Message: "first"}
	second := &checkin.CheckInRecord{Timestamp: 1_700_086_400, Experience: 15, Message: "second"}
	require.NoError(t, manager.CheckinRecordsAppend(user, first))
	require.NoError(t, manager.CheckinRecordsAppend(user, second))

	records, err = manager.CheckinRecordsList(user)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, *first, records[0])
	require.Equal(t, *second, records[1])
}

func TestExperienceCounterAccumulates(t *testing.T) {
	manager := newTestManager()
	user := [20]byte{0x01}

	total, err := manager.CheckinExperienceGet(user)
	require.NoError(t, err)
	require.Zero(t, total)

	total, err = manager.CheckinExperienceAdd(user, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(10), total)

	total, err = manager.CheckinExperienceAdd(user, 15)
	require.NoError(t, err)
	require.Equal(t, uint64(25), total)

	total, err = manager.CheckinExperienceGet(user)
	require.NoError(t, err)
	require.Equal(t, uint64(25), total)
}

func TestModuleConfigRoundtrip(t *testing.T) {
	manager := newTestManager()

	_, ok, err := manager.CheckinParamsGet()
	require.NoError(t, err)
	require.False(t, ok)

	params := checkin.Params{BaseDailyReward: 20, PerDayBonus: 2, MaxConsecutiveDays: 14}
	require.NoError(t, manager.CheckinParamsPut(&params))

	loaded, ok, err := manager.CheckinParamsGet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, params, *loaded)

	_, ok, err = manager.CheckinAuthorizerGet()
	require.NoError(t, err)
	require.False(t, ok)

	authorizer := [20]byte{0xde, 0xad, 0xbe, 0xef}
	require.NoError(t, manager.CheckinAuthorizerPut(authorizer))

	stored, ok, err := manager.CheckinAuthorizerGet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, authorizer, stored)
}

func TestCourseStorageRoundtrip(t *testing.T) {
	manager := newTestManager()
	creator := [20]byte{0x0a}

	id, err := manager.CourseNextID()
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	course := &courses.Course{
		ID:          id,
		Creator:     creator,
		Title:       "Intro to Go",
		Description: "fundamentals",
		Price:       big.NewInt(100),
		Reward:      big.NewInt(25),
		MetadataURI: "ipfs://a",
		CreatedAt:   1_700_000_000,
	}
	require.NoError(t, manager.CoursePut(course))
	require.NoError(t, manager.CourseOwnerAppend(creator, id))

	loaded, ok, err := manager.CourseGet(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, course.Title, loaded.Title)
	require.Equal(t, course.Creator, loaded.Creator)
	require.Zero(t, course.Price.Cmp(loaded.Price))
	require.Zero(t, course.Reward.Cmp(loaded.Reward))
	require.Equal(t, course.CreatedAt, loaded.CreatedAt)

	_, ok, err = manager.CourseGet(42)
	require.NoError(t, err)
	require.False(t, ok)

	ids, err := manager.CourseOwnerList(creator)
	require.NoError(t, err)
	require.Equal(t, []uint64{id}, ids)

	count, err := manager.CourseCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	next, err := manager.CourseNextID()
	require.NoError(t, err)
	require.Equal(t, uint64(2), next)
}
