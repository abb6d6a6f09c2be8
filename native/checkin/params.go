package checkin

import "fmt"

const (
	// DefaultBaseDailyReward is the experience granted for any accepted check-in.
	DefaultBaseDailyReward = 10
	// DefaultPerDayBonus is the extra experience granted per prior consecutive day.
	DefaultPerDayBonus = 5
	// DefaultMaxConsecutiveDays caps how many prior days count toward the bonus.
	DefaultMaxConsecutiveDays = 7

	// maxBonusDays bounds administrative updates so the bonus product cannot
	// overflow uint64 arithmetic for any realistic per-day bonus.
	maxBonusDays = 3_650
)

// Params holds the reward schedule applied to accepted check-ins. Values live
// in state and are mutable only through the administrative interface.
type Params struct {
	BaseDailyReward    uint64
	PerDayBonus        uint64
	MaxConsecutiveDays uint64
}

// DefaultParams returns the module defaults applied at genesis.
func DefaultParams() Params {
	return Params{
		BaseDailyReward:    DefaultBaseDailyReward,
		PerDayBonus:        DefaultPerDayBonus,
		MaxConsecutiveDays: DefaultMaxConsecutiveDays,
	}
}

// Validate rejects schedules that would produce degenerate or overflowing rewards.
func (p Params) Validate() error {
	if p.BaseDailyReward == 0 {
		return fmt.Errorf("%w: base daily reward must be positive", ErrParamsInvalid)
	}
	if p.MaxConsecutiveDays == 0 {
		return fmt.Errorf("%w: max consecutive days must be positive", ErrParamsInvalid)
	}
	if p.MaxConsecutiveDays > maxBonusDays {
		return fmt.Errorf("%w: max consecutive days exceeds %d", ErrParamsInvalid, maxBonusDays)
	}
	if p.PerDayBonus > 0 && p.MaxConsecutiveDays > (1<<32)/p.PerDayBonus {
		return fmt.Errorf("%w: bonus schedule overflows", ErrParamsInvalid)
	}
	return nil
}

// RewardFor converts a prior consecutive-day streak into the experience grant
// for the day being processed. A streak of zero earns the base reward only;
// otherwise each prior day adds the per-day bonus up to the configured cap.
func (p Params) RewardFor(priorStreak uint64) uint64 {
	reward := p.BaseDailyReward
	if priorStreak == 0 {
		return reward
	}
	counted := priorStreak
	if counted > p.MaxConsecutiveDays {
		counted = p.MaxConsecutiveDays
	}
	return reward + counted*p.PerDayBonus
}
