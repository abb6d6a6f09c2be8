package checkin

import "testing"

func TestRewardForSchedule(t *testing.T) {
	params := Params{BaseDailyReward: 10, PerDayBonus: 5, MaxConsecutiveDays: 7}

	cases := []struct {
		name        string
		priorStreak uint64
		want        uint64
	}{
		{"no prior streak", 0, 10},
		{"one prior day", 1, 15},
		{"two prior days", 2, 20},
		{"at the cap", 7, 45},
		{"beyond the cap", 8, 45},
		{"far beyond the cap", 365, 45},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := params.RewardFor(tc.priorStreak); got != tc.want {
				t.Fatalf("RewardFor(%d) = %d, want %d", tc.priorStreak, got, tc.want)
			}
		})
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params must validate: %v", err)
	}
	invalid := []Params{
		{BaseDailyReward: 0, PerDayBonus: 5, MaxConsecutiveDays: 7},
		{BaseDailyReward: 10, PerDayBonus: 5, MaxConsecutiveDays: 0},
		{BaseDailyReward: 10, PerDayBonus: 5, MaxConsecutiveDays: 10_000},
	}
	for i, params := range invalid {
		if err := params.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, params)
		}
	}
}

func TestNormalizeDay(t *testing.T) {
	if got := NormalizeDay(0); got != 0 {
		t.Fatalf("NormalizeDay(0) = %d", got)
	}
	if got := NormalizeDay(-5); got != 0 {
		t.Fatalf("NormalizeDay(-5) = %d", got)
	}
	ts := int64(baseDay) + 12*3_600
	if got := NormalizeDay(ts); got != baseDay {
		t.Fatalf("NormalizeDay(%d) = %d, want %d", ts, got, baseDay)
	}
	if got := NormalizeDay(int64(baseDay)); got != baseDay {
		t.Fatalf("NormalizeDay at midnight = %d, want %d", got, baseDay)
	}
}
