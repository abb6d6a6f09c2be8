package checkin

// DaySeconds is the fixed resolution of a calendar-day key.
const DaySeconds = 86_400

// CheckInRecord captures a single accepted daily check-in. Records are
// append-only and never mutated after creation.
type CheckInRecord struct {
	Timestamp  int64  `json:"timestamp"`
	Experience uint64 `json:"experience"`
	Message    string `json:"message"`
}

// Status summarises a user's attendance state as of the current calendar day.
type Status struct {
	Day        uint64 `json:"day"`
	CheckedIn  bool   `json:"checkedIn"`
	Streak     uint64 `json:"streak"`
	Experience uint64 `json:"experience"`
	Records    uint64 `json:"records"`
}

// NormalizeDay truncates a unix timestamp to the midnight-UTC day key.
func NormalizeDay(ts int64) uint64 {
	if ts <= 0 {
		return 0
	}
	return uint64(ts) / DaySeconds * DaySeconds
}

// ValidDayKey reports whether the supplied value is a well-formed day key.
func ValidDayKey(day uint64) bool {
	return day != 0 && day%DaySeconds == 0
}
