package checkin

// ConsecutiveDays counts the immediately preceding consecutive days with an
// accepted check-in, walking backward one calendar day at a time from the day
// before the supplied key. The walk stops at the first unmarked day or at the
// start of representable history. Callers must invoke this BEFORE marking the
// submitted day so the count never includes the pending check-in itself.
func (e *Engine) ConsecutiveDays(user [20]byte, day uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if !ValidDayKey(day) {
		return 0, ErrInvalidDay
	}
	var streak uint64
	cursor := day
	for cursor >= DaySeconds {
		cursor -= DaySeconds
		marked, err := e.state.CheckinMarkGet(user, cursor)
		if err != nil {
			return 0, err
		}
		if !marked {
			break
		}
		streak++
	}
	return streak, nil
}
