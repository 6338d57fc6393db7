package services

import (
	"strings"
	"time"
)

// Layouts accepted for one end of an availability window. Input is
// upper-cased and has its whitespace collapsed before parsing.
var windowTimeLayouts = []string{"15:04", "3:04 PM", "3:04PM", "3 PM", "3PM"}

var windowSeparators = strings.NewReplacer(" to ", "-", " TO ", "-", " To ", "-", "–", "-", "—", "-")

// TimeWindow is a daily availability window in minutes after midnight.
// Start may be greater than End for windows that span midnight.
type TimeWindow struct {
	Start int
	End   int
}

// Contains reports whether the minute-of-day t falls inside the window,
// both ends inclusive.
func (w TimeWindow) Contains(t int) bool {
	if w.Start <= w.End {
		return w.Start <= t && t <= w.End
	}
	return t >= w.Start || t <= w.End
}

// ParseTimeWindow parses texts such as "09:00-18:00", "10 AM to 6 PM" or
// "10pm–6am". ok is false when the text is empty or cannot be parsed.
func ParseTimeWindow(raw string) (TimeWindow, bool) {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		return TimeWindow{}, false
	}
	normalized = windowSeparators.Replace(normalized)

	parts := strings.SplitN(normalized, "-", 2)
	if len(parts) != 2 {
		return TimeWindow{}, false
	}
	start, ok := parseWindowTime(parts[0])
	if !ok {
		return TimeWindow{}, false
	}
	end, ok := parseWindowTime(parts[1])
	if !ok {
		return TimeWindow{}, false
	}
	return TimeWindow{Start: start, End: end}, true
}

func parseWindowTime(raw string) (int, bool) {
	value := strings.Join(strings.Fields(strings.ToUpper(raw)), " ")
	if value == "" {
		return 0, false
	}
	for _, layout := range windowTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return minuteOfDay(t), true
		}
	}
	return 0, false
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// checkAvailability applies the service's declared day and time rules to a
// requested local datetime.
func checkAvailability(availableTime string, days []string, requested time.Time) error {
	if len(days) > 0 {
		wd := strings.ToLower(requested.Weekday().String()[:3])
		found := false
		for _, d := range days {
			if d == wd {
				found = true
				break
			}
		}
		if !found {
			return ErrUnavailableDay
		}
	}

	if strings.TrimSpace(availableTime) == "" {
		return nil
	}
	window, ok := ParseTimeWindow(availableTime)
	if !ok {
		return ErrUnavailableTime
	}
	if !window.Contains(minuteOfDay(requested)) {
		return ErrUnavailableTime
	}
	return nil
}
