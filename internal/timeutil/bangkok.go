package timeutil

import (
	"time"
)

// BangkokTZ is the fixed +07:00 zone used for all operator-facing bookkeeping.
var BangkokTZ = time.FixedZone("Asia/Bangkok", 7*60*60)

// NowBangkok returns the current wall-clock time in Bangkok.
func NowBangkok() time.Time {
	return time.Now().In(BangkokTZ)
}

// NowBangkokAndUTC returns the same instant in Bangkok and UTC.
func NowBangkokAndUTC() (time.Time, time.Time) {
	bkk := NowBangkok()
	return bkk, bkk.UTC()
}

// DateBKK formats the Bangkok calendar date as YYYY-MM-DD.
func DateBKK(t time.Time) string {
	return t.In(BangkokTZ).Format("2006-01-02")
}

// FormatBKKDisplay renders an ISO timestamp (or bare date) for the approver UI.
// Unparseable input is passed through untouched so legacy rows still render.
func FormatBKKDisplay(value string) string {
	if value == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			if layout == "2006-01-02" {
				return t.Format("02 Jan 2006")
			}
			return t.In(BangkokTZ).Format("02 Jan 2006 15:04")
		}
	}
	return value
}
