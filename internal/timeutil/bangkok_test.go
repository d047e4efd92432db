package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNowBangkokAndUTC_SameInstant(t *testing.T) {
	bkk, utc := NowBangkokAndUTC()
	assert.True(t, bkk.Equal(utc))
	_, offset := bkk.Zone()
	assert.Equal(t, 7*60*60, offset)
}

func TestDateBKK_CrossesMidnight(t *testing.T) {
	// 19:30 UTC is already the next day in Bangkok.
	utc := time.Date(2024, 1, 15, 19, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-16", DateBKK(utc))
}

func TestFormatBKKDisplay(t *testing.T) {
	assert.Equal(t, "15 Jan 2024 10:30", FormatBKKDisplay("2024-01-15T10:30:00+07:00"))
	assert.Equal(t, "15 Jan 2024", FormatBKKDisplay("2024-01-15"))
	assert.Equal(t, "", FormatBKKDisplay(""))
	// Legacy free-form values pass through.
	assert.Equal(t, "yesterday", FormatBKKDisplay("yesterday"))
}
