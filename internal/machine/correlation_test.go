package machine

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var idPattern = regexp.MustCompile(`^[a-z]-[0-9a-f]{8}$`)

func TestNewID_Format(t *testing.T) {
	assert.Regexp(t, idPattern, NewID("t-"))
	assert.Regexp(t, idPattern, NewID("d-"))
	assert.NotEqual(t, NewID("t-"), NewID("t-"))
}

func TestBuildCorrelationHeaders_GeneratesMissing(t *testing.T) {
	headers, meta := BuildCorrelationHeaders("", "", "")

	assert.Regexp(t, `^t-[0-9a-f]{8}$`, meta.TraceID)
	assert.Regexp(t, `^r-[0-9a-f]{8}$`, meta.RequestID)
	assert.Regexp(t, `^s-[0-9a-f]{8}$`, meta.SaleID)

	assert.Equal(t, meta.TraceID, headers.Get("X-Trace-Id"))
	assert.Equal(t, meta.RequestID, headers.Get("X-Request-Id"))
	assert.Equal(t, meta.SaleID, headers.Get("X-Sale-Id"))
	assert.Equal(t, CallerService, headers.Get("X-Caller-Service"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
}

func TestBuildCorrelationHeaders_KeepsProvidedIDs(t *testing.T) {
	// The withdrawal request id doubles as the sale id so machine logs can be
	// matched to the request record.
	headers, meta := BuildCorrelationHeaders("req123", "t-aaaaaaaa", "")

	assert.Equal(t, "req123", meta.SaleID)
	assert.Equal(t, "t-aaaaaaaa", meta.TraceID)
	assert.Equal(t, "req123", headers.Get("X-Sale-Id"))
	assert.Regexp(t, `^r-[0-9a-f]{8}$`, meta.RequestID)
}
