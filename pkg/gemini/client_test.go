package gemini

import (
	"net"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/jobtrail/jobtrail-cli/internal/resilience"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(t.Context(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestClassifyErr_QuotaExhausted(t *testing.T) {
	err := classifyErr(genai.APIError{Code: 429, Message: "quota exceeded for quota metric"})
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.False(t, resilience.IsTransient(err))
}

func TestClassifyErr_ServerErrorIsTransient(t *testing.T) {
	for _, code := range []int{500, 502, 503} {
		err := classifyErr(genai.APIError{Code: code, Message: "upstream"})
		assert.True(t, resilience.IsTransient(err), "code %d", code)
		assert.NotErrorIs(t, err, ErrQuotaExhausted)
	}
}

func TestClassifyErr_ClientErrorPassesThrough(t *testing.T) {
	orig := genai.APIError{Code: 400, Message: "invalid argument"}
	err := classifyErr(orig)
	assert.False(t, resilience.IsTransient(err))
	var apiErr genai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
}

func TestClassifyErr_NetworkTimeoutIsTransient(t *testing.T) {
	err := classifyErr(&net.DNSError{Err: "lookup timed out", IsTimeout: true})
	assert.True(t, resilience.IsTransient(err))
}

func TestClassifyErr_OtherErrorsUntouched(t *testing.T) {
	orig := eris.New("context canceled")
	assert.Equal(t, orig, classifyErr(orig))
}
