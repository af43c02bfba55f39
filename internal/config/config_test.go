package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-reservation/internal/model"
)

func TestParseTables(t *testing.T) {
	tables, err := ParseTables(" 1:2, 2:4 ,,5:6")
	require.NoError(t, err)
	assert.Equal(t, []model.Table{
		{Number: 1, Capacity: 2},
		{Number: 2, Capacity: 4},
		{Number: 5, Capacity: 6},
	}, tables)

	empty, err := ParseTables("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParseTablesRejectsMalformed(t *testing.T) {
	for _, in := range []string{"1", "a:2", "1:b", "0:2", "1:0", "1:-4", "1:2,1:4"} {
		_, err := ParseTables(in)
		assert.Error(t, err, in)
	}
}

func TestEngineConfigDefaults(t *testing.T) {
	for _, k := range []string{"SERVICE_DURATION", "NO_SHOW_GRACE", "EARLY_CHECK_IN", "PER_GUEST_RATE", "SUBSCRIBER_DISCOUNT_PCT", "MAX_PARTY_SIZE"} {
		t.Setenv(k, "")
	}
	c := LoadEngineConfig()
	assert.Equal(t, 2*time.Hour, c.ServiceDuration)
	assert.Equal(t, 15*time.Minute, c.NoShowGrace)
	assert.Equal(t, 15*time.Minute, c.EarlyCheckIn)
	assert.Equal(t, "25", c.PerGuestRate.String())
	assert.Equal(t, 10, c.SubscriberDiscountPct)
	assert.Equal(t, 12, c.MaxPartySize)
}

func TestEngineConfigFromEnv(t *testing.T) {
	t.Setenv("SERVICE_DURATION", "90m")
	t.Setenv("PER_GUEST_RATE", "19.99")
	t.Setenv("SUBSCRIBER_DISCOUNT_PCT", "15")
	t.Setenv("SUGGESTION_PROBES", "not-a-number")
	c := LoadEngineConfig()
	assert.Equal(t, 90*time.Minute, c.ServiceDuration)
	assert.Equal(t, "19.99", c.PerGuestRate.String())
	assert.Equal(t, 15, c.SubscriberDiscountPct)
	assert.Equal(t, 4, c.SuggestionProbes, "unparsable values fall back to the default")
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "on")
	t.Setenv("X_DUR", "bogus")
	assert.True(t, envBool("X_BOOL", false))
	assert.True(t, envBool("X_UNSET_BOOL", true))
	assert.Equal(t, time.Second, envDur("X_DUR", time.Second))
	assert.Equal(t, "fallback", envStr("X_UNSET_STR", "fallback"))
}

func TestRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 10*time.Second, c.TTL, "ttl covers at least five refills")
}
