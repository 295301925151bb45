package tokencache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheRoundTripIgnoresAddressCase(t *testing.T) {
	c := New(time.Hour)

	_, ok := c.Get("0xAbC")
	assert.False(t, ok)

	c.Set("0xAbC", "tok")
	token, ok := c.Get("0xabc")
	assert.True(t, ok)
	assert.Equal(t, "tok", token)

	c.Delete("0XABC")
	_, ok = c.Get("0xAbC")
	assert.False(t, ok)
}

func TestCacheExpires(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.Set("0xabc", "tok")

	assert.Eventually(t, func() bool {
		_, ok := c.Get("0xabc")
		return !ok
	}, time.Second, 5*time.Millisecond)
}
