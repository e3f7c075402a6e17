package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottle_CapsFrames(t *testing.T) {
	th := NewThrottle(1)

	assert.True(t, th.Ready(false), "first frame is always drawn")
	assert.False(t, th.Ready(false), "second frame within the same second is skipped")
	assert.True(t, th.Pending())
	assert.Greater(t, th.Delay(), time.Duration(0))
	assert.LessOrEqual(t, th.Delay(), time.Second)
}

func TestThrottle_FlushBypasses(t *testing.T) {
	th := NewThrottle(1)

	assert.True(t, th.Ready(false))
	assert.False(t, th.Ready(false))
	assert.True(t, th.Ready(true), "flush frames ignore the cap")
	assert.False(t, th.Pending(), "a drawn frame clears pending")
}

func TestThrottle_RecoversAfterDelay(t *testing.T) {
	th := NewThrottle(50)

	assert.True(t, th.Ready(false))
	assert.False(t, th.Ready(false))

	time.Sleep(th.Delay() + 5*time.Millisecond)
	assert.True(t, th.Ready(false))
}

func TestThrottle_Defaults(t *testing.T) {
	th := NewThrottle(0)
	assert.Equal(t, time.Duration(0), th.Delay())

	th.Ready(false)
	th.Ready(false)
	th.Reset()
	assert.False(t, th.Pending())
}
