package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lendcore/lendcore/pkg/clock"
	tf "github.com/lendcore/lendcore/pkg/testhelpers/testflags"
)

func TestMockClock(t *testing.T) {
	tf.UnitTest(t)

	c := clock.NewMock(1000)
	assert.Equal(t, uint64(1000), c.Unix())

	c.AdvanceSeconds(61)
	assert.Equal(t, uint64(1061), c.Unix())

	c.SetUnix(5)
	assert.Equal(t, uint64(5), c.Unix())
}

func TestSystemClock(t *testing.T) {
	tf.UnitTest(t)

	before := uint64(time.Now().Unix())
	got := clock.NewSystemClock().Unix()
	after := uint64(time.Now().Unix())
	assert.True(t, got >= before && got <= after)
}
