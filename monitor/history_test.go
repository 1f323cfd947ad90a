package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const ms = time.Millisecond

func BenchmarkAddResult(b *testing.B) {
	h := NewHistory(8)
	for i := 0; i < b.N; i++ {
		h.AddResult(time.Duration(i), false)
	}
}

func BenchmarkCompute(b *testing.B) {
	h := NewHistory(8)
	for i := 0; i < b.N; i++ {
		h.AddResult(time.Duration(i), false)
		h.Compute()
	}
}

func TestComputeEmpty(t *testing.T) {
	h := NewHistory(4)
	assert.Nil(t, h.Compute())
}

func TestComputeAllLost(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(4)
	h.AddResult(0, true)

	metrics := h.Compute()
	assert.EqualValues(1, metrics.ProbesSent)
	assert.EqualValues(1, metrics.ProbesLost)
	assert.EqualValues(0, metrics.Best)
	assert.EqualValues(0, metrics.Worst)
	assert.EqualValues(0, metrics.Median)
	assert.EqualValues(0, metrics.Mean)
	assert.EqualValues(0, metrics.StdDev)
}

func TestComputeMedian(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(5)
	h.AddResult(300*ms, false)
	h.AddResult(200*ms, false)
	h.AddResult(100*ms, false)
	h.AddResult(0, false)
	assert.EqualValues(150*ms, h.Compute().Median)

	h.AddResult(400*ms, false)
	assert.EqualValues(200*ms, h.Compute().Median)
}

func TestCompute(t *testing.T) {
	assert := assert.New(t)

	{ // populate with 5 entries
		h := NewHistory(8)
		h.AddResult(0, false)
		h.AddResult(100*ms, false)
		h.AddResult(100*ms, false)
		h.AddResult(0, true)
		h.AddResult(100*ms, false)

		assert.Equal(h.count, 5)
		assert.EqualValues(1, h.Compute().ProbesLost)
	}

	{
		// zero variance
		h := NewHistory(8)
		h.AddResult(100*ms, false)
		h.AddResult(100*ms, false)
		h.AddResult(0, true)

		metrics := h.Compute()
		assert.EqualValues(100*ms, metrics.Best)
		assert.EqualValues(100*ms, metrics.Worst)
		assert.EqualValues(100*ms, metrics.Mean)
		assert.EqualValues(100*ms, metrics.Median)
		assert.EqualValues(0, metrics.StdDev)
		assert.EqualValues(3, metrics.ProbesSent)
		assert.EqualValues(1, metrics.ProbesLost)

		// results getting worse
		h.AddResult(200*ms, false)
		h.AddResult(100*ms, false)
		h.AddResult(0, true)

		metrics = h.Compute()
		assert.EqualValues(100*ms, metrics.Best)
		assert.EqualValues(200*ms, metrics.Worst)
		assert.EqualValues(125*ms, metrics.Mean)
		assert.EqualValues(100*ms, metrics.Median)
		assert.EqualValues(43301270, metrics.StdDev)
		assert.EqualValues(6, metrics.ProbesSent)
		assert.EqualValues(2, metrics.ProbesLost)

		// finally something better
		h.AddResult(0, false)
		metrics = h.Compute()
		assert.EqualValues(0*ms, metrics.Best)
		assert.EqualValues(200*ms, metrics.Worst)
		assert.EqualValues(100*ms, metrics.Mean)
		assert.EqualValues(100*ms, metrics.Median)
		assert.EqualValues(63245553, metrics.StdDev)
		assert.EqualValues(7, metrics.ProbesSent)
		assert.EqualValues(2, metrics.ProbesLost)
	}
}

func TestHistoryCapacity(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(3)
	assert.Equal(h.count, 0)
	h.AddResult(1, false)
	h.AddResult(2, true)
	assert.Equal(h.count, 2)
	assert.Equal(h.position, 2)
	h.AddResult(1, false)
	assert.Equal(h.count, 3)
	assert.Equal(h.position, 0)

	h.AddResult(0, false)
	assert.Equal(h.count, 3)
	assert.Equal(h.position, 1)
	assert.EqualValues(1, h.Compute().ProbesLost)

	// overwrite lost probe result
	h.AddResult(0, false)
	assert.EqualValues(0, h.Compute().ProbesLost)

	// clear
	h.ComputeAndClear()
	assert.Equal(h.count, 0)
	assert.Equal(h.position, 0)
}
