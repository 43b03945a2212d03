package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestDebouncer_SingleTrigger(t *testing.T) {
	rec := &recorder{}
	d := New(20*time.Millisecond, rec.record)

	assert.True(t, d.Trigger("nhà"))
	assert.True(t, d.Pending())

	assert.Eventually(t, func() bool { return len(rec.got()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"nhà"}, rec.got())
	assert.False(t, d.Pending())
}

func TestDebouncer_TrailingValueWins(t *testing.T) {
	rec := &recorder{}
	d := New(40*time.Millisecond, rec.record)

	for _, v := range []string{"n", "nh", "nhà", "nhà g"} {
		d.Trigger(v)
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return len(rec.got()) > 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []string{"nhà g"}, rec.got())
}

func TestDebouncer_Cancel(t *testing.T) {
	var calls atomic.Int32
	d := New(20*time.Millisecond, func(string) { calls.Add(1) })

	d.Trigger("x")
	d.Cancel()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_Flush(t *testing.T) {
	rec := &recorder{}
	d := New(time.Hour, rec.record)

	assert.False(t, d.Flush(), "nothing pending")

	d.Trigger("tắt đèn")
	assert.True(t, d.Flush())
	assert.Equal(t, []string{"tắt đèn"}, rec.got())
	assert.False(t, d.Pending())
}

func TestDebouncer_ZeroDelayIsSynchronous(t *testing.T) {
	rec := &recorder{}
	d := New(0, rec.record)

	d.Trigger("a")
	d.Trigger("b")

	assert.Equal(t, []string{"a", "b"}, rec.got())
	assert.False(t, d.Pending())
}

func TestDebouncer_Stop(t *testing.T) {
	rec := &recorder{}
	d := New(10*time.Millisecond, rec.record)

	d.Trigger("pending")
	d.Stop()

	assert.False(t, d.Trigger("after stop"))
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, rec.got())
}

func TestDebouncer_ReplacedTimerNeverFires(t *testing.T) {
	// Replace the value right as the first timer expires; only one delivery may happen.
	var calls atomic.Int32
	var last atomic.Value
	d := New(time.Millisecond, func(v int) {
		calls.Add(1)
		last.Store(v)
	})

	for i := range 200 {
		d.Trigger(i)
	}

	assert.Eventually(t, func() bool { return !d.Pending() }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), int32(200))
	assert.Equal(t, 199, last.Load())
}
