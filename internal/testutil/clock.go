package testutil

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"lh-go/internal/codec"
	"lh-go/internal/lh"
)

// CaptureUnix is the capture time of every revision saved under FixedClock,
// 2019-10-29 15:40:32 UTC.
const CaptureUnix int64 = 1572363632

// ArchiveName returns the archive file name of a revision saved under FixedClock.
func ArchiveName(fileName, label string) string {
	return codec.Encode(strconv.FormatInt(CaptureUnix, 10), fileName, label)
}

// StubClock returns a fixed time. Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStubClock creates a StubClock set to the given time.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to CaptureUnix.
func FixedClock() *StubClock {
	return NewStubClock(time.Unix(CaptureUnix, 0))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// NextCapture moves the clock to the next whole second, the smallest step that
// gives the following save its own archive name.
func (c *StubClock) NextCapture() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Truncate(time.Second).Add(time.Second)
}

// UnixText returns the current time as it appears in archive file names.
func (c *StubClock) UnixText() string {
	return strconv.FormatInt(c.Now().Unix(), 10)
}

// StubIDGenerator returns sequential journal event IDs: "event-1", "event-2", etc.
type StubIDGenerator struct {
	mu      sync.Mutex
	counter int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("event-%d", g.counter)
}

var (
	_ lh.Clock       = (*StubClock)(nil)
	_ lh.IDGenerator = (*StubIDGenerator)(nil)
)
