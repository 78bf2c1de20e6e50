package stores

import (
	"fmt"
	"time"
)

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	t := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testOptions() []Option {
	return []Option{WithClock(stepClock()), WithIDGenerator(seqIDs())}
}
