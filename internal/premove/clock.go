package premove

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/park285/debughouse/internal/bughouse"
)

// LowTimeDS is the remaining time, in deciseconds, under which a clock counts as low.
const LowTimeDS = 100

// Clock holds both sides' remaining time. Remaining is the value at since; the
// running side counts down from there until the next server update or switch.
type Clock struct {
	Remaining [2]int
	Running   bughouse.Side
	Active    bool
	since     time.Time
}

// ParseTimes parses "white,black" deciseconds.
func ParseTimes(v string) ([2]int, error) {
	var out [2]int
	parts := strings.Split(strings.TrimSpace(v), ",")
	if len(parts) != 2 {
		return out, fmt.Errorf("%w: times %q", bughouse.ErrMalformedUpdate, v)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return out, fmt.Errorf("%w: times %q", bughouse.ErrMalformedUpdate, v)
		}
		out[i] = n
	}
	return out, nil
}

// Set replaces both clocks with a server reading taken at at.
func (c *Clock) Set(times [2]int, at time.Time) {
	c.Remaining = times
	c.since = at
}

// Start makes side the running clock, charging the previous runner up to at.
func (c *Clock) Start(side bughouse.Side, at time.Time) {
	if c.Active {
		c.Remaining = c.At(at)
	}
	c.Running = side
	c.Active = true
	c.since = at
}

func (c *Clock) Stop(at time.Time) {
	if c.Active {
		c.Remaining = c.At(at)
	}
	c.Active = false
	c.since = at
}

// At returns both clocks as they read at the given instant, in deciseconds.
func (c *Clock) At(at time.Time) [2]int {
	out := c.Remaining
	if !c.Active || c.since.IsZero() || !at.After(c.since) {
		return out
	}
	left := out[c.Running] - int(at.Sub(c.since)/(100*time.Millisecond))
	if left < 0 {
		left = 0
	}
	out[c.Running] = left
	return out
}

// Low reports whether side is under the low-time threshold at the given instant.
func (c *Clock) Low(side bughouse.Side, at time.Time) bool { return c.At(at)[side] < LowTimeDS }
