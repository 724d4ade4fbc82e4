package capture

import "time"

// SetClockForTest replaces the time source.
func (c *Capture) SetClockForTest(now func() time.Time) {
	c.now = now
}

// SetIDsForTest replaces the record id generator.
func (c *Capture) SetIDsForTest(next func() (string, error)) {
	c.newID = next
}

// SetUserForTest replaces the user lookup.
func (c *Capture) SetUserForTest(name string) {
	c.username = func() string { return name }
}
