// Package system provides the wall-clock Clock implementation.
package system

import "time"

// Clock returns the real current time in UTC.
type Clock struct{}

// Now reports the current UTC time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
