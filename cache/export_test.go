package cache

import "time"

func (x *MemoryStore) SetClock(now func() time.Time) {
	x.now = now
}
