package inventory

import "time"

// SetClock reemplaza el reloj del motor en los tests.
func (e *PostingEngine) SetClock(now func() time.Time) { e.now = now }
