package plivostream

// DTMFCollector accumulates detected digits so IVR-style input ("4217#")
// can be consumed as a whole sequence instead of digit by digit.
// Feed it from a dtmf callback; it runs on the receive-loop goroutine.
type DTMFCollector struct{ digits []byte }

// NewDTMFCollector creates a new DTMFCollector instance.
func NewDTMFCollector() *DTMFCollector { return &DTMFCollector{} }

// OnDTMF appends the event's digit. When the digit equals terminator, the
// collected sequence (terminator excluded) is returned with ok=true and the
// collector resets.
func (c *DTMFCollector) OnDTMF(e DTMFEvent, terminator string) (seq string, ok bool) {
	if e.DTMF.Digit == terminator {
		seq = string(c.digits)
		c.digits = nil
		return seq, true
	}
	c.digits = append(c.digits, e.DTMF.Digit...)
	return "", false
}

// Digits returns the sequence collected so far.
func (c *DTMFCollector) Digits() string { return string(c.digits) }

// Reset discards the collected sequence.
func (c *DTMFCollector) Reset() { c.digits = nil }
