package audit

import "iter"

// DefaultMaxBytes is the audit store budget when none is configured.
const DefaultMaxBytes int64 = 10 << 20

// RetentionPolicy caps the audit store at MaxBytes with FIFO eviction.
type RetentionPolicy struct {
	MaxBytes int64
}

// Excess is how many bytes must be freed before a record of incoming bytes
// can be written to a store currently holding used bytes.
func (p RetentionPolicy) Excess(used, incoming int64) int64 {
	if over := used + incoming - p.MaxBytes; over > 0 {
		return over
	}
	return 0
}

// Evictions returns how many records, taken from oldest in order, have to be
// dropped to make room for incoming. A record larger than the whole budget
// evicts everything; it is still written.
func (p RetentionPolicy) Evictions(used, incoming int64, oldest iter.Seq[int64]) int {
	need := p.Excess(used, incoming)
	if need == 0 {
		return 0
	}
	n := 0
	for size := range oldest {
		n++
		need -= size
		if need <= 0 {
			break
		}
	}
	return n
}
