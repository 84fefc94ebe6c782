package metrics

// Sink receives one record of iteration metrics per round. Update
// stages a record; Save makes everything staged so far durable. The
// controller calls Update then Save exactly once per round.
type Sink interface {
	Update(step map[string]int, values map[string]float64) error
	Save() error
	Close() error
}

// Record is one staged metrics entry.
type Record struct {
	Step   map[string]int     `json:"step"`
	Values map[string]float64 `json:"values"`
}
