package feature

import "sync"

// MemoryRecorder keeps features in memory.
type MemoryRecorder struct {
	mu       sync.Mutex
	features []Feature
}

// NewMemoryRecorder returns an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record keeps a copy of f.
func (r *MemoryRecorder) Record(f Feature) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.features = append(r.features, f)
	return nil
}

// Features returns a copy of everything recorded so far.
func (r *MemoryRecorder) Features() []Feature {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Feature(nil), r.features...)
}

// ByKind returns the recorded features of one kind, in recording order.
func (r *MemoryRecorder) ByKind(kind string) []Feature {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Feature
	for _, f := range r.features {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// Values returns the values of one kind, in recording order.
func (r *MemoryRecorder) Values(kind string) []string {
	var out []string
	for _, f := range r.ByKind(kind) {
		out = append(out, f.Value)
	}
	return out
}
