package carver

// Stats summarizes one or more scanned pages.
type Stats struct {
	Bytes   int64             // page bytes walked by the cursor
	Carved  map[string]uint64 // matches per recognizer name
	Written uint64            // matches that reached the pcap output
}

func newStats() Stats {
	return Stats{Carved: make(map[string]uint64)}
}

// Add folds other into s.
func (s *Stats) Add(other Stats) {
	if s.Carved == nil {
		s.Carved = make(map[string]uint64)
	}
	s.Bytes += other.Bytes
	s.Written += other.Written
	for name, n := range other.Carved {
		s.Carved[name] += n
	}
}

// Total is the number of matches across all recognizers.
func (s Stats) Total() uint64 {
	var n uint64
	for _, c := range s.Carved {
		n += c
	}
	return n
}
