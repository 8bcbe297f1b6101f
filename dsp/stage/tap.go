package stage

// Tap forwards each block to an observer without modifying the signal. The
// chain mounts one ahead of the limiters so the compliance meter sees the
// program material before ceiling protection reshapes it.
type Tap struct {
	observe func(left, right []float64)
}

// NewTap creates a tap calling observe for every processed block. A nil
// observer yields a pass-through.
func NewTap(observe func(left, right []float64)) *Tap {
	return &Tap{observe: observe}
}

func (t *Tap) ProcessBlock(left, right []float64) {
	if t.observe != nil {
		t.observe(left, right)
	}
}

func (t *Tap) Reset() {}
