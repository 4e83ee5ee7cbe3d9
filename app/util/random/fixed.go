package random

// Fixed replays scripted values. When a script runs out the last value repeats; an empty
// script yields 0.99 for Float64 and 0 for IntN.
type Fixed struct {
	Floats []float64
	Ints   []int
}

func (f *Fixed) Float64() float64 {
	if len(f.Floats) == 0 {
		return 0.99
	}

	v := f.Floats[0]
	if len(f.Floats) > 1 {
		f.Floats = f.Floats[1:]
	}

	return v
}

func (f *Fixed) IntN(n int) int {
	if len(f.Ints) == 0 || n <= 0 {
		return 0
	}

	v := f.Ints[0]
	if len(f.Ints) > 1 {
		f.Ints = f.Ints[1:]
	}

	return v % n
}
