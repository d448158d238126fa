package cache

// Memory retains the best fitness ever backed up together with a snapshot of
// the state that produced it.
type Memory[S any] struct {
	fitness  float64
	solution S
	filled   bool
}

func NewMemory[S any]() *Memory[S] {
	return &Memory[S]{}
}

// Backup stores fitness and snapshot() when check is false, when the memory
// is empty, or when fitness exceeds the stored fitness. It reports whether the
// memory changed. snapshot is only called when the memory is updated.
func (m *Memory[S]) Backup(fitness float64, snapshot func() S, check bool) bool {
	if check && m.filled && fitness <= m.fitness {
		return false
	}
	m.fitness = fitness
	m.solution = snapshot()
	m.filled = true
	return true
}

func (m *Memory[S]) Fitness() (float64, bool) {
	return m.fitness, m.filled
}

func (m *Memory[S]) Solution() (S, bool) {
	return m.solution, m.filled
}

func (m *Memory[S]) Filled() bool {
	return m.filled
}

func (m *Memory[S]) Reset() {
	var zero S
	m.fitness = 0
	m.solution = zero
	m.filled = false
}

// Clone copies the memory, deep-copying the snapshot with copyS.
func (m *Memory[S]) Clone(copyS func(S) S) *Memory[S] {
	out := &Memory[S]{fitness: m.fitness, filled: m.filled}
	if m.filled {
		out.solution = copyS(m.solution)
	}
	return out
}

// Restore sets the memory content directly, e.g. when loading a checkpoint.
func (m *Memory[S]) Restore(fitness float64, solution S) {
	m.fitness = fitness
	m.solution = solution
	m.filled = true
}
