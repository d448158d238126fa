package chromosome

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"genera/internal/rng"
)

const KindMatrix = "matrix"

// Matrix is a real rows×cols matrix of genes.
type Matrix struct {
	M     *mat.Dense
	Sigma float64
}

func NewMatrix(rows, cols int, sigma float64, data []float64) *Matrix {
	return &Matrix{M: mat.NewDense(rows, cols, append([]float64(nil), data...)), Sigma: sigma}
}

func (c *Matrix) Kind() string { return KindMatrix }

func (c *Matrix) Len() int {
	r, cols := c.M.Dims()
	return r * cols
}

func (c *Matrix) Dims() (int, int) { return c.M.Dims() }

// Cross recombines quadrants around an independent row cut k and column cut
// l: the top-left and bottom-right blocks come from c, the other two from
// other.
func (c *Matrix) Cross(other Chromosome, r rng.Source) (Chromosome, error) {
	o, ok := other.(*Matrix)
	if !ok {
		return nil, fmt.Errorf("%w: matrix vs %s", ErrIncompatible, other.Kind())
	}
	rows, cols := c.M.Dims()
	if or, oc := o.M.Dims(); or != rows || oc != cols {
		return nil, fmt.Errorf("%w: shape %dx%d vs %dx%d", ErrIncompatible, rows, cols, or, oc)
	}
	k, l := rows, cols
	if rows >= 2 {
		k = cutPoint(r, rows)
	}
	if cols >= 2 {
		l = cutPoint(r, cols)
	}
	return c.CrossAt(o, k, l), nil
}

func (c *Matrix) CrossAt(other *Matrix, k, l int) *Matrix {
	rows, cols := c.M.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			src := c.M
			if (i < k) != (j < l) {
				src = other.M
			}
			out.Set(i, j, src.At(i, j))
		}
	}
	return &Matrix{M: out, Sigma: c.Sigma}
}

func (c *Matrix) Mutate(indepProb float64, r rng.Source) {
	rows, cols := c.M.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if rng.Bernoulli(r, indepProb) {
				c.M.Set(i, j, c.M.At(i, j)+rng.Normal(r, 0, c.Sigma))
			}
		}
	}
}

func (c *Matrix) RandomNeighbour(r rng.Source) Chromosome {
	out := c.Clone().(*Matrix)
	out.Mutate(1, r)
	return out
}

// Values returns the genes in row-major order.
func (c *Matrix) Values() []float64 {
	rows, cols := c.M.Dims()
	out := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		out = append(out, c.M.RawRowView(i)...)
	}
	return out
}

func (c *Matrix) SetValues(v []float64) {
	rows, cols := c.M.Dims()
	c.M = mat.NewDense(rows, cols, append([]float64(nil), v...))
}

func (c *Matrix) Decode() any {
	return mat.DenseCopyOf(c.M)
}

func (c *Matrix) Clone() Chromosome {
	return &Matrix{M: mat.DenseCopyOf(c.M), Sigma: c.Sigma}
}

func (c *Matrix) String() string {
	return fmt.Sprintf("%v", mat.Formatted(c.M, mat.Squeeze()))
}

type MatrixType struct {
	Rows  int
	Cols  int
	Sigma float64
}

func (t MatrixType) Kind() string     { return KindMatrix }
func (t MatrixType) DefaultSize() int { return t.Rows * t.Cols }

// Random ignores size unless the configured shape is empty, in which case a
// single row of size genes is built.
func (t MatrixType) Random(size int, r rng.Source) (Chromosome, error) {
	rows, cols := t.Rows, t.Cols
	if rows <= 0 || cols <= 0 {
		n, err := resolveSize(size, 0)
		if err != nil {
			return nil, fmt.Errorf("random %s: %w", KindMatrix, err)
		}
		rows, cols = 1, n
	}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = r.Float64()
	}
	return &Matrix{M: mat.NewDense(rows, cols, data), Sigma: sigmaOr(t.Sigma, MatrixSigma)}, nil
}
