package chromosome

import (
	"fmt"

	"genera/internal/model"
)

// Encode converts a built-in chromosome kind into its persistent record.
func Encode(c Chromosome) (model.ChromosomeRecord, error) {
	switch v := c.(type) {
	case *Binary:
		return model.ChromosomeRecord{Kind: KindBinary, Bits: append([]uint8(nil), v.Genes...)}, nil
	case *Natural:
		return model.ChromosomeRecord{Kind: KindNatural, Ints: append([]int(nil), v.Genes...), UB: v.UB}, nil
	case *Permutation:
		return model.ChromosomeRecord{Kind: KindPermutation, Ints: append([]int(nil), v.Genes...)}, nil
	case *Float:
		return model.ChromosomeRecord{Kind: KindFloat, Floats: v.Values(), Sigma: v.Sigma}, nil
	case *UnitFloat:
		return model.ChromosomeRecord{Kind: KindUnitFloat, Floats: v.Values(), Sigma: v.Sigma}, nil
	case *Probability:
		return model.ChromosomeRecord{Kind: KindProbability, Floats: v.Values(), Sigma: v.Sigma}, nil
	case *Circle:
		return model.ChromosomeRecord{Kind: KindCircle, Floats: v.Values(), Period: v.Period, Sigma: v.Sigma}, nil
	case *Matrix:
		rows, cols := v.Dims()
		return model.ChromosomeRecord{Kind: KindMatrix, Floats: v.Values(), Rows: rows, Cols: cols, Sigma: v.Sigma}, nil
	default:
		return model.ChromosomeRecord{}, fmt.Errorf("encode %s: %w", c.Kind(), ErrNotImplemented)
	}
}

// Restore rebuilds a chromosome from its record.
func Restore(rec model.ChromosomeRecord) (Chromosome, error) {
	switch rec.Kind {
	case KindBinary:
		return NewBinary(rec.Bits...), nil
	case KindNatural:
		return NewNatural(rec.UB, rec.Ints...), nil
	case KindPermutation:
		return NewPermutation(rec.Ints...), nil
	case KindFloat:
		return NewFloat(rec.Sigma, rec.Floats...), nil
	case KindUnitFloat:
		return NewUnitFloat(rec.Sigma, rec.Floats...), nil
	case KindProbability:
		return NewProbability(rec.Sigma, rec.Floats...), nil
	case KindCircle:
		return NewCircle(rec.Period, rec.Sigma, rec.Floats...), nil
	case KindMatrix:
		if rec.Rows <= 0 || rec.Cols <= 0 || rec.Rows*rec.Cols != len(rec.Floats) {
			return nil, fmt.Errorf("restore %s: shape %dx%d does not match %d values", KindMatrix, rec.Rows, rec.Cols, len(rec.Floats))
		}
		return NewMatrix(rec.Rows, rec.Cols, rec.Sigma, rec.Floats), nil
	default:
		return nil, fmt.Errorf("restore %s: %w", rec.Kind, ErrTypeNotFound)
	}
}
