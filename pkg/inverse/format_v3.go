package inverse

import (
	"encoding/binary"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// v3 header: four little-endian int32 fields (numElectrodes,
// numSolPoints, numRegs, isScalar as 0/1), then numRegs regularization
// records (name length int32 + name bytes + float64 value), then the
// row-major float32 matrices concatenated by regularization index.

// ReadV3 parses the inverse-matrix v3 binary format into a Doc.
func ReadV3(r io.Reader) (*Doc, error) {
	var header [4]int32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("inverse: reading header: %w", err)
	}
	numElectrodes, numSolPoints, numRegs, isScalarFlag := header[0], header[1], header[2], header[3]
	if numElectrodes <= 0 || numSolPoints <= 0 || numRegs <= 0 || (isScalarFlag != 0 && isScalarFlag != 1) {
		return nil, fmt.Errorf("inverse: inconsistent header %v", header)
	}
	isScalar := isScalarFlag == 1

	regs := make([]Regularization, numRegs)
	for i := range regs {
		var nameLen int32
		if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
			return nil, fmt.Errorf("inverse: reading regularization %d name length: %w", i, err)
		}
		nameBytes := make([]byte, nameLen)
		if _, err := io.ReadFull(r, nameBytes); err != nil {
			return nil, fmt.Errorf("inverse: reading regularization %d name: %w", i, err)
		}
		var value float64
		if err := binary.Read(r, binary.LittleEndian, &value); err != nil {
			return nil, fmt.Errorf("inverse: reading regularization %d value: %w", i, err)
		}
		regs[i] = Regularization{Name: string(nameBytes), Value: value}
	}

	rows := int(numSolPoints)
	if !isScalar {
		rows = 3 * int(numSolPoints)
	}
	cols := int(numElectrodes)

	matrices := make([]*mat.Dense, numRegs)
	row32 := make([]float32, cols)
	for reg := range matrices {
		m := mat.NewDense(rows, cols, nil)
		for row := 0; row < rows; row++ {
			if err := binary.Read(r, binary.LittleEndian, row32); err != nil {
				return nil, fmt.Errorf("inverse: reading regularization %d row %d: %w", reg, row, err)
			}
			for col, v := range row32 {
				m.Set(row, col, float64(v))
			}
		}
		matrices[reg] = m
	}

	return New(int(numElectrodes), int(numSolPoints), isScalar, regs, matrices)
}

// WriteV3 serializes doc in the inverse-matrix v3 binary format. The
// core appends the body as it computes each regularization's matrix;
// WriteV3 writes the whole Doc at once since Doc already holds every
// matrix in memory.
func WriteV3(w io.Writer, doc *Doc) error {
	isScalarFlag := int32(0)
	if doc.IsScalar {
		isScalarFlag = 1
	}
	header := [4]int32{int32(doc.NumElectrodes), int32(doc.NumSolutionPoints), int32(len(doc.Regularizations)), isScalarFlag}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("inverse: writing header: %w", err)
	}

	for i, reg := range doc.Regularizations {
		nameBytes := []byte(reg.Name)
		if err := binary.Write(w, binary.LittleEndian, int32(len(nameBytes))); err != nil {
			return fmt.Errorf("inverse: writing regularization %d name length: %w", i, err)
		}
		if _, err := w.Write(nameBytes); err != nil {
			return fmt.Errorf("inverse: writing regularization %d name: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, reg.Value); err != nil {
			return fmt.Errorf("inverse: writing regularization %d value: %w", i, err)
		}
	}

	rows, cols := doc.NumSolutionPoints, doc.NumElectrodes
	if !doc.IsScalar {
		rows = 3 * doc.NumSolutionPoints
	}
	row32 := make([]float32, cols)
	for reg, m := range doc.matrices {
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				row32[col] = float32(m.At(row, col))
			}
			if err := binary.Write(w, binary.LittleEndian, row32); err != nil {
				return fmt.Errorf("inverse: writing regularization %d row %d: %w", reg, row, err)
			}
		}
	}
	return nil
}
