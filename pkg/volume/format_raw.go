package volume

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/esicore/esicore/pkg/numeric"
)

// rawMagic tags the minimal binary volume format this package round-trips:
// a byte-level framing good enough for a core-only CLI, not a NIfTI reader.
const rawMagic = "ESIV"

// ReadRaw parses the minimal raw volume format: an 4-byte magic, then
// d1,d2,d3 (int32), voxel size and origin (3x float64 each), background
// (float64), and d1*d2*d3 float64 samples in i-slowest, k-fastest order.
func ReadRaw(r io.Reader) (*Volume, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("volume: reading magic: %w", err)
	}
	if string(magic[:]) != rawMagic {
		return nil, fmt.Errorf("volume: bad magic %q, expected %q", magic, rawMagic)
	}

	var dims [3]int32
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return nil, fmt.Errorf("volume: reading dims: %w", err)
	}
	d1, d2, d3 := int(dims[0]), int(dims[1]), int(dims[2])
	if d1 <= 0 || d2 <= 0 || d3 <= 0 {
		return nil, fmt.Errorf("volume: non-positive dims %v", dims)
	}

	var voxelSize, origin [3]float64
	var background float64
	if err := binary.Read(r, binary.LittleEndian, &voxelSize); err != nil {
		return nil, fmt.Errorf("volume: reading voxel size: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &origin); err != nil {
		return nil, fmt.Errorf("volume: reading origin: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &background); err != nil {
		return nil, fmt.Errorf("volume: reading background: %w", err)
	}

	v := New(d1, d2, d3, numeric.Vec3{X: voxelSize[0], Y: voxelSize[1], Z: voxelSize[2]})
	v.Origin = numeric.Vec3{X: origin[0], Y: origin[1], Z: origin[2]}
	v.Background = background

	if err := binary.Read(r, binary.LittleEndian, v.Data.Data()); err != nil {
		return nil, fmt.Errorf("volume: reading samples: %w", err)
	}
	return v, nil
}

// WriteRaw writes v in the format ReadRaw parses.
func WriteRaw(w io.Writer, v *Volume) error {
	if _, err := w.Write([]byte(rawMagic)); err != nil {
		return fmt.Errorf("volume: writing magic: %w", err)
	}
	d1, d2, d3 := v.Dims()
	dims := [3]int32{int32(d1), int32(d2), int32(d3)}
	if err := binary.Write(w, binary.LittleEndian, dims); err != nil {
		return fmt.Errorf("volume: writing dims: %w", err)
	}
	voxelSize := [3]float64{v.VoxelSize.X, v.VoxelSize.Y, v.VoxelSize.Z}
	if err := binary.Write(w, binary.LittleEndian, voxelSize); err != nil {
		return fmt.Errorf("volume: writing voxel size: %w", err)
	}
	origin := [3]float64{v.Origin.X, v.Origin.Y, v.Origin.Z}
	if err := binary.Write(w, binary.LittleEndian, origin); err != nil {
		return fmt.Errorf("volume: writing origin: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, v.Background); err != nil {
		return fmt.Errorf("volume: writing background: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, v.Data.Data()); err != nil {
		return fmt.Errorf("volume: writing samples: %w", err)
	}
	return nil
}
