package pointcloud

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/esicore/esicore/pkg/numeric"
)

const locMagic int32 = 1

// ReadLOC parses the LOC binary point format: a little-endian int32
// magic (=1), a little-endian int32 count, then count float64 (x, y,
// z) triples. LOC stores coordinates in meters; ReadLOC scales them by
// 1000 so the returned cloud is in the same millimeter units as every
// other point format.
func ReadLOC(r io.Reader) (*Cloud, error) {
	var magic int32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("loc: reading magic: %w", err)
	}
	if magic != locMagic {
		return nil, fmt.Errorf("loc: bad magic %d, expected %d", magic, locMagic)
	}
	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("loc: reading count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("loc: negative count %d", count)
	}

	cloud := New()
	for i := int32(0); i < count; i++ {
		var xyz [3]float64
		if err := binary.Read(r, binary.LittleEndian, &xyz); err != nil {
			return nil, fmt.Errorf("loc: reading point %d: %w", i, err)
		}
		cloud.Append(numeric.Vec3{X: xyz[0] * 1000, Y: xyz[1] * 1000, Z: xyz[2] * 1000}, "")
	}
	return cloud, nil
}

// WriteLOC serializes cloud in the LOC binary format, converting from
// the package's millimeter convention back to meters.
func WriteLOC(w io.Writer, cloud *Cloud) error {
	if err := binary.Write(w, binary.LittleEndian, locMagic); err != nil {
		return fmt.Errorf("loc: writing magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, int32(cloud.Len())); err != nil {
		return fmt.Errorf("loc: writing count: %w", err)
	}
	for i := 0; i < cloud.Len(); i++ {
		p := cloud.At(i)
		xyz := [3]float64{p.X / 1000, p.Y / 1000, p.Z / 1000}
		if err := binary.Write(w, binary.LittleEndian, xyz); err != nil {
			return fmt.Errorf("loc: writing point %d: %w", i, err)
		}
	}
	return nil
}
