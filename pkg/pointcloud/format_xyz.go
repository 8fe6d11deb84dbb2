package pointcloud

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/esicore/esicore/pkg/numeric"
)

// XYZFile is the result of reading an XYZ point file: a header radius
// alongside the point cloud.
type XYZFile struct {
	Radius float64
	Cloud  *Cloud
}

// ReadXYZ parses the XYZ text format: line 1 is "<count> <radius>", then
// one "<x> <y> <z> <name>" line per point.
func ReadXYZ(r io.Reader) (*XYZFile, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil, fmt.Errorf("xyz: empty file: %w", io.ErrUnexpectedEOF)
	}
	header := strings.Fields(scanner.Text())
	if len(header) < 2 {
		return nil, fmt.Errorf("xyz: malformed header %q, expected \"<count> <radius>\"", scanner.Text())
	}
	count, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, fmt.Errorf("xyz: invalid count %q: %w", header[0], err)
	}
	radius, err := strconv.ParseFloat(header[1], 64)
	if err != nil {
		return nil, fmt.Errorf("xyz: invalid radius %q: %w", header[1], err)
	}

	cloud := New()
	row := 0
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("xyz: row %d has %d fields, expected at least 3", row, len(fields))
		}
		p, err := parseXYZ(fields)
		if err != nil {
			return nil, fmt.Errorf("xyz: row %d: %w", row, err)
		}
		name := ""
		if len(fields) >= 4 {
			name = fields[3]
		}
		cloud.Append(p, name)
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("xyz: %w", err)
	}
	if cloud.Len() != count {
		return nil, fmt.Errorf("xyz: header declares %d points but file has %d", count, cloud.Len())
	}
	return &XYZFile{Radius: radius, Cloud: cloud}, nil
}

// WriteXYZ serializes cloud in the XYZ format with the given header
// radius.
func WriteXYZ(w io.Writer, radius float64, cloud *Cloud) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %g\n", cloud.Len(), radius); err != nil {
		return fmt.Errorf("xyz: writing header: %w", err)
	}
	for i := 0; i < cloud.Len(); i++ {
		p := cloud.At(i)
		if _, err := fmt.Fprintf(bw, "%g %g %g %s\n", p.X, p.Y, p.Z, cloud.Name(i)); err != nil {
			return fmt.Errorf("xyz: writing row %d: %w", i, err)
		}
	}
	return bw.Flush()
}

func parseXYZ(fields []string) (numeric.Vec3, error) {
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return numeric.Vec3{}, fmt.Errorf("invalid x %q: %w", fields[0], err)
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return numeric.Vec3{}, fmt.Errorf("invalid y %q: %w", fields[1], err)
	}
	z, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return numeric.Vec3{}, fmt.Errorf("invalid z %q: %w", fields[2], err)
	}
	return numeric.Vec3{X: x, Y: y, Z: z}, nil
}
