package pointcloud

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadSPI parses the SPI/SPIRR solution-point text format: one
// "<x> <y> <z> <name>" line per point, with no header.
func ReadSPI(r io.Reader) (*Cloud, error) {
	scanner := bufio.NewScanner(r)
	cloud := New()
	row := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("spi: row %d has %d fields, expected at least 3", row, len(fields))
		}
		p, err := parseXYZ(fields)
		if err != nil {
			return nil, fmt.Errorf("spi: row %d: %w", row, err)
		}
		name := ""
		if len(fields) >= 4 {
			name = fields[3]
		}
		cloud.Append(p, name)
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("spi: %w", err)
	}
	return cloud, nil
}

// WriteSPI serializes cloud in the SPI/SPIRR format.
func WriteSPI(w io.Writer, cloud *Cloud) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < cloud.Len(); i++ {
		p := cloud.At(i)
		if _, err := fmt.Fprintf(bw, "%g %g %g %s\n", p.X, p.Y, p.Z, cloud.Name(i)); err != nil {
			return fmt.Errorf("spi: writing row %d: %w", i, err)
		}
	}
	return bw.Flush()
}
