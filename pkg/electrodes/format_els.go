package electrodes

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/esicore/esicore/pkg/numeric"
)

const elsMagic = "ES01"

var clusterTypeName = map[ClusterType]string{
	ClusterPoint: "point",
	ClusterLine:  "line",
	ClusterGrid:  "grid",
	Cluster3D:    "3d",
}

var clusterTypeByName = map[string]ClusterType{
	"point": ClusterPoint,
	"line":  ClusterLine,
	"grid":  ClusterGrid,
	"3d":    Cluster3D,
}

// ReadELS parses the ELS electrode-set text format: a magic line, a
// total point count, a cluster count, then per cluster a name line, a
// "<count> <type>" line, and that many point lines ("<x> <y> <z>"
// optionally followed by a name).
//
// ReadELS returns the flat names/points/clusters triple Build expects;
// it does not itself run auto-orientation or projection.
func ReadELS(r io.Reader) (names []string, points []numeric.Vec3, clusters []Cluster, err error) {
	scanner := bufio.NewScanner(r)
	line := func(what string) (string, error) {
		if !scanner.Scan() {
			if serr := scanner.Err(); serr != nil {
				return "", fmt.Errorf("els: reading %s: %w", what, serr)
			}
			return "", fmt.Errorf("els: reading %s: %w", what, io.ErrUnexpectedEOF)
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	magic, err := line("magic")
	if err != nil {
		return nil, nil, nil, err
	}
	if magic != elsMagic {
		return nil, nil, nil, fmt.Errorf("els: bad magic %q, expected %q", magic, elsMagic)
	}

	totalLine, err := line("total count")
	if err != nil {
		return nil, nil, nil, err
	}
	total, err := strconv.Atoi(totalLine)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("els: invalid total count %q: %w", totalLine, err)
	}

	clusterCountLine, err := line("cluster count")
	if err != nil {
		return nil, nil, nil, err
	}
	numClusters, err := strconv.Atoi(clusterCountLine)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("els: invalid cluster count %q: %w", clusterCountLine, err)
	}

	names = make([]string, 0, total)
	points = make([]numeric.Vec3, 0, total)
	clusters = make([]Cluster, 0, numClusters)

	for c := 0; c < numClusters; c++ {
		clusterName, err := line(fmt.Sprintf("cluster %d name", c))
		if err != nil {
			return nil, nil, nil, err
		}
		meta, err := line(fmt.Sprintf("cluster %d header", c))
		if err != nil {
			return nil, nil, nil, err
		}
		fields := strings.Fields(meta)
		if len(fields) < 2 {
			return nil, nil, nil, fmt.Errorf("els: cluster %d header %q, expected \"<count> <type>\"", c, meta)
		}
		count, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, nil, nil, fmt.Errorf("els: cluster %d invalid count %q: %w", c, fields[0], err)
		}
		ctype, ok := clusterTypeByName[strings.ToLower(fields[1])]
		if !ok {
			return nil, nil, nil, fmt.Errorf("els: cluster %d unknown type %q", c, fields[1])
		}

		indices := make([]int, 0, count)
		for i := 0; i < count; i++ {
			pointLine, err := line(fmt.Sprintf("cluster %d point %d", c, i))
			if err != nil {
				return nil, nil, nil, err
			}
			pf := strings.Fields(pointLine)
			if len(pf) < 3 {
				return nil, nil, nil, fmt.Errorf("els: cluster %d point %d has %d fields, expected at least 3", c, i, len(pf))
			}
			x, errX := strconv.ParseFloat(pf[0], 64)
			y, errY := strconv.ParseFloat(pf[1], 64)
			z, errZ := strconv.ParseFloat(pf[2], 64)
			if errX != nil || errY != nil || errZ != nil {
				return nil, nil, nil, fmt.Errorf("els: cluster %d point %d: invalid coordinates", c, i)
			}
			pointName := ""
			if len(pf) >= 4 {
				pointName = pf[3]
			}
			indices = append(indices, len(points))
			points = append(points, numeric.Vec3{X: x, Y: y, Z: z})
			names = append(names, pointName)
		}

		clusters = append(clusters, Cluster{Name: clusterName, Type: ctype, Indices: indices})
	}

	if len(points) != total {
		return nil, nil, nil, fmt.Errorf("els: header declares %d points but clusters contain %d", total, len(points))
	}
	return names, points, clusters, nil
}

// WriteELS serializes a flat names/points/clusters triple in the ELS
// format. Cluster.Indices must index into points/names in the order
// the cluster's points should appear in the file.
func WriteELS(w io.Writer, names []string, points []numeric.Vec3, clusters []Cluster) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\n%d\n%d\n", elsMagic, len(points), len(clusters)); err != nil {
		return fmt.Errorf("els: writing header: %w", err)
	}
	for _, cl := range clusters {
		typeName, ok := clusterTypeName[cl.Type]
		if !ok {
			return fmt.Errorf("els: cluster %q has unknown type %d", cl.Name, cl.Type)
		}
		if _, err := fmt.Fprintf(bw, "%s\n%d %s\n", cl.Name, len(cl.Indices), typeName); err != nil {
			return fmt.Errorf("els: writing cluster %q header: %w", cl.Name, err)
		}
		for _, idx := range cl.Indices {
			p := points[idx]
			if _, err := fmt.Fprintf(bw, "%g %g %g %s\n", p.X, p.Y, p.Z, names[idx]); err != nil {
				return fmt.Errorf("els: writing cluster %q point: %w", cl.Name, err)
			}
		}
	}
	return bw.Flush()
}
