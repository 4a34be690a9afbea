package graph

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"slices"
	"unsafe"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
)

const (
	magicBytes  = "NAVGRAPH"
	version     = uint32(1)
	maxVertices = 100_000
	maxEdges    = 1_000_000
	maxPoints   = 10_000_000
	maxNameLen  = 4096

	// readChunk bounds each allocation made while decoding, so a header
	// that overstates its counts fails on EOF before memory grows.
	readChunk = 1 << 16
)

// ErrBadSnapshot is returned when a graph snapshot fails validation.
var ErrBadSnapshot = errors.New("bad graph snapshot")

// fileHeader is the binary header.
type fileHeader struct {
	Magic       [8]byte
	Version     uint32
	NumVertices uint32
	NumEdges    uint32
	NumPoints   uint32
}

// WriteBinary stores the surveyed data behind g in a snapshot file. Only
// geodetic coordinates and names are written; ReadBinary rebuilds the
// tangential points and the connection matrix.
func WriteBinary(path string, g *Graph) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // clean up on error
	}()

	crcWriter := crc32Writer{w: f, hash: crc32.NewIEEE()}
	w := &crcWriter

	var numPoints int
	for i := range g.Edges {
		numPoints += len(g.Edges[i].Points)
	}

	hdr := fileHeader{
		Version:     version,
		NumVertices: uint32(len(g.Vertices)),
		NumEdges:    uint32(len(g.Edges)),
		NumPoints:   uint32(numPoints),
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	// Vertices.
	lat := make([]float64, 0, len(g.Vertices))
	lon := make([]float64, 0, len(g.Vertices))
	height := make([]float64, 0, len(g.Vertices))
	for i := range g.Vertices {
		v := &g.Vertices[i]
		if err := writeString(w, v.Name); err != nil {
			return fmt.Errorf("write vertex name %d: %w", i, err)
		}
		lat = append(lat, v.Point.Geodetic.Lat)
		lon = append(lon, v.Point.Geodetic.Lon)
		height = append(height, v.Point.Geodetic.Height)
	}
	if err := writeFloat64Slices(w, lat, lon, height); err != nil {
		return fmt.Errorf("write vertex coordinates: %w", err)
	}

	// Edges.
	counts := make([]uint32, 0, len(g.Edges))
	lat = make([]float64, 0, numPoints)
	lon = make([]float64, 0, numPoints)
	height = make([]float64, 0, numPoints)
	for i := range g.Edges {
		e := &g.Edges[i]
		if err := writeString(w, e.Name); err != nil {
			return fmt.Errorf("write edge name %d: %w", i, err)
		}
		counts = append(counts, uint32(len(e.Points)))
		for _, p := range e.Points {
			lat = append(lat, p.Geodetic.Lat)
			lon = append(lon, p.Geodetic.Lon)
			height = append(height, p.Geodetic.Height)
		}
	}
	if err := writeUint32Slice(w, counts); err != nil {
		return fmt.Errorf("write point counts: %w", err)
	}
	if err := writeFloat64Slices(w, lat, lon, height); err != nil {
		return fmt.Errorf("write edge coordinates: %w", err)
	}

	// Write CRC32 trailer.
	checksum := crcWriter.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Atomic rename.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

// ReadBinary loads a snapshot written by WriteBinary and rebuilds the graph
// in frame.
func ReadBinary(path string, frame *geo.Frame) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	edges, vertices, err := ReadSnapshot(f)
	if err != nil {
		return nil, err
	}
	return Build(frame, edges, vertices)
}

// ReadSnapshot decodes the raw map data of a snapshot without building it.
func ReadSnapshot(f io.Reader) ([]RawEdge, []RawVertex, error) {
	crcReader := crc32Reader{r: f, hash: crc32.NewIEEE()}
	r := &crcReader

	// Read and validate header.
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	if string(hdr.Magic[:]) != magicBytes {
		return nil, nil, fmt.Errorf("%w: invalid magic bytes %q", ErrBadSnapshot, hdr.Magic)
	}
	if hdr.Version != version {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, hdr.Version)
	}
	if hdr.NumVertices > maxVertices {
		return nil, nil, fmt.Errorf("%w: NumVertices %d exceeds limit %d", ErrBadSnapshot, hdr.NumVertices, maxVertices)
	}
	if hdr.NumEdges > maxEdges || hdr.NumPoints > maxPoints {
		return nil, nil, fmt.Errorf("%w: edge data exceeds limits", ErrBadSnapshot)
	}

	nv := int(hdr.NumVertices)
	vertices := make([]RawVertex, 0, min(nv, readChunk))
	for i := 0; i < nv; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, nil, fmt.Errorf("read vertex name %d: %w", i, err)
		}
		vertices = append(vertices, RawVertex{Name: name})
	}
	coords, err := readFloat64Slices(r, nv)
	if err != nil {
		return nil, nil, fmt.Errorf("read vertex coordinates: %w", err)
	}
	for i := range vertices {
		vertices[i].Point = geo.GeodeticPoint{Lat: coords[0][i], Lon: coords[1][i], Height: coords[2][i]}
	}

	ne := int(hdr.NumEdges)
	names := make([]string, 0, min(ne, readChunk))
	for i := 0; i < ne; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, nil, fmt.Errorf("read edge name %d: %w", i, err)
		}
		names = append(names, name)
	}
	counts, err := readColumn[uint32](r, ne)
	if err != nil {
		return nil, nil, fmt.Errorf("read point counts: %w", err)
	}
	var total uint64
	for _, c := range counts {
		total += uint64(c)
	}
	if total != uint64(hdr.NumPoints) {
		return nil, nil, fmt.Errorf("%w: point counts sum to %d, header says %d", ErrBadSnapshot, total, hdr.NumPoints)
	}
	coords, err = readFloat64Slices(r, int(hdr.NumPoints))
	if err != nil {
		return nil, nil, fmt.Errorf("read edge coordinates: %w", err)
	}

	edges := make([]RawEdge, ne)
	var off int
	for i := range edges {
		n := int(counts[i])
		pts := make([]geo.GeodeticPoint, n)
		for k := range pts {
			pts[k] = geo.GeodeticPoint{Lat: coords[0][off+k], Lon: coords[1][off+k], Height: coords[2][off+k]}
		}
		off += n
		edges[i] = RawEdge{Name: names[i], Points: pts}
	}

	// Read and validate CRC32.
	expectedCRC := crcReader.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, nil, fmt.Errorf("read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, nil, fmt.Errorf("%w: CRC32 mismatch: stored=%08x computed=%08x", ErrBadSnapshot, storedCRC, expectedCRC)
	}

	return edges, vertices, nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > maxNameLen {
		return fmt.Errorf("name longer than %d bytes", maxNameLen)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n > maxNameLen {
		return "", fmt.Errorf("%w: name length %d", ErrBadSnapshot, n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// Zero-copy I/O helpers using unsafe.Slice.

func writeUint32Slice(w io.Writer, s []uint32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeFloat64Slices(w io.Writer, ss ...[]float64) error {
	for _, s := range ss {
		if len(s) == 0 {
			continue
		}
		b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

// readColumn reads n little-endian values, growing the result one chunk at
// a time.
func readColumn[T uint32 | float64](r io.Reader, n int) ([]T, error) {
	var s []T
	for len(s) < n {
		k := min(n-len(s), readChunk)
		s = slices.Grow(s, k)
		chunk := s[len(s) : len(s)+k]
		b := unsafe.Slice((*byte)(unsafe.Pointer(&chunk[0])), k*int(unsafe.Sizeof(chunk[0])))
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
		s = s[:len(s)+k]
	}
	return s, nil
}

// readFloat64Slices reads latitude, longitude and height columns of n values.
func readFloat64Slices(r io.Reader, n int) ([3][]float64, error) {
	var out [3][]float64
	for c := range out {
		s, err := readColumn[float64](r, n)
		if err != nil {
			return out, err
		}
		out[c] = s
	}
	return out, nil
}

// CRC32 wrapping writers/readers.

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
