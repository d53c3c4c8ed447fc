// Package fragment implements the on-disk encoding of canonical tables.
//
// A fragment is a single immutable blob holding the full column data for a
// slice of a dataset. The layout is a fixed header (magic, format version,
// compression codec) followed by a compressed payload: column count, row
// count, then per column its name, its type in canonical textual form and
// its value block. The encoding is self-describing; decoding needs no
// schema from the caller.
package fragment

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/vectab/columnar"
)

var magic = [4]byte{'V', 'T', 'F', 'R'}

const formatVersion = 1

// ErrCorrupt is wrapped by decode failures caused by malformed input.
var ErrCorrupt = errors.New("corrupt fragment")

// Encode serializes a table into a fragment blob.
func Encode(tbl *columnar.Table, compression Compression) ([]byte, error) {
	var payload bytes.Buffer
	writeUint32(&payload, uint32(tbl.NumColumns()))
	writeUint64(&payload, uint64(tbl.NumRows()))

	for i := 0; i < tbl.NumColumns(); i++ {
		col := tbl.Column(i)
		writeString(&payload, col.Name())
		writeString(&payload, col.Type().String())
		if err := writeColumn(&payload, col); err != nil {
			return nil, fmt.Errorf("fragment: column %q: %w", col.Name(), err)
		}
	}

	compressed, err := compress(compression, payload.Bytes())
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(compressed)+6)
	out = append(out, magic[:]...)
	out = append(out, formatVersion, byte(compression))
	return append(out, compressed...), nil
}

// Decode deserializes a fragment blob back into a table.
func Decode(data []byte) (*columnar.Table, error) {
	if len(data) < 6 || !bytes.Equal(data[:4], magic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if data[4] != formatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrCorrupt, data[4])
	}
	payload, err := decompress(Compression(data[5]), data[6:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	r := bytes.NewReader(payload)
	numCols, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	numRows, err := readUint64(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	cols := make([]*columnar.Column, 0, numCols)
	for i := uint32(0); i < numCols; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		typeStr, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		typ, err := columnar.ParseDataType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		col, err := readColumn(r, name, typ, int(numRows))
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %v", ErrCorrupt, name, err)
		}
		cols = append(cols, col)
	}
	return columnar.NewTable(cols...)
}

func writeColumn(buf *bytes.Buffer, col *columnar.Column) error {
	typ := col.Type()
	switch typ.ID() {
	case columnar.TypeList:
		offsets := col.Offsets()
		if err := binary.Write(buf, binary.LittleEndian, offsets); err != nil {
			return err
		}
		return writeValues(buf, col.Values(), int(offsets[len(offsets)-1]))
	case columnar.TypeFixedSizeList:
		// Only float32 embeddings are stored as fixed-size lists; anything
		// an earlier layer let through must fail here, at write time, not
		// when the fragment is read back.
		if typ.Elem().ID() != columnar.TypeFloat32 {
			return fmt.Errorf("fixed-size list of %s is not supported", typ.Elem())
		}
		writeUint32(buf, uint32(typ.Width()))
		return writeValues(buf, col.Values(), col.Len()*typ.Width())
	default:
		return writeValues(buf, col.Values(), col.Len())
	}
}

func writeValues(buf *bytes.Buffer, values any, n int) error {
	switch v := values.(type) {
	case []int64:
		return binary.Write(buf, binary.LittleEndian, v[:n])
	case []float32:
		return binary.Write(buf, binary.LittleEndian, v[:n])
	case []float64:
		return binary.Write(buf, binary.LittleEndian, v[:n])
	case []bool:
		b := make([]byte, n)
		for i, x := range v[:n] {
			if x {
				b[i] = 1
			}
		}
		_, err := buf.Write(b)
		return err
	case []string:
		for _, s := range v[:n] {
			writeString(buf, s)
		}
		return nil
	default:
		return fmt.Errorf("unsupported backing slice %T", values)
	}
}

func readColumn(r *bytes.Reader, name string, typ columnar.DataType, rows int) (*columnar.Column, error) {
	switch typ.ID() {
	case columnar.TypeList:
		offsets := make([]int32, rows+1)
		if err := binary.Read(r, binary.LittleEndian, offsets); err != nil {
			return nil, err
		}
		total := int(offsets[rows])
		values, err := readValues(r, typ.Elem(), total)
		if err != nil {
			return nil, err
		}
		return assembleList(name, typ.Elem(), values, offsets)
	case columnar.TypeFixedSizeList:
		width, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		if int(width) != typ.Width() {
			return nil, fmt.Errorf("width %d does not match type %s", width, typ)
		}
		values, err := readValues(r, typ.Elem(), rows*int(width))
		if err != nil {
			return nil, err
		}
		f32, ok := values.([]float32)
		if !ok {
			return nil, fmt.Errorf("fixed-size list of %s is not supported", typ.Elem())
		}
		return columnar.NewFixedSizeListColumn(name, int(width), f32)
	default:
		values, err := readValues(r, typ, rows)
		if err != nil {
			return nil, err
		}
		return columnar.NewColumn(name, values)
	}
}

// assembleList rebuilds a variable-length list column from flattened
// values and offsets by re-slicing into per-row chunks.
func assembleList(name string, elem columnar.DataType, values any, offsets []int32) (*columnar.Column, error) {
	rows := len(offsets) - 1
	switch v := values.(type) {
	case []float32:
		chunks := make([][]float32, rows)
		for i := 0; i < rows; i++ {
			chunks[i] = v[offsets[i]:offsets[i+1]]
		}
		return columnar.NewColumn(name, chunks)
	case []float64:
		chunks := make([][]float64, rows)
		for i := 0; i < rows; i++ {
			chunks[i] = v[offsets[i]:offsets[i+1]]
		}
		return columnar.NewColumn(name, chunks)
	case []int64:
		chunks := make([][]int64, rows)
		for i := 0; i < rows; i++ {
			chunks[i] = v[offsets[i]:offsets[i+1]]
		}
		return columnar.NewColumn(name, chunks)
	case []string:
		chunks := make([][]string, rows)
		for i := 0; i < rows; i++ {
			chunks[i] = v[offsets[i]:offsets[i+1]]
		}
		return columnar.NewColumn(name, chunks)
	case []bool:
		chunks := make([][]bool, rows)
		for i := 0; i < rows; i++ {
			chunks[i] = v[offsets[i]:offsets[i+1]]
		}
		return columnar.NewColumn(name, chunks)
	default:
		return nil, fmt.Errorf("list of %s is not supported", elem)
	}
}

func readValues(r *bytes.Reader, typ columnar.DataType, n int) (any, error) {
	switch typ.ID() {
	case columnar.TypeInt64:
		out := make([]int64, n)
		if err := binary.Read(r, binary.LittleEndian, out); err != nil {
			return nil, err
		}
		return out, nil
	case columnar.TypeFloat32:
		out := make([]float32, n)
		if err := binary.Read(r, binary.LittleEndian, out); err != nil {
			return nil, err
		}
		return out, nil
	case columnar.TypeFloat64:
		out := make([]float64, n)
		if err := binary.Read(r, binary.LittleEndian, out); err != nil {
			return nil, err
		}
		return out, nil
	case columnar.TypeBool:
		b := make([]byte, n)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
		out := make([]bool, n)
		for i, x := range b {
			out[i] = x != 0
		}
		return out, nil
	case columnar.TypeString:
		out := make([]string, n)
		for i := 0; i < n; i++ {
			s, err := readString(r)
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", typ)
	}
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], uint64(len(s)))
	buf.Write(b[:n])
	buf.WriteString(s)
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	if n > math.MaxInt32 || int64(n) > int64(r.Len()) {
		return "", fmt.Errorf("string length %d exceeds remaining payload", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
