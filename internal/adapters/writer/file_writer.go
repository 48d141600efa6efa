package writer

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghalamif/catalink/internal/domain"
	"github.com/ghalamif/catalink/internal/ports"
)

const (
	FormatPartitioned = "vtpd"
	FormatImage       = "vti"

	recordHeaderLen = 12
)

var (
	ErrUnsupportedFormat = errors.New("writer: unsupported format")
	ErrEmptyDataset      = errors.New("writer: dataset is empty")
	ErrFormatMismatch    = errors.New("writer: dataset does not fit format")
)

var fileMagic = [4]byte{'C', 'L', 'N', 'K'}

// FileWriter persists extracts as framed JSON records. The extension picks
// the layout: vtpd keeps one record per partition, vti requires a single
// partition. Files are written to a temp name and renamed into place.
type FileWriter struct {
	sync bool
}

func NewFileWriter(fsync bool) *FileWriter {
	return &FileWriter{sync: fsync}
}

func (w *FileWriter) Name() string { return "file" }

func (w *FileWriter) Write(ctx context.Context, p ports.Producer, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p == nil {
		return ErrEmptyDataset
	}
	ds := p.Output()
	if ds.Empty() {
		return fmt.Errorf("%w: %s", ErrEmptyDataset, p.Name())
	}

	format := strings.TrimPrefix(filepath.Ext(path), ".")
	switch format {
	case FormatPartitioned:
	case FormatImage:
		if len(ds.Partitions) != 1 {
			return fmt.Errorf("%w: %s needs 1 partition, have %d", ErrFormatMismatch, format, len(ds.Partitions))
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := encode(tmp, ds); err != nil {
		tmp.Close()
		return err
	}
	if w.sync {
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// file format: [4 magic][8 cycle][4 partitions] then per partition
// [8 domain id][4 len][len bytes json]
func encode(f io.Writer, ds *domain.Dataset) error {
	bw := bufio.NewWriterSize(f, 1<<16)

	var hdr [16]byte
	copy(hdr[0:4], fileMagic[:])
	binary.BigEndian.PutUint64(hdr[4:12], uint64(ds.Cycle))
	binary.BigEndian.PutUint32(hdr[12:16], uint32(len(ds.Partitions)))
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}

	for _, part := range ds.Partitions {
		b, err := json.Marshal(part)
		if err != nil {
			return fmt.Errorf("marshal partition %d: %w", part.DomainID, err)
		}
		var rec [recordHeaderLen]byte
		binary.BigEndian.PutUint64(rec[0:8], uint64(part.DomainID))
		binary.BigEndian.PutUint32(rec[8:12], uint32(len(b)))
		if _, err := bw.Write(rec[:]); err != nil {
			return err
		}
		if _, err := bw.Write(b); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadFile decodes an extract written by FileWriter.
func ReadFile(path string) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	r := bufio.NewReader(f)

	var hdr [16]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("extract header: %w", err)
	}
	if [4]byte(hdr[0:4]) != fileMagic {
		return nil, fmt.Errorf("extract %s: bad magic", path)
	}
	ds := &domain.Dataset{Cycle: int64(binary.BigEndian.Uint64(hdr[4:12]))}
	n := binary.BigEndian.Uint32(hdr[12:16])
	remaining := st.Size() - int64(len(hdr))

	for i := uint32(0); i < n; i++ {
		var rec [recordHeaderLen]byte
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return nil, fmt.Errorf("corrupt extract: %w", err)
		}
		remaining -= recordHeaderLen
		l := int64(binary.BigEndian.Uint32(rec[8:12]))
		if l > remaining {
			return nil, fmt.Errorf("corrupt extract: partition %d claims %d bytes, %d left", i, l, remaining)
		}
		remaining -= l
		b := make([]byte, l)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("corrupt extract: %w", err)
		}
		var part domain.Partition
		if err := json.Unmarshal(b, &part); err != nil {
			return nil, fmt.Errorf("corrupt extract partition: %w", err)
		}
		ds.Partitions = append(ds.Partitions, part)
	}
	return ds, nil
}

var _ ports.Writer = (*FileWriter)(nil)
