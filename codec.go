package granary

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/ugorji/go/codec"
)

// entryMagic opens every persisted attribute entry.
var entryMagic = [4]byte{'G', 'R', 'N', 'Y'}

// entryVersion is the layout version of the entry header.
const entryVersion uint8 = 1

// errBadMagic is returned when a blob is not an attribute entry at all.
var errBadMagic = errors.New("not a granary entry")

// Header describes a persisted attribute entry.
// It is written uncompressed in front of the payload so it can be read cheaply.
type Header struct {
	Version   uint8
	Schema    uint64    // Tag of the key and value types the payload was written with
	CreatedAt time.Time // When the entry was written
	Entries   uint64    // Number of keys in the payload
}

// headerSize is the encoded size of a Header including the magic.
const headerSize = 4 + 1 + 8 + 8 + 8

// msgpackHandle encodes payloads. Canonical mode writes map keys sorted,
// so equal maps always produce equal bytes.
var msgpackHandle = func() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.Canonical = true
	h.StructToArray = true
	h.WriteExt = true
	return h
}()

// writeHeader writes the fixed-size entry header.
func writeHeader(w io.Writer, h Header) error {
	var buf [headerSize]byte
	copy(buf[:4], entryMagic[:])
	buf[4] = h.Version
	binary.BigEndian.PutUint64(buf[5:13], h.Schema)
	binary.BigEndian.PutUint64(buf[13:21], uint64(h.CreatedAt.Unix()))
	binary.BigEndian.PutUint64(buf[21:29], h.Entries)
	_, err := w.Write(buf[:])
	return err
}

// readHeader reads the fixed-size entry header.
func readHeader(r io.Reader) (Header, error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("failed to read header: %w", err)
	}
	if !bytes.Equal(buf[:4], entryMagic[:]) {
		return Header{}, errBadMagic
	}
	h := Header{
		Version:   buf[4],
		Schema:    binary.BigEndian.Uint64(buf[5:13]),
		CreatedAt: time.Unix(int64(binary.BigEndian.Uint64(buf[13:21])), 0).UTC(),
		Entries:   binary.BigEndian.Uint64(buf[21:29]),
	}
	if h.Version != entryVersion {
		return Header{}, fmt.Errorf("unsupported entry version %d", h.Version)
	}
	return h, nil
}

// encodeEntry writes header and the zstd-compressed msgpack payload.
func encodeEntry(w io.Writer, h Header, level zstd.EncoderLevel, payload any) error {
	if err := writeHeader(w, h); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(level))
	if err != nil {
		return fmt.Errorf("failed to create compressor: %w", err)
	}

	bw := bufio.NewWriter(zw)
	if err := codec.NewEncoder(bw, msgpackHandle).Encode(payload); err != nil {
		_ = zw.Close()
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = zw.Close()
		return fmt.Errorf("failed to flush payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish compression: %w", err)
	}
	return nil
}

// decodeEntry reads the header and decodes the payload into out.
// The schema check is left to the caller, which knows what tag to expect.
func decodeEntry(r io.Reader, out any, expect uint64) (Header, error) {
	br := bufio.NewReader(r)
	h, err := readHeader(br)
	if err != nil {
		return Header{}, err
	}
	if h.Schema != expect {
		return h, errStaleSchema
	}

	zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return h, fmt.Errorf("failed to create decompressor: %w", err)
	}
	defer zr.Close()

	if err := codec.NewDecoder(zr, msgpackHandle).Decode(out); err != nil {
		return h, fmt.Errorf("failed to decode payload: %w", err)
	}
	return h, nil
}

// errStaleSchema is returned by decodeEntry when the entry was written for different types.
var errStaleSchema = errors.New("entry schema does not match")

// deepCopy returns a copy of v that shares no memory with it.
func deepCopy[V any](v V) (V, error) {
	var buf bytes.Buffer
	var out V
	if err := codec.NewEncoder(&buf, msgpackHandle).Encode(v); err != nil {
		return out, fmt.Errorf("failed to copy value: %w", err)
	}
	if err := codec.NewDecoder(&buf, msgpackHandle).Decode(&out); err != nil {
		return out, fmt.Errorf("failed to copy value: %w", err)
	}
	return out, nil
}
