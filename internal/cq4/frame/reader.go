// Package frame implements the FramedReader (spec §4.D): a scan of a
// memory-mapped .cq4 file as a sequence of 4-byte-header framed excerpts.
package frame

import (
	"fmt"
	"iter"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/cq4kit/cq4diag/internal/cq4/cq4err"
	"github.com/cq4kit/cq4diag/internal/cq4/wire"
)

const (
	headerLengthMask   = 0x3FFFFFFF
	headerMetadataFlag = 0x40000000
	headerWorkingFlag  = 0x80000000
)

// QueueHeader holds the fields recovered from the leading metadata frame,
// when one is present and parses cleanly. A zero-value QueueHeader is
// returned when no header could be extracted; the reader never fails
// solely on account of that.
type QueueHeader struct {
	Version      int64
	Index        int64
	Count        int64
	RollCycle    string
	IndexCount   int64
	IndexSpacing int64
}

// Excerpt is a single framed record recovered by the scan: its position,
// its metadata flag, and the raw payload bytes (still wire-encoded).
type Excerpt struct {
	Index      uint64
	Offset     uint64
	Length     uint32
	IsMetadata bool
	Payload    []byte
}

// Reader scans a .cq4 file as a read-only memory-mapped region. Open and
// Close are idempotent; a reader may be iterated any number of times but
// each iteration restarts at offset 0.
type Reader struct {
	path   string
	file   *os.File
	region mmap.MMap
	header QueueHeader
}

func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Open maps the file read-only. An empty file is not mapped; iteration
// over it simply yields nothing.
func (r *Reader) Open() error {
	if r.region != nil || r.file != nil {
		return nil
	}

	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", cq4err.Io, r.path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: stat %s: %v", cq4err.Io, r.path, err)
	}
	if info.Size() == 0 {
		r.file = f
		return nil
	}

	region, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: mmap %s: %v", cq4err.Io, r.path, err)
	}

	r.file = f
	r.region = region
	r.parseQueueHeader()
	return nil
}

// Close releases the mapping and the file descriptor. Safe to call
// multiple times and safe to call on a reader that was never opened.
func (r *Reader) Close() error {
	var err error
	if r.region != nil {
		err = r.region.Unmap()
		r.region = nil
	}
	if r.file != nil {
		if cerr := r.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		r.file = nil
	}
	if err != nil {
		return fmt.Errorf("%w: close %s: %v", cq4err.Io, r.path, err)
	}
	return nil
}

// Header returns the queue header recovered from the leading metadata
// frame, or the zero value if none was present or it failed to parse.
func (r *Reader) Header() QueueHeader { return r.header }

func (r *Reader) parseQueueHeader() {
	if len(r.region) < 4 {
		return
	}
	word := le32(r.region, 0)
	if word == 0 {
		return
	}
	length := word & headerLengthMask
	isMetadata := word&headerMetadataFlag != 0
	if !isMetadata || length == 0 || uint64(4+length) > uint64(len(r.region)) {
		return
	}

	payload := r.region[4 : 4+length]
	fields, err := wire.NewParser(payload).ReadObject()
	if err != nil {
		return
	}
	headerVal, ok := fields.Get("header")
	if !ok {
		return
	}
	headerMap, ok := headerVal.MappingValue()
	if !ok {
		return
	}

	r.header.Version = intField(headerMap, "version")
	r.header.Index = intField(headerMap, "index")
	r.header.Count = intField(headerMap, "count")
	r.header.IndexCount = intField(headerMap, "indexCount")
	r.header.IndexSpacing = intField(headerMap, "indexSpacing")
	if v, ok := headerMap.Get("rollCycle"); ok {
		if s, ok := v.StringValue(); ok {
			r.header.RollCycle = s
		}
	}
}

func intField(m *wire.OrderedMap, key string) int64 {
	v, ok := m.Get(key)
	if !ok {
		return 0
	}
	n, _ := v.Int64Value()
	return n
}

func le32(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}

// frameAt reads the header word at offset and reports its length, the
// start of the next frame's header, whether it is metadata, and whether a
// usable frame was found at all. A zero header, a working/incomplete
// header, or a length that would overrun the mapping all report ok=false
// without error (spec §4.D, §7): the scan ends cleanly.
func (r *Reader) frameAt(offset uint64) (length uint32, next uint64, isMetadata bool, ok bool) {
	if offset+4 > uint64(len(r.region)) {
		return 0, 0, false, false
	}
	word := le32(r.region, int(offset))
	if word == 0 {
		return 0, 0, false, false
	}
	if word&headerWorkingFlag != 0 {
		return 0, 0, false, false
	}
	length = word & headerLengthMask
	isMetadata = word&headerMetadataFlag != 0
	if length == 0 || offset+4+uint64(length) > uint64(len(r.region)) {
		return 0, 0, false, false
	}
	return length, offset + 4 + uint64(length), isMetadata, true
}

// align4 rounds up to the next 4-byte boundary.
func align4(v uint64) uint64 { return (v + 3) &^ 3 }

// All iterates every excerpt from the start of the file as a
// range-over-func iterator. Metadata excerpts are yielded (and consume an
// index) only when includeMetadata is set; excerpts whose index is below
// startIndex are skipped.
func (r *Reader) All(includeMetadata bool, startIndex uint64) iter.Seq[Excerpt] {
	return func(yield func(Excerpt) bool) {
		if r.region == nil {
			return
		}
		var offset uint64
		var index uint64
		for {
			length, next, isMetadata, ok := r.frameAt(offset)
			if !ok {
				return
			}
			if includeMetadata || !isMetadata {
				if index >= startIndex {
					payload := r.region[offset+4 : offset+4+uint64(length)]
					ex := Excerpt{
						Index:      index,
						Offset:     offset,
						Length:     length,
						IsMetadata: isMetadata,
						Payload:    payload,
					}
					if !yield(ex) {
						return
					}
				}
				index++
			}
			offset = align4(next)
		}
	}
}

// ReadExcerpt reads a single excerpt at a known byte offset, bypassing a
// full scan. Its Index is always 0, since the caller did not establish a
// position within a pass.
func (r *Reader) ReadExcerpt(offset uint64) (Excerpt, bool) {
	if r.region == nil {
		return Excerpt{}, false
	}
	length, _, isMetadata, ok := r.frameAt(offset)
	if !ok {
		return Excerpt{}, false
	}
	payload := r.region[offset+4 : offset+4+uint64(length)]
	return Excerpt{Offset: offset, Length: length, IsMetadata: isMetadata, Payload: payload}, true
}

// CountMessages scans the whole file counting excerpts, without holding
// onto any payload.
func (r *Reader) CountMessages(includeMetadata bool) uint64 {
	var count uint64
	for range r.All(includeMetadata, 0) {
		count++
	}
	return count
}

// Page materializes excerpts [start, start+limit) for callers that want a
// slice rather than an iterator.
func (r *Reader) Page(start, limit int, includeMetadata bool) []Excerpt {
	if limit <= 0 {
		return nil
	}
	out := make([]Excerpt, 0, limit)
	i := 0
	for ex := range r.All(includeMetadata, 0) {
		if i < start {
			i++
			continue
		}
		out = append(out, ex)
		i++
		if len(out) >= limit {
			break
		}
	}
	return out
}
