package frame

import "testing"

func TestAlign4(t *testing.T) {
	cases := []struct{ in, want uint64 }{
		{0, 0}, {1, 4}, {2, 4}, {3, 4}, {4, 4}, {5, 8}, {8, 8},
	}
	for _, c := range cases {
		if got := align4(c.in); got != c.want {
			t.Fatalf("align4(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestFrameAtZeroHeaderIsEOF(t *testing.T) {
	r := &Reader{region: []byte{0x00, 0x00, 0x00, 0x00}}
	_, _, _, ok := r.frameAt(0)
	if ok {
		t.Fatalf("zero header should report ok=false")
	}
}

func TestFrameAtWorkingFlagTreatedAsEOF(t *testing.T) {
	// length 5 with the working bit (0x80000000) set.
	r := &Reader{region: []byte{0x05, 0x00, 0x00, 0x80, 0, 0, 0, 0, 0}}
	_, _, _, ok := r.frameAt(0)
	if ok {
		t.Fatalf("working-flagged header should report ok=false")
	}
}

func TestFrameAtOverrunRejected(t *testing.T) {
	// length claims 100 bytes but the mapping only has 4 header bytes.
	r := &Reader{region: []byte{0x64, 0x00, 0x00, 0x00}}
	_, _, _, ok := r.frameAt(0)
	if ok {
		t.Fatalf("overrunning length should report ok=false")
	}
}

func TestAllYieldsDataFramesInOrder(t *testing.T) {
	// S3-style: one data frame, header word 0x00000005, 5-byte payload
	// padded to a 12-byte total frame (4 header + 5 payload = 9, rounded to 12).
	region := []byte{
		0x05, 0x00, 0x00, 0x00, // header: length=5, data frame
		0xE4, 0x48, 0x65, 0x6C, 0x6C, 0x6F, // first 5 bytes are the payload; 0x6F is the first pad byte
		0x00, // pad to 4-byte boundary (bytes 9..11)
		0x00,
		0x00, 0x00, 0x00, 0x00, // EOF header
	}
	r := &Reader{region: region}
	var got []Excerpt
	for ex := range r.All(false, 0) {
		got = append(got, ex)
	}
	if len(got) != 1 {
		t.Fatalf("got %d excerpts, want 1", len(got))
	}
	if got[0].Length != 5 || got[0].IsMetadata {
		t.Fatalf("excerpt = %+v, want length=5 is_metadata=false", got[0])
	}
	if len(got[0].Payload) != 5 {
		t.Fatalf("payload length = %d, want 5", len(got[0].Payload))
	}
}

func TestAllSkipsMetadataUnlessRequested(t *testing.T) {
	region := []byte{
		0x04, 0x00, 0x00, 0x40, // metadata frame, length=4
		0x00, 0x00, 0x00, 0x00,
		0x04, 0x00, 0x00, 0x00, // data frame, length=4
		0x01, 0x02, 0x03, 0x04,
		0x00, 0x00, 0x00, 0x00, // EOF
	}
	r := &Reader{region: region}

	var withoutMeta []Excerpt
	for ex := range r.All(false, 0) {
		withoutMeta = append(withoutMeta, ex)
	}
	if len(withoutMeta) != 1 || withoutMeta[0].IsMetadata {
		t.Fatalf("got %+v, want exactly one non-metadata excerpt", withoutMeta)
	}
	if withoutMeta[0].Index != 0 {
		t.Fatalf("index = %d, want 0 (metadata excluded from indexing)", withoutMeta[0].Index)
	}

	var withMeta []Excerpt
	for ex := range r.All(true, 0) {
		withMeta = append(withMeta, ex)
	}
	if len(withMeta) != 2 {
		t.Fatalf("got %d excerpts, want 2", len(withMeta))
	}
	if !withMeta[0].IsMetadata || withMeta[1].IsMetadata {
		t.Fatalf("order = %+v, want [metadata, data]", withMeta)
	}
}

func TestCountMessages(t *testing.T) {
	region := []byte{
		0x04, 0x00, 0x00, 0x40,
		0, 0, 0, 0,
		0x04, 0x00, 0x00, 0x00,
		1, 2, 3, 4,
		0, 0, 0, 0,
	}
	r := &Reader{region: region}
	if n := r.CountMessages(false); n != 1 {
		t.Fatalf("CountMessages(false) = %d, want 1", n)
	}
	if n := r.CountMessages(true); n != 2 {
		t.Fatalf("CountMessages(true) = %d, want 2", n)
	}
}

func TestPageRespectsLimitAndStart(t *testing.T) {
	region := []byte{
		0x04, 0x00, 0x00, 0x00, 1, 1, 1, 1,
		0x04, 0x00, 0x00, 0x00, 2, 2, 2, 2,
		0x04, 0x00, 0x00, 0x00, 3, 3, 3, 3,
		0, 0, 0, 0,
	}
	r := &Reader{region: region}
	page := r.Page(1, 1, false)
	if len(page) != 1 {
		t.Fatalf("got %d excerpts, want 1", len(page))
	}
	if page[0].Payload[0] != 2 {
		t.Fatalf("payload = %v, want starting with 2", page[0].Payload)
	}
}
