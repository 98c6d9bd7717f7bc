package container

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/garyhouston/jpegsegs"
)

// ICC profiles larger than a segment are split in chunks, each one starting
// with the ICC header, a 1-based sequence number and the total chunk count.

type iccChunk struct {
	seq, count byte
	data       []byte
}

func iccChunkOf(s segment) iccChunk {
	h := len(_iccHeader)
	return iccChunk{seq: s.data[h], count: s.data[h+1], data: s.data[h+2:]}
}

// assembleICC concatenates the chunks in sequence order.
func assembleICC(chunks []iccChunk) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].seq < chunks[j].seq })
	count := int(chunks[0].count)
	if count != len(chunks) {
		return nil, fmt.Errorf("%d ICC chunks, expected %d", len(chunks), count)
	}
	var profile bytes.Buffer
	for i, c := range chunks {
		if int(c.seq) != i+1 || int(c.count) != count {
			return nil, fmt.Errorf("ICC chunk %d/%d out of sequence", c.seq, c.count)
		}
		profile.Write(c.data)
	}
	return profile.Bytes(), nil
}

func writeICC(d *jpegsegs.Dumper, profile []byte) error {
	count := (len(profile) + _iccChunkSize - 1) / _iccChunkSize
	if count > 255 {
		return fmt.Errorf("%w: ICC profile of %d bytes", ErrEncode, len(profile))
	}
	for seq := 1; len(profile) > 0; seq++ {
		n := min(len(profile), _iccChunkSize)
		if err := writeSegment(d, _APP2, []byte(_iccHeader), []byte{byte(seq), byte(count)}, profile[:n]); err != nil {
			return err
		}
		profile = profile[n:]
	}
	return nil
}
