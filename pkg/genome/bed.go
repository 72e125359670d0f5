package genome

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/biogo/biogo/feat"
	"github.com/biogo/biogo/io/featio/bed"
)

// ReadRegions reads regions from BED data. Files with six or more columns are
// read as BED6 and keep their strand; anything narrower is read as BED3.
// Header lines (#, track, browser) are ignored.
func ReadRegions(r io.Reader) ([]Region, error) {
	var (
		data    bytes.Buffer
		columns int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Bytes()
		if isBedHeader(line) {
			continue
		}
		if columns == 0 {
			columns = len(bytes.Split(line, []byte{'\t'}))
		}
		data.Write(line)
		data.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if columns == 0 {
		return nil, nil
	}
	if columns < 3 {
		return nil, fmt.Errorf("bed: need at least 3 columns, got %d", columns)
	}

	typ := 3
	if columns >= 6 {
		typ = 6
	}
	br, err := bed.NewReader(&data, typ)
	if err != nil {
		return nil, err
	}

	var regions []Region
	for {
		f, err := br.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bed: record %d: %w", len(regions)+1, err)
		}

		reg := Region{
			Chrom: f.Location().Name(),
			Start: f.Start(),
			End:   f.End(),
		}
		if o, ok := f.(feat.Orienter); ok {
			reg.Strand = Strand(o.Orientation())
		}
		if reg.End <= reg.Start {
			return nil, fmt.Errorf("bed: empty region %s", reg)
		}
		regions = append(regions, reg)
	}

	return regions, nil
}

func isBedHeader(line []byte) bool {
	line = bytes.TrimSpace(line)
	return len(line) == 0 ||
		bytes.HasPrefix(line, []byte("#")) ||
		bytes.HasPrefix(line, []byte("track")) ||
		bytes.HasPrefix(line, []byte("browser"))
}
