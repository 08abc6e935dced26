package customobject

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ZstdLoader handles compressed definitions such as castle.json.zst: it
// strips the .zst suffix, decompresses, and hands the stream to the loader
// registered for the inner extension.
type ZstdLoader struct {
	Lookup func(ext string) (Loader, bool)
}

func (l ZstdLoader) Load(file string, r io.Reader) (CustomObject, error) {
	if len(file) < len(".zst") || !strings.EqualFold(file[len(file)-len(".zst"):], ".zst") {
		return nil, fmt.Errorf("not a .zst file: %q", file)
	}
	inner := file[:len(file)-len(".zst")]
	ext := Extension(inner)
	if ext == "" || ext == "zst" || l.Lookup == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoLoader, inner)
	}
	next, ok := l.Lookup(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoLoader, ext)
	}
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return next.Load(inner, dec)
}
