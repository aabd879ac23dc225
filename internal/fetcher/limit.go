package fetcher

import (
	"io"

	"github.com/rotisserie/eris"
)

// ErrTooLarge is returned when a resource exceeds the read limit.
var ErrTooLarge = eris.New("fetch: resource too large")

// ReadAllLimited reads r to the end, failing with ErrTooLarge once more than
// limit bytes arrive.
func ReadAllLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, eris.Wrap(err, "fetch: read body")
	}
	if int64(len(data)) > limit {
		return nil, eris.Wrapf(ErrTooLarge, "fetch: resource exceeds %d bytes", limit)
	}
	return data, nil
}
