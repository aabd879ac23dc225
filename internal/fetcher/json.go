package fetcher

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// ErrNotArray is returned when the document does not start with '['.
var ErrNotArray = eris.New("json: expected array")

// EachArrayElement streams a top-level JSON array, calling fn with the index
// and raw bytes of every element. Decoding stops at the first error from fn.
func EachArrayElement(ctx context.Context, r io.Reader, fn func(i int, raw json.RawMessage) error) error {
	decoder := json.NewDecoder(r)

	tok, err := decoder.Token()
	if err != nil {
		if err == io.EOF {
			return eris.Wrap(ErrNotArray, "json: empty document")
		}
		return eris.Wrap(err, "json: read opening token")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return eris.Wrapf(ErrNotArray, "json: got %v", tok)
	}

	for i := 0; decoder.More(); i++ {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "json: context cancelled")
		}

		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			return eris.Wrapf(err, "json: decode element %d", i)
		}
		if err := fn(i, raw); err != nil {
			return err
		}
	}

	if _, err := decoder.Token(); err != nil {
		return eris.Wrap(err, "json: read closing token")
	}
	return nil
}
