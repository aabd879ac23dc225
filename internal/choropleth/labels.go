package choropleth

import (
	"math"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/sells-group/career-mapper/internal/model"
)

// Formatter renders values with locale digit grouping.
type Formatter struct {
	tag language.Tag
}

// NewFormatter parses a BCP 47 locale such as "en-US".
func NewFormatter(locale string) (*Formatter, error) {
	if locale == "" {
		locale = "en-US"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, eris.Wrapf(err, "choropleth: parse locale %q", locale)
	}
	return &Formatter{tag: tag}, nil
}

// Format renders v with at most three fraction digits.
func (f *Formatter) Format(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	// A Printer buffers internally, so one per call.
	return message.NewPrinter(f.tag).Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// Legend builds the min/max labels of rng.
func (f *Formatter) Legend(rng model.Range) model.Legend {
	if rng.Empty() {
		return model.Legend{Empty: true}
	}
	return model.Legend{
		Min:      rng.Min,
		Max:      rng.Max,
		MinLabel: f.Format(rng.Min),
		MaxLabel: f.Format(rng.Max),
	}
}
