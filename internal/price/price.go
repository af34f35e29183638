// Package price turns recognised market text into item price records.
package price

import (
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

// Record is one item/price pair read from a line of text.
type Record struct {
	Item  string
	Price int
}

// Book maps lower-cased item names to prices.
type Book map[string]int

// separators are removed from the price token before matching.
var separators = strings.NewReplacer(".", "", ",", "", "\u00a0", "", "\u202f", "", "'", "")

// pricePattern finds the first run of digits in the token, optionally
// followed by a unit marker. Surrounding OCR noise such as "$", "~" or a
// trailing "x" is ignored.
var pricePattern = regexp.MustCompile(`([0-9]+)\s*(?:g|silver|\$)?`)

// Parse returns a record for every line that ends in a price, in text order.
// Lines without a price are skipped.
func Parse(text string) []Record {
	var out []Record
	for _, line := range strings.Split(text, "\n") {
		if rec, err := ParseLine(line); err == nil {
			out = append(out, rec)
		}
	}
	return out
}

// ParseLine splits line at its last whitespace into name and price token.
// Lines that do not carry a price yield a PARSE_FAILED error.
func ParseLine(line string) (Record, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Record{}, apperrors.New(apperrors.CodeParseFailed, "empty line")
	}

	i := strings.LastIndexFunc(line, isSpace)
	if i < 0 {
		return Record{}, apperrors.New(apperrors.CodeParseFailed, "no price token").WithMetadata("line", line)
	}
	name := strings.TrimSpace(line[:i])
	token := separators.Replace(line[i+1:])

	m := pricePattern.FindStringSubmatch(token)
	if m == nil || name == "" {
		return Record{}, apperrors.New(apperrors.CodeParseFailed, "no price token").WithMetadata("line", line)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Record{}, apperrors.Wrap(err, apperrors.CodeParseFailed, "price out of range").WithMetadata("line", line)
	}
	return Record{Item: name, Price: n}, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}

// Index builds a Book keyed by lower-cased item name. Later records win.
func Index(records []Record) Book {
	b := make(Book, len(records))
	for _, r := range records {
		b[strings.ToLower(r.Item)] = r.Price
	}
	return b
}
