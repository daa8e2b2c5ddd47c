package assets

import (
	"fmt"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// minConfidence is the chardet score below which a guess is ignored
const minConfidence = 50

// Decode converts page to UTF-8. A byte order mark, a charset in
// contentType or a <meta> declaration is trusted; otherwise the encoding is
// detected from the bytes.
func Decode(page []byte, contentType string) ([]byte, error) {
	enc, name, certain := charset.DetermineEncoding(page, contentType)
	if !certain && name != "utf-8" {
		if guess, err := chardet.NewTextDetector().DetectBest(page); err == nil && guess.Confidence >= minConfidence {
			if e, n := charset.Lookup(strings.ToLower(guess.Charset)); e != nil {
				enc, name = e, n
			}
		}
	}
	if name == "utf-8" {
		return page, nil
	}

	out, err := enc.NewDecoder().Bytes(page)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return out, nil
}
