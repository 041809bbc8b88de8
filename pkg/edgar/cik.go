package edgar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// FormatCIK strips any non-digit characters from cik and pads the result
// to ten digits with leading zeros.
func FormatCIK(cik string) (string, error) {
	var digits strings.Builder
	for _, r := range cik {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	clean := strings.TrimLeft(digits.String(), "0")
	if digits.Len() == 0 {
		return "", fmt.Errorf("%w: %q has no digits", ErrInvalidCIK, cik)
	}
	if len(clean) > 10 {
		return "", fmt.Errorf("%w: %q is longer than 10 digits", ErrInvalidCIK, cik)
	}
	return fmt.Sprintf("%010s", clean), nil
}

// CIK is a Central Index Key in its 10-digit zero padded form. The API
// encodes it as a string in submissions and as a number in the XBRL
// endpoints; both decode to the same value.
type CIK string

func (c *CIK) UnmarshalJSON(data []byte) error {
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidCIK, data)
		}
		if _, err := strconv.ParseUint(n.String(), 10, 64); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidCIK, data)
		}
		raw = n.String()
	}
	formatted, err := FormatCIK(raw)
	if err != nil {
		return err
	}
	*c = CIK(formatted)
	return nil
}

func (c CIK) String() string {
	return string(c)
}

// Unpadded returns the CIK without leading zeros, the form used in
// archive URLs.
func (c CIK) Unpadded() string {
	s := strings.TrimLeft(string(c), "0")
	if s == "" {
		return "0"
	}
	return s
}
