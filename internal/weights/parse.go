package weights

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrEmptyValue    = errors.New("weights: empty value")
	ErrNegativeValue = errors.New("weights: negative value")
)

// ParseValue parses a weight such as "30", "30%", "12,5" or " 7.5 % ".
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, ErrEmptyValue
	}
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("weights: parse %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("weights: parse %q: not a finite number", s)
	}
	if v < 0 {
		return 0, ErrNegativeValue
	}
	return v, nil
}

// ParseBool parses the boolean spellings accepted for flags such as WEIGHTS_INTERACTIVE.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("weights: invalid boolean %q", s)
	}
}

func formatWeight(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
