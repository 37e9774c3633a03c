package entity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]*)?$`)
	periodToken   = regexp.MustCompile(`^([0-9]{2})\.([0-9]{2})$`)
)

// ParseAmount accepts digits with an optional decimal point and fraction.
// The amount must be positive.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if !amountPattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a number", ErrValidation, raw)
	}
	amount, err := decimal.NewFromString(strings.TrimSuffix(s, "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q: %v", ErrValidation, raw, err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	return amount, nil
}

// ParsePeriod splits whitespace-separated mm.yy tokens and checks each month.
// A period may appear only once.
func ParsePeriod(raw string) ([]string, error) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: at least one mm.yy period is required", ErrValidation)
	}
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		if seen[tok] {
			return nil, fmt.Errorf("%w: period %q is repeated", ErrValidation, tok)
		}
		seen[tok] = true
		m := periodToken.FindStringSubmatch(tok)
		if m == nil {
			return nil, fmt.Errorf("%w: period %q is not mm.yy", ErrValidation, tok)
		}
		month, _ := strconv.Atoi(m[1])
		if month < 1 || month > 12 {
			return nil, fmt.Errorf("%w: period %q has no month %d", ErrValidation, tok, month)
		}
	}
	return tokens, nil
}

// ParseComment trims leading whitespace and rejects an empty result.
func ParseComment(raw string) (string, error) {
	c := strings.TrimLeft(raw, " \t\r\n")
	if c == "" {
		return "", fmt.Errorf("%w: comment is empty", ErrValidation)
	}
	return strings.TrimRight(c, " \t\r\n"), nil
}

// ParsePaymentMethod matches raw against the allowed methods, ignoring case.
func ParsePaymentMethod(raw string, allowed []string) (string, error) {
	s := strings.TrimSpace(raw)
	for _, m := range allowed {
		if strings.EqualFold(m, s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: payment method %q is not one of %s", ErrValidation, raw, strings.Join(allowed, ", "))
}
