package utils

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	MinProductNumber = 10000000
	MaxProductNumber = 99999999

	maxTextLength     = 1000
	maxUsernameLength = 50
)

var (
	ErrInvalidPrice    = errors.New("price must be a non-negative number")
	ErrInvalidQuantity = errors.New("quantity must be a non-negative integer")
	ErrInvalidAmount   = errors.New("amount must be a positive number")
)

var unsafeChars = strings.NewReplacer("<", "", ">", "", "\"", "", "'", "", ";", "")

// ParsePrice accepts "10", "10.5" or "10,5" and rounds to cents.
func ParsePrice(text string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(text), ",", "."))
	if err != nil || price.IsNegative() {
		return decimal.Zero, ErrInvalidPrice
	}
	return price.Round(2), nil
}

// ParseAmount is ParsePrice for top-ups, where zero is rejected.
func ParseAmount(text string) (decimal.Decimal, error) {
	amount, err := ParsePrice(text)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

func ParseQuantity(text string) (int, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || qty < 0 {
		return 0, ErrInvalidQuantity
	}
	return qty, nil
}

// ParseProductNumber returns false for anything that is not an 8 digit number.
func ParseProductNumber(text string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || n < MinProductNumber || n > MaxProductNumber {
		return 0, false
	}
	return n, true
}

func SanitizeText(text string) string {
	return truncateRunes(unsafeChars.Replace(strings.TrimSpace(text)), maxTextLength)
}

// SanitizeUsername returns "" when nothing usable is left.
func SanitizeUsername(name string) string {
	clean := unsafeChars.Replace(strings.TrimSpace(name))
	if clean == "" || utf8.RuneCountInString(clean) > maxUsernameLength {
		return ""
	}
	return clean
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
