// Package impact converts free-text quantity descriptions ("5 kg",
// "20 meals") into numeric impact figures for notifications and reporting.
package impact

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// EstimatePeopleFed estimates how many people a donation feeds from its
// quantity text. Texts mentioning kg count three people per kilogram;
// everything else counts the leading number as-is. Text without a number
// contributes zero.
func EstimatePeopleFed(quantityText string) float64 {
	n, ok := firstNumber(quantityText)
	if !ok {
		return 0
	}
	switch {
	case strings.Contains(strings.ToLower(quantityText), "kg"):
		return n * 3
	case strings.Contains(strings.ToLower(quantityText), "meal"):
		return n
	default:
		return n
	}
}

// EstimateFoodWeightAndMeals estimates saved food weight in kilograms and
// meal-equivalents for aggregate statistics.
//
// This uses a different conversion table than EstimatePeopleFed and the two
// deliberately stay separate: they feed different reporting views and their
// coefficients do not agree. EstimatePeopleFed is the authoritative figure
// for user-facing completion messages.
func EstimateFoodWeightAndMeals(quantityText string) (weightKg, meals float64) {
	n, ok := firstNumber(quantityText)
	if !ok {
		return 0, 0
	}
	text := strings.ToLower(quantityText)
	switch {
	case strings.Contains(text, "kg"):
		return n, n * 3
	case strings.Contains(text, "meal"):
		return n * 0.3, n
	case strings.Contains(text, "item"):
		return n * 0.2, n * 2
	default:
		return n * 0.5, n
	}
}

// firstNumber extracts the first integer or decimal token from text.
func firstNumber(text string) (float64, bool) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
