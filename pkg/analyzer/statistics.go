package analyzer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
)

var (
	percentageRe = regexp.MustCompile(`\b\d+(?:\.\d+)?\s?%`)
	currencyRe   = regexp.MustCompile(`[$€£¥]\s?\d[\d,]*(?:\.\d+)?`)
	measurementRe = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s?(kg|g|mg|lb|lbs|oz|km|m|cm|mm|mi|ft|in|l|ml|gb|mb|kb|tb|hz|mhz|ghz|%)\b`)
	bareNumberRe  = regexp.MustCompile(`-?\d+(?:,\d{3})*(?:\.\d+)?`)
)

// computeStatistics extracts structured numeric facts from text. Numbers
// that are part of a percentage, currency, or measurement match are not
// duplicated in the bare-numbers list.
func computeStatistics(text string) Statistics {
	percentages := percentageRe.FindAllString(text, -1)
	currencies := currencyRe.FindAllString(text, -1)
	measurements := measurementRe.FindAllString(text, -1)

	claimed := make([]bool, len(text)+1)
	markClaimed := func(locs [][]int) {
		for _, loc := range locs {
			for i := loc[0]; i < loc[1] && i < len(claimed); i++ {
				claimed[i] = true
			}
		}
	}
	markClaimed(percentageRe.FindAllStringIndex(text, -1))
	markClaimed(currencyRe.FindAllStringIndex(text, -1))
	markClaimed(measurementRe.FindAllStringIndex(text, -1))

	var numbers []float64
	for _, loc := range bareNumberRe.FindAllStringIndex(text, -1) {
		if claimed[loc[0]] {
			continue
		}
		raw := strings.ReplaceAll(text[loc[0]:loc[1]], ",", "")
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}

	return Statistics{
		Numbers:      numbers,
		Percentages:  percentages,
		Currencies:   currencies,
		Measurements: measurements,
	}
}

// numericSummary reports descriptive stats (mean, median, standard
// deviation) over a list of extracted numbers; an empty list yields zeros.
func numericSummary(numbers []float64) (mean, median, stdDev float64, err error) {
	if len(numbers) == 0 {
		return 0, 0, 0, nil
	}
	mean, err = stats.Mean(numbers)
	if err != nil {
		return 0, 0, 0, err
	}
	median, err = stats.Median(numbers)
	if err != nil {
		return 0, 0, 0, err
	}
	if len(numbers) > 1 {
		stdDev, err = stats.StandardDeviation(numbers)
		if err != nil {
			return 0, 0, 0, err
		}
	}
	return mean, median, stdDev, nil
}
