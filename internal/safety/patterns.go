package safety

import (
	"fmt"
	"regexp"
)

var (
	curpPattern       = regexp.MustCompile(`(?i)\b[A-Z]{4}\d{6}[HM][A-Z]{5}\d{2}\b`)
	rfcPattern        = regexp.MustCompile(`(?i)\b[A-ZÑ&]{3,4}\d{6}[A-Z0-9]{3}\b`)
	nssPattern        = regexp.MustCompile(`\d{11}`)
	cardPattern       = regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`)
	bankAcctPattern   = regexp.MustCompile(`\b\d{18}\b`)
	emailPattern      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern      = regexp.MustCompile(`\b(?:\+?52)?[\s-]?\d{2,3}[\s-]?\d{4}[\s-]?\d{4}\b`)
	maxEmailsPerTurn  = 5
	maxPhonesPerTurn  = 5
	defaultBlockLimit = 3
)

// ScanResult is the outcome of the sensitive-data scan
type ScanResult struct {
	Warnings []string
	Blocked  bool
}

// Scanner detects sensitive personal data with a fixed battery of patterns
type Scanner struct {
	blockThreshold int
}

// NewScanner creates a scanner that blocks once threshold warnings are raised.
// A non-positive threshold uses the default of 3.
func NewScanner(threshold int) *Scanner {
	if threshold <= 0 {
		threshold = defaultBlockLimit
	}
	return &Scanner{blockThreshold: threshold}
}

// Scan returns one warning per matched pattern
func (s *Scanner) Scan(text string) ScanResult {
	var warnings []string

	if curpPattern.MatchString(text) {
		warnings = append(warnings, "possible CURP national ID detected")
	}
	if rfcPattern.MatchString(text) {
		warnings = append(warnings, "possible RFC tax ID detected")
	}
	if nssPattern.MatchString(text) {
		warnings = append(warnings, "possible social security number detected")
	}
	if cardPattern.MatchString(text) {
		warnings = append(warnings, "possible payment card number detected")
	}
	if bankAcctPattern.MatchString(text) {
		warnings = append(warnings, "possible bank account (CLABE) detected")
	}
	if n := len(emailPattern.FindAllString(text, -1)); n > maxEmailsPerTurn {
		warnings = append(warnings, fmt.Sprintf("%d email addresses detected", n))
	}
	if n := len(phonePattern.FindAllString(text, -1)); n > maxPhonesPerTurn {
		warnings = append(warnings, fmt.Sprintf("%d phone numbers detected", n))
	}

	return ScanResult{
		Warnings: warnings,
		Blocked:  len(warnings) >= s.blockThreshold,
	}
}
