package service

import (
	"math"
	"regexp"
	"strings"

	"github.com/relayplane/gateway/internal/domain/entity"
	"github.com/relayplane/gateway/internal/domain/valueobject"
)

var (
	codeBlockOrKeywordRe = regexp.MustCompile("(?i)```|\\bfunction\\b|\\bclass\\b|\\bconst\\b|\\blet\\b|\\bimport\\b")
	analyticalVerbRe     = regexp.MustCompile(`(?i)\b(analyze|compare|evaluate|assess|review|audit)\b`)
	computationalRe      = regexp.MustCompile(`(?i)\b(calculate|compute|solve|equation|prove|derive)\b`)
	stepwiseRe           = regexp.MustCompile(`(?i)first.*then|\bstep\s+\d+\b|\b1\)\s*.*2\)|\bphase\s+\d+\b`)
	artifactVerbRe       = regexp.MustCompile(`(?i)write\s+a\s+(story|essay|article|report)|create\s+a|design\s+a|build\s+a`)
)

// ClassifyComplexity scores the concatenation of a conversation's message
// text into {simple, moderate, complex} per the heuristic rules of spec 4.C.
func ClassifyComplexity(messages []entity.Message) valueobject.Complexity {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString(m.CombinedText())
		sb.WriteString(" ")
	}
	text := strings.ToLower(sb.String())

	var score int
	if codeBlockOrKeywordRe.MatchString(text) {
		score += 2
	}
	if analyticalVerbRe.MatchString(text) {
		score++
	}
	if computationalRe.MatchString(text) {
		score += 2
	}
	if stepwiseRe.MatchString(text) {
		score++
	}
	length := len(text)
	charGroups := int(math.Ceil(float64(length) / 4))
	if charGroups > 2000 {
		score++
	}
	if charGroups > 5000 {
		score++
	}
	if artifactVerbRe.MatchString(text) {
		score++
	}

	switch {
	case score >= 4:
		return valueobject.ComplexityComplex
	case score >= 2:
		return valueobject.ComplexityModerate
	default:
		return valueobject.ComplexitySimple
	}
}
