package service

import (
	"strings"
	"testing"

	"github.com/relayplane/gateway/internal/domain/entity"
)

func TestClassifyComplexity_Simple(t *testing.T) {
	msgs := []entity.Message{{Role: entity.RoleUser, Text: "hello, how are you today?"}}
	if got := ClassifyComplexity(msgs); got != "simple" {
		t.Fatalf("expected simple, got %s", got)
	}
}

func TestClassifyComplexity_Moderate(t *testing.T) {
	msgs := []entity.Message{{Role: entity.RoleUser, Text: "Please analyze this function for correctness."}}
	if got := ClassifyComplexity(msgs); got != "moderate" {
		t.Fatalf("expected moderate, got %s", got)
	}
}

func TestClassifyComplexity_Complex(t *testing.T) {
	msgs := []entity.Message{{Role: entity.RoleUser, Text: "```go\nfunc main() {}\n```\nPlease calculate and solve this equation, then derive the proof."}}
	if got := ClassifyComplexity(msgs); got != "complex" {
		t.Fatalf("expected complex, got %s", got)
	}
}

func TestClassifyComplexity_LongText(t *testing.T) {
	long := strings.Repeat("word ", 5000)
	msgs := []entity.Message{{Role: entity.RoleUser, Text: long}}
	if got := ClassifyComplexity(msgs); got == "simple" {
		t.Fatalf("expected long text to raise complexity above simple, got %s", got)
	}
}
