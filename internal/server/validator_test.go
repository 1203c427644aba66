package server

import "testing"

type categoryPayload struct {
	Category string `validate:"required,category"`
}

// TestValidatorCategory проверяет тег category.
func TestValidatorCategory(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(&categoryPayload{Category: "Groceries"}); err != nil {
		t.Fatalf("expected valid category, got %v", err)
	}
	if err := v.Validate(&categoryPayload{Category: "Pets"}); err == nil {
		t.Fatal("expected error for unknown category")
	}
}
