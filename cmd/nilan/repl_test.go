package main

import "testing"

func TestIsInputReadyWaitsOnUnbalancedBraces(t *testing.T) {
	if isInputReady("if (true) {") {
		t.Error("expected an unbalanced brace to hold off compiling")
	}
	if !isInputReady("if (true) { print 1; }") {
		t.Error("expected a balanced block to be ready")
	}
}

func TestIsInputReadyWaitsOnTrailingOperator(t *testing.T) {
	if isInputReady("1 +") {
		t.Error("expected a trailing binary operator to hold off compiling")
	}
	if !isInputReady("1 + 2;") {
		t.Error("expected a complete statement to be ready")
	}
}

func TestIsInputReadyEmptyLineIsReady(t *testing.T) {
	if !isInputReady("") {
		t.Error("expected an empty buffer to be considered ready (no-op)")
	}
}
