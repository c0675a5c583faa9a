package app

import (
	"errors"
	"testing"
)

func TestNewOperation(t *testing.T) {
	tests := []struct {
		name       string
		operation  string
		parameters string
	}{
		{name: "with parameters", operation: "add", parameters: "Dune"},
		{name: "empty parameters", operation: "ui", parameters: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation(tt.operation, tt.parameters)

			if op.Name != tt.operation {
				t.Errorf("Name = %q, want %q", op.Name, tt.operation)
			}
			if op.Parameters != tt.parameters {
				t.Errorf("Parameters = %q, want %q", op.Parameters, tt.parameters)
			}
			if op.Status != "success" {
				t.Errorf("Status = %q, want %q", op.Status, "success")
			}
			if op.Persisted() {
				t.Error("new operation should not be persisted")
			}
		})
	}
}

func TestOperation_Persisted(t *testing.T) {
	tests := []struct {
		name string
		id   int64
		want bool
	}{
		{name: "not persisted when ID is 0", id: 0, want: false},
		{name: "persisted when ID is positive", id: 1, want: true},
		{name: "persisted when ID is large", id: 99999, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &Operation{ID: tt.id}
			if got := op.Persisted(); got != tt.want {
				t.Errorf("Persisted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOperation_Record(t *testing.T) {
	op := NewOperation("start", "book-1")

	if err := op.Record(nil); err != nil {
		t.Fatalf("Record(nil) = %v", err)
	}
	if op.Status != "success" {
		t.Errorf("Status = %q after nil error, want success", op.Status)
	}

	boom := errors.New("boom")
	if err := op.Record(boom); err != boom {
		t.Errorf("Record() = %v, want the same error back", err)
	}
	if op.Status != "error" {
		t.Errorf("Status = %q, want error", op.Status)
	}

	op.Record(nil)
	if op.Status != "error" {
		t.Error("a later success should not clear a recorded failure")
	}
}
