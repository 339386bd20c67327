package service

import (
	"testing"

	"quiz_bank_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		qType    int
		correct  []string
		selected []string
		want     bool
	}{
		{"single correct", model.QuestionSingleChoice, []string{"a"}, []string{"a"}, true},
		{"single wrong", model.QuestionSingleChoice, []string{"a"}, []string{"b"}, false},
		{"single two selected", model.QuestionSingleChoice, []string{"a"}, []string{"a", "b"}, false},
		{"single duplicate collapsed", model.QuestionSingleChoice, []string{"a"}, []string{"a", "a"}, true},
		{"single nothing selected", model.QuestionSingleChoice, []string{"a"}, nil, false},
		{"single no correct answer", model.QuestionSingleChoice, nil, []string{"a"}, false},
		{"multi exact", model.QuestionMultiChoice, []string{"a", "b"}, []string{"b", "a"}, true},
		{"multi subset", model.QuestionMultiChoice, []string{"a", "b"}, []string{"a"}, false},
		{"multi superset", model.QuestionMultiChoice, []string{"a", "b"}, []string{"a", "b", "c"}, false},
		{"multi duplicates", model.QuestionMultiChoice, []string{"a", "b"}, []string{"a", "b", "b"}, true},
		{"multi both empty", model.QuestionMultiChoice, nil, nil, true},
		{"unknown type", 7, []string{"a"}, []string{"a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.qType, tt.correct, tt.selected))
		})
	}
}

func TestEvaluate_OrderIndependent(t *testing.T) {
	correct := []string{"x", "y", "z"}
	assert.Equal(t,
		Evaluate(model.QuestionMultiChoice, correct, []string{"z", "x", "y"}),
		Evaluate(model.QuestionMultiChoice, correct, []string{"x", "y", "z"}),
	)
}
