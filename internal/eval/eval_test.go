package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docrag/internal/answer"
	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
	"github.com/Aman-CERP/docrag/internal/search"
)

// modeAnswerer answers with a fixed string per mode.
type modeAnswerer struct {
	answers map[search.Mode]string
	failOn  search.Mode
}

func (m *modeAnswerer) Answer(_ context.Context, _ string, mode search.Mode) (*answer.Answer, error) {
	if mode == m.failOn {
		return nil, fmt.Errorf("generation down")
	}
	return &answer.Answer{Answer: m.answers[mode], Mode: mode.String()}, nil
}

func TestLexicalOverlap(t *testing.T) {
	tests := []struct {
		name      string
		pred, ref string
		want      float64
	}{
		{"identical", "Paris is the capital", "paris IS the capital", 1},
		{"half", "a b", "b c", 1.0 / 3.0},
		{"disjoint", "x y", "z", 0},
		{"empty prediction", "", "ref", 0},
		{"empty reference", "pred", "  ", 0},
		{"repeats ignored", "a a a b", "a b", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, LexicalOverlap(tt.pred, tt.ref), 1e-9)
		})
	}
}

func TestLoadQuestions_SkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	content := `{"question": "What is BM25?", "answer": "A ranking function."}

{"question": "What is RAG?", "answer": "Retrieval augmented generation."}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, QuestionsFile), []byte(content), 0o644))

	got, err := LoadQuestions(dir)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "What is RAG?", got[1].Question)
}

func TestLoadQuestions_MissingFile(t *testing.T) {
	_, err := LoadQuestions(t.TempDir())

	assert.Equal(t, ragerrors.ErrCodeFileNotFound, ragerrors.GetCode(err))
}

func TestLoadQuestions_MalformedLine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, QuestionsFile), []byte("{not json}\n"), 0o644))

	_, err := LoadQuestions(dir)

	assert.ErrorIs(t, err, ragerrors.ErrInvalidInput)
}

func TestRun_AveragesPerMode(t *testing.T) {
	// Given: two questions and an answerer that is perfect only in hybrid
	questions := []QA{
		{Question: "q1", Answer: "alpha beta"},
		{Question: "q2", Answer: "alpha beta"},
	}
	a := &modeAnswerer{answers: map[search.Mode]string{
		search.ModeLexical:  "alpha",
		search.ModeSemantic: "gamma",
		search.ModeHybrid:   "beta alpha",
	}}
	var calls int

	// When: running all modes
	report, err := Run(context.Background(), a, questions, search.Modes, func(search.Mode, int, int, float64) { calls++ })
	require.NoError(t, err)

	// Then: every answer is scored and averaged per mode
	assert.Len(t, report.Results, 6)
	assert.Equal(t, 6, calls)
	assert.InDelta(t, 0.5, report.Averages["lexical"], 1e-9)
	assert.InDelta(t, 0.0, report.Averages["semantic"], 1e-9)
	assert.InDelta(t, 1.0, report.Averages["hybrid"], 1e-9)
	assert.Equal(t, "lexical", report.Results[0].Mode)
}

func TestRun_StopsOnFailure(t *testing.T) {
	a := &modeAnswerer{answers: map[search.Mode]string{}, failOn: search.ModeSemantic}

	_, err := Run(context.Background(), a, []QA{{Question: "q", Answer: "a"}}, search.Modes, nil)

	assert.ErrorContains(t, err, "mode semantic")
}

func TestWriteResults_WritesJSONArray(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "eval")
	report := &Report{Results: []Result{{Question: "q", Reference: "r", Mode: "hybrid", Answer: "a", LexicalOverlap: 0.25}}}

	path, err := WriteResults(dir, report)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "hybrid", got[0]["mode"])
	assert.Equal(t, 0.25, got[0]["lexical_overlap"])
	assert.Equal(t, filepath.Join(dir, ResultsFile), path)
}
