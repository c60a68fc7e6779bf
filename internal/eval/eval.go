// Package eval scores answer quality per retrieval mode against a reference
// question set.
package eval

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/docrag/internal/answer"
	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
	"github.com/Aman-CERP/docrag/internal/search"
)

// File names inside the eval directory.
const (
	QuestionsFile = "qa.jsonl"
	ResultsFile   = "results.json"
)

// QA is one reference question with its expected answer.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Result is one scored answer.
type Result struct {
	Question       string  `json:"question"`
	Reference      string  `json:"reference"`
	Mode           string  `json:"mode"`
	Answer         string  `json:"answer"`
	LexicalOverlap float64 `json:"lexical_overlap"`
}

// Report holds every result and the per-mode averages.
type Report struct {
	Results  []Result           `json:"results"`
	Averages map[string]float64 `json:"averages"`
}

// Answerer answers one question in a mode.
type Answerer interface {
	Answer(ctx context.Context, question string, mode search.Mode) (*answer.Answer, error)
}

// Progress is called after each scored answer.
type Progress func(mode search.Mode, done, total int, score float64)

// LoadQuestions reads qa.jsonl from dir. Blank lines are skipped.
func LoadQuestions(dir string) ([]QA, error) {
	path := filepath.Join(dir, QuestionsFile)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, ragerrors.New(ragerrors.ErrCodeFileNotFound, "eval file not found", err).
			WithDetail("path", path).
			WithSuggestion(fmt.Sprintf("create %s with one {\"question\", \"answer\"} object per line", QuestionsFile))
	}
	if err != nil {
		return nil, ragerrors.New(ragerrors.ErrCodeStorage, "failed to open eval file", err).WithDetail("path", path)
	}
	defer f.Close()

	var items []QA
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var qa QA
		if err := json.Unmarshal([]byte(text), &qa); err != nil {
			return nil, ragerrors.ValidationError("malformed eval line", err).
				WithDetail("path", path).
				WithDetail("line", fmt.Sprint(line))
		}
		items = append(items, qa)
	}
	if err := scanner.Err(); err != nil {
		return nil, ragerrors.New(ragerrors.ErrCodeStorage, "failed to read eval file", err).WithDetail("path", path)
	}
	return items, nil
}

// Tokenize lowercases text and splits on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// LexicalOverlap is the Jaccard similarity of the token sets of pred and ref.
// Either side empty scores 0.
func LexicalOverlap(pred, ref string) float64 {
	p := tokenSet(pred)
	r := tokenSet(ref)
	if len(p) == 0 || len(r) == 0 {
		return 0
	}

	inter := 0
	for t := range p {
		if _, ok := r[t]; ok {
			inter++
		}
	}
	union := len(p) + len(r) - inter
	return float64(inter) / float64(union)
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Tokenize(text) {
		set[t] = struct{}{}
	}
	return set
}

// Run answers every question in every mode of modes and scores each answer.
// The first failing answer aborts the run.
func Run(ctx context.Context, a Answerer, questions []QA, modes []search.Mode, progress Progress) (*Report, error) {
	report := &Report{Averages: make(map[string]float64, len(modes))}

	for _, mode := range modes {
		if len(questions) == 0 {
			continue
		}
		var sum float64
		for i, qa := range questions {
			out, err := a.Answer(ctx, qa.Question, mode)
			if err != nil {
				return nil, fmt.Errorf("mode %s, question %d: %w", mode, i+1, err)
			}
			score := LexicalOverlap(out.Answer, qa.Answer)
			sum += score
			report.Results = append(report.Results, Result{
				Question:       qa.Question,
				Reference:      qa.Answer,
				Mode:           mode.String(),
				Answer:         out.Answer,
				LexicalOverlap: score,
			})
			if progress != nil {
				progress(mode, i+1, len(questions), score)
			}
		}
		avg := sum / float64(len(questions))
		report.Averages[mode.String()] = avg
		slog.Info("eval_mode_completed",
			slog.String("mode", mode.String()),
			slog.Int("questions", len(questions)),
			slog.Float64("average_overlap", avg))
	}
	return report, nil
}

// WriteResults writes the per-answer results to dir/results.json and returns
// the path.
func WriteResults(dir string, report *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", ragerrors.New(ragerrors.ErrCodeStorage, "failed to create eval directory", err).WithDetail("dir", dir)
	}

	results := report.Results
	if results == nil {
		results = []Result{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", ragerrors.InternalError("failed to encode eval results", err)
	}

	path := filepath.Join(dir, ResultsFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", ragerrors.New(ragerrors.ErrCodeStorage, "failed to write eval results", err).WithDetail("path", path)
	}
	return path, nil
}
