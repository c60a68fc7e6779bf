package store

import (
	"fmt"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/registry"
)

// TextAnalyzerName is the name of the analyzer shared by indexing and queries.
const TextAnalyzerName = "docrag_text"

// Analyzer turns text into lowercase word tokens. Unicode word segmentation
// drops whitespace and punctuation.
type Analyzer struct {
	analyzer analysis.Analyzer
}

// NewAnalyzer builds the text analyzer from bleve's unicode tokenizer and
// lowercase filter.
func NewAnalyzer() (*Analyzer, error) {
	cache := registry.NewCache()
	a, err := cache.DefineAnalyzer(TextAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			lowercase.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to define text analyzer: %w", err)
	}
	return &Analyzer{analyzer: a}, nil
}

// Tokens returns the terms of text in order. Repeated terms are kept.
func (a *Analyzer) Tokens(text string) []string {
	stream := a.analyzer.Analyze([]byte(text))
	tokens := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) == 0 {
			continue
		}
		tokens = append(tokens, string(tok.Term))
	}
	return tokens
}
