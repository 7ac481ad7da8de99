// Package extract recovers structured field data from free-text model replies
// and builds the deterministic mappings used when a reply cannot be used.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when no strategy finds valid JSON in a reply.
var ErrNoJSON = errors.New("no valid JSON found in content")

// Strategy names the extraction step that produced a result.
type Strategy string

const (
	StrategyFenced    Strategy = "fenced_block"
	StrategyBraceScan Strategy = "brace_scan"
	StrategyWholeText Strategy = "whole_text"
)

// fencedBlock matches a markdown code fence, optionally tagged json, holding a {...} body.
var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Result is a successful extraction.
type Result struct {
	Value    any
	Strategy Strategy
}

// Extract returns the parsed JSON value found in text, or ErrNoJSON.
func Extract(text string) (any, error) {
	res, err := ExtractResult(text)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// ExtractResult applies the strategies in precision order (fenced block, balanced
// brace scan, whole text) and reports which one succeeded.
func ExtractResult(text string) (Result, error) {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if v, err := parseJSON(m[1]); err == nil {
			return Result{Value: v, Strategy: StrategyFenced}, nil
		}
	}

	if span, ok := firstBalancedSpan(text); ok {
		if v, err := parseJSON(span); err == nil {
			return Result{Value: v, Strategy: StrategyBraceScan}, nil
		}
	}

	if v, err := parseJSON(strings.TrimSpace(text)); err == nil {
		return Result{Value: v, Strategy: StrategyWholeText}, nil
	}

	return Result{}, ErrNoJSON
}

// firstBalancedSpan returns the first top-level {...} span. Closing braces seen
// before the first opening brace are ignored.
func firstBalancedSpan(text string) (string, bool) {
	depth := 0
	start := -1
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start == -1 {
				continue
			}
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// parseJSON decodes exactly one JSON document, keeping numbers as json.Number.
func parseJSON(s string) (any, error) {
	if s == "" {
		return nil, io.ErrUnexpectedEOF
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}
