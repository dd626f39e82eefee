// Package faq answers assistant questions from a fixed, ordered keyword
// knowledge base.
package faq

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed knowledge.yaml
var knowledgeYAML []byte

// Entry is one canned answer and the keywords that select it.
type Entry struct {
	Topic    string   `yaml:"topic" json:"topic"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Response string   `yaml:"response" json:"response"`
}

// QuickAction is a suggested question shown before the user types anything.
type QuickAction struct {
	Label string `yaml:"label" json:"label"`
	Query string `yaml:"query" json:"query"`
}

type knowledgeBase struct {
	Welcome      string        `yaml:"welcome"`
	Fallback     string        `yaml:"fallback"`
	QuickActions []QuickAction `yaml:"quick_actions"`
	Entries      []Entry       `yaml:"entries"`
}

// Responder is immutable and safe for concurrent use.
type Responder struct {
	kb knowledgeBase
}

// Load builds the responder from the embedded knowledge base.
func Load() (*Responder, error) {
	return Parse(knowledgeYAML)
}

// Parse builds a responder from YAML. Entry order is kept as declared.
func Parse(data []byte) (*Responder, error) {
	var kb knowledgeBase
	if err := yaml.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	if strings.TrimSpace(kb.Fallback) == "" {
		return nil, errors.New("parse knowledge base: fallback is empty")
	}
	for i, e := range kb.Entries {
		if e.Response == "" || len(e.Keywords) == 0 {
			return nil, fmt.Errorf("parse knowledge base: entry %d (%s) needs keywords and a response", i, e.Topic)
		}
		for _, kw := range e.Keywords {
			// input is lower-cased before matching, so keywords must be too
			if kw == "" || kw != strings.ToLower(kw) {
				return nil, fmt.Errorf("parse knowledge base: entry %d (%s) has invalid keyword %q", i, e.Topic, kw)
			}
		}
	}
	return &Responder{kb: kb}, nil
}

// Match returns the first entry with a keyword contained in the lower-cased
// input. Earlier entries win; there is no scoring.
func (r *Responder) Match(input string) (Entry, bool) {
	lower := strings.ToLower(input)
	for _, e := range r.kb.Entries {
		for _, kw := range e.Keywords {
			if strings.Contains(lower, kw) {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// Respond answers input with the matching entry or the fallback text.
func (r *Responder) Respond(input string) string {
	if e, ok := r.Match(input); ok {
		return e.Response
	}
	return r.kb.Fallback
}

func (r *Responder) Fallback() string { return r.kb.Fallback }

func (r *Responder) Welcome() string { return r.kb.Welcome }

func (r *Responder) QuickActions() []QuickAction {
	out := make([]QuickAction, len(r.kb.QuickActions))
	copy(out, r.kb.QuickActions)
	return out
}

func (r *Responder) Entries() []Entry {
	out := make([]Entry, len(r.kb.Entries))
	copy(out, r.kb.Entries)
	return out
}
