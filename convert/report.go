package convert

import (
	"github.com/VantageDataChat/figslides/deck"
	"github.com/samber/lo"
)

// Status is the outcome of converting one element.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result records what happened to one element. Children is set for groups.
type Result struct {
	Index    int       `yaml:"index" json:"index"`
	Kind     deck.Kind `yaml:"kind" json:"kind"`
	Status   Status    `yaml:"status" json:"status"`
	Reason   string    `yaml:"reason,omitempty" json:"reason,omitempty"`
	Children []Result  `yaml:"children,omitempty" json:"children,omitempty"`
}

// SlideReport records one slide.
type SlideReport struct {
	Index int    `yaml:"index" json:"index"`
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	// Source is the slide size in source pixels.
	Source Size `yaml:"source" json:"source"`
	// Canvas is the output slide size in inches.
	Canvas   Size     `yaml:"canvas" json:"canvas"`
	Elements []Result `yaml:"elements" json:"elements"`
	Warnings []string `yaml:"warnings,omitempty" json:"warnings,omitempty"`
}

// Report is the outcome of one conversion.
type Report struct {
	Slides []SlideReport `yaml:"slides" json:"slides"`
}

// Count returns how many elements, group children included, ended with
// status s.
func (r *Report) Count(s Status) int {
	return lo.SumBy(r.Slides, func(slide SlideReport) int {
		return countStatus(slide.Elements, s)
	})
}

// Total returns the number of elements, group children included.
func (r *Report) Total() int {
	return lo.SumBy(r.Slides, func(slide SlideReport) int {
		return countAll(slide.Elements)
	})
}

// Failures returns every failed result, flattened.
func (r *Report) Failures() []Result {
	var out []Result
	for _, slide := range r.Slides {
		out = append(out, flatten(slide.Elements, func(res Result) bool { return res.Status == StatusFailed })...)
	}
	return out
}

func countStatus(results []Result, s Status) int {
	return lo.CountBy(results, func(r Result) bool { return r.Status == s }) +
		lo.SumBy(results, func(r Result) int { return countStatus(r.Children, s) })
}

func countAll(results []Result) int {
	return len(results) + lo.SumBy(results, func(r Result) int { return countAll(r.Children) })
}

func flatten(results []Result, keep func(Result) bool) []Result {
	var out []Result
	for _, r := range results {
		if keep(r) {
			out = append(out, r)
		}
		out = append(out, flatten(r.Children, keep)...)
	}
	return out
}
