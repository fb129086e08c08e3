package parser

import "strings"

// Line is one line of page text with its position and classification
type Line struct {
	Index int
	Text  string
	Class Classification
}

// DayBlock is the run of lines belonging to one day header.
// Lines never include another day's header.
type DayBlock struct {
	Header DayHeader
	Index  int // line index of the header
	Lines  []Line
}

// ClassifyLines splits text into trimmed lines and classifies each one
func ClassifyLines(c *Classifier, text string) []Line {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]Line, 0, len(raw))
	for i, r := range raw {
		t := strings.TrimSpace(r)
		lines = append(lines, Line{Index: i, Text: t, Class: c.Classify(t)})
	}
	return lines
}

// Segment cuts lines into day blocks.
// Day headers at an index below skip are ignored; they belong to a filter or legend
// region that precedes the schedule on some pages. Lines before the first accepted header
// are dropped.
func Segment(lines []Line, skip int) []DayBlock {
	blocks := make([]DayBlock, 0)

	var current *DayBlock
	for _, line := range lines {
		if line.Class.Kind == KindDayHeader && line.Index >= skip {
			if current != nil {
				blocks = append(blocks, *current)
			}
			current = &DayBlock{Header: line.Class.Day, Index: line.Index}
			continue
		}

		if current != nil {
			current.Lines = append(current.Lines, line)
		}
	}

	if current != nil {
		blocks = append(blocks, *current)
	}

	return blocks
}
