package parser

import (
	"regexp"
	"strings"
)

// DefaultMaxLookahead bounds how far past a time header detail lines are collected
const DefaultMaxLookahead = 15

// DefaultTrailingMarkers are link labels rendered at the end of detail lines
var DefaultTrailingMarkers = []string{"Description »"}

// EventBlock is a time header plus the detail lines that follow it
type EventBlock struct {
	Header  TimeHeader
	Details []string // non-blank, non-noise lines in order
	Noise   []string // denylisted lines inside the window, kept for flag rules
}

// Lines returns every source line of the block: the header's trailing text,
// the detail lines and the noise lines.
func (b *EventBlock) Lines() []string {
	lines := make([]string, 0, len(b.Details)+len(b.Noise)+1)
	if b.Header.Trailing != "" {
		lines = append(lines, b.Header.Trailing)
	}
	lines = append(lines, b.Details...)
	lines = append(lines, b.Noise...)
	return lines
}

// BlockExtractor groups a day's lines into event blocks
type BlockExtractor struct {
	maxLookahead int
	trailing     []*regexp.Regexp
}

// NewBlockExtractor creates a BlockExtractor.
// A window of at most maxLookahead lines, header included, is scanned per event.
func NewBlockExtractor(maxLookahead int, trailingMarkers []string) *BlockExtractor {
	if maxLookahead <= 1 {
		maxLookahead = DefaultMaxLookahead
	}

	b := &BlockExtractor{maxLookahead: maxLookahead}
	for _, marker := range trailingMarkers {
		marker = strings.TrimSpace(marker)
		if marker == "" {
			continue
		}
		// Tolerate any spacing inside the marker ("Description»", "Description  »")
		parts := strings.Fields(marker)
		for i, p := range parts {
			parts[i] = regexp.QuoteMeta(p)
		}
		b.trailing = append(b.trailing, regexp.MustCompile(`\s*`+strings.Join(parts, `\s*`)+`\s*$`))
	}
	return b
}

// Blocks returns one EventBlock per time header in the day, in order
func (b *BlockExtractor) Blocks(day DayBlock) []EventBlock {
	blocks := make([]EventBlock, 0)

	for i, line := range day.Lines {
		if line.Class.Kind != KindTimeHeader {
			continue
		}

		block := EventBlock{Header: line.Class.Time}

		for j := i + 1; j < len(day.Lines) && j < i+b.maxLookahead; j++ {
			next := day.Lines[j]
			if next.Class.Kind == KindTimeHeader || next.Class.Kind == KindDayHeader {
				break
			}
			if next.Text == "" {
				continue
			}
			if next.Class.Kind == KindNoise {
				block.Noise = append(block.Noise, next.Text)
				continue
			}

			text := b.stripTrailing(next.Text)
			if text == "" {
				block.Noise = append(block.Noise, next.Text)
				continue
			}
			block.Details = append(block.Details, text)
		}

		blocks = append(blocks, block)
	}

	return blocks
}

func (b *BlockExtractor) stripTrailing(text string) string {
	for _, re := range b.trailing {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}
