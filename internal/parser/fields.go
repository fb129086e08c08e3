package parser

import (
	"regexp"
	"strings"

	"github.com/pfrederiksen/rec-schedule/internal/event"
)

// NoInstructor is the literal the schedule prints for unstaffed sessions
const NoInstructor = "NA - No Instructor"

const cancelledMarker = "Cancelled"

var (
	// "(AQ)", "(FIT)"
	categoryPattern = regexp.MustCompile(`\(([A-Z]{1,4})\)`)
	// " 45 Carla Madison": a duration followed by the location
	durationPattern = regexp.MustCompile(`\s(\d+)\s+([A-Za-z])`)
)

// Rule fills fields of an event from its block.
// Rules run in chain order and may read fields set by earlier rules.
type Rule struct {
	Name  string
	Apply func(b *EventBlock, evt *event.Event)
}

// Extractor turns event blocks into events by running a rule chain
type Extractor struct {
	rules []Rule
}

// NewExtractor creates an Extractor with the default rule chain
func NewExtractor(g Gazetteer) *Extractor {
	return NewExtractorWithRules(DefaultRules(g)...)
}

// NewExtractorWithRules creates an Extractor with a custom rule chain
func NewExtractorWithRules(rules ...Rule) *Extractor {
	return &Extractor{rules: rules}
}

// DefaultRules returns the standard chain. The studio rule relies on the
// instructor rule having run first.
func DefaultRules(g Gazetteer) []Rule {
	return []Rule{
		{Name: "class_name", Apply: ruleClassName},
		{Name: "cancelled", Apply: ruleCancelled},
		{Name: "category", Apply: ruleCategory},
		{Name: "location", Apply: locationRule(g)},
		{Name: "instructor", Apply: instructorRule(g)},
		{Name: "studio", Apply: ruleStudio},
		{Name: "requires_signup", Apply: ruleRequiresSignup},
	}
}

// Rules returns the names of the rules in chain order
func (x *Extractor) Rules() []string {
	names := make([]string, len(x.rules))
	for i, r := range x.rules {
		names[i] = r.Name
	}
	return names
}

// Extract builds an Event from a block. It never fails; fields that cannot
// be determined are left empty.
func (x *Extractor) Extract(b EventBlock) *event.Event {
	evt := &event.Event{
		StartTime: b.Header.Start,
		EndTime:   b.Header.End,
	}
	for _, r := range x.rules {
		r.Apply(&b, evt)
	}
	return evt
}

// inline reports whether the class name is printed on the time header line.
// Such blocks use the single-line detail format: instructor, studio, category,
// duration and location all on the first detail line.
func inline(b *EventBlock) bool {
	return b.Header.Trailing != ""
}

// classLineIndex returns the index of the detail line holding the class name,
// or -1 when the name comes from the header or no line qualifies.
func classLineIndex(b *EventBlock) int {
	if inline(b) {
		return -1
	}
	for i, line := range b.Details {
		if stripCancelled(line) != "" {
			return i
		}
	}
	return -1
}

func stripCancelled(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, cancelledMarker, "")), " ")
}

func lastCategory(line string) (string, int) {
	matches := categoryPattern.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return "", -1
	}
	m := matches[len(matches)-1]
	return line[m[2]:m[3]], m[0]
}

func ruleClassName(b *EventBlock, evt *event.Event) {
	name := b.Header.Trailing
	if !inline(b) {
		if i := classLineIndex(b); i >= 0 {
			name = b.Details[i]
		}
	}
	evt.ClassName = stripCancelled(name)
}

func ruleCancelled(b *EventBlock, evt *event.Event) {
	for _, line := range b.Lines() {
		if strings.Contains(line, cancelledMarker) {
			evt.Cancelled = true
			return
		}
	}
}

func ruleCategory(b *EventBlock, evt *event.Event) {
	lines := b.Details
	if inline(b) {
		lines = append([]string{b.Header.Trailing}, b.Details...)
	}
	for _, line := range lines {
		if cat, _ := lastCategory(line); cat != "" {
			evt.Category = cat
		}
	}
}

func locationRule(g Gazetteer) func(*EventBlock, *event.Event) {
	return func(b *EventBlock, evt *event.Event) {
		for _, line := range b.Details {
			if name, ok := g.Match(line); ok {
				evt.Location = name
				return
			}
		}

		// No known location: take whatever follows the duration
		classLine := classLineIndex(b)
		for i, line := range b.Details {
			if i == classLine {
				continue
			}
			if m := durationPattern.FindStringSubmatchIndex(line); m != nil {
				if loc := strings.TrimSpace(line[m[4]:]); loc != "" {
					evt.Location = loc
					return
				}
			}
		}
	}
}

func instructorRule(g Gazetteer) func(*EventBlock, *event.Event) {
	return func(b *EventBlock, evt *event.Event) {
		for _, line := range b.Details {
			if strings.Contains(line, NoInstructor) {
				evt.Instructor = NoInstructor
				return
			}
		}

		classLine := classLineIndex(b)
		for i, line := range b.Details {
			if i == classLine || g.IsLocation(line) {
				continue
			}
			if strings.HasSuffix(line, ".") && !strings.HasSuffix(line, "..") && len(strings.Fields(line)) <= 3 {
				evt.Instructor = strings.TrimSpace(strings.TrimSuffix(line, "."))
				return
			}
		}

		// Single-line format has no delimiter between instructor and studio;
		// assume a first and last name.
		if inline(b) && len(b.Details) > 0 {
			if parts := strings.Fields(b.Details[0]); len(parts) >= 2 {
				evt.Instructor = parts[0] + " " + parts[1]
			}
		}
	}
}

func ruleStudio(b *EventBlock, evt *event.Event) {
	if inline(b) {
		if len(b.Details) == 0 {
			return
		}
		line := b.Details[0]
		_, pos := lastCategory(line)
		if pos <= 0 {
			return
		}
		before := strings.TrimSpace(line[:pos])
		// Only strip a whole-word instructor; "Dana R" must not eat into "Dana Roe"
		if evt.Instructor != "" && (before == evt.Instructor || strings.HasPrefix(before, evt.Instructor+" ")) {
			evt.Studio = strings.TrimSpace(before[len(evt.Instructor):])
		}
		return
	}

	if i := classLineIndex(b); i >= 0 && i+1 < len(b.Details) {
		evt.Studio = strings.TrimRight(b.Details[i+1], " ")
	}
}

func ruleRequiresSignup(b *EventBlock, evt *event.Event) {
	for _, line := range b.Lines() {
		if strings.Contains(line, "Sign Up") || strings.Contains(line, "Reserve") {
			evt.RequiresSignup = true
			return
		}
	}
}
