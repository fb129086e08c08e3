package scraper

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chromedp/cdproto/cdp"
)

func TestTextFromHTML(t *testing.T) {
	f, err := os.Open("testdata/schedule.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	defer f.Close()

	text, err := TextFromHTML(f)
	if err != nil {
		t.Fatalf("TextFromHTML() error = %v", err)
	}
	lines := strings.Split(text, "\n")

	want := []string{
		"Denver Recreation Centers",
		"Fri",
		"Sat",
		"Friday, November 28",
		"5:30am-6:30am",
		"Lap Swim",
		"Lap Pool",
		"NA - No Instructor",
		"Aquatics (AQ)",
		"Carla Madison",
		"Reserve",
		"6:00am - 7:00am",
		"Cancelled",
		"Water Aerobics",
		"Leisure Pool",
		"Dana R.",
		"Aquatics (AQ)",
		"Central Park",
		"zumba_fitness.jpg",
		"Saturday, November 29",
		"9:00am-10:00am",
		"Family Swim",
		"Leisure Pool",
		"Aquatics (AQ)",
		"Rude",
		"Description »",
		"Sign Up »",
	}

	if len(lines) != len(want) {
		t.Fatalf("TextFromHTML() returned %d lines, want %d:\n%s", len(lines), len(want), text)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}

	for _, hidden := range []string{"window.schedule", "display: inline-block", "enable JavaScript", "Group Fitness"} {
		if strings.Contains(text, hidden) {
			t.Errorf("text should not contain %q", hidden)
		}
	}
}

func TestTextFromHTML_Fragments(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"no body element", "<div>Monday, June 1</div><div>9:00am-10:00am Yoga</div>", "Monday, June 1\n9:00am-10:00am Yoga"},
		{"line breaks", "<p>Hiawatha Davis Jr.<br/>Reserve</p>", "Hiawatha Davis Jr.\nReserve"},
		{"image alt text", `<div><img alt="logo" src="/x/logo_41484.jpg"></div>`, "logo"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TextFromHTML(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("TextFromHTML() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("TextFromHTML() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "export.txt")
	if err := os.WriteFile(plain, []byte("Monday, June 1\n9:00am-10:00am Yoga\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		src      *FileSource
		wantText string
		wantHTML bool
		wantErr  bool
	}{
		{
			name:     "plain text file",
			src:      &FileSource{Path: plain},
			wantText: "Monday, June 1\n9:00am-10:00am Yoga\n",
		},
		{
			name:     "html fixture",
			src:      &FileSource{Path: "testdata/schedule.html"},
			wantText: "Denver Recreation Centers",
			wantHTML: true,
		},
		{
			name:     "html sniffed from reader",
			src:      &FileSource{Path: "-", Reader: strings.NewReader("<html><body><p>Tuesday, June 2</p></body></html>")},
			wantText: "Tuesday, June 2",
			wantHTML: true,
		},
		{
			name:    "missing file",
			src:     &FileSource{Path: filepath.Join(dir, "nope.txt")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture, err := tt.src.Capture(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Capture() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(capture.Views) != 1 {
				t.Fatalf("Views = %d, want 1", len(capture.Views))
			}
			if !strings.HasPrefix(capture.Views[0].Text, tt.wantText) {
				t.Errorf("Text = %q, want prefix %q", capture.Views[0].Text, tt.wantText)
			}
			if (capture.HTML != "") != tt.wantHTML {
				t.Errorf("HTML set = %v, want %v", capture.HTML != "", tt.wantHTML)
			}
		})
	}
}

func TestCapture_Texts(t *testing.T) {
	c := &Capture{Views: []View{{Label: "a", Text: "one"}, {Label: "b", Text: "two"}}}
	got := c.Texts()
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("Texts() = %v", got)
	}
}

func TestNewBrowser_Defaults(t *testing.T) {
	b := NewBrowser(BrowserOptions{URL: "http://example.com", Retries: -1})
	if b.opts.Wait != DefaultWait || b.opts.Timeout != DefaultTimeout || b.opts.Retries != 0 {
		t.Errorf("NewBrowser() options = %+v", b.opts)
	}

	if _, err := NewBrowser(BrowserOptions{}).Capture(context.Background()); err == nil {
		t.Error("Capture() without URL should fail")
	}
}

func TestTabLabel(t *testing.T) {
	tests := []struct {
		name string
		node *cdp.Node
		want string
	}{
		{
			name: "inline text",
			node: &cdp.Node{Children: []*cdp.Node{
				{NodeType: cdp.NodeTypeText, NodeValue: " Mon "},
				{NodeType: cdp.NodeTypeElement, NodeValue: ""},
				{NodeType: cdp.NodeTypeText, NodeValue: "Jun 1"},
			}},
			want: "Mon Jun 1",
		},
		{
			name: "no text children",
			node: &cdp.Node{},
			want: "tab 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tabLabel(2, tt.node); got != tt.want {
				t.Errorf("tabLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
