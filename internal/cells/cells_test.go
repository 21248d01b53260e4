package cells

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInterpret_TextCellWithSize(t *testing.T) {
	raw := `[{"cell_0": {"text": [{"caption": "A", "content": "B"}], "size": {"width": "1/2", "height": "1/3"}}}]`

	layout := Interpret([]byte(raw))

	want := []Box{{
		Index:  0,
		Kind:   KindText,
		Width:  Dimension{Fraction: 0.5, Num: 1, Den: 2},
		Height: Dimension{Fraction: 1.0 / 3.0, Num: 1, Den: 3},
		Text:   []TextEntry{{Caption: "A", Content: "B"}},
	}}
	if diff := cmp.Diff(want, layout.Boxes); diff != "" {
		t.Errorf("Interpret() boxes mismatch (-want +got):\n%s", diff)
	}
	if len(layout.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", layout.Diagnostics)
	}

	box := layout.Boxes[0]
	if got := box.Width.CSS(); got != "calc(1/2 * 100% - 1rem)" {
		t.Errorf("width CSS = %q", got)
	}
	if got := box.Height.CSS(); got != "calc(1/3 * 100% - 1rem)" {
		t.Errorf("height CSS = %q", got)
	}
}

func TestInterpret_MissingKeySkipsOnlyThatEntry(t *testing.T) {
	raw := `[
		{"cell_0": {"color": "red"}},
		{"cell_7": {"color": "blue"}},
		{"cell_2": {"text": [{"caption": "x", "content": "y"}]}}
	]`

	layout := Interpret([]byte(raw))

	if layout.Entries != 3 {
		t.Errorf("Entries = %d, want 3", layout.Entries)
	}
	var indexes []int
	for _, b := range layout.Boxes {
		indexes = append(indexes, b.Index)
	}
	if diff := cmp.Diff([]int{0, 2}, indexes); diff != "" {
		t.Errorf("rendered indexes mismatch (-want +got):\n%s", diff)
	}

	wantDiag := []Diagnostic{{Index: 1, Message: "no data found for cell_1"}}
	if diff := cmp.Diff(wantDiag, layout.Diagnostics); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpret_ColorCell(t *testing.T) {
	layout := Interpret([]byte(`[{"cell_0": {"color": "rgb(10,20,30)"}}]`))

	if len(layout.Boxes) != 1 {
		t.Fatalf("got %d boxes, want 1", len(layout.Boxes))
	}
	box := layout.Boxes[0]
	if box.Kind != KindColor {
		t.Errorf("Kind = %s, want color", box.Kind)
	}
	if box.Color != "rgb(10,20,30)" {
		t.Errorf("Color = %q", box.Color)
	}
	if len(box.Text) != 0 {
		t.Errorf("color box should carry no text, got %v", box.Text)
	}
	if !strings.Contains(box.CSS(), "background-color: rgb(10,20,30);") {
		t.Errorf("CSS() = %q", box.CSS())
	}
}

func TestInterpret_ColorWinsOverText(t *testing.T) {
	layout := Interpret([]byte(`[{"cell_0": {"color": "#fff", "text": [{"caption": "a", "content": "b"}]}}]`))

	if layout.Boxes[0].Kind != KindColor || layout.Boxes[0].Text != nil {
		t.Errorf("box = %+v, want flat color box", layout.Boxes[0])
	}
}

func TestInterpret_InvalidColorFallsBackToText(t *testing.T) {
	raw := `[{"cell_0": {"color": "red; position: fixed", "text": [{"caption": "a", "content": "b"}]}}]`
	layout := Interpret([]byte(raw))

	box := layout.Boxes[0]
	if box.Kind != KindText || box.Color != "" {
		t.Errorf("box = %+v, want text box without color", box)
	}
	if len(layout.Diagnostics) != 1 || !strings.Contains(layout.Diagnostics[0].Message, "invalid color") {
		t.Errorf("Diagnostics = %v", layout.Diagnostics)
	}
	if strings.Contains(box.CSS(), "position") {
		t.Errorf("CSS() leaked the rejected color: %q", box.CSS())
	}
}

func TestInterpret_TextShapes(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantKind Kind
		wantText []TextEntry
		diags    int
	}{
		{"text string", `{"text": "hello"}`, KindPlaceholder, nil, 1},
		{"text object", `{"text": {"caption": "a"}}`, KindPlaceholder, nil, 1},
		{"no text no color", `{}`, KindEmpty, nil, 0},
		{"null text", `{"text": null}`, KindEmpty, nil, 0},
		{"empty list", `{"text": []}`, KindText, []TextEntry{}, 0},
		{"missing fields", `{"text": [{"caption": "only"}]}`, KindText, []TextEntry{{Caption: "only"}}, 0},
		{"non-object item", `{"text": ["x", {"caption": "c", "content": "d"}]}`, KindText, []TextEntry{{Caption: "c", Content: "d"}}, 1},
		{"numeric content", `{"text": [{"caption": "n", "content": 42}]}`, KindText, []TextEntry{{Caption: "n", Content: "42"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := Interpret([]byte(`[{"cell_0": ` + tt.payload + `}]`))
			if len(layout.Boxes) != 1 {
				t.Fatalf("got %d boxes, want 1", len(layout.Boxes))
			}
			box := layout.Boxes[0]
			if box.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", box.Kind, tt.wantKind)
			}
			if diff := cmp.Diff(tt.wantText, box.Text); diff != "" {
				t.Errorf("Text mismatch (-want +got):\n%s", diff)
			}
			if len(layout.Diagnostics) != tt.diags {
				t.Errorf("Diagnostics = %v, want %d", layout.Diagnostics, tt.diags)
			}
		})
	}
}

func TestInterpret_MalformedPayloads(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		entries int
		diags   int
	}{
		{"empty input", ``, 0, 0},
		{"empty array", `[]`, 0, 0},
		{"not json", `[{"cell_0":`, 0, 1},
		{"object root", `{"cell_0": {}}`, 0, 1},
		{"scalar entries", `[1, "two", null]`, 3, 3},
		{"payload is a string", `[{"cell_0": "red"}]`, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var layout Layout
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Fatalf("Interpret panicked: %v", r)
					}
				}()
				layout = Interpret([]byte(tt.raw))
			}()

			if !layout.Empty() {
				t.Errorf("expected no boxes, got %v", layout.Boxes)
			}
			if layout.Entries != tt.entries {
				t.Errorf("Entries = %d, want %d", layout.Entries, tt.entries)
			}
			if len(layout.Diagnostics) != tt.diags {
				t.Errorf("Diagnostics = %v, want %d", layout.Diagnostics, tt.diags)
			}
		})
	}
}

func TestInterpret_SizeDefaultsAndFallbacks(t *testing.T) {
	tests := []struct {
		name       string
		size       string
		wantWidth  string
		wantHeight string
		diags      int
	}{
		{"absent", ``, "100%", "auto", 0},
		{"explicit defaults", `"size": {"width": "1/1", "height": "auto"},`, "100%", "auto", 0},
		{"full height", `"size": {"width": "1/4", "height": "1/1"},`, "calc(1/4 * 100% - 1rem)", "100%", 0},
		{"decimal", `"size": {"width": 0.5, "height": "25%"},`, "calc(0.5 * 100% - 1rem)", "calc(0.25 * 100% - 1rem)", 0},
		{"garbage", `"size": {"width": "half", "height": "tall"},`, "100%", "auto", 2},
		{"zero denominator", `"size": {"width": "1/0"},`, "100%", "auto", 1},
		{"too large", `"size": {"width": "3/2", "height": "2"},`, "100%", "100%", 2},
		{"auto width", `"size": {"width": "auto"},`, "100%", "auto", 1},
		{"nested object", `"size": {"width": {"v": 1}},`, "100%", "auto", 1},
		{"size not object", `"size": "1/2",`, "100%", "auto", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `[{"cell_0": {` + tt.size + `"color": "teal"}}]`
			layout := Interpret([]byte(raw))
			if len(layout.Boxes) != 1 {
				t.Fatalf("got %d boxes", len(layout.Boxes))
			}
			box := layout.Boxes[0]
			if got := box.Width.CSS(); got != tt.wantWidth {
				t.Errorf("width = %q, want %q", got, tt.wantWidth)
			}
			if got := box.Height.CSS(); got != tt.wantHeight {
				t.Errorf("height = %q, want %q", got, tt.wantHeight)
			}
			if len(layout.Diagnostics) != tt.diags {
				t.Errorf("Diagnostics = %v, want %d", layout.Diagnostics, tt.diags)
			}
		})
	}
}

func TestBox_CSS(t *testing.T) {
	box := Box{Kind: KindText, Width: Dimension{Fraction: 0.5, Num: 1, Den: 2}, Height: AutoSize()}

	want := "width: calc(1/2 * 100% - 1rem); height: auto; flex-grow: 0; flex-shrink: 0; " +
		"flex-basis: calc(1/2 * 100% - 1rem); margin-bottom: 1rem; min-height: 100px;"
	if got := box.CSS(); got != want {
		t.Errorf("CSS() =\n%q\nwant\n%q", got, want)
	}
}

func TestValidColor(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"rgb(10, 20, 30)", true},
		{"rgba(10,20,30,0.5)", true},
		{"RGB(1,2,3)", true},
		{"hsl(120deg 50% 50%)", true},
		{"#abc", true},
		{"#a1b2c3", true},
		{"#a1b2c3d4", true},
		{"rebeccapurple", true},
		{"#abcde", false},
		{"url(javascript:alert(1))", false},
		{"red; background: url(x)", false},
		{"rgb(1,2,3)) x", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidColor(tt.in); got != tt.want {
			t.Errorf("ValidColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDiagnostic_String(t *testing.T) {
	if got := (Diagnostic{Index: 3, Message: "bad"}).String(); got != "cell_3: bad" {
		t.Errorf("String() = %q", got)
	}
	if got := (Diagnostic{Index: -1, Message: "whole"}).String(); got != "whole" {
		t.Errorf("String() = %q", got)
	}
}
