package render

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

var colorFunc = regexp.MustCompile(`^(rgba?|hsla?)\((.*)\)$`)

// namedColors covers the CSS keywords models tend to use
var namedColors = map[string]string{
	"black": "#000000", "white": "#ffffff", "red": "#ff0000", "green": "#008000",
	"blue": "#0000ff", "yellow": "#ffff00", "orange": "#ffa500", "purple": "#800080",
	"pink": "#ffc0cb", "gray": "#808080", "grey": "#808080", "brown": "#a52a2a",
	"cyan": "#00ffff", "magenta": "#ff00ff", "teal": "#008080", "navy": "#000080",
	"maroon": "#800000", "olive": "#808000", "lime": "#00ff00", "aqua": "#00ffff",
	"silver": "#c0c0c0", "gold": "#ffd700", "indigo": "#4b0082", "violet": "#ee82ee",
	"coral": "#ff7f50", "salmon": "#fa8072", "beige": "#f5f5dc", "lavender": "#e6e6fa",
	"turquoise": "#40e0d0", "skyblue": "#87ceeb", "crimson": "#dc143c", "khaki": "#f0e68c",
}

// ParseColor converts a CSS color (hex, rgb[a], hsl[a] or a common name)
// into a terminal color. Alpha is ignored.
func ParseColor(css string) (lipgloss.Color, bool) {
	s := strings.ToLower(strings.TrimSpace(css))

	if hex, ok := namedColors[s]; ok {
		return lipgloss.Color(hex), true
	}

	if strings.HasPrefix(s, "#") {
		if len(s) == 4 || len(s) == 5 {
			s = "#" + string([]byte{s[1], s[1], s[2], s[2], s[3], s[3]})
		}
		if len(s) == 9 {
			s = s[:7]
		}
		c, err := colorful.Hex(s)
		if err != nil {
			return "", false
		}
		return lipgloss.Color(c.Hex()), true
	}

	m := colorFunc.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	args := splitColorArgs(m[2])
	if len(args) < 3 {
		return "", false
	}

	if strings.HasPrefix(m[1], "rgb") {
		var rgb [3]float64
		for i := 0; i < 3; i++ {
			v, ok := channel(args[i], 255)
			if !ok {
				return "", false
			}
			rgb[i] = v
		}
		c := colorful.Color{R: rgb[0], G: rgb[1], B: rgb[2]}
		return lipgloss.Color(c.Clamped().Hex()), true
	}

	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return "", false
	}
	sat, ok1 := channel(args[1], 100)
	light, ok2 := channel(args[2], 100)
	if !ok1 || !ok2 {
		return "", false
	}
	c := colorful.Hsl(h, sat, light)
	return lipgloss.Color(c.Clamped().Hex()), true
}

// splitColorArgs accepts both "1, 2, 3" and "1 2 3 / 0.5"
func splitColorArgs(s string) []string {
	s = strings.NewReplacer(",", " ", "/", " ").Replace(s)
	return strings.Fields(s)
}

// channel parses a number or percentage into [0, 1], scaling plain
// numbers by max
func channel(s string, max float64) (float64, bool) {
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return clamp01(v / 100), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clamp01(v / max), true
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// ContrastText picks black or white ink for text drawn on bg
func ContrastText(bg lipgloss.Color) lipgloss.Color {
	c, err := colorful.Hex(string(bg))
	if err != nil {
		return lipgloss.Color("#ffffff")
	}
	l, _, _ := c.Lab()
	if l > 0.6 {
		return lipgloss.Color("#000000")
	}
	return lipgloss.Color("#ffffff")
}
