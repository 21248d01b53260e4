package cells

import "strings"

// MinHeight keeps short boxes visible
const MinHeight = "100px"

// Declaration is a single CSS property/value pair
type Declaration struct {
	Property string
	Value    string
}

// Style returns the inline CSS declarations for the box, in a stable order
func (b Box) Style() []Declaration {
	width := b.Width.CSS()
	decls := []Declaration{
		{"width", width},
		{"height", b.Height.CSS()},
		{"flex-grow", "0"},
		{"flex-shrink", "0"},
		{"flex-basis", width},
		{"margin-bottom", Margin},
		{"min-height", MinHeight},
	}
	if b.Kind == KindColor && b.Color != "" {
		decls = append(decls, Declaration{"background-color", b.Color})
	}
	return decls
}

// CSS renders Style as a style attribute value
func (b Box) CSS() string {
	var sb strings.Builder
	for i, d := range b.Style() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(d.Property)
		sb.WriteString(": ")
		sb.WriteString(d.Value)
		sb.WriteByte(';')
	}
	return sb.String()
}
