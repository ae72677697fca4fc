package convoflow

import "strings"

// Section is one titled block of structured prompt text. A section carries
// either a freeform body or a bullet list, never both.
type Section struct {
	Title   string
	Body    string
	Bullets []string
}

// body is the tagged union behind the two content-construction modes.
// An entity commits to one variant on first assignment; the conflicting
// variant is rejected afterward.
type body interface {
	render() string
}

// textBody is the flat-text construction mode.
type textBody string

func (b textBody) render() string { return string(b) }

// sectionBody is the structured-section construction mode.
type sectionBody []Section

// render flattens sections into markdown-like text: one heading line per
// section, one "- "-prefixed line per bullet, a blank line between sections.
func (b sectionBody) render() string {
	var out strings.Builder
	for i, s := range b {
		if i > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString("## ")
		out.WriteString(s.Title)
		out.WriteString("\n\n")
		if len(s.Bullets) > 0 {
			for j, item := range s.Bullets {
				if j > 0 {
					out.WriteString("\n")
				}
				out.WriteString("- ")
				out.WriteString(item)
			}
		} else {
			out.WriteString(s.Body)
		}
	}
	return out.String()
}

// serialize emits the raw section list for the "pom" wire field.
func (b sectionBody) serialize() []map[string]any {
	out := make([]map[string]any, 0, len(b))
	for _, s := range b {
		m := map[string]any{"title": s.Title}
		if len(s.Bullets) > 0 {
			m["bullets"] = append([]string(nil), s.Bullets...)
		} else {
			m["body"] = s.Body
		}
		out = append(out, m)
	}
	return out
}
