// Package reply defines the outbound turns the finder core hands back to a
// transport.
package reply

// Menu is an enumerated choice set. Each row holds button labels; how the
// buttons are drawn is up to the transport.
type Menu struct {
	Rows [][]string
}

// Reply is one outbound turn.
type Reply struct {
	Recipient string
	Text      string
	// PhotoRef is an optional opaque image handle sent with the text.
	PhotoRef string
	Menu     *Menu
	// RemoveMenu asks the transport to hide any previously shown menu.
	RemoveMenu bool
}

// Grid lays labels out in rows of width buttons. A width below one puts
// every label on its own row.
func Grid(width int, labels ...string) *Menu {
	if width < 1 {
		width = 1
	}
	menu := &Menu{}
	for start := 0; start < len(labels); start += width {
		end := start + width
		if end > len(labels) {
			end = len(labels)
		}
		menu.Rows = append(menu.Rows, append([]string(nil), labels[start:end]...))
	}
	return menu
}

// WithRow returns a copy of m with one more row appended.
func (m *Menu) WithRow(labels ...string) *Menu {
	out := &Menu{}
	if m != nil {
		for _, row := range m.Rows {
			out.Rows = append(out.Rows, append([]string(nil), row...))
		}
	}
	out.Rows = append(out.Rows, append([]string(nil), labels...))
	return out
}

// Labels returns every label in row order.
func (m *Menu) Labels() []string {
	if m == nil {
		return nil
	}
	var labels []string
	for _, row := range m.Rows {
		labels = append(labels, row...)
	}
	return labels
}
