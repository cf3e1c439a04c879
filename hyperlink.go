package xlbind

// HyperlinkValue is a clickable hyperlink. In the snapshot it resolves to its
// display text, or to the target when no display text is set.
type HyperlinkValue struct {
	URL     string
	Display string
}

// String returns the display text for the hyperlink.
func (h HyperlinkValue) String() string {
	if h.Display != "" {
		return h.Display
	}
	return h.URL
}

// Hyperlink creates a HyperlinkValue for use in computed binding paths.
// Usage: hyperlink(basic.chart_url, "Chart")
func Hyperlink(url, display string) HyperlinkValue {
	return HyperlinkValue{URL: url, Display: display}
}
