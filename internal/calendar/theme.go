package calendar

// Theme carries the host palette the graph draws with. Colours are CSS hex strings.
type Theme struct {
	Primary       string
	Divider       string
	TextSecondary string
	Paper         string
}

// DefaultTheme matches the light palette of the web front end.
var DefaultTheme = Theme{
	Primary:       "#795548",
	Divider:       "#e0e0e0",
	TextSecondary: "#757575",
	Paper:         "#ffffff",
}

// DarkTheme is used by the terminal browser.
var DarkTheme = Theme{
	Primary:       "#a1887f",
	Divider:       "#3a3a3a",
	TextSecondary: "#9e9e9e",
	Paper:         "#1e1e1e",
}

func (t Theme) orDefault() Theme {
	d := DefaultTheme
	if t.Primary != "" {
		d.Primary = t.Primary
	}
	if t.Divider != "" {
		d.Divider = t.Divider
	}
	if t.TextSecondary != "" {
		d.TextSecondary = t.TextSecondary
	}
	if t.Paper != "" {
		d.Paper = t.Paper
	}
	return d
}
