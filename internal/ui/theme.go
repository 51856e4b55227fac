package ui

import "charm.land/lipgloss/v2"

type Theme struct {
	Header       lipgloss.Style
	Status       lipgloss.Style
	PanelTitle   lipgloss.Style
	PanelBorder  lipgloss.Style
	PanelBody    lipgloss.Style
	Overlay      lipgloss.Style
	OverlayTitle lipgloss.Style
	Accent       lipgloss.Style
	Good         lipgloss.Style
	Bad          lipgloss.Style
	Pending      lipgloss.Style
	Muted        lipgloss.Style
	Info         lipgloss.Style

	CatPwn    lipgloss.Style
	CatWeb    lipgloss.Style
	CatRev    lipgloss.Style
	CatCrypto lipgloss.Style
	CatMisc   lipgloss.Style
}

// Category picks the badge style for a normalized category name.
func (t Theme) Category(cat string) lipgloss.Style {
	switch cat {
	case "pwn":
		return t.CatPwn
	case "web":
		return t.CatWeb
	case "rev":
		return t.CatRev
	case "crypto":
		return t.CatCrypto
	default:
		return t.CatMisc
	}
}

func DefaultTheme() Theme {
	return ThemeForVariant("hex_dark")
}

func ThemeForVariant(variant string) Theme {
	switch variant {
	case "paper_light":
		return paperLightTheme()
	case "terminal_green":
		return terminalGreenTheme()
	default:
		return hexDarkTheme()
	}
}

func hexDarkTheme() Theme {
	mint := lipgloss.Color("#67F0A8")
	brick := lipgloss.Color("#FF6F91")
	amber := lipgloss.Color("#FFC857")
	ink := lipgloss.Color("#0E1420")
	slate := lipgloss.Color("#1B2740")
	powder := lipgloss.Color("#EAF2FF")
	blue := lipgloss.Color("#5EEBFF")
	violet := lipgloss.Color("#B18CFF")
	border := lipgloss.Color("#4B5F8A")

	return Theme{
		Header:      lipgloss.NewStyle().Background(ink).Foreground(powder).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(slate).Foreground(powder).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(blue).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(border),
		PanelBody:   lipgloss.NewStyle().Foreground(powder),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Background(ink).
			Foreground(powder).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(blue).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(blue).Bold(true),
		Good:         lipgloss.NewStyle().Foreground(mint).Bold(true),
		Bad:          lipgloss.NewStyle().Foreground(brick).Bold(true),
		Pending:      lipgloss.NewStyle().Foreground(amber),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#9CAAC6")),
		Info:         lipgloss.NewStyle().Foreground(blue),
		CatPwn:       lipgloss.NewStyle().Foreground(brick).Bold(true),
		CatWeb:       lipgloss.NewStyle().Foreground(blue).Bold(true),
		CatRev:       lipgloss.NewStyle().Foreground(violet).Bold(true),
		CatCrypto:    lipgloss.NewStyle().Foreground(amber).Bold(true),
		CatMisc:      lipgloss.NewStyle().Foreground(mint).Bold(true),
	}
}

func paperLightTheme() Theme {
	coal := lipgloss.Color("#2B2F36")
	paper := lipgloss.Color("#F4F6FA")
	cloud := lipgloss.Color("#DDE3EC")
	sky := lipgloss.Color("#2E6FD8")
	moss := lipgloss.Color("#2F8F5B")
	rose := lipgloss.Color("#C7445C")
	honey := lipgloss.Color("#B07A1E")
	plum := lipgloss.Color("#7A4FB3")

	return Theme{
		Header:      lipgloss.NewStyle().Background(coal).Foreground(paper).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(cloud).Foreground(coal).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(sky).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(cloud),
		PanelBody:   lipgloss.NewStyle().Foreground(coal),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(sky).
			Background(paper).
			Foreground(coal).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(sky).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(sky).Bold(true),
		Good:         lipgloss.NewStyle().Foreground(moss).Bold(true),
		Bad:          lipgloss.NewStyle().Foreground(rose).Bold(true),
		Pending:      lipgloss.NewStyle().Foreground(honey),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#7A8496")),
		Info:         lipgloss.NewStyle().Foreground(sky),
		CatPwn:       lipgloss.NewStyle().Foreground(rose).Bold(true),
		CatWeb:       lipgloss.NewStyle().Foreground(sky).Bold(true),
		CatRev:       lipgloss.NewStyle().Foreground(plum).Bold(true),
		CatCrypto:    lipgloss.NewStyle().Foreground(honey).Bold(true),
		CatMisc:      lipgloss.NewStyle().Foreground(moss).Bold(true),
	}
}

func terminalGreenTheme() Theme {
	lime := lipgloss.Color("#9CF5A2")
	amber := lipgloss.Color("#E5D47A")
	red := lipgloss.Color("#FF6B6B")
	deep := lipgloss.Color("#07150A")
	forest := lipgloss.Color("#12301A")
	glow := lipgloss.Color("#C5F7C4")

	return Theme{
		Header:      lipgloss.NewStyle().Background(deep).Foreground(glow).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(forest).Foreground(glow).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(amber).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(forest),
		PanelBody:   lipgloss.NewStyle().Foreground(glow),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(amber).
			Background(deep).
			Foreground(glow).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(amber).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(lime).Bold(true),
		Good:         lipgloss.NewStyle().Foreground(lime).Bold(true),
		Bad:          lipgloss.NewStyle().Foreground(red).Bold(true),
		Pending:      lipgloss.NewStyle().Foreground(amber),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#73A17A")),
		Info:         lipgloss.NewStyle().Foreground(lime),
		CatPwn:       lipgloss.NewStyle().Foreground(red).Bold(true),
		CatWeb:       lipgloss.NewStyle().Foreground(lime).Bold(true),
		CatRev:       lipgloss.NewStyle().Foreground(amber).Bold(true),
		CatCrypto:    lipgloss.NewStyle().Foreground(glow).Bold(true),
		CatMisc:      lipgloss.NewStyle().Foreground(lime).Bold(true),
	}
}
