package ticker

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Stats is the rolling 24h summary shown on the price card.
type Stats struct {
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        float64 `json:"volume"`
}

// Up reports whether the pair is flat or up over the window.
func (s Stats) Up() bool {
	return s.Change >= 0
}

// Color returns the card color for the current direction.
func (s Stats) Color() string {
	if s.Up() {
		return "#0ECB81"
	}
	return "#F6465D"
}

// FormatPrice renders 67123.456 as "67,123.46".
func (s Stats) FormatPrice() string {
	return printer.Sprintf("%.2f", s.Price)
}

// FormatChange renders "+1,234.56 (+1.23%)". Negative values carry their own
// minus sign.
func (s Stats) FormatChange() string {
	sign := ""
	if s.Up() {
		sign = "+"
	}
	return printer.Sprintf("%s%.2f (%s%.2f%%)", sign, s.Change, sign, s.ChangePercent)
}

// FormatVolume renders the 24h base volume with grouping.
func (s Stats) FormatVolume() string {
	return printer.Sprintf("%.2f", s.Volume)
}
