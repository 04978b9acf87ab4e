package gamedata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// ParseHexColor converts a hex color string (e.g., "#FF0000" or "FF0000") to a tcell.Color.
func ParseHexColor(hex string) (tcell.Color, error) {
	// Remove leading # if present
	hex = strings.TrimPrefix(hex, "#")

	if len(hex) != 6 {
		return tcell.ColorDefault, fmt.Errorf("invalid hex color length: %s", hex)
	}

	// Parse RGB components
	r, err := strconv.ParseUint(hex[0:2], 16, 8)
	if err != nil {
		return tcell.ColorDefault, fmt.Errorf("invalid red component in %s: %w", hex, err)
	}

	g, err := strconv.ParseUint(hex[2:4], 16, 8)
	if err != nil {
		return tcell.ColorDefault, fmt.Errorf("invalid green component in %s: %w", hex, err)
	}

	b, err := strconv.ParseUint(hex[4:6], 16, 8)
	if err != nil {
		return tcell.ColorDefault, fmt.Errorf("invalid blue component in %s: %w", hex, err)
	}

	return tcell.NewRGBColor(int32(r), int32(g), int32(b)), nil
}

// MustParseHexColor converts a hex color string to tcell.Color, panicking on error.
func MustParseHexColor(hex string) tcell.Color {
	color, err := ParseHexColor(hex)
	if err != nil {
		panic(err)
	}
	return color
}

// ThemeDef is the structure of theme.json. Colors are hex strings.
type ThemeDef struct {
	Lanes   map[string]string `json:"lanes"`   // Beatmap source tag to lane color
	HUD     string            `json:"hud"`     // Score, lives and combo text
	Symbol  string            `json:"symbol"`  // Current symbol glyph
	Preview string            `json:"preview"` // Next symbol preview
	Gap     string            `json:"gap"`     // Idle beats between symbols
	Bonus   string            `json:"bonus"`   // Strokes that can restore a life
	Perfect string            `json:"perfect"`
	Great   string            `json:"great"`
	Good    string            `json:"good"`
	Miss    string            `json:"miss"`
}

// Palette holds parsed theme colors ready for drawing.
type Palette struct {
	Lanes   map[string]tcell.Color
	HUD     tcell.Color
	Symbol  tcell.Color
	Preview tcell.Color
	Gap     tcell.Color
	Bonus   tcell.Color
	Perfect tcell.Color
	Great   tcell.Color
	Good    tcell.Color
	Miss    tcell.Color
}

// Lane returns the color for a source tag, falling back to the base lane.
func (p *Palette) Lane(tag string) tcell.Color {
	if c, ok := p.Lanes[tag]; ok {
		return c
	}
	if c, ok := p.Lanes["base"]; ok {
		return c
	}
	return tcell.ColorGray
}

// Palette parses every color in the theme.
func (d ThemeDef) Palette() (*Palette, error) {
	p := &Palette{Lanes: make(map[string]tcell.Color, len(d.Lanes))}
	for tag, hex := range d.Lanes {
		c, err := ParseHexColor(hex)
		if err != nil {
			return nil, fmt.Errorf("lane %s: %w", tag, err)
		}
		p.Lanes[tag] = c
	}

	fields := []struct {
		name string
		hex  string
		dst  *tcell.Color
	}{
		{"hud", d.HUD, &p.HUD},
		{"symbol", d.Symbol, &p.Symbol},
		{"preview", d.Preview, &p.Preview},
		{"gap", d.Gap, &p.Gap},
		{"bonus", d.Bonus, &p.Bonus},
		{"perfect", d.Perfect, &p.Perfect},
		{"great", d.Great, &p.Great},
		{"good", d.Good, &p.Good},
		{"miss", d.Miss, &p.Miss},
	}
	for _, f := range fields {
		c, err := ParseHexColor(f.hex)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = c
	}
	return p, nil
}

// LoadPalette loads and parses the embedded theme.json.
func LoadPalette() (*Palette, error) {
	def, err := Load[ThemeDef]("theme.json")
	if err != nil {
		return nil, err
	}
	return def.Palette()
}

// MustLoadPalette loads the theme, panicking on error.
func MustLoadPalette() *Palette {
	p, err := LoadPalette()
	if err != nil {
		panic(err)
	}
	return p
}
