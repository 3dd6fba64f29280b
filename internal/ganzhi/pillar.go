package ganzhi

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidPillar marks an unknown stem/branch or a pairing outside the sixty-cycle.
	ErrInvalidPillar = errors.New("invalid pillar")
	// ErrMissingPillar marks a chart without its year, month or day pillar.
	ErrMissingPillar = errors.New("missing mandatory pillar")
)

// Position tags a pillar slot in a chart.
type Position uint8

const (
	Year Position = iota
	Month
	Day
	Hour
	Luck
	Annual
	Monthly
	Daily
	Hourly
)

// NumPositions covers the four natal pillars and the five overlays.
const NumPositions = 9

// NumNatal is the number of birth-chart pillars.
const NumNatal = 4

var positionNames = [NumPositions]string{"year", "month", "day", "hour", "luck", "annual", "monthly", "daily", "hourly"}

// String returns the lower-case position name.
func (p Position) String() string {
	if int(p) < NumPositions {
		return positionNames[p]
	}
	return "unknown"
}

// Natal reports whether p is one of the four birth pillars.
func (p Position) Natal() bool {
	return p < NumNatal
}

// Gap returns the number of pillars standing between a and b.
// Natal pillars sit on a line; overlays hover one step above every natal pillar
// and line up among themselves in declaration order.
func Gap(a, b Position) int {
	if a.Natal() != b.Natal() {
		return 1
	}
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	if d == 0 {
		return 0
	}
	return d - 1
}

// Pillar is one stem over one branch.
type Pillar struct {
	Stem   Stem
	Branch Branch
}

// NewPillar validates the sexagenary pairing: stem and branch indexes share parity.
func NewPillar(s Stem, b Branch) (Pillar, error) {
	if int(s) >= NumStems || int(b) >= NumBranches {
		return Pillar{}, fmt.Errorf("pillar %d/%d out of range: %w", s, b, ErrInvalidPillar)
	}
	if s%2 != Stem(b%2) {
		return Pillar{}, fmt.Errorf("%s%s is not a sexagenary pair: %w", s.Hanzi(), b.Hanzi(), ErrInvalidPillar)
	}
	return Pillar{Stem: s, Branch: b}, nil
}

// String returns the pillar's two characters, e.g. 丙寅.
func (p Pillar) String() string {
	return p.Stem.Hanzi() + p.Branch.Hanzi()
}

// Pinyin returns e.g. "Bing-Yin".
func (p Pillar) Pinyin() string {
	return p.Stem.String() + "-" + p.Branch.String()
}

// ParsePillar accepts "丙寅", "Bing-Yin", "bing yin" or "BingYin".
func ParsePillar(text string) (Pillar, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Pillar{}, fmt.Errorf("empty pillar: %w", ErrInvalidPillar)
	}

	if utf8.RuneCountInString(text) == 2 {
		r, size := utf8.DecodeRuneInString(text)
		if r >= 0x4E00 {
			s, err := ParseStem(text[:size])
			if err != nil {
				return Pillar{}, err
			}
			b, err := ParseBranch(text[size:])
			if err != nil {
				return Pillar{}, err
			}
			return NewPillar(s, b)
		}
	}

	if parts := strings.FieldsFunc(text, func(r rune) bool { return r == '-' || r == ' ' || r == '/' }); len(parts) == 2 {
		s, err := ParseStem(parts[0])
		if err != nil {
			return Pillar{}, err
		}
		b, err := ParseBranch(parts[1])
		if err != nil {
			return Pillar{}, err
		}
		return NewPillar(s, b)
	}

	// Concatenated pinyin: try every stem name as a prefix.
	lower := strings.ToLower(text)
	for i, name := range stemNames {
		prefix := strings.ToLower(name)
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		b, err := ParseBranch(text[len(prefix):])
		if err != nil {
			continue
		}
		return NewPillar(Stem(i), b)
	}
	return Pillar{}, fmt.Errorf("cannot parse pillar %q: %w", text, ErrInvalidPillar)
}

// Gender is carried through for upstream overlay computation; the engine ignores it.
type Gender uint8

const (
	GenderUnspecified Gender = iota
	GenderMale
	GenderFemale
)

// ParseGender accepts "male"/"m", "female"/"f" or empty.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return GenderUnspecified, nil
	case "male", "m":
		return GenderMale, nil
	case "female", "f":
		return GenderFemale, nil
	}
	return 0, fmt.Errorf("unknown gender %q", s)
}

// String returns "male", "female" or "".
func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	default:
		return ""
	}
}

// Chart is the engine's input: up to nine pillars plus the subject's age.
type Chart struct {
	Pillars [NumPositions]Pillar
	Present [NumPositions]bool
	Age     int
	Gender  Gender
}

// NewChart builds a chart from the three mandatory pillars.
func NewChart(year, month, day Pillar, age int) Chart {
	var c Chart
	c.Set(Year, year)
	c.Set(Month, month)
	c.Set(Day, day)
	c.Age = age
	return c
}

// Set places a pillar at pos.
func (c *Chart) Set(pos Position, p Pillar) {
	c.Pillars[pos] = p
	c.Present[pos] = true
}

// Pillar returns the pillar at pos and whether it is present.
func (c Chart) Pillar(pos Position) (Pillar, bool) {
	return c.Pillars[pos], c.Present[pos]
}

// Positions returns the present positions in declaration order.
func (c Chart) Positions() []Position {
	out := make([]Position, 0, NumPositions)
	for p := Position(0); p < NumPositions; p++ {
		if c.Present[p] {
			out = append(out, p)
		}
	}
	return out
}

// DayMaster returns the day stem.
func (c Chart) DayMaster() Stem {
	return c.Pillars[Day].Stem
}

// Validate fails fast on a missing year, month or day pillar and re-checks every pairing.
func (c Chart) Validate() error {
	for _, pos := range []Position{Year, Month, Day} {
		if !c.Present[pos] {
			return fmt.Errorf("%s pillar: %w", pos, ErrMissingPillar)
		}
	}
	for _, pos := range c.Positions() {
		p := c.Pillars[pos]
		if _, err := NewPillar(p.Stem, p.Branch); err != nil {
			return fmt.Errorf("%s pillar: %w", pos, err)
		}
	}
	if c.Age < 0 {
		return fmt.Errorf("age %d is negative", c.Age)
	}
	return nil
}

// ChartInput is the textual chart accepted by the CLI, chart files and the HTTP API.
type ChartInput struct {
	Year    string `yaml:"year" json:"year" validate:"required"`
	Month   string `yaml:"month" json:"month" validate:"required"`
	Day     string `yaml:"day" json:"day" validate:"required"`
	Hour    string `yaml:"hour,omitempty" json:"hour,omitempty"`
	Luck    string `yaml:"luck,omitempty" json:"luck,omitempty"`
	Annual  string `yaml:"annual,omitempty" json:"annual,omitempty"`
	Monthly string `yaml:"monthly,omitempty" json:"monthly,omitempty"`
	Daily   string `yaml:"daily,omitempty" json:"daily,omitempty"`
	Hourly  string `yaml:"hourly,omitempty" json:"hourly,omitempty"`
	Age     int    `yaml:"age" json:"age" validate:"gte=0,lte=150"`
	Gender  string `yaml:"gender,omitempty" json:"gender,omitempty" validate:"omitempty,oneof=male female m f"`
}

func (in ChartInput) fields() [NumPositions]string {
	return [NumPositions]string{in.Year, in.Month, in.Day, in.Hour, in.Luck, in.Annual, in.Monthly, in.Daily, in.Hourly}
}

// Build parses every pillar and validates the result.
func (in ChartInput) Build() (Chart, error) {
	var c Chart
	for pos, text := range in.fields() {
		if strings.TrimSpace(text) == "" {
			continue
		}
		p, err := ParsePillar(text)
		if err != nil {
			return Chart{}, fmt.Errorf("%s pillar: %w", Position(pos), err)
		}
		c.Set(Position(pos), p)
	}
	g, err := ParseGender(in.Gender)
	if err != nil {
		return Chart{}, err
	}
	c.Age = in.Age
	c.Gender = g
	if err := c.Validate(); err != nil {
		return Chart{}, err
	}
	return c, nil
}

// Input renders a chart back to its textual form.
func (c Chart) Input() ChartInput {
	var f [NumPositions]string
	for _, pos := range c.Positions() {
		f[pos] = c.Pillars[pos].String()
	}
	return ChartInput{
		Year: f[Year], Month: f[Month], Day: f[Day], Hour: f[Hour],
		Luck: f[Luck], Annual: f[Annual], Monthly: f[Monthly], Daily: f[Daily], Hourly: f[Hourly],
		Age: c.Age, Gender: c.Gender.String(),
	}
}

// MarshalText renders the position by name.
func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
