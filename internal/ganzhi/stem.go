package ganzhi

import (
	"fmt"
	"strings"
)

// Stem is one of the ten heavenly stems.
type Stem uint8

const (
	Jia Stem = iota
	Yi
	Bing
	Ding
	Wu
	Ji
	Geng
	Xin
	Ren
	Gui
)

// NumStems is the number of heavenly stems.
const NumStems = 10

// Stems lists all ten stems in cycle order.
var Stems = [NumStems]Stem{Jia, Yi, Bing, Ding, Wu, Ji, Geng, Xin, Ren, Gui}

var stemNames = [NumStems]string{"Jia", "Yi", "Bing", "Ding", "Wu", "Ji", "Geng", "Xin", "Ren", "Gui"}

var stemHanzi = [NumStems]string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}

// String returns the pinyin name.
func (s Stem) String() string {
	if int(s) < NumStems {
		return stemNames[s]
	}
	return "Unknown"
}

// Hanzi returns the stem's character.
func (s Stem) Hanzi() string {
	if int(s) < NumStems {
		return stemHanzi[s]
	}
	return "?"
}

// Element returns the stem's element: two consecutive stems per element.
func (s Stem) Element() Element {
	return Element(s / 2)
}

// Polarity returns Yang for Jia, Bing, Wu, Geng, Ren.
func (s Stem) Polarity() Polarity {
	if s%2 == 0 {
		return Yang
	}
	return Yin
}

// StemOf returns the stem carrying the given element and polarity.
func StemOf(e Element, p Polarity) Stem {
	return Stem(uint8(e)*2 + uint8(p))
}

// ParseStem accepts a pinyin name in any case or the stem's character.
func ParseStem(name string) (Stem, error) {
	name = strings.TrimSpace(name)
	for i := range stemNames {
		if strings.EqualFold(name, stemNames[i]) || name == stemHanzi[i] {
			return Stem(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stem %q: %w", name, ErrInvalidPillar)
}

// MarshalText renders the stem by pinyin name.
func (s Stem) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
