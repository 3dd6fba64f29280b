package ganzhi

import (
	"fmt"
	"strings"
)

// Branch is one of the twelve earthly branches.
type Branch uint8

const (
	Zi Branch = iota
	Chou
	YinBranch // 寅; Yin is taken by the polarity
	Mao
	Chen
	Si
	WuBranch // 午; Wu is taken by the stem 戊
	Wei
	Shen
	You
	Xu
	Hai
)

// NumBranches is the number of earthly branches.
const NumBranches = 12

var branchNames = [NumBranches]string{"Zi", "Chou", "Yin", "Mao", "Chen", "Si", "Wu", "Wei", "Shen", "You", "Xu", "Hai"}

var branchHanzi = [NumBranches]string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}

// String returns the pinyin name.
func (b Branch) String() string {
	if int(b) < NumBranches {
		return branchNames[b]
	}
	return "Unknown"
}

// Hanzi returns the branch's character.
func (b Branch) Hanzi() string {
	if int(b) < NumBranches {
		return branchHanzi[b]
	}
	return "?"
}

// Polarity is the branch's own polarity: Yang on even cycle index.
// Combinations use this, never the polarity of the main-qi stem.
func (b Branch) Polarity() Polarity {
	if b%2 == 0 {
		return Yang
	}
	return Yin
}

// Element returns the element of the branch's main qi.
func (b Branch) Element() Element {
	return hiddenStems[b].stems[0].Element()
}

// MainStem returns the branch's main-qi stem.
func (b Branch) MainStem() Stem {
	return hiddenStems[b].stems[0]
}

// HiddenQi is one stem carried inside a branch together with its starting points.
type HiddenQi struct {
	Stem   Stem
	Points float64
}

// Initial point patterns. A branch holds exactly one of these.
var (
	singleQi = [3]float64{10}
	doubleQi = [3]float64{8, 3}
	tripleQi = [3]float64{8, 3, 1}
)

type hiddenEntry struct {
	count  int
	stems  [3]Stem
	points [3]float64
}

var hiddenStems = [NumBranches]hiddenEntry{
	Zi:        {1, [3]Stem{Gui}, singleQi},
	Chou:      {3, [3]Stem{Ji, Gui, Xin}, tripleQi},
	YinBranch: {3, [3]Stem{Jia, Bing, Wu}, tripleQi},
	Mao:       {1, [3]Stem{Yi}, singleQi},
	Chen:      {3, [3]Stem{Wu, Yi, Gui}, tripleQi},
	Si:        {3, [3]Stem{Bing, Wu, Geng}, tripleQi},
	WuBranch:  {2, [3]Stem{Ding, Ji}, doubleQi},
	Wei:       {3, [3]Stem{Ji, Ding, Yi}, tripleQi},
	Shen:      {3, [3]Stem{Geng, Ren, Wu}, tripleQi},
	You:       {1, [3]Stem{Xin}, singleQi},
	Xu:        {3, [3]Stem{Wu, Xin, Ding}, tripleQi},
	Hai:       {2, [3]Stem{Ren, Jia}, doubleQi},
}

// Hidden returns the branch's qi, main qi first.
func (b Branch) Hidden() []HiddenQi {
	e := hiddenStems[b]
	out := make([]HiddenQi, e.count)
	for i := 0; i < e.count; i++ {
		out[i] = HiddenQi{Stem: e.stems[i], Points: e.points[i]}
	}
	return out
}

// ParseBranch accepts a pinyin name in any case or the branch's character.
func ParseBranch(name string) (Branch, error) {
	name = strings.TrimSpace(name)
	for i := range branchNames {
		if strings.EqualFold(name, branchNames[i]) || name == branchHanzi[i] {
			return Branch(i), nil
		}
	}
	return 0, fmt.Errorf("unknown branch %q: %w", name, ErrInvalidPillar)
}

// MarshalText renders the branch by pinyin name.
func (b Branch) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}
