package patterns

import g "github.com/talgya/wuxing/internal/ganzhi"

// BranchTriple is a three-branch combination.
type BranchTriple struct {
	Family   Family
	Branches [3]g.Branch
	Result   g.Element
}

// BranchPair is a two-branch combination.
type BranchPair struct {
	Family Family
	A, B   g.Branch
	Result g.Element
}

// Matches reports whether {a, b} is this pair in either order.
func (p BranchPair) Matches(a, b g.Branch) bool {
	return (p.A == a && p.B == b) || (p.A == b && p.B == a)
}

// StemPair is a stem combination.
type StemPair struct {
	A, B   g.Stem
	Result g.Element
}

// Three-branch combinations, in precedence order.
var (
	ThreeMeetings = []BranchTriple{
		{ThreeMeeting, [3]g.Branch{g.YinBranch, g.Mao, g.Chen}, g.Wood},
		{ThreeMeeting, [3]g.Branch{g.Si, g.WuBranch, g.Wei}, g.Fire},
		{ThreeMeeting, [3]g.Branch{g.Shen, g.You, g.Xu}, g.Metal},
		{ThreeMeeting, [3]g.Branch{g.Hai, g.Zi, g.Chou}, g.Water},
	}

	ThreeCombinations = []BranchTriple{
		{ThreeCombination, [3]g.Branch{g.Shen, g.Zi, g.Chen}, g.Water},
		{ThreeCombination, [3]g.Branch{g.Hai, g.Mao, g.Wei}, g.Wood},
		{ThreeCombination, [3]g.Branch{g.YinBranch, g.WuBranch, g.Xu}, g.Fire},
		{ThreeCombination, [3]g.Branch{g.Si, g.You, g.Chou}, g.Metal},
	}
)

// Two-branch combinations, in precedence order.
var (
	SixHarmonies = []BranchPair{
		{SixHarmony, g.Zi, g.Chou, g.Earth},
		{SixHarmony, g.YinBranch, g.Hai, g.Wood},
		{SixHarmony, g.Mao, g.Xu, g.Fire},
		{SixHarmony, g.Chen, g.You, g.Metal},
		{SixHarmony, g.Si, g.Shen, g.Water},
		{SixHarmony, g.WuBranch, g.Wei, g.Earth},
	}

	// HalfMeetings pair the cardinal branch of a three combination with one partner.
	HalfMeetings = []BranchPair{
		{HalfMeeting, g.Shen, g.Zi, g.Water},
		{HalfMeeting, g.Zi, g.Chen, g.Water},
		{HalfMeeting, g.Hai, g.Mao, g.Wood},
		{HalfMeeting, g.Mao, g.Wei, g.Wood},
		{HalfMeeting, g.YinBranch, g.WuBranch, g.Fire},
		{HalfMeeting, g.WuBranch, g.Xu, g.Fire},
		{HalfMeeting, g.Si, g.You, g.Metal},
		{HalfMeeting, g.You, g.Chou, g.Metal},
	}

	// ArchedCombinations pair the two outer branches with the cardinal missing.
	ArchedCombinations = []BranchPair{
		{ArchedCombination, g.Shen, g.Chen, g.Water},
		{ArchedCombination, g.Hai, g.Wei, g.Wood},
		{ArchedCombination, g.YinBranch, g.Xu, g.Fire},
		{ArchedCombination, g.Si, g.Chou, g.Metal},
	}
)

// StemCombinations are the five stem pairings.
var StemCombinations = []StemPair{
	{g.Jia, g.Ji, g.Earth},
	{g.Yi, g.Geng, g.Metal},
	{g.Bing, g.Xin, g.Water},
	{g.Ding, g.Ren, g.Wood},
	{g.Wu, g.Gui, g.Fire},
}

// StemClashes are the four stem clash pairs; the first stem is the controller.
var StemClashes = [][2]g.Stem{
	{g.Geng, g.Jia},
	{g.Xin, g.Yi},
	{g.Ren, g.Bing},
	{g.Gui, g.Ding},
}

// PunishmentKind distinguishes the punishment families. Ungrateful and Bullying
// are both three-branch sets but trigger differently and are kept apart on purpose.
type PunishmentKind uint8

const (
	NotPunishment PunishmentKind = iota
	// Ungrateful: Yin, Si, Shen. Any two present fire, directed around the cycle.
	Ungrateful
	// Bullying: Chou, Xu, Wei. All three required; all Earth so log-only.
	Bullying
	// Uncivil: Zi punishes Mao.
	Uncivil
	// SelfPunishing: Chen, Wu, You or Hai met twice. Same element, log-only.
	SelfPunishing
)

var punishmentNames = [...]string{"", "ungrateful", "bullying", "uncivil", "self"}

// String returns the punishment kind name.
func (k PunishmentKind) String() string {
	if int(k) < len(punishmentNames) {
		return punishmentNames[k]
	}
	return "unknown"
}

// MarshalText keeps punishment kinds readable in JSON output.
func (k PunishmentKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ConflictPair is a two-branch conflict. When Directed, A is the aggressor.
type ConflictPair struct {
	Family   Family
	Kind     PunishmentKind
	A, B     g.Branch
	Directed bool
}

// Matches reports whether {a, b} is this pair in either order.
func (p ConflictPair) Matches(a, b g.Branch) bool {
	return (p.A == a && p.B == b) || (p.A == b && p.B == a)
}

// Branch conflicts, in processing order within each family.
var (
	SixClashes = []ConflictPair{
		{Family: SixClash, A: g.Zi, B: g.WuBranch},
		{Family: SixClash, A: g.Chou, B: g.Wei},
		{Family: SixClash, A: g.YinBranch, B: g.Shen},
		{Family: SixClash, A: g.Mao, B: g.You},
		{Family: SixClash, A: g.Chen, B: g.Xu},
		{Family: SixClash, A: g.Si, B: g.Hai},
	}

	// UngratefulPunishments lists the directed edges of the Yin→Si→Shen→Yin cycle.
	UngratefulPunishments = []ConflictPair{
		{Family: Punishment, Kind: Ungrateful, A: g.YinBranch, B: g.Si, Directed: true},
		{Family: Punishment, Kind: Ungrateful, A: g.Si, B: g.Shen, Directed: true},
		{Family: Punishment, Kind: Ungrateful, A: g.Shen, B: g.YinBranch, Directed: true},
	}

	BullyingPunishment = [3]g.Branch{g.Chou, g.Xu, g.Wei}

	UncivilPunishment = ConflictPair{Family: Punishment, Kind: Uncivil, A: g.Zi, B: g.Mao, Directed: true}

	SelfPunishingBranches = []g.Branch{g.Chen, g.WuBranch, g.You, g.Hai}

	SixHarms = []ConflictPair{
		{Family: SixHarm, A: g.Zi, B: g.Wei},
		{Family: SixHarm, A: g.Chou, B: g.WuBranch},
		{Family: SixHarm, A: g.YinBranch, B: g.Si},
		{Family: SixHarm, A: g.Mao, B: g.Chen},
		{Family: SixHarm, A: g.Shen, B: g.Hai},
		{Family: SixHarm, A: g.You, B: g.Xu},
	}

	Destructions = []ConflictPair{
		{Family: Destruction, A: g.Zi, B: g.You},
		{Family: Destruction, A: g.WuBranch, B: g.Mao},
		{Family: Destruction, A: g.Si, B: g.Shen},
		{Family: Destruction, A: g.YinBranch, B: g.Hai},
		{Family: Destruction, A: g.Chen, B: g.Chou},
		{Family: Destruction, A: g.Xu, B: g.Wei},
	}
)

// TwoBranchCombinations returns the pair tables in precedence order.
func TwoBranchCombinations() [][]BranchPair {
	return [][]BranchPair{SixHarmonies, HalfMeetings, ArchedCombinations}
}

// ThreeBranchCombinations returns the triple tables in precedence order.
func ThreeBranchCombinations() [][]BranchTriple {
	return [][]BranchTriple{ThreeMeetings, ThreeCombinations}
}
