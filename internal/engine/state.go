// Package engine runs the elemental interaction pipeline over a chart.
// Each stage takes a State value and returns a new one; no stage reaches
// back into an earlier stage or shares state with another call.
package engine

import (
	"fmt"

	g "github.com/talgya/wuxing/internal/ganzhi"
	"github.com/talgya/wuxing/internal/patterns"
)

// Slot names a node's place inside its pillar.
type Slot uint8

const (
	SlotStem Slot = iota
	SlotBranch
	SlotHidden1
	SlotHidden2
	SlotBonus
	SlotHover // the balance simulator's hypothetical stem
)

// numPillarSlots is the number of fixed slots a pillar owns.
const numPillarSlots = 4

var slotNames = [...]string{"stem", "branch", "hidden1", "hidden2", "bonus", "hover"}

// String returns the slot name.
func (s Slot) String() string {
	if int(s) < len(slotNames) {
		return slotNames[s]
	}
	return "unknown"
}

// NodeID identifies a node. Seq is only meaningful for bonus nodes.
type NodeID struct {
	Pos  g.Position
	Slot Slot
	Seq  int
}

// String renders ids as "year.stem" or "month.bonus3".
func (id NodeID) String() string {
	switch id.Slot {
	case SlotBonus:
		return fmt.Sprintf("%s.bonus%d", id.Pos, id.Seq)
	case SlotHover:
		return "hover"
	}
	return id.Pos.String() + "." + id.Slot.String()
}

// MarshalText keeps ids readable in JSON output.
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// Node is a single unit of qi.
type Node struct {
	ID       NodeID     `json:"id"`
	Stem     g.Stem     `json:"stem"`
	Element  g.Element  `json:"element"`
	Polarity g.Polarity `json:"polarity"`
	Initial  float64    `json:"initial"`
	Points   float64    `json:"points"`
	Present  bool       `json:"-"`
}

// BonusNode is qi created by a combination, funded by its participants.
type BonusNode struct {
	Node
	Family  patterns.Family `json:"family"`
	Pattern string          `json:"pattern"`
	Funders []NodeID        `json:"funders"`
}

// Interaction is one entry of the append-only interaction log.
type Interaction struct {
	Seq         int                     `json:"seq"`
	Stage       string                  `json:"stage"`
	Family      patterns.Family         `json:"family"`
	Punishment  patterns.PunishmentKind `json:"punishment,omitempty"`
	Pattern     string                  `json:"pattern"`
	Nodes       []NodeID                `json:"nodes"`
	Deltas      []float64               `json:"deltas"`
	Basis       float64                 `json:"basis"`
	Gap         int                     `json:"gap"`
	Result      *g.Element              `json:"result,omitempty"`
	Transformed bool                    `json:"transformed,omitempty"`
	LogOnly     bool                    `json:"log_only,omitempty"`
	Shortfall   float64                 `json:"shortfall,omitempty"`
}

// State is the snapshot threaded through the pipeline.
type State struct {
	Chart    g.Chart
	Nodes    [g.NumPositions][numPillarSlots]Node
	Bonus    []BonusNode
	Log      []Interaction
	Priority []g.Position

	hover *Node
}

// clone returns a State whose slices can be appended to and whose nodes can be
// written without touching the receiver. Interaction entries are never mutated,
// so their inner slices are shared.
func (s State) clone() State {
	out := s
	out.Bonus = append([]BonusNode(nil), s.Bonus...)
	out.Log = append([]Interaction(nil), s.Log...)
	out.Priority = append([]g.Position(nil), s.Priority...)
	if s.hover != nil {
		h := *s.hover
		out.hover = &h
	}
	return out
}

// node returns a pointer to the node with the given id, or nil.
func (s *State) node(id NodeID) *Node {
	switch id.Slot {
	case SlotBonus:
		if id.Seq < 0 || id.Seq >= len(s.Bonus) {
			return nil
		}
		return &s.Bonus[id.Seq].Node
	case SlotHover:
		return s.hover
	}
	n := &s.Nodes[id.Pos][id.Slot]
	if !n.Present {
		return nil
	}
	return n
}

// Points returns a node's current value, zero when absent.
func (s State) Points(id NodeID) float64 {
	if n := s.node(id); n != nil {
		return n.Points
	}
	return 0
}

// rank is a position's index in the priority order.
func (s State) rank(pos g.Position) int {
	for i, p := range s.Priority {
		if p == pos {
			return i
		}
	}
	return len(s.Priority)
}

// apply adds delta to a node, clamping at zero. It returns the delta actually
// applied and the shortfall dropped by the clamp.
func (s *State) apply(id NodeID, delta float64) (applied, shortfall float64) {
	n := s.node(id)
	if n == nil {
		return 0, 0
	}
	next := n.Points + delta
	if next < 0 {
		shortfall = -next
		next = 0
	}
	applied = next - n.Points
	n.Points = next
	return applied, shortfall
}

// record appends to the interaction log.
func (s *State) record(ix Interaction) {
	ix.Seq = len(s.Log)
	s.Log = append(s.Log, ix)
}

// addBonus creates a bonus node anchored at pos and returns its id.
func (s *State) addBonus(pos g.Position, stem g.Stem, points float64, family patterns.Family, pattern string, funders []NodeID) NodeID {
	id := NodeID{Pos: pos, Slot: SlotBonus, Seq: len(s.Bonus)}
	s.Bonus = append(s.Bonus, BonusNode{
		Node: Node{
			ID:       id,
			Stem:     stem,
			Element:  stem.Element(),
			Polarity: stem.Polarity(),
			Initial:  points,
			Points:   points,
			Present:  true,
		},
		Family:  family,
		Pattern: pattern,
		Funders: funders,
	})
	return id
}

// pillarNodes returns every present fixed-slot node in priority order.
func (s State) pillarNodes() []Node {
	var out []Node
	for _, pos := range s.Priority {
		for slot := 0; slot < numPillarSlots; slot++ {
			if n := s.Nodes[pos][slot]; n.Present {
				out = append(out, n)
			}
		}
	}
	return out
}

// AllNodes returns pillar nodes, then bonus nodes, then the hover node if any.
func (s State) AllNodes() []Node {
	out := s.pillarNodes()
	for _, b := range s.Bonus {
		out = append(out, b.Node)
	}
	if s.hover != nil {
		out = append(out, *s.hover)
	}
	return out
}

func stemID(pos g.Position) NodeID   { return NodeID{Pos: pos, Slot: SlotStem} }
func branchID(pos g.Position) NodeID { return NodeID{Pos: pos, Slot: SlotBranch} }
