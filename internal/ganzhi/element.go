// Package ganzhi defines the stems, branches, elements and pillars a chart is built from.
// Every table here is literal data; nothing is derived at runtime.
package ganzhi

// Element is one of the five phases. The declaration order is the canonical
// tie-break order used everywhere a ranking needs to be total.
type Element uint8

const (
	Wood Element = iota
	Fire
	Earth
	Metal
	Water
)

// NumElements is the size of any per-element array.
const NumElements = 5

// Elements lists the five elements in canonical order.
var Elements = [NumElements]Element{Wood, Fire, Earth, Metal, Water}

var elementNames = [NumElements]string{"Wood", "Fire", "Earth", "Metal", "Water"}

// String returns the English element name.
func (e Element) String() string {
	if int(e) < NumElements {
		return elementNames[e]
	}
	return "Unknown"
}

// Produces returns the element this one generates (Wood→Fire→Earth→Metal→Water→Wood).
func (e Element) Produces() Element {
	return (e + 1) % NumElements
}

// ProducedBy returns the element that generates this one.
func (e Element) ProducedBy() Element {
	return (e + NumElements - 1) % NumElements
}

// Controls returns the element this one restrains (Wood→Earth→Water→Fire→Metal→Wood).
func (e Element) Controls() Element {
	return (e + 2) % NumElements
}

// ControlledBy returns the element that restrains this one.
func (e Element) ControlledBy() Element {
	return (e + NumElements - 2) % NumElements
}

// Relation classifies how element a acts on element b.
type Relation uint8

const (
	RelationSame         Relation = iota
	RelationProduces              // a produces b
	RelationProducedBy            // b produces a
	RelationControls              // a controls b
	RelationControlledBy          // b controls a
)

// String returns a short name for the relation.
func (r Relation) String() string {
	switch r {
	case RelationSame:
		return "same"
	case RelationProduces:
		return "produces"
	case RelationProducedBy:
		return "produced_by"
	case RelationControls:
		return "controls"
	case RelationControlledBy:
		return "controlled_by"
	default:
		return "unknown"
	}
}

// RelationOf reports how a relates to b. Any two elements stand in exactly one relation.
func RelationOf(a, b Element) Relation {
	switch b {
	case a:
		return RelationSame
	case a.Produces():
		return RelationProduces
	case a.ProducedBy():
		return RelationProducedBy
	case a.Controls():
		return RelationControls
	default:
		return RelationControlledBy
	}
}

// Polarity is yang or yin.
type Polarity uint8

const (
	Yang Polarity = iota
	Yin
)

// String returns "yang" or "yin".
func (p Polarity) String() string {
	if p == Yang {
		return "yang"
	}
	return "yin"
}

// MarshalText renders the element by name in JSON and YAML output.
func (e Element) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// MarshalText renders the polarity by name.
func (p Polarity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
