package resolve

import (
	"sort"

	"github.com/wippyai/objmodel"
	"github.com/wippyai/objmodel/errors"
	"github.com/wippyai/objmodel/graph"
	"github.com/wippyai/objmodel/layout"
)

// Entity is a tagged resolution result: a whole object, or one byte-sized
// element of an object's representation. Which of several overlapping
// entities a pointer means is an explicit decision point, never implicit
// control flow.
type Entity struct {
	Object *graph.Object
	// Element is the representation element index, or -1 for the whole
	// object.
	Element int
}

// IsElement reports whether the entity is a representation element.
func (e Entity) IsElement() bool { return e.Element >= 0 }

// Type returns the entity's type: the object's static type, or the byte
// type for representation elements.
func (e Entity) Type() *layout.Type {
	if e.IsElement() {
		return layout.Byte()
	}
	return e.Object.Type
}

// Address returns the entity's byte address.
func (e Entity) Address() objmodel.Address {
	off := e.Object.Offset
	if e.IsElement() {
		off += uint32(e.Element)
	}
	return objmodel.Address{Region: e.Object.Region, Offset: off}
}

// Policy orders two equally-preferred candidates; it is the final
// tie-break and is deliberately swappable, since the source rules leave
// this order to implementer judgment.
type Policy func(a, b Entity) bool

// DefaultPolicy prefers the most recently created entity; elements order by
// their owner's creation.
func DefaultPolicy(a, b Entity) bool {
	return a.Object.Seq > b.Object.Seq
}

// Predicate filters candidates to those that would keep the pending
// operation well-defined. A nil predicate accepts everything.
type Predicate func(Entity) bool

// Engine finds the pointer-interconvertible entity an address should mean.
type Engine struct {
	graph  *graph.Graph
	policy Policy
}

// New creates a resolution engine with the default tie-break policy.
func New(g *graph.Graph) *Engine {
	return &Engine{graph: g, policy: DefaultPolicy}
}

// SetPolicy replaces the final tie-break policy.
func (e *Engine) SetPolicy(p Policy) {
	if p == nil {
		p = DefaultPolicy
	}
	e.policy = p
}

// CandidatesAt collects the entities occupying addr: live objects starting
// exactly there (zero-size included) and representation elements of live
// objects covering the byte. A size-1 self-representing object is its own
// representation, so no separate element entity is produced for it.
func (e *Engine) CandidatesAt(addr objmodel.Address) []Entity {
	var out []Entity

	for _, o := range e.graph.StartingAt(addr) {
		out = append(out, Entity{Object: o, Element: -1})
	}
	for _, o := range e.graph.Covering(addr) {
		if o.Type.SelfRepresenting() && o.Size() == 1 {
			continue // the object and its lone element are the same entity
		}
		out = append(out, Entity{Object: o, Element: int(addr.Offset - o.Offset)})
	}

	return out
}

// Resolve selects the entity at addr a pointer of the preferred type should
// mean. Selection order: candidates that keep the pending operation
// well-defined (per pred), then exact preferred-type matches, then whole
// objects over representation elements, then the tie-break policy. If no
// candidate keeps the operation well-defined the resolution fails with
// NoCandidate, reported as undefined behavior at the call site.
func (e *Engine) Resolve(addr objmodel.Address, preferred *layout.Type, pred Predicate) (Entity, error) {
	cands := e.CandidatesAt(addr)

	if pred != nil {
		cands = filter(cands, pred)
	}
	if len(cands) == 0 {
		name := ""
		if preferred != nil {
			name = preferred.String()
		}
		return Entity{}, errors.NoCandidate(addr.String(), name)
	}

	if preferred != nil {
		if matches := filter(cands, func(c Entity) bool {
			return c.Type().Similar(preferred)
		}); len(matches) > 0 {
			cands = matches
		}
	}

	if objects := filter(cands, func(c Entity) bool {
		return !c.IsElement()
	}); len(objects) > 0 {
		cands = objects
	}

	if len(cands) > 1 {
		sort.SliceStable(cands, func(i, j int) bool { return e.policy(cands[i], cands[j]) })
	}
	return cands[0], nil
}

func filter(cands []Entity, keep func(Entity) bool) []Entity {
	var out []Entity
	for _, c := range cands {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
