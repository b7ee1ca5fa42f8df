package graph

import (
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/objmodel"
	"github.com/wippyai/objmodel/errors"
	"github.com/wippyai/objmodel/layout"
	"github.com/wippyai/objmodel/storage"
)

// Object is one entry in the graph. Objects are identified by their storage
// range and static type; representation entities are never stored here,
// they are derived on demand (see View).
type Object struct {
	ID     objmodel.ObjectID
	Region objmodel.RegionID
	Offset uint32
	Type   *layout.Type
	Layout layout.Info

	// Parent is the enclosing object, 0 for top-level objects.
	Parent objmodel.ObjectID

	// Subobject marks objects registered automatically as members of an
	// aggregate; their lifetime follows the aggregate's.
	Subobject bool

	// Implicit marks self-representing byte objects created to cover
	// previously-uncreated storage bytes.
	Implicit bool

	// Representation marks an object whose creation begins the lifetime of
	// another object's representation. Such creates never trigger implicit
	// byte-object creation (no-double-creation rule).
	Representation bool

	// Seq is the creation order, used by the resolution tie-break.
	Seq uint64

	destroyed bool
}

// Size returns the object's storage size in bytes.
func (o *Object) Size() uint32 { return o.Layout.Size }

// End returns the offset one past the object's last byte.
func (o *Object) End() uint32 { return o.Offset + o.Layout.Size }

// Covers reports whether the object's range contains the byte at offset.
// Zero-size objects cover nothing.
func (o *Object) Covers(offset uint32) bool {
	return offset >= o.Offset && offset < o.End()
}

// Opts alters object creation.
type Opts struct {
	// Parent forces the nesting parent instead of deriving it from ranges.
	Parent objmodel.ObjectID
	// Subobject marks the object as an aggregate member.
	Subobject bool
	// Representation suppresses implicit byte-object creation: the create
	// itself begins a representation's lifetime, and representation bytes
	// must not be double-created.
	Representation bool
}

// Graph maintains the set of live objects, their storage ranges, and their
// nesting relationships. Object ids are never recycled; destroyed objects
// remain as tombstones so stale references diagnose cleanly.
type Graph struct {
	store   *storage.Manager
	oracle  layout.Oracle
	objects []Object // ObjectID = index+1
	seq     uint64
}

// New creates an object graph over the given storage and layout oracle.
func New(store *storage.Manager, oracle layout.Oracle) *Graph {
	return &Graph{
		store:   store,
		oracle:  oracle,
		objects: make([]Object, 0, 64),
	}
}

// Storage returns the underlying storage manager.
func (g *Graph) Storage() *storage.Manager { return g.store }

// Oracle returns the layout oracle.
func (g *Graph) Oracle() layout.Oracle { return g.oracle }

// Create registers an object of type t at (region, offset). Aggregate
// members are registered as nested subobjects, and any previously-uncreated
// bytes in the new object's range are covered by implicit self-representing
// byte objects.
func (g *Graph) Create(region objmodel.RegionID, offset uint32, t *layout.Type) (objmodel.ObjectID, error) {
	return g.CreateWith(region, offset, t, Opts{})
}

// CreateWith is Create with explicit options.
func (g *Graph) CreateWith(region objmodel.RegionID, offset uint32, t *layout.Type, opts Opts) (objmodel.ObjectID, error) {
	info, err := g.oracle.LayoutOf(t)
	if err != nil {
		return 0, err
	}

	size, err := g.store.Size(region)
	if err != nil {
		return 0, err
	}
	// The modeled program placed the object outside its region: a
	// diagnosable violation, not library misuse.
	if uint64(offset)+uint64(info.Size) > uint64(size) {
		return 0, errors.Bounds(uint32(region), offset, info.Size, size)
	}

	parent := opts.Parent
	if parent == 0 {
		parent = g.enclosing(region, offset, info.Size)
	}

	// Coverage must be computed before the object and its members claim
	// the range. Self-representing creates are their own byte coverage, so
	// they never trigger implicit creation either.
	var uncovered []byteRun
	if !opts.Representation && !opts.Subobject && !t.SelfRepresenting() {
		uncovered = g.uncoveredRuns(region, offset, info.Size)
	}

	id := objmodel.ObjectID(len(g.objects) + 1)
	if err := g.store.MarkOccupied(region, offset, info.Size, id); err != nil {
		return 0, err
	}

	g.seq++
	g.objects = append(g.objects, Object{
		ID:             id,
		Region:         region,
		Offset:         offset,
		Type:           t,
		Layout:         info,
		Parent:         parent,
		Subobject:      opts.Subobject,
		Representation: opts.Representation,
		Seq:            g.seq,
	})

	if err := g.registerMembers(id); err != nil {
		return 0, err
	}

	for _, run := range g.splitRuns(uncovered, int(id)-1) {
		if err := g.createImplicit(region, run, id); err != nil {
			return 0, err
		}
	}

	Logger().Debug("object created",
		zap.Uint32("id", uint32(id)),
		zap.Uint32("region", uint32(region)),
		zap.Uint32("offset", offset),
		zap.String("type", t.String()),
	)

	return id, nil
}

// registerMembers registers aggregate members as nested subobjects. Members
// of self-representing arrays are not registered: their elements are the
// representation itself and are derived, never stored (this also stops the
// recursion that representation-of-representation would otherwise cause).
func (g *Graph) registerMembers(id objmodel.ObjectID) error {
	obj := &g.objects[id-1]
	if len(obj.Layout.Subobjects) == 0 || obj.Type.SelfRepresenting() || obj.Implicit {
		return nil
	}
	region, base := obj.Region, obj.Offset
	for _, sub := range obj.Layout.Subobjects {
		if _, err := g.CreateWith(region, base+sub.Offset, sub.Type, Opts{
			Parent:    id,
			Subobject: true,
		}); err != nil {
			return err
		}
	}
	return nil
}

type byteRun struct {
	off  uint32
	size uint32
}

// uncoveredRuns returns the maximal runs of bytes in [offset, offset+size)
// covered by no live object.
func (g *Graph) uncoveredRuns(region objmodel.RegionID, offset, size uint32) []byteRun {
	var runs []byteRun
	var runStart uint32
	inRun := false

	for b := offset; b < offset+size; b++ {
		covered := false
		for i := range g.objects {
			o := &g.objects[i]
			if !o.destroyed && o.Region == region && o.Covers(b) {
				covered = true
				break
			}
		}
		if !covered && !inRun {
			runStart, inRun = b, true
		}
		if covered && inRun {
			runs = append(runs, byteRun{off: runStart, size: b - runStart})
			inRun = false
		}
	}
	if inRun {
		runs = append(runs, byteRun{off: runStart, size: offset + size - runStart})
	}
	return runs
}

// splitRuns splits coverage runs at the range boundaries of the objects the
// current create registered (index from onward), so every implicit object
// nests cleanly within the new occupancy ranges.
func (g *Graph) splitRuns(runs []byteRun, from int) []byteRun {
	var out []byteRun
	for _, run := range runs {
		end := run.off + run.size
		cuts := []uint32{run.off, end}
		for i := from; i < len(g.objects); i++ {
			o := &g.objects[i]
			for _, b := range []uint32{o.Offset, o.End()} {
				if b > run.off && b < end {
					cuts = append(cuts, b)
				}
			}
		}
		sort.Slice(cuts, func(i, j int) bool { return cuts[i] < cuts[j] })
		for i := 0; i+1 < len(cuts); i++ {
			if cuts[i+1] > cuts[i] {
				out = append(out, byteRun{off: cuts[i], size: cuts[i+1] - cuts[i]})
			}
		}
	}
	return out
}

// createImplicit covers a fresh byte run with a self-representing object:
// a single byte, or a byte array for longer runs.
func (g *Graph) createImplicit(region objmodel.RegionID, run byteRun, parent objmodel.ObjectID) error {
	t := layout.Byte()
	if run.size > 1 {
		t = layout.ArrayOf(layout.Byte(), run.size)
	}

	info, err := g.oracle.LayoutOf(t)
	if err != nil {
		return err
	}

	id := objmodel.ObjectID(len(g.objects) + 1)
	if err := g.store.MarkOccupied(region, run.off, run.size, id); err != nil {
		return err
	}

	g.seq++
	g.objects = append(g.objects, Object{
		ID:       id,
		Region:   region,
		Offset:   run.off,
		Type:     t,
		Layout:   info,
		Parent:   parent,
		Implicit: true,
		Seq:      g.seq,
	})

	Logger().Debug("implicit byte object created",
		zap.Uint32("id", uint32(id)),
		zap.Uint32("offset", run.off),
		zap.Uint32("size", run.size),
	)
	return nil
}

// Destroy ends the object's lifetime and its representation's with it.
// Aggregate members registered by Create are destroyed along with their
// aggregate.
func (g *Graph) Destroy(id objmodel.ObjectID) error {
	obj, err := g.lookup(id)
	if err != nil {
		return err
	}
	if obj.destroyed {
		return errors.DoubleDestroy("object", uint32(id))
	}
	if g.store.Destroyed(obj.Region) {
		return errors.UseAfterDestroy(errors.PhaseObject, "region", uint32(obj.Region))
	}

	g.destroyTree(obj)
	return nil
}

func (g *Graph) destroyTree(obj *Object) {
	obj.destroyed = true
	g.store.MarkFree(obj.Region, obj.ID)

	for i := range g.objects {
		child := &g.objects[i]
		if child.Parent == obj.ID && child.Subobject && !child.destroyed {
			g.destroyTree(child)
		}
	}
}

// Get returns the object record, tombstoned or live.
func (g *Graph) Get(id objmodel.ObjectID) (*Object, error) {
	return g.lookup(id)
}

// Live reports whether id names a live object in a live region.
func (g *Graph) Live(id objmodel.ObjectID) bool {
	obj, err := g.lookup(id)
	if err != nil {
		return false
	}
	return !obj.destroyed && !g.store.Destroyed(obj.Region)
}

// Destroyed reports whether id names a destroyed object. Objects in a
// destroyed region count as destroyed.
func (g *Graph) Destroyed(id objmodel.ObjectID) bool {
	obj, err := g.lookup(id)
	if err != nil {
		return false
	}
	return obj.destroyed || g.store.Destroyed(obj.Region)
}

// StartingAt returns live objects whose range begins exactly at addr.
// Zero-size objects at addr are included.
func (g *Graph) StartingAt(addr objmodel.Address) []*Object {
	var out []*Object
	for i := range g.objects {
		o := &g.objects[i]
		if !o.destroyed && o.Region == addr.Region && o.Offset == addr.Offset && !g.store.Destroyed(o.Region) {
			out = append(out, o)
		}
	}
	return out
}

// Covering returns live objects whose range contains the byte at addr.
func (g *Graph) Covering(addr objmodel.Address) []*Object {
	var out []*Object
	for i := range g.objects {
		o := &g.objects[i]
		if !o.destroyed && o.Region == addr.Region && o.Covers(addr.Offset) && !g.store.Destroyed(o.Region) {
			out = append(out, o)
		}
	}
	return out
}

// enclosing finds the innermost live object strictly containing the range.
func (g *Graph) enclosing(region objmodel.RegionID, offset, size uint32) objmodel.ObjectID {
	var best *Object
	for i := range g.objects {
		o := &g.objects[i]
		if o.destroyed || o.Region != region {
			continue
		}
		if o.Offset <= offset && offset+size <= o.End() && o.Size() > size {
			if best == nil || o.Size() < best.Size() {
				best = o
			}
		}
	}
	if best == nil {
		return 0
	}
	return best.ID
}

func (g *Graph) lookup(id objmodel.ObjectID) (*Object, error) {
	if id == 0 || int(id) > len(g.objects) {
		return nil, errors.NotFound(errors.PhaseObject, "object", uint32(id))
	}
	return &g.objects[id-1], nil
}
