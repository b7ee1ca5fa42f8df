package storage

import (
	"encoding/binary"

	"github.com/wippyai/objmodel"
	"github.com/wippyai/objmodel/errors"
)

// Manager owns byte-addressed storage regions. Regions are created once and
// destroyed once; their ids are never recycled, so a stale RegionID always
// reports UseAfterDestroy instead of silently aliasing new storage.
//
// The model is single-threaded by design (one abstract machine, one
// strictly ordered trace), so the manager carries no locks.
type Manager struct {
	regions []region // RegionID = index+1
}

type region struct {
	bytes     []byte
	spans     []span
	destroyed bool
}

// span is one occupied range, tagged with the object that occupies it.
// Coincident and nested spans are legal; the tag lets MarkFree drop the
// right one.
type span struct {
	owner objmodel.ObjectID
	off   uint32
	size  uint32
}

// NewManager creates an empty storage manager.
func NewManager() *Manager {
	return &Manager{
		regions: make([]region, 0, 16),
	}
}

// CreateRegion allocates a zero-initialized region. Always succeeds.
func (m *Manager) CreateRegion(size uint32) objmodel.RegionID {
	m.regions = append(m.regions, region{
		bytes: make([]byte, size),
	})
	return objmodel.RegionID(len(m.regions))
}

// DestroyRegion invalidates a region. All objects and pointers into it are
// dead; subsequent access fails with UseAfterDestroy.
func (m *Manager) DestroyRegion(id objmodel.RegionID) error {
	r, err := m.live(id)
	if err != nil {
		return err
	}
	r.destroyed = true
	r.bytes = nil
	r.spans = nil
	return nil
}

// Exists reports whether id names a region, destroyed or not.
func (m *Manager) Exists(id objmodel.RegionID) bool {
	return id != 0 && int(id) <= len(m.regions)
}

// Destroyed reports whether id names a destroyed region.
func (m *Manager) Destroyed(id objmodel.RegionID) bool {
	return m.Exists(id) && m.regions[id-1].destroyed
}

// Size returns the region's byte size.
func (m *Manager) Size(id objmodel.RegionID) (uint32, error) {
	r, err := m.live(id)
	if err != nil {
		return 0, err
	}
	return uint32(len(r.bytes)), nil
}

// Read copies size bytes starting at offset.
func (m *Manager) Read(id objmodel.RegionID, offset, size uint32) ([]byte, error) {
	r, err := m.live(id)
	if err != nil {
		return nil, err
	}
	if err := r.bounds(offset, size); err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, r.bytes[offset:offset+size])
	return out, nil
}

// Write stores data starting at offset.
func (m *Manager) Write(id objmodel.RegionID, offset uint32, data []byte) error {
	r, err := m.live(id)
	if err != nil {
		return err
	}
	if err := r.bounds(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(r.bytes[offset:], data)
	return nil
}

// ReadUint reads a little-endian unsigned integer of width 1, 2, 4, or 8.
func (m *Manager) ReadUint(id objmodel.RegionID, offset, width uint32) (uint64, error) {
	b, err := m.Read(id, offset, width)
	if err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	case 8:
		return binary.LittleEndian.Uint64(b), nil
	}
	return 0, errors.New(errors.PhaseStorage, errors.KindUnsupported).
		Detail("read width %d", width).Build()
}

// WriteUint writes a little-endian unsigned integer of width 1, 2, 4, or 8.
func (m *Manager) WriteUint(id objmodel.RegionID, offset uint32, value uint64, width uint32) error {
	var b [8]byte
	switch width {
	case 1:
		b[0] = byte(value)
	case 2:
		binary.LittleEndian.PutUint16(b[:], uint16(value))
	case 4:
		binary.LittleEndian.PutUint32(b[:], uint32(value))
	case 8:
		binary.LittleEndian.PutUint64(b[:], value)
	default:
		return errors.New(errors.PhaseStorage, errors.KindUnsupported).
			Detail("write width %d", width).Build()
	}
	return m.Write(id, offset, b[:width])
}

// MarkOccupied registers an occupied range for owner. The range must be
// disjoint from, nested within, or exactly coincident with every existing
// range; partial overlap fails with OverlapViolation.
func (m *Manager) MarkOccupied(id objmodel.RegionID, offset, size uint32, owner objmodel.ObjectID) error {
	r, err := m.live(id)
	if err != nil {
		return err
	}
	if err := r.bounds(offset, size); err != nil {
		return err
	}

	for _, s := range r.spans {
		if !compatible(offset, size, s.off, s.size) {
			return errors.Overlap(uint32(id), offset, size)
		}
	}

	r.spans = append(r.spans, span{owner: owner, off: offset, size: size})
	return nil
}

// MarkFree drops all ranges registered for owner.
func (m *Manager) MarkFree(id objmodel.RegionID, owner objmodel.ObjectID) error {
	r, err := m.live(id)
	if err != nil {
		return err
	}
	kept := r.spans[:0]
	for _, s := range r.spans {
		if s.owner != owner {
			kept = append(kept, s)
		}
	}
	r.spans = kept
	return nil
}

// compatible reports whether two ranges satisfy the occupancy invariant:
// disjoint, nested (either direction), or exactly coincident. Zero-size
// ranges are always admissible.
func compatible(aOff, aSize, bOff, bSize uint32) bool {
	if aSize == 0 || bSize == 0 {
		return true
	}
	aEnd, bEnd := aOff+aSize, bOff+bSize
	if aEnd <= bOff || bEnd <= aOff {
		return true // disjoint
	}
	if aOff >= bOff && aEnd <= bEnd {
		return true // a within b (or coincident)
	}
	if bOff >= aOff && bEnd <= aEnd {
		return true // b within a
	}
	return false
}

func (m *Manager) live(id objmodel.RegionID) (*region, error) {
	if !m.Exists(id) {
		return nil, errors.NotFound(errors.PhaseStorage, "region", uint32(id))
	}
	r := &m.regions[id-1]
	if r.destroyed {
		return nil, errors.UseAfterDestroy(errors.PhaseStorage, "region", uint32(id))
	}
	return r, nil
}

func (r *region) bounds(offset, size uint32) error {
	if uint64(offset)+uint64(size) > uint64(len(r.bytes)) {
		return errors.OutOfBounds(errors.PhaseStorage, offset, size, uint32(len(r.bytes)))
	}
	return nil
}
