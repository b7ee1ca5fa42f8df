package trace

import "fmt"

// ResultKind discriminates result records.
type ResultKind string

const (
	// ResultOk carries a concrete value.
	ResultOk ResultKind = "ok"
	// ResultOkPointer carries a pointer value.
	ResultOkPointer ResultKind = "ok_pointer"
	// ResultUnspecified is a well-defined read with no determined value.
	// Explicitly not a violation.
	ResultUnspecified ResultKind = "unspecified"
	// ResultViolation flags the operation as undefined behavior.
	ResultViolation ResultKind = "violation"
)

// PtrVal is the serialized form of a pointer result.
type PtrVal struct {
	Region uint32 `json:"region"`
	Offset uint32 `json:"offset"`
	Type   string `json:"type"`
}

// Result is the outcome of one trace operation. Reads of objects wider
// than 8 bytes carry their value in Bytes instead of Value.
type Result struct {
	Op        int        `json:"op"`
	Kind      ResultKind `json:"kind"`
	Value     uint64     `json:"value,omitempty"`
	Bytes     []byte     `json:"bytes,omitempty"`
	Pointer   *PtrVal    `json:"pointer,omitempty"`
	Violation string     `json:"violation,omitempty"`
	Detail    string     `json:"detail,omitempty"`
}

func (r Result) String() string {
	switch r.Kind {
	case ResultOk:
		if r.Bytes != nil {
			return fmt.Sprintf("op %d: ok %x", r.Op, r.Bytes)
		}
		return fmt.Sprintf("op %d: ok %d", r.Op, r.Value)
	case ResultOkPointer:
		return fmt.Sprintf("op %d: ptr r%d+%d %s", r.Op, r.Pointer.Region, r.Pointer.Offset, r.Pointer.Type)
	case ResultUnspecified:
		return fmt.Sprintf("op %d: unspecified", r.Op)
	case ResultViolation:
		return fmt.Sprintf("op %d: UB %s (%s)", r.Op, r.Violation, r.Detail)
	}
	return fmt.Sprintf("op %d: %s", r.Op, r.Kind)
}
