package sim

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/objmodel"
	"github.com/wippyai/objmodel/errors"
	"github.com/wippyai/objmodel/graph"
	"github.com/wippyai/objmodel/layout"
	"github.com/wippyai/objmodel/pointer"
	"github.com/wippyai/objmodel/resolve"
	"github.com/wippyai/objmodel/storage"
	"github.com/wippyai/objmodel/trace"
)

// Config alters evaluation behavior.
type Config struct {
	// HaltOnUB stops evaluation at the first violation instead of
	// collecting every violation in the trace.
	HaltOnUB bool
	// Policy overrides the resolution tie-break.
	Policy resolve.Policy
	// Oracle overrides the layout oracle. Defaults to layout.NewCalc.
	Oracle layout.Oracle
}

// Evaluator runs operation traces against a fresh abstract machine. The
// trace is a strictly ordered sequence; evaluation is synchronous and
// single-threaded by design, mirroring the single abstract machine
// evaluation order.
type Evaluator struct {
	cfg   Config
	store *storage.Manager
	graph *graph.Graph
	model *pointer.Model

	types    map[string]*layout.Type
	pointers map[int]pointer.Pointer
}

// New creates an evaluator.
func New(cfg Config) *Evaluator {
	oracle := cfg.Oracle
	if oracle == nil {
		oracle = layout.NewCalc()
	}
	store := storage.NewManager()
	g := graph.New(store, oracle)
	eng := resolve.New(g)
	if cfg.Policy != nil {
		eng.SetPolicy(cfg.Policy)
	}
	return &Evaluator{
		cfg:      cfg,
		store:    store,
		graph:    g,
		model:    pointer.NewModel(g, eng),
		pointers: make(map[int]pointer.Pointer),
	}
}

// Graph exposes the object graph for drivers that mix programmatic
// operations with trace evaluation.
func (e *Evaluator) Graph() *graph.Graph { return e.graph }

// Storage exposes the storage manager.
func (e *Evaluator) Storage() *storage.Manager { return e.store }

// Load resolves the trace's type table. It must run before Step; Run does
// it implicitly.
func (e *Evaluator) Load(tr *trace.Trace) error {
	types, err := tr.ResolveTypes()
	if err != nil {
		return err
	}
	e.types = types
	return nil
}

// Step evaluates one trace record as operation index i. Violations are a
// result, not an error; a non-nil error means the record itself is
// malformed.
func (e *Evaluator) Step(i int, rec trace.Record) (trace.Result, error) {
	res, err := e.step(i, rec)
	if err != nil {
		kind, ok := errors.Violation(err)
		if !ok {
			return trace.Result{}, errors.Wrap(errors.PhaseTrace, errors.KindInvalidTrace, err, "op "+strconv.Itoa(i))
		}
		res = trace.Result{
			Op:        i,
			Kind:      trace.ResultViolation,
			Violation: string(kind),
			Detail:    err.Error(),
		}
	}
	Logger().Debug("op evaluated",
		zap.Int("op", i),
		zap.String("kind", string(res.Kind)),
	)
	return res, nil
}

// Run evaluates a trace and returns one result record per executed
// operation. Violations become Violation results; with HaltOnUB set, the
// first violation ends the run. A non-nil error means the trace itself is
// malformed, not that the modeled program misbehaved.
func (e *Evaluator) Run(tr *trace.Trace) ([]trace.Result, error) {
	if err := e.Load(tr); err != nil {
		return nil, err
	}

	results := make([]trace.Result, 0, len(tr.Ops))
	for i, rec := range tr.Ops {
		res, err := e.Step(i, rec)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if res.Kind == trace.ResultViolation && e.cfg.HaltOnUB {
			break
		}
	}
	return results, nil
}

func (e *Evaluator) step(i int, rec trace.Record) (trace.Result, error) {
	switch rec.Op {
	case trace.OpCreateRegion:
		id := e.store.CreateRegion(rec.Size)
		return trace.Result{Op: i, Kind: trace.ResultOk, Value: uint64(id)}, nil

	case trace.OpCreateObject:
		t, err := e.typeByName(rec.Type)
		if err != nil {
			return trace.Result{}, err
		}
		id, err := e.graph.Create(objmodel.RegionID(rec.Region), rec.Offset, t)
		if err != nil {
			return trace.Result{}, err
		}
		return trace.Result{Op: i, Kind: trace.ResultOk, Value: uint64(id)}, nil

	case trace.OpDestroyObject:
		if err := e.graph.Destroy(objmodel.ObjectID(rec.Object)); err != nil {
			return trace.Result{}, err
		}
		return trace.Result{Op: i, Kind: trace.ResultOk}, nil

	case trace.OpDestroyRegion:
		if err := e.store.DestroyRegion(objmodel.RegionID(rec.Region)); err != nil {
			return trace.Result{}, err
		}
		return trace.Result{Op: i, Kind: trace.ResultOk}, nil

	case trace.OpCast:
		p, err := e.operand(rec.Ptr)
		if err != nil {
			return trace.Result{}, err
		}
		t, err := e.typeByName(rec.Type)
		if err != nil {
			return trace.Result{}, err
		}
		out, err := e.model.Cast(p, t)
		if err != nil {
			return trace.Result{}, err
		}
		e.pointers[i] = out
		return e.pointerResult(i, out), nil

	case trace.OpAdd:
		p, err := e.operand(rec.Ptr)
		if err != nil {
			return trace.Result{}, err
		}
		out, err := e.model.Add(p, rec.N)
		if err != nil {
			return trace.Result{}, err
		}
		e.pointers[i] = out
		return e.pointerResult(i, out), nil

	case trace.OpDereference:
		p, err := e.operand(rec.Ptr)
		if err != nil {
			return trace.Result{}, err
		}
		v, err := e.model.Deref(p)
		if err != nil {
			return trace.Result{}, err
		}
		if v.IsUnspecified() {
			return trace.Result{Op: i, Kind: trace.ResultUnspecified}, nil
		}
		if b := v.Bytes(); b != nil {
			return trace.Result{Op: i, Kind: trace.ResultOk, Bytes: b}, nil
		}
		return trace.Result{Op: i, Kind: trace.ResultOk, Value: v.Uint64()}, nil
	}
	return trace.Result{}, errors.InvalidTrace("unknown op %q", rec.Op)
}

// operand materializes a pointer operand: a prior result or an address-of.
func (e *Evaluator) operand(ref *trace.PtrRef) (pointer.Pointer, error) {
	if ref == nil {
		return pointer.Pointer{}, errors.InvalidTrace("missing pointer operand")
	}
	if ref.Result != nil {
		p, ok := e.pointers[*ref.Result]
		if !ok {
			return pointer.Pointer{}, errors.InvalidTrace("op %d produced no pointer", *ref.Result)
		}
		return p, nil
	}
	if ref.Object != 0 {
		return e.model.To(objmodel.ObjectID(ref.Object))
	}
	return pointer.Pointer{}, errors.InvalidTrace("empty pointer operand")
}

func (e *Evaluator) typeByName(name string) (*layout.Type, error) {
	t, ok := e.types[name]
	if !ok {
		return nil, errors.InvalidTrace("unknown type %q", name)
	}
	return t, nil
}

func (e *Evaluator) pointerResult(i int, p pointer.Pointer) trace.Result {
	return trace.Result{
		Op:   i,
		Kind: trace.ResultOkPointer,
		Pointer: &trace.PtrVal{
			Region: uint32(p.Addr.Region),
			Offset: p.Addr.Offset,
			Type:   p.Type.String(),
		},
	}
}
