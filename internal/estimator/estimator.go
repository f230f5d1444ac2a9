package estimator

import (
	"fmt"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/env"
	"github.com/angellang/angelc/internal/types"
)

// Checker is the narrow surface the estimator needs back from the type
// checker. The concrete *checker.Checker satisfies this without either
// package importing the other's concrete type.
type Checker interface {
	// InferLiteralType picks the concrete builtin type a literal would be
	// typed as with no supertype constraint, used when the estimator needs
	// a type for a literal it is folding (e.g. an empty vector literal).
	InferLiteralType(lit *ast.Literal) (types.Type, error)
	// LookupStructFields resolves field declaration order for default
	// construction understood by the estimator's Instance folding.
	LookupStructFields(typeName string) ([]string, error)
}

// Estimator is the partial evaluator. Estimator and Checker hold back-
// references to each other and must be constructed together.
type Estimator struct {
	Checker     Checker
	tempCounter int
}

// New creates an Estimator with no checker attached yet; call SetChecker
// once the paired Checker exists.
func New() *Estimator { return &Estimator{} }

// SetChecker completes the two-phase construction.
func (es *Estimator) SetChecker(c Checker) { es.Checker = c }

// FreshTemp allocates a REPL temporary name.
func (es *Estimator) FreshTemp() string {
	es.tempCounter++
	return fmt.Sprintf("__tmp%d", es.tempCounter)
}

// Estimate partially evaluates expr in e, returning nil (no error, no
// value) for pure side-effect statements that produce nothing.
func (es *Estimator) Estimate(expr ast.Expr, e *env.Env) (Value, error) {
	switch x := expr.(type) {
	case *ast.Literal:
		return es.estimateLiteral(x, e)
	case *ast.Name:
		return es.estimateName(x, e)
	case *ast.SpecialName:
		ent, err := e.Get("self")
		if err != nil {
			return nil, err
		}
		return declEstimated(ent)
	case *ast.BuiltinFunc:
		name := x.Name
		return FunctionValue{Native: func(args []Value) (Value, error) {
			if name == "read" {
				return DynamicValue{Type: &types.BuiltinType{Name: types.StringT}}, nil
			}
			return VoidValue{}, nil
		}}, nil
	case *ast.Parentheses:
		return es.Estimate(x.Inner, e)
	case *ast.Ref:
		v, err := es.Estimate(x.Value, e)
		if err != nil {
			return nil, err
		}
		return &RefValue{Current: v, InitialExpr: x.Value}, nil
	case *ast.OptionalTypeConstructor:
		if x.Ctor == "Some" {
			return OptionalConstructorValue{Kind: OptSome}, nil
		}
		return OptionalConstructorValue{Kind: OptNone}, nil
	case *ast.OptionalSomeCall:
		inner, err := es.Estimate(x.Arg, e)
		if err != nil {
			return nil, err
		}
		return OptionalSomeCallValue{Inner: inner}, nil
	case *ast.OptionalSomeValue:
		base, err := es.Estimate(x.Base, e)
		if err != nil {
			return nil, err
		}
		switch b := base.(type) {
		case OptionalSomeCallValue:
			return b.Inner, nil
		default:
			return nil, fmt.Errorf("estimator: forced unwrap of a non-Some optional")
		}
	case *ast.Field:
		return es.estimateField(x, e)
	case *ast.Subscript:
		return es.estimateSubscript(x, e)
	case *ast.BinaryExpression:
		return es.estimateBinary(x, e)
	case *ast.Cast:
		return es.estimateCast(x, e)
	case *ast.FunctionCall:
		return es.estimateCall(x, e)
	case *ast.MethodCall:
		return es.estimateMethodCall(x, e)
	case *ast.NamedArgument:
		return es.Estimate(x.Value, e)
	case *ast.Decl:
		return es.estimateDecl(x, e)
	default:
		return nil, fmt.Errorf("estimator: unsupported expression %T", expr)
	}
}

func declEstimated(ent env.Entry) (Value, error) {
	d, ok := ent.(*env.DeclEntry)
	if !ok {
		return nil, fmt.Errorf("estimator: entry is not a value binding")
	}
	if v, ok := d.Estimated.(Value); ok {
		return v, nil
	}
	return nil, fmt.Errorf("estimator: binding has no estimated value yet")
}

func (es *Estimator) estimateLiteral(lit *ast.Literal, e *env.Env) (Value, error) {
	switch lit.Kind {
	case ast.IntLit:
		var v int64
		fmt.Sscanf(lit.Raw, "%d", &v)
		return IntValue{V: v, Type: smallestIntType(v)}, nil
	case ast.DecimalLit:
		var v float64
		fmt.Sscanf(lit.Raw, "%g", &v)
		return FloatValue{V: v, Type: types.F64}, nil
	case ast.StringLit:
		return StringValue{V: lit.Raw}, nil
	case ast.CharLit:
		r := []rune(lit.Raw)
		if len(r) == 0 {
			return CharValue{}, nil
		}
		return CharValue{V: r[0]}, nil
	case ast.BoolLit:
		return BoolValue{V: lit.Bool}, nil
	case ast.VectorLit:
		elems := make([]Value, len(lit.Elems))
		var elemType types.Type
		for i, el := range lit.Elems {
			v, err := es.Estimate(el, e)
			if err != nil {
				return nil, err
			}
			elems[i] = v
			if elemType == nil {
				elemType, _ = TypeOf(v)
			}
		}
		if elemType == nil {
			elemType = &types.TemplateType{}
		}
		return VectorValue{Elems: elems, Elem: elemType}, nil
	case ast.DictLit:
		pairs := make([]DictEntry, len(lit.Pairs))
		var keyType, valType types.Type
		for i, p := range lit.Pairs {
			k, err := es.Estimate(p.Key, e)
			if err != nil {
				return nil, err
			}
			v, err := es.Estimate(p.Val, e)
			if err != nil {
				return nil, err
			}
			pairs[i] = DictEntry{Key: k, Val: v}
			if keyType == nil {
				keyType, _ = TypeOf(k)
				valType, _ = TypeOf(v)
			}
		}
		if keyType == nil {
			keyType, valType = &types.TemplateType{}, &types.TemplateType{}
		}
		return DictValue{Pairs: pairs, Key: keyType, Val: valType}, nil
	default:
		return nil, fmt.Errorf("estimator: unknown literal kind %d", lit.Kind)
	}
}

// smallestIntType picks the first type in ast.IntegerBuiltins order whose
// range contains v, the "no supertype constraint" literal-typing case.
func smallestIntType(v int64) types.Builtin {
	for _, b := range types.IntegerTypes {
		if b == types.Int {
			return types.Int
		}
		r, ok := types.IntegerRanges[b]
		if ok && v >= r[0] && v <= r[1] {
			return b
		}
	}
	return types.Int
}

// functionValueOf packages a registered function/method entry as a
// callable, carrying its parameter names so apply can bind arguments.
func functionValueOf(fe *env.FunctionEntry) FunctionValue {
	params := make([]string, len(fe.Sig.Params))
	for i, p := range fe.Sig.Params {
		params[i] = p.Name
	}
	return FunctionValue{Body: fe.Body, Params: params, SavedEnv: fe.SavedEnv, HasSelf: fe.IsMethod}
}

func (es *Estimator) estimateName(n *ast.Name, e *env.Env) (Value, error) {
	ent, err := e.GetName(n)
	if err != nil {
		return nil, err
	}
	switch x := ent.(type) {
	case *env.DeclEntry:
		return declEstimated(x)
	case *env.FunctionEntry:
		return functionValueOf(x), nil
	case *env.StructEntry:
		return StructValue{Name: x.Type.Name}, nil
	case *env.AlgebraicEntry:
		return AlgebraicValue{Name: x.Type.Name}, nil
	default:
		return nil, fmt.Errorf("estimator: %q does not denote a value", n.Member)
	}
}

func (es *Estimator) estimateField(f *ast.Field, e *env.Env) (Value, error) {
	base, err := es.Estimate(f.Base, e)
	if err != nil {
		return nil, err
	}
	switch b := base.(type) {
	case InstanceValue:
		if v, ok := b.Fields[f.Field]; ok {
			return v, nil
		}
		return nil, fmt.Errorf("estimator: instance of %q has no field %q", b.TypeName, f.Field)
	case AlgebraicConstructorInstanceValue:
		if v, ok := b.Fields[f.Field]; ok {
			return v, nil
		}
		return nil, fmt.Errorf("estimator: %s.%s has no field %q", b.TypeName, b.Ctor, f.Field)
	case AlgebraicValue:
		return AlgebraicConstructorValue{TypeName: b.Name, Ctor: f.Field}, nil
	case StringValue:
		if f.Field == "length" {
			return IntValue{V: int64(len([]rune(b.V))), Type: types.U64}, nil
		}
	case VectorValue:
		if f.Field == "length" {
			return IntValue{V: int64(len(b.Elems)), Type: types.U64}, nil
		}
	case DictValue:
		if f.Field == "length" {
			return IntValue{V: int64(len(b.Pairs)), Type: types.U64}, nil
		}
	case *RefValue:
		if f.Field == "value" {
			return b.Current, nil
		}
	}
	return nil, fmt.Errorf("estimator: cannot access field %q on %T", f.Field, base)
}

func (es *Estimator) estimateSubscript(s *ast.Subscript, e *env.Env) (Value, error) {
	base, err := es.Estimate(s.Base, e)
	if err != nil {
		return nil, err
	}
	idx, err := es.Estimate(s.Index, e)
	if err != nil {
		return nil, err
	}
	switch b := base.(type) {
	case VectorValue:
		i, ok := idx.(IntValue)
		if !ok || i.V < 0 || int(i.V) >= len(b.Elems) {
			return nil, fmt.Errorf("estimator: vector index out of range")
		}
		return b.Elems[i.V], nil
	case StringValue:
		i, ok := idx.(IntValue)
		r := []rune(b.V)
		if !ok || i.V < 0 || int(i.V) >= len(r) {
			return nil, fmt.Errorf("estimator: string index out of range")
		}
		return CharValue{V: r[i.V]}, nil
	case DictValue:
		for _, p := range b.Pairs {
			if valuesEqual(p.Key, idx) {
				return p.Val, nil
			}
		}
		return nil, fmt.Errorf("estimator: dict has no such key")
	default:
		return nil, fmt.Errorf("estimator: cannot subscript %T", base)
	}
}

func valuesEqual(a, b Value) bool {
	switch x := a.(type) {
	case IntValue:
		y, ok := b.(IntValue)
		return ok && x.V == y.V
	case StringValue:
		y, ok := b.(StringValue)
		return ok && x.V == y.V
	case CharValue:
		y, ok := b.(CharValue)
		return ok && x.V == y.V
	case BoolValue:
		y, ok := b.(BoolValue)
		return ok && x.V == y.V
	default:
		return false
	}
}

func (es *Estimator) estimateDecl(d *ast.Decl, e *env.Env) (Value, error) {
	if d.Value == nil {
		return VoidValue{}, nil
	}
	return es.Estimate(d.Value, e)
}

func (es *Estimator) estimateCast(c *ast.Cast, e *env.Env) (Value, error) {
	// Casts do not change the estimated runtime value for the builtin
	// numeric/string conversions this core recognizes; the concrete target
	// type is a checker concern (IsBuiltin / conversion emission).
	return es.Estimate(c.Value, e)
}
