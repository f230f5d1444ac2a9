package estimator

import (
	"fmt"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/env"
)

func (es *Estimator) estimateCall(c *ast.FunctionCall, e *env.Env) (Value, error) {
	args := make([]Value, len(c.Args))
	for i, a := range c.Args {
		v, err := es.Estimate(a, e)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	switch path := c.Path.(type) {
	case *ast.OptionalTypeConstructor:
		if path.Ctor == "Some" {
			if len(args) != 1 {
				return nil, fmt.Errorf("estimator: Optional.Some takes exactly one argument")
			}
			return OptionalSomeCallValue{Inner: args[0]}, nil
		}
		return OptionalConstructorValue{Kind: OptNone}, nil
	}
	callee, err := es.Estimate(c.Path, e)
	if err != nil {
		return nil, err
	}
	return es.apply(callee, args, e)
}

// apply dispatches a callable estimated value against concrete arguments:
// struct construction picks the first matching
// init-declaration; algebraic constructors build a tagged instance;
// functions evaluate their body in a fresh environment.
func (es *Estimator) apply(callee Value, args []Value, e *env.Env) (Value, error) {
	switch c := callee.(type) {
	case StructValue:
		return es.constructStruct(c.Name, args, e)
	case AlgebraicConstructorValue:
		return es.constructAlgebraic(c.TypeName, c.Ctor, args, e)
	case FunctionValue:
		return es.callFunction(c, args, e)
	case OptionalConstructorValue:
		if c.Kind == OptSome {
			if len(args) != 1 {
				return nil, fmt.Errorf("estimator: Optional.Some takes exactly one argument")
			}
			return OptionalSomeCallValue{Inner: args[0]}, nil
		}
		return c, nil
	default:
		return nil, fmt.Errorf("estimator: %T is not callable", callee)
	}
}

// constructStruct enumerates the struct's init-declarations in source
// order and uses the first whose arity matches (type unification against
// declared parameter types is the checker's job; the estimator only needs
// arity/name alignment to fold a value; first match wins).
func (es *Estimator) constructStruct(name string, args []Value, e *env.Env) (Value, error) {
	ent, err := e.Get(name)
	if err != nil {
		return nil, err
	}
	se, ok := ent.(*env.StructEntry)
	if !ok {
		return nil, fmt.Errorf("estimator: %q is not a struct", name)
	}
	fields := map[string]Value{}
	for _, init := range se.Inits {
		if len(init.Params) != len(args) {
			continue
		}
		for i, p := range init.Params {
			fields[p.Name] = args[i]
		}
		return InstanceValue{TypeName: se.Type.Name, Fields: fields}, nil
	}
	// No init of matching arity: assign args positionally to every field in
	// se.Type.Fields, in the order recorded there. Private fields are not
	// skipped, so this does not line up with the analyzer's synthesized
	// init (public fields only) when the struct has private fields.
	for i, f := range se.Type.Fields {
		if i < len(args) {
			fields[f.Name] = args[i]
		}
	}
	return InstanceValue{TypeName: se.Type.Name, Fields: fields}, nil
}

func (es *Estimator) constructAlgebraic(typeName, ctor string, args []Value, e *env.Env) (Value, error) {
	alg, err := e.GetAlgebraic(typeName, ctor)
	if err != nil {
		return nil, err
	}
	st := alg.Constructors[ctor]
	fields := map[string]Value{}
	if st != nil {
		for i, f := range st.Type.Fields {
			if i < len(args) {
				fields[f.Name] = args[i]
			}
		}
	}
	return AlgebraicConstructorInstanceValue{TypeName: typeName, Ctor: ctor, Fields: fields}, nil
}

func (es *Estimator) estimateMethodCall(m *ast.MethodCall, e *env.Env) (Value, error) {
	base, err := es.Estimate(m.Base, e)
	if err != nil {
		return nil, err
	}
	args := make([]Value, len(m.Args))
	for i, a := range m.Args {
		v, err := es.Estimate(a, e)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	if cv, ok := base.(AlgebraicValue); ok {
		return es.constructAlgebraic(cv.Name, m.Method, args, e)
	}
	switch b := base.(type) {
	case StringValue:
		return es.stringMethod(b, m.Method, args)
	case VectorValue:
		return es.vectorMethod(&b, m.Method, args)
	}
	typeName := instanceTypeName(base)
	if typeName == "" {
		return nil, fmt.Errorf("estimator: %T has no methods", base)
	}
	ent, err := e.Get(typeName)
	if err != nil {
		return nil, err
	}
	selfArgs := append([]Value{base}, args...)
	switch se := ent.(type) {
	case *env.StructEntry:
		fe, ok := se.Methods[m.Method]
		if !ok {
			return nil, fmt.Errorf("estimator: %q has no method %q", typeName, m.Method)
		}
		fv := functionValueOf(fe)
		fv.HasSelf = true
		fv.SelfType = se.Type
		return es.callFunction(fv, selfArgs, e)
	case *env.AlgebraicEntry:
		fe, ok := se.Methods[m.Method]
		if !ok {
			return nil, fmt.Errorf("estimator: %q has no method %q", typeName, m.Method)
		}
		fv := functionValueOf(fe)
		fv.HasSelf = true
		fv.SelfType = se.Type
		return es.callFunction(fv, selfArgs, e)
	default:
		return nil, fmt.Errorf("estimator: %q is not a struct or algebraic type", typeName)
	}
}

func instanceTypeName(v Value) string {
	switch x := v.(type) {
	case InstanceValue:
		return x.TypeName
	case AlgebraicConstructorInstanceValue:
		return x.TypeName
	default:
		return ""
	}
}

func (es *Estimator) stringMethod(s StringValue, method string, args []Value) (Value, error) {
	switch method {
	case "split":
		if len(args) != 1 {
			return nil, fmt.Errorf("estimator: String.split takes one argument")
		}
		sep, ok := args[0].(CharValue)
		if !ok {
			return nil, fmt.Errorf("estimator: String.split expects a Char separator")
		}
		var parts []Value
		cur := ""
		for _, r := range s.V {
			if r == sep.V {
				parts = append(parts, StringValue{V: cur})
				cur = ""
			} else {
				cur += string(r)
			}
		}
		parts = append(parts, StringValue{V: cur})
		return VectorValue{Elems: parts}, nil
	default:
		return nil, fmt.Errorf("estimator: String has no method %q", method)
	}
}

func (es *Estimator) vectorMethod(v *VectorValue, method string, args []Value) (Value, error) {
	switch method {
	case "append":
		if len(args) != 1 {
			return nil, fmt.Errorf("estimator: Vector.append takes one argument")
		}
		v.Elems = append(v.Elems, args[0])
		return args[0], nil
	case "pop":
		if len(v.Elems) == 0 {
			return nil, fmt.Errorf("estimator: pop on empty vector")
		}
		last := v.Elems[len(v.Elems)-1]
		v.Elems = v.Elems[:len(v.Elems)-1]
		return last, nil
	default:
		return nil, fmt.Errorf("estimator: Vector has no method %q", method)
	}
}
