package estimator

import (
	"fmt"
	"strings"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/env"
	"github.com/angellang/angelc/internal/types"
)

// ErrDivByZero is returned by integer "/" and "%" on a zero divisor.
var ErrDivByZero = fmt.Errorf("division by zero")

func (es *Estimator) estimateBinary(b *ast.BinaryExpression, e *env.Env) (Value, error) {
	if b.Op == "is" {
		return es.estimateIs(b, e)
	}
	if b.Op == "and" || b.Op == "or" {
		return es.estimateLogic(b, e)
	}
	left, err := es.Estimate(b.Left, e)
	if err != nil {
		return nil, err
	}
	right, err := es.Estimate(b.Right, e)
	if err != nil {
		return nil, err
	}
	switch b.Op {
	case "==", "!=":
		eq, err := es.estimateEquals(left, right, e)
		if err != nil {
			return nil, err
		}
		if b.Op == "!=" {
			eq = !eq
		}
		return BoolValue{V: eq}, nil
	case "<", ">", "<=", ">=":
		return es.estimateCompare(b.Op, left, right)
	case "+", "-", "*", "/", "%":
		return es.estimateArith(b.Op, left, right, e)
	default:
		return nil, fmt.Errorf("estimator: unsupported operator %q", b.Op)
	}
}

func (es *Estimator) estimateLogic(b *ast.BinaryExpression, e *env.Env) (Value, error) {
	left, err := es.Estimate(b.Left, e)
	if err != nil {
		return nil, err
	}
	lb, ok := left.(BoolValue)
	if !ok {
		return nil, fmt.Errorf("estimator: %q requires Bool operands", b.Op)
	}
	if b.Op == "and" && !lb.V {
		return BoolValue{V: false}, nil
	}
	if b.Op == "or" && lb.V {
		return BoolValue{V: true}, nil
	}
	right, err := es.Estimate(b.Right, e)
	if err != nil {
		return nil, err
	}
	rb, ok := right.(BoolValue)
	if !ok {
		return nil, fmt.Errorf("estimator: %q requires Bool operands", b.Op)
	}
	return rb, nil
}

// estimateIs consults the subtype lattice for builtin types, and a named
// type's recorded implemented interfaces otherwise. `Object` on the right
// is always true.
func (es *Estimator) estimateIs(b *ast.BinaryExpression, e *env.Env) (Value, error) {
	left, err := es.Estimate(b.Left, e)
	if err != nil {
		return nil, err
	}
	rhsName, ok := b.Right.(*ast.Name)
	if !ok {
		return nil, fmt.Errorf("estimator: right-hand side of `is` must name a type/interface")
	}
	if rhsName.Member == string(types.Object) {
		return BoolValue{V: true}, nil
	}
	lt, err := TypeOf(left)
	if err != nil {
		return nil, err
	}
	switch t := lt.(type) {
	case *types.BuiltinType:
		for _, sup := range types.Supertypes[t.Name] {
			if string(sup) == rhsName.Member {
				return BoolValue{V: true}, nil
			}
		}
		return BoolValue{V: t.Name == types.Builtin(rhsName.Member)}, nil
	default:
		// Named types: consult the struct/parameter entry's
		// implemented interfaces, looked up in the caller's environment.
		ent, lookupErr := e.Get(typeNameOf(t))
		if lookupErr != nil {
			return BoolValue{V: false}, nil
		}
		var ifaces []types.Builtin
		switch se := ent.(type) {
		case *env.StructEntry:
			ifaces = se.Type.ImplementedInterfaces
		case *env.ParameterEntry:
			ifaces = se.Interfaces
		}
		return BoolValue{V: types.SatisfiesBuiltin(ifaces, types.Builtin(rhsName.Member))}, nil
	}
}

func typeNameOf(t types.Type) string {
	switch x := t.(type) {
	case *types.Name:
		return x.Member
	case *types.StructType:
		return x.Name
	case *types.AlgebraicType:
		return x.Name
	default:
		return ""
	}
}

// estimateEquals dispatches user-defined `__eq__` for Instance values;
// OptionalSomeCall vs None is structurally false.
func (es *Estimator) estimateEquals(left, right Value, e *env.Env) (bool, error) {
	switch l := left.(type) {
	case InstanceValue:
		fn, err := es.dispatchOperator(l.TypeName, "__eq__", e)
		if err != nil {
			return false, err
		}
		result, err := es.callFunction(fn, []Value{left, right}, e)
		if err != nil {
			return false, err
		}
		rb, ok := result.(BoolValue)
		if !ok {
			return false, fmt.Errorf("estimator: __eq__ must return Bool")
		}
		return rb.V, nil
	case OptionalSomeCallValue:
		if _, isNone := right.(OptionalConstructorValue); isNone {
			return false, nil
		}
		r, ok := right.(OptionalSomeCallValue)
		if !ok {
			return false, nil
		}
		eq, err := es.estimateEquals(l.Inner, r.Inner, e)
		return eq, err
	case OptionalConstructorValue:
		if l.Kind == OptNone {
			if _, isNone := right.(OptionalConstructorValue); isNone {
				return true, nil
			}
			return false, nil
		}
	}
	return valuesEqualDeep(left, right), nil
}

func valuesEqualDeep(a, b Value) bool {
	if valuesEqual(a, b) {
		return true
	}
	av, aok := a.(VectorValue)
	bv, bok := b.(VectorValue)
	if aok && bok {
		if len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !valuesEqualDeep(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (es *Estimator) estimateCompare(op string, left, right Value) (Value, error) {
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if lok && rok {
		switch op {
		case "<":
			return BoolValue{V: lf < rf}, nil
		case ">":
			return BoolValue{V: lf > rf}, nil
		case "<=":
			return BoolValue{V: lf <= rf}, nil
		case ">=":
			return BoolValue{V: lf >= rf}, nil
		}
	}
	if ls, ok := left.(StringValue); ok {
		if rs, ok := right.(StringValue); ok {
			c := strings.Compare(ls.V, rs.V)
			switch op {
			case "<":
				return BoolValue{V: c < 0}, nil
			case ">":
				return BoolValue{V: c > 0}, nil
			case "<=":
				return BoolValue{V: c <= 0}, nil
			case ">=":
				return BoolValue{V: c >= 0}, nil
			}
		}
	}
	return nil, fmt.Errorf("estimator: %q is not comparable with %q", op, op)
}

func asFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case IntValue:
		return float64(x.V), true
	case FloatValue:
		return x.V, true
	case CharValue:
		return float64(x.V), true
	default:
		return 0, false
	}
}

// estimateArith folds arithmetic: Int re-narrows its
// type from the result value; `/` truncates toward zero; `+` concatenates
// String/Vector; Instance dispatches to the matching special method.
func (es *Estimator) estimateArith(op string, left, right Value, e *env.Env) (Value, error) {
	// Arithmetic involving a value known only by type stays dynamic.
	if d, ok := left.(DynamicValue); ok {
		return DynamicValue{Type: d.Type}, nil
	}
	if d, ok := right.(DynamicValue); ok {
		return DynamicValue{Type: d.Type}, nil
	}
	switch l := left.(type) {
	case IntValue:
		r, ok := right.(IntValue)
		if !ok {
			return nil, fmt.Errorf("estimator: mismatched operand types for %q", op)
		}
		var v int64
		switch op {
		case "+":
			v = l.V + r.V
		case "-":
			v = l.V - r.V
		case "*":
			v = l.V * r.V
		case "/":
			if r.V == 0 {
				return nil, ErrDivByZero
			}
			v = l.V / r.V // Go's / already truncates toward zero for int64
		case "%":
			if r.V == 0 {
				return nil, ErrDivByZero
			}
			v = l.V % r.V
		}
		return IntValue{V: v, Type: smallestIntType(v)}, nil
	case FloatValue:
		r, ok := right.(FloatValue)
		if !ok {
			return nil, fmt.Errorf("estimator: mismatched operand types for %q", op)
		}
		var v float64
		switch op {
		case "+":
			v = l.V + r.V
		case "-":
			v = l.V - r.V
		case "*":
			v = l.V * r.V
		case "/":
			v = l.V / r.V
		}
		return FloatValue{V: v, Type: l.Type}, nil
	case StringValue:
		r, ok := right.(StringValue)
		if !ok || op != "+" {
			return nil, fmt.Errorf("estimator: %q is only defined on String for +", op)
		}
		return StringValue{V: l.V + r.V}, nil
	case VectorValue:
		r, ok := right.(VectorValue)
		if !ok || op != "+" {
			return nil, fmt.Errorf("estimator: %q is only defined on Vector for +", op)
		}
		elems := append(append([]Value{}, l.Elems...), r.Elems...)
		return VectorValue{Elems: elems, Elem: l.Elem}, nil
	case InstanceValue:
		method, ok := map[string]string{"+": "__add__", "-": "__sub__", "*": "__mul__", "/": "__div__"}[op]
		if !ok {
			return nil, fmt.Errorf("estimator: operator %q has no instance dispatch", op)
		}
		fn, err := es.dispatchOperator(l.TypeName, method, e)
		if err != nil {
			return nil, err
		}
		return es.callFunction(fn, []Value{left, right}, e)
	case DynamicValue:
		return DynamicValue{Type: l.Type}, nil
	default:
		return nil, fmt.Errorf("estimator: operator %q is not defined on %T", op, left)
	}
}

func (es *Estimator) dispatchOperator(typeName, method string, e *env.Env) (Value, error) {
	ent, err := e.Get(typeName)
	if err != nil {
		return nil, err
	}
	se, ok := ent.(*env.StructEntry)
	if !ok {
		return nil, fmt.Errorf("estimator: %q is not a struct", typeName)
	}
	if fe, ok := se.Methods[method]; ok {
		fv := functionValueOf(fe)
		fv.HasSelf = true
		fv.SelfType = se.Type
		return fv, nil
	}
	return nil, fmt.Errorf("estimator: %q has no operator method %q", typeName, method)
}

// callFunction evaluates a FunctionValue's body in a fresh environment
// seeded by its saved environment plus bindings for self (methods pass
// the receiver as args[0]) and the formal arguments.
// Native callables bypass the environment entirely.
func (es *Estimator) callFunction(fn Value, args []Value, e *env.Env) (Value, error) {
	f, ok := fn.(FunctionValue)
	if !ok {
		return nil, fmt.Errorf("estimator: value is not callable")
	}
	if f.Native != nil {
		return f.Native(args)
	}
	saved, _ := f.SavedEnv.(*env.Env)
	if saved == nil {
		saved = e
	}
	call := saved.Snapshot()
	call.Push()
	defer call.Pop()
	if f.HasSelf {
		if len(args) == 0 {
			return nil, fmt.Errorf("estimator: method call without a receiver")
		}
		self := call.AddConstant("self", 0, f.SelfType, nil)
		_ = self.SetValue(args[0])
		args = args[1:]
	}
	if len(args) != len(f.Params) {
		return nil, fmt.Errorf("estimator: expected %d arguments, got %d", len(f.Params), len(args))
	}
	for i, name := range f.Params {
		ent := call.AddConstant(name, 0, nil, nil)
		_ = ent.SetValue(args[i])
	}
	v, _, _, err := es.EstimateBlock(f.Body, call)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// EstimateBlock evaluates a statement list, returning the last expression
// value (if the block ends in one), whether a `return` fired (and its
// value), and whether a `break` fired.
func (es *Estimator) EstimateBlock(body []ast.Stmt, e *env.Env) (Value, bool, bool, error) {
	var last Value = VoidValue{}
	for _, stmt := range body {
		v, isReturn, isBreak, err := es.estimateStmt(stmt, e)
		if err != nil {
			return nil, false, false, err
		}
		if isReturn || isBreak {
			return v, isReturn, isBreak, nil
		}
		if v != nil {
			last = v
		}
	}
	return last, false, false, nil
}

func (es *Estimator) estimateStmt(stmt ast.Stmt, e *env.Env) (Value, bool, bool, error) {
	switch s := stmt.(type) {
	case *ast.Return:
		if s.Value == nil {
			return VoidValue{}, true, false, nil
		}
		v, err := es.Estimate(s.Value, e)
		return v, true, false, err
	case *ast.Break:
		return BreakValue{}, false, true, nil
	case *ast.ExprStmt:
		v, err := es.Estimate(s.X, e)
		return v, false, false, err
	case *ast.Decl:
		v, err := es.estimateDecl(s, e)
		if err != nil {
			return nil, false, false, err
		}
		if s.Kind == ast.LetDecl {
			ent := e.AddConstant(s.Name, s.Pos.Line, nil, s.Value)
			_ = ent.SetValue(v)
		} else {
			ent := e.AddVariable(s.Name, s.Pos.Line, nil, s.Value)
			_ = ent.SetValue(v)
		}
		return nil, false, false, nil
	case *ast.Assignment:
		return nil, false, false, es.estimateAssignment(s, e)
	case *ast.If:
		return es.estimateIf(s, e)
	case *ast.While:
		return es.estimateWhile(s, e)
	case *ast.For:
		return es.estimateFor(s, e)
	default:
		return nil, false, false, nil
	}
}

func (es *Estimator) estimateAssignment(a *ast.Assignment, e *env.Env) error {
	rhs, err := es.Estimate(a.RHS, e)
	if err != nil {
		return err
	}
	name, ok := a.LHS.(*ast.Name)
	if !ok {
		return fmt.Errorf("estimator: unsupported assignment target %T", a.LHS)
	}
	ent, err := e.GetName(name)
	if err != nil {
		return err
	}
	d, ok := ent.(*env.DeclEntry)
	if !ok {
		return fmt.Errorf("estimator: %q is not assignable", name.Member)
	}
	if d.Kind == env.Constant && d.HasValue {
		return env.ErrConstantReassignment
	}
	d.Estimated = rhs
	d.HasValue = true
	return nil
}

// estimateIf desugars `if let x = opt: body` into a comparison against
// Optional.None with the body prefixed by a binding `x = opt!`.
func (es *Estimator) estimateIf(stmt *ast.If, e *env.Env) (Value, bool, bool, error) {
	taken, bodies, err := es.resolveBranch(stmt, e)
	if err != nil {
		return nil, false, false, err
	}
	if !taken {
		return VoidValue{}, false, false, nil
	}
	e.Push()
	defer e.Pop()
	return es.EstimateBlock(bodies, e)
}

func (es *Estimator) resolveBranch(stmt *ast.If, e *env.Env) (bool, []ast.Stmt, error) {
	ok, err := es.evalCond(stmt.Cond, e)
	if err != nil {
		return false, nil, err
	}
	if ok {
		return true, stmt.Body, nil
	}
	for _, elif := range stmt.Elifs {
		ok, err := es.evalCond(elif.Cond, e)
		if err != nil {
			return false, nil, err
		}
		if ok {
			return true, elif.Body, nil
		}
	}
	if stmt.Else != nil {
		return true, stmt.Else, nil
	}
	return false, nil, nil
}

// evalCond evaluates a condition, desugaring an `if let`/`while let`
// binding in place: if Cond is a *ast.Decl the condition is `cond != None`
// and, if true, the bound name is installed with the unwrapped value.
func (es *Estimator) evalCond(cond ast.Expr, e *env.Env) (bool, error) {
	decl, isDecl := cond.(*ast.Decl)
	if !isDecl {
		v, err := es.Estimate(cond, e)
		if err != nil {
			return false, err
		}
		b, ok := v.(BoolValue)
		if !ok {
			return false, fmt.Errorf("estimator: condition must estimate to Bool")
		}
		return b.V, nil
	}
	tmp, err := es.Estimate(decl.Value, e)
	if err != nil {
		return false, err
	}
	some, isSome := tmp.(OptionalSomeCallValue)
	if !isSome {
		return false, nil
	}
	ent := e.AddConstant(decl.Name, decl.Pos.Line, nil, decl.Value)
	_ = ent.SetValue(some.Inner)
	return true, nil
}

func (es *Estimator) estimateWhile(stmt *ast.While, e *env.Env) (Value, bool, bool, error) {
	decl, isDecl := stmt.Cond.(*ast.Decl)
	for {
		var ok bool
		var err error
		if isDecl {
			ok, err = es.evalCond(decl, e)
		} else {
			ok, err = es.evalCond(stmt.Cond, e)
		}
		if err != nil {
			return nil, false, false, err
		}
		if !ok {
			break
		}
		e.Push()
		v, isReturn, isBreak, err := es.EstimateBlock(stmt.Body, e)
		if isDecl {
			// Re-read the updated optional for the next iteration.
			reread, rerr := es.Estimate(decl.Value, e)
			if rerr == nil {
				if d, derr := e.Get(decl.Name); derr == nil {
					if de, ok := d.(*env.DeclEntry); ok {
						de.Estimated = reread
					}
				}
			}
		}
		e.Pop()
		if err != nil {
			return nil, false, false, err
		}
		if isReturn {
			return v, true, false, nil
		}
		if isBreak {
			break
		}
	}
	return VoidValue{}, false, false, nil
}

func (es *Estimator) estimateFor(stmt *ast.For, e *env.Env) (Value, bool, bool, error) {
	container, err := es.Estimate(stmt.Container, e)
	if err != nil {
		return nil, false, false, err
	}
	var elems []Value
	switch c := container.(type) {
	case VectorValue:
		elems = c.Elems
	case StringValue:
		for _, r := range c.V {
			elems = append(elems, CharValue{V: r})
		}
	default:
		return nil, false, false, fmt.Errorf("estimator: %T is not iterable", container)
	}
	for _, el := range elems {
		e.Push()
		ent := e.AddConstant(stmt.ElemName, stmt.Pos.Line, nil, nil)
		_ = ent.SetValue(el)
		v, isReturn, isBreak, err := es.EstimateBlock(stmt.Body, e)
		e.Pop()
		if err != nil {
			return nil, false, false, err
		}
		if isReturn {
			return v, true, false, nil
		}
		if isBreak {
			break
		}
	}
	return VoidValue{}, false, false, nil
}
