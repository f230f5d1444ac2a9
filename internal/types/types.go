// Package types is the closed algebra of checked types:
// BuiltinType, Name, VectorType, DictType,
// OptionalType, RefType, IterableType, FunctionType, StructType, GenericType,
// AlgebraicType, and TemplateType.
package types

import (
	"fmt"
	"strings"
)

// Type is any member of the closed variant set. Every dispatcher over Type
// in this package and in internal/checker is an exhaustive type switch.
type Type interface {
	fmt.Stringer
	typeNode()
}

// Builtin is one of the fixed builtin scalar/interface type names.
type Builtin string

const (
	I8  Builtin = "I8"
	I16 Builtin = "I16"
	I32 Builtin = "I32"
	I64 Builtin = "I64"
	U8  Builtin = "U8"
	U16 Builtin = "U16"
	U32 Builtin = "U32"
	U64 Builtin = "U64"
	Int Builtin = "Int"
	F32 Builtin = "F32"
	F64 Builtin = "F64"

	StringT Builtin = "String"
	CharT   Builtin = "Char"
	BoolT   Builtin = "Bool"
	VoidT   Builtin = "Void"
	SelfT   Builtin = "Self"

	Object              Builtin = "Object"
	ConvertibleToString Builtin = "ConvertibleToString"
	ConvertibleToI8     Builtin = "ConvertibleToI8"
	ConvertibleToI16    Builtin = "ConvertibleToI16"
	ConvertibleToI32    Builtin = "ConvertibleToI32"
	ConvertibleToI64    Builtin = "ConvertibleToI64"
	ConvertibleToU8     Builtin = "ConvertibleToU8"
	ConvertibleToU16    Builtin = "ConvertibleToU16"
	ConvertibleToU32    Builtin = "ConvertibleToU32"
	ConvertibleToU64    Builtin = "ConvertibleToU64"
	Addable             Builtin = "Addable"
	Subtractable        Builtin = "Subtractable"
	Multipliable        Builtin = "Multipliable"
	Divisible           Builtin = "Divisible"
	ArithmeticObject    Builtin = "ArithmeticObject"
	Eq                  Builtin = "Eq"
	Iterable            Builtin = "Iterable" // generic: use GenericBuiltin below
	OptionalIface       Builtin = "Optional"
)

// IntegerTypes and FloatTypes mirror ast.IntegerBuiltins/FloatBuiltins but in
// the checked-type domain, used by the checker's literal-typing rule.
var IntegerTypes = []Builtin{I8, U8, I16, U16, I32, U32, I64, U64, Int}
var FloatTypes = []Builtin{F32, F64}

// IntegerRanges gives the inclusive [min, max] range of each finite integer
// builtin. Int is unbounded (no entry).
var IntegerRanges = map[Builtin][2]int64{
	I8:  {-128, 127},
	I16: {-32768, 32767},
	I32: {-2147483648, 2147483647},
	I64: {-9223372036854775808, 9223372036854775807},
	U8:  {0, 255},
	U16: {0, 65535},
	U32: {0, 4294967295},
	U64: {0, 9223372036854775807}, // representable in int64; true max is 2^64-1
}

// BuiltinType is a reference to one of the closed builtin names above.
type BuiltinType struct {
	Name Builtin
}

func (b *BuiltinType) typeNode()      {}
func (b *BuiltinType) String() string { return string(b.Name) }

// Supertypes is the hard-coded lattice: the direct and transitive supertypes
// recorded for each concrete builtin type.
var Supertypes = map[Builtin][]Builtin{
	I8: {I16, I32, I64,
		ConvertibleToString, ConvertibleToI8, ConvertibleToI16, ConvertibleToI32, ConvertibleToI64,
		Eq, Object, Addable, Subtractable, Multipliable, Divisible, ArithmeticObject},
	I16: {I32, I64,
		ConvertibleToString, ConvertibleToI16, ConvertibleToI32, ConvertibleToI64,
		Eq, Object, Addable, Subtractable, Multipliable, Divisible, ArithmeticObject},
	I32: {I64,
		ConvertibleToString, ConvertibleToI32, ConvertibleToI64,
		Eq, Object, Addable, Subtractable, Multipliable, Divisible, ArithmeticObject},
	I64: {ConvertibleToString, ConvertibleToI64,
		Eq, Object, Addable, Subtractable, Multipliable, Divisible, ArithmeticObject},
	// The unsigned widths additionally convert into every signed width that
	// can hold them.
	U8: {U16, U32, U64,
		ConvertibleToString, ConvertibleToI16, ConvertibleToI32, ConvertibleToI64,
		ConvertibleToU8, ConvertibleToU16, ConvertibleToU32, ConvertibleToU64,
		Eq, Object, Addable, Subtractable, Multipliable, Divisible, ArithmeticObject},
	U16: {U32, U64,
		ConvertibleToString, ConvertibleToI32, ConvertibleToI64,
		ConvertibleToU16, ConvertibleToU32, ConvertibleToU64,
		Eq, Object, Addable, Subtractable, Multipliable, Divisible, ArithmeticObject},
	U32: {U64,
		ConvertibleToString, ConvertibleToI64,
		ConvertibleToU32, ConvertibleToU64,
		Eq, Object, Addable, Subtractable, Multipliable, Divisible, ArithmeticObject},
	U64: {ConvertibleToString, ConvertibleToU64,
		Eq, Object, Addable, Subtractable, Multipliable, Divisible, ArithmeticObject},
	Int: {ConvertibleToString, Eq, Object, Addable, Subtractable, Multipliable, Divisible, ArithmeticObject},
	F32: {F64,
		ConvertibleToString, Eq, Object, Addable, Subtractable, Multipliable, Divisible, ArithmeticObject},
	F64: {ConvertibleToString, Eq, Object, Addable, Subtractable, Multipliable, Divisible, ArithmeticObject},

	StringT: {ConvertibleToString, Object, Eq},
	CharT:   {ConvertibleToString, Object, Eq},
	BoolT:   {ConvertibleToString, Object, Eq},

	Addable:          {ArithmeticObject, Object},
	Subtractable:     {ArithmeticObject, Object},
	Multipliable:     {ArithmeticObject, Object},
	Divisible:        {ArithmeticObject, Object},
	ArithmeticObject: {Object},
	Eq:               {Object},
	Object:           {},
}

// ImmediateChain maps each finite integer width to the next wider width of
// its family (I8<I16<I32<I64 and U8<U16<U32<U64); subtype checks consult
// Supertypes, not this chain.
var ImmediateChain = map[Builtin]Builtin{
	I8: I16, I16: I32, I32: I64,
	U8: U16, U16: U32, U32: U64,
}

// Name is a reference to a user-defined nominal type (module always empty).
type Name struct {
	Module string
	Member string
}

func (n *Name) typeNode()      {}
func (n *Name) String() string { return n.Member }

// VectorType is Vector<T>.
type VectorType struct{ Elem Type }

func (v *VectorType) typeNode()      {}
func (v *VectorType) String() string { return fmt.Sprintf("Vector<%s>", v.Elem) }

// DictType is Dict<K,V>.
type DictType struct{ Key, Val Type }

func (d *DictType) typeNode()      {}
func (d *DictType) String() string { return fmt.Sprintf("Dict<%s,%s>", d.Key, d.Val) }

// OptionalType is T?.
type OptionalType struct{ Elem Type }

func (o *OptionalType) typeNode()      {}
func (o *OptionalType) String() string { return fmt.Sprintf("%s?", o.Elem) }

// RefType is ref T.
type RefType struct{ Elem Type }

func (r *RefType) typeNode()      {}
func (r *RefType) String() string { return fmt.Sprintf("ref %s", r.Elem) }

// IterableType is the generic builtin interface Iterable<T>.
type IterableType struct{ Elem Type }

func (i *IterableType) typeNode()      {}
func (i *IterableType) String() string { return fmt.Sprintf("Iterable<%s>", i.Elem) }

// Arg is one formal parameter of a FunctionType: name, type, optional
// default expression (opaque here; the estimator owns expression values).
type Arg struct {
	Name    string
	Type    Type
	Default interface{} // *ast.Expr, kept opaque to avoid an import cycle
}

// WhereClause is one atomic `X is I` clause attached to a FunctionType:
// the parameter name and the builtin interface it must satisfy.
type WhereClause struct {
	Param     string // "X"
	Interface Builtin
}

// FunctionType is a function/method signature.
type FunctionType struct {
	TypeParams        []string
	Params            []Arg
	Return            Type
	Where             []WhereClause
	Env               interface{} // captured *env.Env snapshot, opaque here
	IsMethod          bool
	IsAlgebraicMethod bool
}

func (f *FunctionType) typeNode() {}
func (f *FunctionType) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.Name + ": " + p.Type.String()
	}
	return fmt.Sprintf("fun(%s) -> %s", strings.Join(parts, ", "), f.Return)
}

// Field is a struct/interface field.
type Field struct {
	Name string
	Type Type
}

// Method is a struct/interface method signature, keyed by unmangled name.
type Method struct {
	Name string
	Sig  *FunctionType
}

// StructType is a nominal struct, possibly generic.
type StructType struct {
	Name                  string
	TypeParams            []string
	ImplementedInterfaces []Builtin
	ImplementedNames      []string // user-declared InterfaceDeclaration names this struct conforms to
	Fields                []Field
	Methods               []Method
}

func (s *StructType) typeNode()      {}
func (s *StructType) String() string { return s.Name }

// GenericType is a StructType/AlgebraicType applied to concrete type
// arguments (e.g. `Box<I32>`).
type GenericType struct {
	Base Type // *StructType or *AlgebraicType
	Args []Type
}

func (g *GenericType) typeNode() {}
func (g *GenericType) String() string {
	parts := make([]string, len(g.Args))
	for i, a := range g.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", g.Base, strings.Join(parts, ","))
}

// Constructor is one named constructor of an AlgebraicType.
type Constructor struct {
	Name   string
	Struct *StructType
}

// AlgebraicType is a nominal sum type. Constructor is the selected
// constructor name once `.Ctor` has been accessed; empty string means "no constructor selected".
type AlgebraicType struct {
	Name                  string
	TypeParams            []string
	Constructor           string
	Constructors          map[string]*Constructor // name -> constructor, closed set
	ImplementedInterfaces []Builtin
	ImplementedNames      []string // user-declared InterfaceDeclaration names this type conforms to
	Methods               []Method // shared across all constructors
}

func (a *AlgebraicType) typeNode() {}
func (a *AlgebraicType) String() string {
	if a.Constructor != "" {
		return fmt.Sprintf("%s.%s", a.Name, a.Constructor)
	}
	return a.Name
}

// WithConstructor returns a copy of a selected to the given constructor.
func (a *AlgebraicType) WithConstructor(ctor string) *AlgebraicType {
	cp := *a
	cp.Constructor = ctor
	return &cp
}

// BuiltinInterfaceEntry describes one builtin interface: the parent
// interfaces whose members it inherits, and the members a conforming type
// must supply. The catalogue below is immutable global data built once.
type BuiltinInterfaceEntry struct {
	Parents []Builtin
	Methods []Method
}

func selfBinaryMethod(name string) Method {
	return Method{Name: name, Sig: &FunctionType{
		Params:   []Arg{{Name: "other", Type: &BuiltinType{Name: SelfT}}},
		Return:   &BuiltinType{Name: SelfT},
		IsMethod: true,
	}}
}

// BuiltinInterfaces is the catalogue of builtin interfaces a user type can
// declare conformance to. ConvertibleToString demands `as() -> String`; the
// arithmetic operator interfaces each demand their special method on Self;
// ArithmeticObject is the union of the four operator interfaces.
var BuiltinInterfaces = map[Builtin]BuiltinInterfaceEntry{
	Object: {},
	ConvertibleToString: {Methods: []Method{{Name: "as", Sig: &FunctionType{
		Return:   &BuiltinType{Name: StringT},
		IsMethod: true,
	}}}},
	ArithmeticObject: {Parents: []Builtin{Addable, Subtractable, Multipliable, Divisible}},
	Addable:          {Methods: []Method{selfBinaryMethod("__add__")}},
	Subtractable:     {Methods: []Method{selfBinaryMethod("__sub__")}},
	Multipliable:     {Methods: []Method{selfBinaryMethod("__mul__")}},
	Divisible:        {Methods: []Method{selfBinaryMethod("__div__")}},
}

// IsBuiltinInterface reports whether b names one of the fixed builtin
// interfaces (as opposed to a user-declared one).
func IsBuiltinInterface(b Builtin) bool {
	switch b {
	case Object, ConvertibleToString,
		ConvertibleToI8, ConvertibleToI16, ConvertibleToI32, ConvertibleToI64,
		ConvertibleToU8, ConvertibleToU16, ConvertibleToU32, ConvertibleToU64,
		Addable, Subtractable, Multipliable, Divisible,
		ArithmeticObject, Eq, Iterable, OptionalIface:
		return true
	}
	return false
}

// SatisfiesBuiltin reports whether a type recording `implemented` conforms
// to iface, recursing through the catalogue's parent interfaces (a type
// implementing ArithmeticObject also satisfies `is Addable`).
func SatisfiesBuiltin(implemented []Builtin, iface Builtin) bool {
	for _, impl := range implemented {
		if impl == iface {
			return true
		}
		if SatisfiesBuiltin(BuiltinInterfaces[impl].Parents, iface) {
			return true
		}
	}
	return false
}

// TemplateType is a unification variable, allocated from a monotonically
// increasing counter and stored centrally in the checker;
// resolution only ever narrows None -> Some(T).
type TemplateType struct {
	ID int
}

func (t *TemplateType) typeNode()      {}
func (t *TemplateType) String() string { return fmt.Sprintf("T%d", t.ID) }

// Equal is structural equality over the closed type algebra, used by the
// estimator and by named <-> named subtype checks. It does not resolve
// TemplateTypes; callers apply a mapping/substitution first.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case *BuiltinType:
		y, ok := b.(*BuiltinType)
		return ok && x.Name == y.Name
	case *Name:
		y, ok := b.(*Name)
		return ok && x.Module == y.Module && x.Member == y.Member
	case *VectorType:
		y, ok := b.(*VectorType)
		return ok && Equal(x.Elem, y.Elem)
	case *DictType:
		y, ok := b.(*DictType)
		return ok && Equal(x.Key, y.Key) && Equal(x.Val, y.Val)
	case *OptionalType:
		y, ok := b.(*OptionalType)
		return ok && Equal(x.Elem, y.Elem)
	case *RefType:
		y, ok := b.(*RefType)
		return ok && Equal(x.Elem, y.Elem)
	case *IterableType:
		y, ok := b.(*IterableType)
		return ok && Equal(x.Elem, y.Elem)
	case *StructType:
		y, ok := b.(*StructType)
		return ok && x.Name == y.Name
	case *AlgebraicType:
		y, ok := b.(*AlgebraicType)
		return ok && x.Name == y.Name && x.Constructor == y.Constructor
	case *GenericType:
		y, ok := b.(*GenericType)
		if !ok || !Equal(x.Base, y.Base) || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *FunctionType:
		y, ok := b.(*FunctionType)
		if !ok || len(x.Params) != len(y.Params) || !Equal(x.Return, y.Return) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i].Type, y.Params[i].Type) {
				return false
			}
		}
		return true
	case *TemplateType:
		y, ok := b.(*TemplateType)
		return ok && x.ID == y.ID
	default:
		return false
	}
}
