package clarifier

import "golang.org/x/text/cases"

// builtinTypeLexemes mirrors the closed builtin type/interface name set;
// kept local to clarifier (rather than imported from parser) since the
// clarifier only needs membership, not the corresponding ast.BuiltinTypeName
// value.
var builtinTypeLexemes = map[string]bool{
	"I8": true, "I16": true, "I32": true, "I64": true,
	"U8": true, "U16": true, "U32": true, "U64": true,
	"Int": true, "F32": true, "F64": true,
	"String": true, "Char": true, "Bool": true, "Void": true, "Self": true,
	"Object": true, "ConvertibleToString": true,
	"ConvertibleToI8": true, "ConvertibleToI16": true, "ConvertibleToI32": true, "ConvertibleToI64": true,
	"ConvertibleToU8": true, "ConvertibleToU16": true, "ConvertibleToU32": true, "ConvertibleToU64": true,
	"Addable": true, "Subtractable": true, "Multipliable": true, "Divisible": true,
	"ArithmeticObject": true, "Eq": true, "Iterable": true, "Optional": true,
}

// fold is the Unicode case folder used to recognize a builtin keyword
// regardless of the case a source file spells it with (a user typing
// `string` or `STRING` in expression position still hits the builtin
// category rather than falling through to mangling).
var fold = cases.Fold()

// foldedBuiltinTypeLexemes is builtinTypeLexemes keyed by its case-folded
// spelling, built once at package init.
var foldedBuiltinTypeLexemes = foldKeys(builtinTypeLexemes)

func foldKeys(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[fold.String(k)] = true
	}
	return out
}

func isBuiltinTypeName(name string) bool { return foldedBuiltinTypeLexemes[fold.String(name)] }
