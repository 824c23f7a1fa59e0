package types

import (
	"fmt"
	"strings"
)

// String renders id for diagnostic messages. This is display only — nothing in the solver compares types by
// their rendered string.
func (in *Interner) String(id TypeId) string {
	if !id.Valid() {
		return "<none>"
	}
	switch key := in.Get(id).(type) {
	case intrinsicKey:
		return key.kind.String()
	case literalKey:
		switch key.kind {
		case LitString:
			return fmt.Sprintf("%q", key.str)
		case LitNumber:
			return fmt.Sprintf("%v", key.num)
		case LitBoolean:
			return fmt.Sprintf("%v", key.boolean)
		case LitBigInt:
			return key.str + "n"
		default:
			return "unique symbol"
		}
	case objectKey:
		if len(key.shape.Properties) == 0 && len(key.shape.CallSigs) == 0 && len(key.shape.ConstructSigs) == 0 {
			return "{}"
		}
		parts := make([]string, 0, len(key.shape.Properties))
		for _, p := range key.shape.Properties {
			opt := ""
			if p.Optional {
				opt = "?"
			}
			ro := ""
			if p.Readonly {
				ro = "readonly "
			}
			parts = append(parts, fmt.Sprintf("%s%s%s: %s", ro, p.Name, opt, in.String(p.Type)))
		}
		return "{ " + strings.Join(parts, "; ") + " }"
	case arrayKey:
		return in.String(key.elem) + "[]"
	case tupleKey:
		parts := make([]string, len(key.elems))
		for i, e := range key.elems {
			suffix := ""
			if e.Optional {
				suffix = "?"
			}
			prefix := ""
			if e.Rest {
				prefix = "..."
			}
			parts[i] = prefix + in.String(e.Type) + suffix
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case unionKey:
		parts := make([]string, len(key.members))
		for i, m := range key.members {
			parts[i] = in.String(m)
		}
		return strings.Join(parts, " | ")
	case intersectionKey:
		parts := make([]string, len(key.members))
		for i, m := range key.members {
			parts[i] = in.String(m)
		}
		return strings.Join(parts, " & ")
	case lazyKey:
		return fmt.Sprintf("Def(%d)", key.def)
	case applicationKey:
		parts := make([]string, len(key.args))
		for i, a := range key.args {
			parts[i] = in.String(a)
		}
		return fmt.Sprintf("Def(%d)<%s>", key.def, strings.Join(parts, ", "))
	case conditionalKey:
		return fmt.Sprintf("%s extends %s ? %s : %s", in.String(key.check), in.String(key.extends), in.String(key.trueBranch), in.String(key.falseBranch))
	case mappedKey:
		return fmt.Sprintf("{ [%s in %s]: %s }", key.paramName, in.String(key.constraint), in.String(key.value))
	case indexAccessKey:
		return fmt.Sprintf("%s[%s]", in.String(key.object), in.String(key.index))
	case keyOfKey:
		return "keyof " + in.String(key.operand)
	case templateLiteralKey:
		var b strings.Builder
		for i, f := range key.fragments {
			b.WriteString(f)
			if i < len(key.placeholders) {
				b.WriteString("${" + in.String(key.placeholders[i]) + "}")
			}
		}
		return "`" + b.String() + "`"
	case typeParameterKey:
		return key.info.Name
	case inferKey:
		return "infer " + key.name
	case stringIntrinsicKey:
		return fmt.Sprintf("%s<%s>", key.kind, in.String(key.operand))
	case readonlyKey:
		return "readonly " + in.String(key.operand)
	case errorKey:
		return "error"
	default:
		return "?"
	}
}
