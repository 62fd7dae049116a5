package ast

import (
	"tide-lang/internal/span"
	"tide-lang/internal/token"
)

// NodeToMap converts an AST node to a map suitable for JSON or YAML
// serialization. Every node becomes a tagged map with a "kind" field.
func NodeToMap(node Node) map[string]interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *Program:
		return m("Program", n.Span, "body", nodeSlice(n.Body))

	// ---- Declarations ----
	case *VarDecl:
		result := m("VarDecl", n.Span, "name", n.Name, "constant", n.Constant)
		if n.Value != nil {
			result["value"] = NodeToMap(n.Value)
		}
		return result
	case *FuncDecl:
		return m("FuncDecl", n.Span,
			"name", n.Name,
			"params", stringSlice(n.Params),
			"body", nodeSlice(n.Body))
	case *LambdaDecl:
		return m("LambdaDecl", n.Span,
			"params", stringSlice(n.Params),
			"body", NodeToMap(n.Body))

	// ---- Control flow ----
	case *IfExpr:
		branches := make([]interface{}, len(n.Branches))
		for i, b := range n.Branches {
			branches[i] = map[string]interface{}{
				"kind":      "IfBranch",
				"span":      spanToMap(b.Span),
				"condition": NodeToMap(b.Condition),
				"body":      nodeSlice(b.Body),
			}
		}
		result := m("IfExpr", n.Span, "branches", branches)
		if n.Else != nil {
			result["else"] = nodeSlice(n.Else)
		}
		return result
	case *ReturnExpr:
		return m("ReturnExpr", n.Span, "value", NodeToMap(n.Value))
	case *DelExpr:
		return m("DelExpr", n.Span, "name", n.Name)
	case *RaiseExpr:
		return m("RaiseExpr", n.Span, "message", n.Message)

	// ---- Expressions ----
	case *AssignExpr:
		return m("AssignExpr", n.Span,
			"target", NodeToMap(n.Target),
			"value", NodeToMap(n.Value))
	case *MemberExpr:
		return m("MemberExpr", n.Span,
			"object", NodeToMap(n.Object),
			"property", NodeToMap(n.Property),
			"computed", n.Computed)
	case *CallExpr:
		return m("CallExpr", n.Span,
			"callee", NodeToMap(n.Callee),
			"args", exprSlice(n.Args))
	case *BinaryExpr:
		return operation("BinaryExpr", n.Span, n.Op, n.Left, n.Right)
	case *BooleanExpr:
		return operation("BooleanExpr", n.Span, n.Op, n.Left, n.Right)
	case *ConditionalExpr:
		return operation("ConditionalExpr", n.Span, n.Op, n.Left, n.Right)
	case *Ident:
		return m("Ident", n.Span, "name", n.Name)

	// ---- Literals ----
	case *NumberLit:
		return m("NumberLit", n.Span, "value", n.Value, "len", n.Len)
	case *StringLit:
		return m("StringLit", n.Span, "value", n.Value, "len", n.Len)
	case *ArrayLit:
		return m("ArrayLit", n.Span, "elements", exprSlice(n.Elements))
	case *ObjectLit:
		props := make([]interface{}, len(n.Properties))
		for i, p := range n.Properties {
			prop := map[string]interface{}{
				"kind": "Property",
				"span": spanToMap(p.Span),
				"key":  p.Key,
			}
			if p.Value != nil {
				prop["value"] = NodeToMap(p.Value)
			}
			props[i] = prop
		}
		return m("ObjectLit", n.Span, "properties", props)
	case *NullLit:
		return m("NullLit", n.Span)

	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

// ---- helpers ----

// m builds a map with kind, span, and extra key-value pairs.
func m(kind string, s span.Span, kvs ...interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"kind": kind,
		"span": spanToMap(s),
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		key := kvs[i].(string)
		result[key] = kvs[i+1]
	}
	return result
}

func operation(kind string, s span.Span, op token.Kind, left, right Expr) map[string]interface{} {
	return m(kind, s,
		"op", op.String(),
		"left", NodeToMap(left),
		"right", NodeToMap(right))
}

func spanToMap(s span.Span) map[string]interface{} {
	return map[string]interface{}{
		"start": map[string]interface{}{
			"offset": s.Start.Offset,
			"line":   s.Start.Line,
			"column": s.Start.Column,
		},
		"end": map[string]interface{}{
			"offset": s.End.Offset,
			"line":   s.End.Line,
			"column": s.End.Column,
		},
	}
}

func nodeSlice(nodes []Node) []interface{} {
	result := make([]interface{}, len(nodes))
	for i, n := range nodes {
		result[i] = NodeToMap(n)
	}
	return result
}

func exprSlice(exprs []Expr) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, e := range exprs {
		result[i] = NodeToMap(e)
	}
	return result
}

// stringSlice widens names so YAML and JSON encoders see plain lists.
func stringSlice(names []string) []interface{} {
	result := make([]interface{}, len(names))
	for i, name := range names {
		result[i] = name
	}
	return result
}
