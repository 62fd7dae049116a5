package ast

import (
	"strconv"
	"strings"
)

const indent = "  "

// Format renders a node back to source text. The output re-parses to an
// equivalent tree: every compound operand is parenthesised, so the unusual
// precedence chain never changes the grouping.
func Format(node Node) string {
	if prog, ok := node.(*Program); ok {
		lines := make([]string, len(prog.Body))
		for i, stmt := range prog.Body {
			lines[i] = formatStmt(stmt, 0)
		}
		if len(lines) == 0 {
			return ""
		}
		return strings.Join(lines, "\n") + "\n"
	}
	return formatNode(node, 0)
}

// formatStmt renders a statement on its own line. Block statements stand
// alone; everything else is terminated with a semicolon so that a following
// parenthesised statement is never read as a call.
func formatStmt(node Node, depth int) string {
	prefix := strings.Repeat(indent, depth)
	out := prefix + formatNode(node, depth)
	switch node.(type) {
	case *FuncDecl, *IfExpr:
		return out
	}
	return out + ";"
}

func formatBody(body []Node, depth int) string {
	if len(body) == 0 {
		return "()"
	}
	lines := make([]string, len(body))
	for i, stmt := range body {
		lines[i] = formatStmt(stmt, depth+1)
	}
	return "(\n" + strings.Join(lines, "\n") + "\n" + strings.Repeat(indent, depth) + ")"
}

func formatNode(node Node, depth int) string {
	switch n := node.(type) {
	case *VarDecl:
		marker := "?"
		if n.Constant {
			marker = "!"
		}
		if n.Value == nil {
			return marker + " " + n.Name
		}
		return marker + " " + n.Name + " = " + formatNode(n.Value, depth)
	case *FuncDecl:
		return "fn " + n.Name + " |" + strings.Join(n.Params, ", ") + "| " + formatBody(n.Body, depth)
	case *LambdaDecl:
		return "lambda |" + strings.Join(n.Params, ", ") + "| => " + formatNode(n.Body, depth)
	case *IfExpr:
		var sb strings.Builder
		for i, b := range n.Branches {
			if i > 0 {
				sb.WriteString(" else ")
			}
			sb.WriteString("if {" + formatNode(b.Condition, depth) + "} " + formatBody(b.Body, depth))
		}
		if n.Else != nil {
			sb.WriteString(" else " + formatBody(n.Else, depth))
		}
		return sb.String()
	case *ReturnExpr:
		return "return " + formatNode(n.Value, depth)
	case *DelExpr:
		return "del " + n.Name
	case *RaiseExpr:
		return "raise " + quote(n.Message)
	case *AssignExpr:
		return formatOperand(n.Target, depth) + " = " + formatNode(n.Value, depth)
	case *MemberExpr:
		if n.Computed {
			return formatOperand(n.Object, depth) + "[" + formatNode(n.Property, depth) + "]"
		}
		return formatOperand(n.Object, depth) + "." + formatNode(n.Property, depth)
	case *CallExpr:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = formatNode(a, depth)
		}
		return formatOperand(n.Callee, depth) + "(" + strings.Join(args, ", ") + ")"
	case *BinaryExpr:
		return formatOperand(n.Left, depth) + " " + n.Op.String() + " " + formatOperand(n.Right, depth)
	case *BooleanExpr:
		return formatOperand(n.Left, depth) + " " + n.Op.String() + " " + formatOperand(n.Right, depth)
	case *ConditionalExpr:
		return formatOperand(n.Left, depth) + " " + n.Op.String() + " " + formatOperand(n.Right, depth)
	case *Ident:
		return n.Name
	case *NumberLit:
		return strconv.FormatFloat(n.Value, 'f', -1, 64)
	case *StringLit:
		return quote(n.Value)
	case *ArrayLit:
		elems := make([]string, len(n.Elements))
		for i, e := range n.Elements {
			elems[i] = formatNode(e, depth)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case *ObjectLit:
		props := make([]string, len(n.Properties))
		for i, p := range n.Properties {
			if p.Value == nil {
				props[i] = p.Key
			} else {
				props[i] = p.Key + ": " + formatNode(p.Value, depth)
			}
		}
		return "{" + strings.Join(props, ", ") + "}"
	case *NullLit:
		return "null"
	}
	return ""
}

// formatOperand wraps anything that is not a primary or a call/member chain.
func formatOperand(node Node, depth int) string {
	switch node.(type) {
	case *Ident, *NumberLit, *StringLit, *NullLit, *MemberExpr, *CallExpr:
		return formatNode(node, depth)
	}
	return "(" + formatNode(node, depth) + ")"
}

func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
