// Set-algebra evaluator.
//
// The parsed expression tree is flattened to reverse Polish order and evaluated with an explicit
// operand stack, so left-to-right evaluation order and associativity match the parser's grouping
// exactly and deeply nested expressions cannot exhaust call-frame depth.
//
// AND and OR combine two frames by a 2x2 dispatch on their Include polarity (see combine).  NOT
// never materializes a complement table: it flips Include and is resolved when the frame meets a
// positive operand.  After every binary combination, column-groups that ended up entirely absent
// are pruned so that repeated merges do not accumulate empty analysis columns.

package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"querytgdb/frame"
	"querytgdb/query"
)

// rpnNodes returns the nodes of an expression in post order (reverse Polish), computed with an
// explicit work stack.  The body of a Modified node is not included; the modifier evaluator
// walks it separately.
func rpnNodes(root query.Node) []query.Node {
	var out, work []query.Node
	work = append(work, root)
	for len(work) > 0 {
		n := work[len(work)-1]
		work = work[:len(work)-1]
		out = append(out, n)
		switch n := n.(type) {
		case *query.Logical:
			work = append(work, n.Lhs, n.Rhs)
		case *query.Unary:
			work = append(work, n.Opd)
		case *query.Modified:
			work = append(work, n.Opd)
		}
	}
	// Reverse the preorder-with-reversed-children into postorder.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (e *Engine) evaluate(
	ctx context.Context,
	root query.Node,
	edgeTypes, tfAllowList, targetAllowList []string,
) (*frame.Frame, error) {
	var stack []*frame.Frame
	pop := func() *frame.Frame {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return f
	}
	for _, n := range rpnNodes(root) {
		switch n := n.(type) {
		case *query.Gene:
			f, err := e.fetch(ctx, n.Name, edgeTypes, tfAllowList, targetAllowList)
			if err != nil {
				return nil, err
			}
			stack = append(stack, f)
		case *query.Modified:
			opd := pop()
			mask, err := e.evaluateModifier(ctx, opd, n.Mod)
			if err != nil {
				return nil, err
			}
			f := opd.ApplyMask(mask).DropEmptyRows().DropEmptyColumnGroups()
			f.FilterString += "[" + n.Mod.String() + "]"
			stack = append(stack, f)
		case *query.Unary:
			opd := pop()
			opd.Include = !opd.Include
			opd.FilterString = "not " + opd.FilterString
			stack = append(stack, opd)
		case *query.Logical:
			succ := pop()
			prec := pop()
			stack = append(stack, combine(n.Op, prec, succ))
		default:
			return nil, fmt.Errorf("Invalid node in query: %T", n)
		}
	}
	return pop(), nil
}

// combine is the 2x2 polarity dispatch of the binary operators.  For AND: two positive operands
// intersect on the row index; a negative operand subtracts its rows from the positive one; two
// negative operands union and stay negative (De Morgan on the stored complement).  OR mirrors
// this: positive/positive unions, a negative operand simply loses to the positive one, and
// negative/negative intersects and stays negative.
func combine(op int, prec, succ *frame.Frame) *frame.Frame {
	var out *frame.Frame
	if op == query.OpAnd {
		switch {
		case prec.Include && succ.Include:
			out = frame.InnerJoin(prec, succ, joinSuffix(prec), joinSuffix(succ))
		case !prec.Include && succ.Include:
			out = succ.WithoutRows(prec)
		case prec.Include && !succ.Include:
			out = prec.WithoutRows(succ)
		default:
			out = frame.OuterJoin(prec, succ, joinSuffix(prec), joinSuffix(succ))
			out.Include = false
		}
	} else {
		switch {
		case prec.Include && succ.Include:
			out = frame.OuterJoin(prec, succ, joinSuffix(prec), joinSuffix(succ))
		case !prec.Include && succ.Include:
			out = succ.Clone()
		case prec.Include && !succ.Include:
			out = prec.Clone()
		default:
			out = frame.InnerJoin(prec, succ, joinSuffix(prec), joinSuffix(succ))
			out.Include = false
		}
	}
	out.FilterString = prec.FilterString + " " + query.OpName(op) + " " + succ.FilterString
	return out.DropEmptyColumnGroups()
}

// joinSuffix disambiguates colliding column labels by the side's filter trace plus a uniqueness
// token, as in the cache-suffix scheme of the surrounding application.
func joinSuffix(f *frame.Frame) string {
	return fmt.Sprintf(" %q %s", f.FilterString, uuid.NewString())
}
