package rna

import (
	"log/slog"

	"github.com/ardnew/ribosome/lang"
)

type node interface{ line() int }

// hostNode is a simple statement.
type hostNode struct {
	at   int
	stmt lang.Stmt
}

// tmplNode is a template, directive or separator instruction.
type tmplNode struct {
	at int
	in Instruction
}

type arm struct {
	at   int
	cond string // empty for else
	body []node
}

// condNode is an if statement with its elif and else arms.
type condNode struct {
	at   int
	arms []arm
}

type loopNode struct {
	at   int
	stmt lang.Stmt
	sep  *tmplNode
	body []node
}

type defNode struct {
	at   int
	stmt lang.Stmt
	body []node
}

func (n *hostNode) line() int { return n.at }
func (n *tmplNode) line() int { return n.at }
func (n *condNode) line() int { return n.at }
func (n *loopNode) line() int { return n.at }
func (n *defNode) line() int  { return n.at }

// linker builds the statement tree of a program.
type linker struct {
	prog  *Program
	pos   int
	loops int // enclosing loops within the current function
	funcs int // enclosing function definitions
}

// link parses the host statements of p and nests them into blocks.
func link(p *Program) ([]node, error) {
	l := &linker{prog: p}

	nodes, term, at, err := l.body()
	if err != nil {
		return nil, err
	}

	if at > 0 {
		return nil, l.fail(at, ErrUnbalanced.With(slog.String("unexpected", term.Kind.String())))
	}

	return nodes, nil
}

func (l *linker) fail(g int, err error) error {
	return &GenerationError{
		Err:    err,
		Frames: []Frame{{Func: "main", File: l.prog.Name, Line: g}},
	}
}

// body reads nodes up to the end of input or the next end, elif or else,
// which is returned with its line. At end of input the line is 0.
func (l *linker) body() (nodes []node, term lang.Stmt, at int, err error) {
	ins := l.prog.Instructions

	for l.pos < len(ins) {
		g := l.pos + 1
		in := ins[l.pos]
		l.pos++

		switch in.Op {
		case OpEmit, OpAdd, OpAlign, OpDirective:
			nodes = append(nodes, &tmplNode{at: g, in: in})

			continue

		case OpSeparate:
			n, err := l.separate(g, in)
			if err != nil {
				return nil, term, 0, err
			}

			nodes = append(nodes, n)

			continue

		case OpHost:

		default:
			return nil, term, 0, l.fail(g, ErrDirective.With(slog.String("op", string(in.Op))))
		}

		st, err := lang.Parse(in.Text)
		if err != nil {
			return nil, term, 0, l.fail(g, err)
		}

		var n node

		switch st.Kind {
		case lang.KindNone:
			continue

		case lang.KindEnd, lang.KindElif, lang.KindElse:
			return nodes, st, g, nil

		case lang.KindIf:
			n, err = l.cond(g, st)

		case lang.KindFor, lang.KindWhile:
			n, err = l.loop(g, st, nil)

		case lang.KindDef:
			n, err = l.def(g, st)

		case lang.KindBreak, lang.KindContinue:
			if l.loops == 0 {
				err = l.fail(g, ErrOutside.With(slog.String("statement", st.Kind.String())))
			}

			n = &hostNode{at: g, stmt: st}

		case lang.KindReturn:
			if l.funcs == 0 {
				err = l.fail(g, ErrOutside.With(slog.String("statement", st.Kind.String())))
			}

			n = &hostNode{at: g, stmt: st}

		default:
			n = &hostNode{at: g, stmt: st}
		}

		if err != nil {
			return nil, term, 0, err
		}

		nodes = append(nodes, n)
	}

	return nodes, term, 0, nil
}

// closed reads a block that must be closed by end.
func (l *linker) closed(open int, kind lang.Kind) ([]node, error) {
	body, term, at, err := l.body()
	if err != nil {
		return nil, err
	}

	switch {
	case at == 0:
		return nil, l.fail(open, ErrUnbalanced.With(slog.String("missing end for", kind.String())))
	case term.Kind != lang.KindEnd:
		return nil, l.fail(at, ErrUnbalanced.With(slog.String("unexpected", term.Kind.String())))
	}

	return body, nil
}

func (l *linker) cond(g int, st lang.Stmt) (node, error) {
	n := &condNode{at: g}
	cur := arm{at: g, cond: st.Expr}

	for {
		body, term, at, err := l.body()
		if err != nil {
			return nil, err
		}

		cur.body = body
		n.arms = append(n.arms, cur)

		switch {
		case at == 0:
			return nil, l.fail(g, ErrUnbalanced.With(slog.String("missing end for", "if")))

		case term.Kind == lang.KindEnd:
			return n, nil

		case term.Kind == lang.KindElif:
			cur = arm{at: at, cond: term.Expr}

		case term.Kind == lang.KindElse:
			els, err := l.closed(g, lang.KindIf)
			if err != nil {
				return nil, err
			}

			n.arms = append(n.arms, arm{at: at, body: els})

			return n, nil
		}
	}
}

func (l *linker) loop(g int, st lang.Stmt, sep *tmplNode) (node, error) {
	l.loops++
	defer func() { l.loops-- }()

	body, err := l.closed(g, st.Kind)
	if err != nil {
		return nil, err
	}

	return &loopNode{at: g, stmt: st, sep: sep, body: body}, nil
}

func (l *linker) def(g int, st lang.Stmt) (node, error) {
	loops := l.loops
	l.loops = 0
	l.funcs++

	defer func() {
		l.loops = loops
		l.funcs--
	}()

	body, err := l.closed(g, lang.KindDef)
	if err != nil {
		return nil, err
	}

	return &defNode{at: g, stmt: st, body: body}, nil
}

// separate attaches the separator at line g to the loop that follows it.
func (l *linker) separate(g int, in Instruction) (node, error) {
	ins := l.prog.Instructions
	if l.pos >= len(ins) || ins[l.pos].Op != OpHost {
		return nil, l.fail(g, ErrSeparate)
	}

	st, err := lang.Parse(ins[l.pos].Text)
	if err != nil {
		return nil, l.fail(g+1, err)
	}

	if !st.IsLoop() {
		return nil, l.fail(g, ErrSeparate.With(slog.String("next", ins[l.pos].Text)))
	}

	l.pos++

	return l.loop(g+1, st, &tmplNode{at: g, in: in})
}
