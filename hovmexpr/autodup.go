package hovmexpr

import "fmt"

// AutoDup rewrites e so every binder is referenced at most once.  A
// binder with n references costs n-1 duplications threaded linearly:
// each duplication peels one copy off and passes the rest down.  fresh
// mints the labels.  e is rewritten in place and returned.
func AutoDup(e *Expr, fresh func() (uint32, error)) (*Expr, error) {
	for i, a := range e.Args {
		na, err := AutoDup(a, fresh)
		if err != nil {
			return nil, err
		}
		e.Args[i] = na
	}
	switch e.Kind {
	case KLam:
		body, err := thread(e.Name, e.Args[0], fresh)
		if err != nil {
			return nil, err
		}
		e.Args[0] = body
	case KDup:
		body := e.Args[1]
		for _, name := range e.Names {
			var err error
			body, err = thread(name, body, fresh)
			if err != nil {
				return nil, err
			}
		}
		e.Args[1] = body
	}
	return e, nil
}

// thread makes every use of name in body distinct.  With n > 1 uses the
// i-th becomes name$i, bound by a chain of n-1 duplications whose
// carriers name$cJ hand the remainder to the next link.
func thread(name string, body *Expr, fresh func() (uint32, error)) (*Expr, error) {
	n := countUses(body, name)
	if n <= 1 {
		return body, nil
	}
	copies := make([]string, n)
	for i := range copies {
		copies[i] = fmt.Sprintf("%s$%d", name, i)
	}
	idx := 0
	replaceUses(body, name, copies, &idx)
	for j := n - 2; j >= 0; j-- {
		lab, err := fresh()
		if err != nil {
			return nil, err
		}
		right := fmt.Sprintf("%s$c%d", name, j+1)
		if j == n-2 {
			right = copies[n-1]
		}
		value := name
		if j > 0 {
			value = fmt.Sprintf("%s$c%d", name, j)
		}
		body = Dup(lab, copies[j], right, Var(value), body)
	}
	return body, nil
}

// countUses counts free references to name, respecting shadowing.
func countUses(e *Expr, name string) int {
	switch e.Kind {
	case KVar:
		if e.Name == name {
			return 1
		}
		return 0
	case KLam:
		if e.Name == name {
			return 0
		}
		return countUses(e.Args[0], name)
	case KDup:
		n := countUses(e.Args[0], name)
		if e.Names[0] != name && e.Names[1] != name {
			n += countUses(e.Args[1], name)
		}
		return n
	}
	var n int
	for _, a := range e.Args {
		n += countUses(a, name)
	}
	return n
}

// replaceUses renames free references to name with successive copies,
// in the same order countUses visits them.
func replaceUses(e *Expr, name string, copies []string, idx *int) {
	switch e.Kind {
	case KVar:
		if e.Name == name {
			e.Name = copies[*idx]
			*idx++
		}
		return
	case KLam:
		if e.Name == name {
			return
		}
		replaceUses(e.Args[0], name, copies, idx)
		return
	case KDup:
		replaceUses(e.Args[0], name, copies, idx)
		if e.Names[0] != name && e.Names[1] != name {
			replaceUses(e.Args[1], name, copies, idx)
		}
		return
	}
	for _, a := range e.Args {
		replaceUses(a, name, copies, idx)
	}
}
