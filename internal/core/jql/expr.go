// Package jql builds tracker search predicates as an expression tree and
// serialises them to JQL text only at the edge.
package jql

import (
	"regexp"
	"strings"
)

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpIn  Op = "in"
	OpGte Op = ">="
	OpLte Op = "<="
)

// Expr is a node in a predicate tree: Clause, And or Or.
type Expr interface {
	write(sb *strings.Builder)
}

// Value is a clause operand. Raw values are emitted verbatim and must only
// come from constants in this package.
type Value struct {
	Text string
	Raw  bool
}

// Clause is a single field comparison.
type Clause struct {
	Field  string
	Op     Op
	Values []Value
}

// And joins its terms with AND.
type And []Expr

// Or joins its terms with OR. Each branch and the whole group are
// parenthesised.
type Or []Expr

// Eq builds field = value.
func Eq(field, value string) Clause {
	return Clause{Field: field, Op: OpEq, Values: []Value{{Text: value}}}
}

// In builds field in (values...).
func In(field string, values ...string) Clause {
	vs := make([]Value, len(values))
	for i, v := range values {
		vs[i] = Value{Text: v}
	}
	return Clause{Field: field, Op: OpIn, Values: vs}
}

func relative(field string, op Op, literal string) Clause {
	return Clause{Field: field, Op: op, Values: []Value{{Text: literal, Raw: true}}}
}

// String renders e as JQL.
func String(e Expr) string {
	var sb strings.Builder
	e.write(&sb)
	return sb.String()
}

func (c Clause) write(sb *strings.Builder) {
	sb.WriteString(c.Field)
	sb.WriteByte(' ')
	sb.WriteString(string(c.Op))
	sb.WriteByte(' ')
	if c.Op == OpIn {
		sb.WriteByte('(')
		for i, v := range c.Values {
			if i > 0 {
				sb.WriteString(", ")
			}
			v.write(sb)
		}
		sb.WriteByte(')')
		return
	}
	if len(c.Values) > 0 {
		c.Values[0].write(sb)
	}
}

func (v Value) write(sb *strings.Builder) {
	if v.Raw {
		sb.WriteString(v.Text)
		return
	}
	sb.WriteString(Quote(v.Text))
}

func (a And) write(sb *strings.Builder) {
	for i, term := range a {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		term.write(sb)
	}
}

func (o Or) write(sb *strings.Builder) {
	sb.WriteByte('(')
	for i, term := range o {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteByte('(')
		term.write(sb)
		sb.WriteByte(')')
	}
	sb.WriteByte(')')
}

var bareValue = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

var reservedWords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"empty": true, "null": true, "order": true, "by": true, "asc": true,
	"desc": true, "was": true, "changed": true, "after": true, "before": true,
	"during": true, "on": true, "from": true, "to": true,
}

// Quote returns s as a JQL operand, wrapping it in double quotes unless it
// is a plain word that JQL would read literally.
func Quote(s string) string {
	if bareValue.MatchString(s) && !reservedWords[strings.ToLower(s)] {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
	return sb.String()
}
