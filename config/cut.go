// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/Knetic/govaluate"
)

// Vars resolves event variables by branch name, such as "bb.tr.n" or
// "bb.tr.p[0]".
type Vars interface {
	Var(name string) (float64, bool)
}

// Cut is a compiled global cut expression.
type Cut struct {
	src   string
	names []string
	expr  *govaluate.EvaluableExpression
}

var cutFuncs = map[string]govaluate.ExpressionFunction{
	"abs": func(args ...interface{}) (interface{}, error) {
		x, err := oneArg("abs", args)
		return math.Abs(x), err
	},
	"sqrt": func(args ...interface{}) (interface{}, error) {
		x, err := oneArg("sqrt", args)
		return math.Sqrt(x), err
	},
}

func oneArg(name string, args []interface{}) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%v takes one argument, got %d", name, len(args))
	}
	x, ok := args[0].(float64)
	if !ok {
		return 0, fmt.Errorf("%v: non-numeric argument %v", name, args[0])
	}
	return x, nil
}

var funcAliases = strings.NewReplacer(
	"TMath::Abs", "abs",
	"TMath::Sqrt", "sqrt",
	"fabs", "abs",
)

// NewCut compiles a cut written in the TTree formula style. An empty cut
// accepts every event.
func NewCut(src string) (*Cut, error) {
	c := &Cut{src: strings.TrimSpace(src)}
	if c.src == "" {
		return c, nil
	}

	rewritten := c.rewrite(funcAliases.Replace(c.src))
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(rewritten, cutFuncs)
	if err != nil {
		return nil, fmt.Errorf("global cut %q: %w", c.src, err)
	}
	c.expr = expr
	return c, nil
}

// rewrite replaces every variable reference with a plain placeholder
// identifier, since dots and brackets mean something else to the evaluator.
func (c *Cut) rewrite(src string) string {
	var b strings.Builder
	index := make(map[string]int)

	for i := 0; i < len(src); {
		ch := rune(src[i])
		switch {
		case unicode.IsDigit(ch) || (ch == '.' && i+1 < len(src) && unicode.IsDigit(rune(src[i+1]))):
			// The evaluator has no exponent syntax.
			j := scanNumber(src, i)
			if v, err := strconv.ParseFloat(src[i:j], 64); err == nil {
				b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
			} else {
				b.WriteString(src[i:j])
			}
			i = j
		case unicode.IsLetter(ch) || ch == '_':
			j := i
			for j < len(src) && (isIdentChar(src[j]) || src[j] == '.') {
				j++
			}
			if j < len(src) && src[j] == '[' {
				if k := strings.IndexByte(src[j:], ']'); k > 0 {
					j += k + 1
				}
			}
			name := src[i:j]
			if _, isFunc := cutFuncs[name]; isFunc || name == "true" || name == "false" {
				b.WriteString(name)
			} else {
				n, ok := index[name]
				if !ok {
					n = len(c.names)
					index[name] = n
					c.names = append(c.names, name)
				}
				b.WriteString("v" + strconv.Itoa(n))
			}
			i = j
		default:
			b.WriteByte(src[i])
			i++
		}
	}
	return b.String()
}

func isIdentChar(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

func scanNumber(src string, i int) int {
	j := i
	for j < len(src) && (unicode.IsDigit(rune(src[j])) || src[j] == '.') {
		j++
	}
	if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
		k := j + 1
		if k < len(src) && (src[k] == '+' || src[k] == '-') {
			k++
		}
		if k < len(src) && unicode.IsDigit(rune(src[k])) {
			j = k
			for j < len(src) && unicode.IsDigit(rune(src[j])) {
				j++
			}
		}
	}
	return j
}

func (c *Cut) String() string {
	return c.src
}

// Vars lists the variables the cut reads, in order of first use.
func (c *Cut) Vars() []string {
	return append([]string(nil), c.names...)
}

type cutParams struct {
	names []string
	vars  Vars
}

var errBadParam = errors.New("bad cut parameter")

func (p cutParams) Get(name string) (interface{}, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "v"))
	if err != nil || n < 0 || n >= len(p.names) {
		return nil, fmt.Errorf("%w: %v", errBadParam, name)
	}
	v, ok := p.vars.Var(p.names[n])
	if !ok {
		return nil, fmt.Errorf("unknown variable %v", p.names[n])
	}
	return v, nil
}

// Pass evaluates the cut. Numeric results pass when non-zero.
func (c *Cut) Pass(vars Vars) (bool, error) {
	if c == nil || c.expr == nil {
		return true, nil
	}
	res, err := c.expr.Eval(cutParams{names: c.names, vars: vars})
	if err != nil {
		return false, err
	}
	switch v := res.(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	}
	return false, fmt.Errorf("global cut %q evaluated to %v", c.src, res)
}
