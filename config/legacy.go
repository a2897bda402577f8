// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrSection = errors.New("unterminated config section")

// Section terminators of the legacy macro config format.
const (
	EndList    = "endlist"
	EndRunList = "endRunlist"
	EndCut     = "endcut"
	EndKeys    = "*****"
)

// Legacy is a koanf parser for the line-oriented macro config format:
//
//	input files, one per line
//	endlist
//	global cut lines
//	endcut
//	key value...
//
// Keys listed in Fields spread their values over named sub-keys, Aliases
// redirect old flat keys onto those sub-keys. Any other key with a single
// value maps to a scalar and with several values to a list.
type Legacy struct {
	Fields  map[string][]string
	Aliases map[string]string
}

// LegacyParser returns a parser that knows the multi-valued keys of the
// calibration configs.
func LegacyParser() *Legacy {
	hist := []string{"nbins", "min", "max"}
	return &Legacy{
		Fields: map[string][]string{
			"W_cut":       {"flag", "mean", "sigma"},
			"pmin_cut":    {"flag", "value"},
			"pmax_cut":    {"flag", "value"},
			"EovP_cut":    {"flag", "limit"},
			"mom_calib":   {"flag", "A", "B", "C", "GEMpitch", "magdist"},
			"h_W":         hist,
			"h_Q2":        hist,
			"h_EovP":      hist,
			"h_clusE":     hist,
			"h_shE":       hist,
			"h_psE":       hist,
			"h2_p":        hist,
			"h2_pang":     hist,
			"h2_p_coarse": hist,
			"h2_EovP":     hist,
		},
		Aliases: map[string]string{
			"W_mean":  "W_cut.mean",
			"W_sigma": "W_cut.sigma",
		},
	}
}

func isComment(line string) bool {
	return strings.HasPrefix(line, "#")
}

func (p *Legacy) Unmarshal(b []byte) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	scanner := bufio.NewScanner(bytes.NewReader(b))

	var inputs []interface{}
	terminated := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, EndList) || strings.HasPrefix(line, EndRunList) {
			terminated = true
			break
		}
		if line == "" || isComment(line) {
			continue
		}
		inputs = append(inputs, line)
	}
	if !terminated {
		return nil, fmt.Errorf("%w: missing %v", ErrSection, EndList)
	}
	out["inputs"] = inputs

	var cut string
	terminated = false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, EndCut) {
			terminated = true
			break
		}
		if line == "" || isComment(line) {
			continue
		}
		if cut == "" {
			cut = line
		} else {
			cut = "(" + cut + ")&&(" + line + ")"
		}
	}
	if !terminated {
		return nil, fmt.Errorf("%w: missing %v", ErrSection, EndCut)
	}
	out["globalcut"] = cut

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if isComment(line) {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		if tokens[0] == EndKeys {
			break
		}
		if len(tokens) < 2 {
			continue
		}
		p.set(out, tokens[0], tokens[1:])
	}
	return out, scanner.Err()
}

func (p *Legacy) set(out map[string]interface{}, key string, values []string) {
	if alias, ok := p.Aliases[key]; ok {
		parts := strings.SplitN(alias, ".", 2)
		sub(out, parts[0])[parts[1]] = values[0]
		return
	}

	if fields, ok := p.Fields[key]; ok {
		m := sub(out, key)
		for i, field := range fields {
			if i < len(values) {
				m[field] = values[i]
			}
		}
		return
	}

	if len(values) == 1 {
		out[key] = values[0]
		return
	}
	list := make([]interface{}, len(values))
	for i, v := range values {
		list[i] = v
	}
	out[key] = list
}

func sub(out map[string]interface{}, key string) map[string]interface{} {
	if m, ok := out[key].(map[string]interface{}); ok {
		return m
	}
	m := make(map[string]interface{})
	out[key] = m
	return m
}

func (p *Legacy) Marshal(o map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer

	if inputs, ok := o["inputs"].([]interface{}); ok {
		for _, in := range inputs {
			fmt.Fprintln(&buf, in)
		}
	} else if inputs, ok := o["inputs"].([]string); ok {
		for _, in := range inputs {
			fmt.Fprintln(&buf, in)
		}
	}
	fmt.Fprintln(&buf, EndList)
	if cut, ok := o["globalcut"]; ok && fmt.Sprint(cut) != "" {
		fmt.Fprintln(&buf, cut)
	}
	fmt.Fprintln(&buf, EndCut)

	keys := make([]string, 0, len(o))
	for k := range o {
		if k != "inputs" && k != "globalcut" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		buf.WriteString(k)
		switch v := o[k].(type) {
		case map[string]interface{}:
			fields, ok := p.Fields[k]
			if !ok {
				return nil, fmt.Errorf("key %v has no field layout", k)
			}
			for _, field := range fields {
				fmt.Fprintf(&buf, " %v", legacyValue(v[field]))
			}
		case []interface{}:
			for _, e := range v {
				fmt.Fprintf(&buf, " %v", legacyValue(e))
			}
		default:
			fmt.Fprintf(&buf, " %v", legacyValue(v))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func legacyValue(v interface{}) interface{} {
	if v == nil {
		return 0
	}
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}
