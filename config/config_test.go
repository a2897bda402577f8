// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/knadh/koanf/parsers/yaml"
)

const legacyCfg = `# comment
run1.root
# skipped.root
run2.root
endlist
bb.tr.n==1
bb.ps.e>0.2
endcut
Set 3
E_beam 1.916
Min_Event_Per_Channel 300
Min_MB_Ratio 0.15
W_mean 0.94
W_sigma 0.1
EovP_cut 1 0.25
mom_calib 1 0.28 0.1 0.02 10 1.55
h_W 100 0.5 1.5
*****
Set 99
`

func TestLegacyParser(t *testing.T) {
	m, err := LegacyParser().Unmarshal([]byte(legacyCfg))
	if err != nil {
		t.Fatal(err)
	}
	inputs := m["inputs"].([]interface{})
	if len(inputs) != 2 || inputs[1] != "run2.root" {
		t.Errorf("inputs: %v", inputs)
	}
	if cut := m["globalcut"]; cut != "(bb.tr.n==1)&&(bb.ps.e>0.2)" {
		t.Errorf("cut: %v", cut)
	}
	if m["Set"] != "3" {
		t.Errorf("lines after the terminator must be ignored, Set = %v", m["Set"])
	}
	w := m["W_cut"].(map[string]interface{})
	if w["mean"] != "0.94" || w["sigma"] != "0.1" {
		t.Errorf("W_cut: %v", w)
	}
}

func TestLegacyParserSections(t *testing.T) {
	tests := []string{
		"run1.root\n",
		"run1.root\nendlist\nbb.tr.n==1\n",
	}
	for _, cfg := range tests {
		if _, err := LegacyParser().Unmarshal([]byte(cfg)); !errors.Is(err, ErrSection) {
			t.Errorf("%q: got %v", cfg, err)
		}
	}
	if _, err := LegacyParser().Unmarshal([]byte("a.root\nendRunlist\nendcut\n")); err != nil {
		t.Errorf("endRunlist terminator: %v", err)
	}
}

func TestLoadLegacyEngCal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setup.cfg")
	if err := ioutil.WriteFile(path, []byte(legacyCfg), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadEngCal(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Set != 3 || cfg.EBeam != 1.916 || cfg.MinEvents != 300 || cfg.MinMBRatio != 0.15 {
		t.Errorf("scalars: %+v", cfg)
	}
	if len(cfg.Inputs) != 2 {
		t.Errorf("inputs: %v", cfg.Inputs)
	}
	if cfg.WCut.On || cfg.WCut.Mean != 0.94 || cfg.WCut.Sigma != 0.1 {
		t.Errorf("W cut: %+v", cfg.WCut)
	}
	if !cfg.EovPCut.On || cfg.EovPCut.Limit != 0.25 {
		t.Errorf("E/p cut: %+v", cfg.EovPCut)
	}
	if !cfg.MomCalib.On || cfg.MomCalib.C != 0.02 || cfg.MomCalib.MagDist != 1.55 {
		t.Errorf("mom calib: %+v", cfg.MomCalib)
	}
	if cfg.HW.NBins != 100 || cfg.HW.Min != 0.5 {
		t.Errorf("h_W: %+v", cfg.HW)
	}

	// untouched keys keep their defaults
	if cfg.Iter != 1 || cfg.PRecOffset != 1 || cfg.CorrFactor != 1 || cfg.H2PCoarse.NBins != 25 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	raw := []byte(`
inputs: [a.root, b.root]
Set: 2
W_cut:
  flag: true
  mean: 0.9
`)
	cfg := DefaultEngCal()
	if err := LoadBytes(raw, yaml.Parser(), DefaultEngCal(), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Set != 2 || len(cfg.Inputs) != 2 || !cfg.WCut.On || cfg.WCut.Mean != 0.9 {
		t.Errorf("got %+v", cfg)
	}
	if cfg.MinMBRatio != 0.1 {
		t.Errorf("default Min_MB_Ratio lost: %v", cfg.MinMBRatio)
	}
}

func TestLegacyMarshal(t *testing.T) {
	p := LegacyParser()
	m, err := p.Unmarshal([]byte(legacyCfg))
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	again, err := p.Unmarshal(b)
	if err != nil {
		t.Fatalf("%v\n%s", err, b)
	}
	if again["E_beam"] != "1.916" || again["globalcut"] != m["globalcut"] {
		t.Errorf("round trip lost values:\n%s", b)
	}
}

func TestTemplates(t *testing.T) {
	names := TemplateNames()
	if len(names) == 0 {
		t.Fatal("no templates")
	}
	for _, name := range names {
		s, err := Template(name)
		if err != nil {
			t.Fatal(err)
		}
		cfg := DefaultEngCal()
		if err := LoadBytes([]byte(s), ParserFor(name), DefaultEngCal(), &cfg); err != nil {
			t.Errorf("%v: %v", name, err)
			continue
		}
		if len(cfg.Inputs) == 0 || cfg.EBeam == 0 {
			t.Errorf("%v: incomplete config %+v", name, cfg)
		}
		if _, err := NewCut(cfg.GlobalCut); err != nil {
			t.Errorf("%v: %v", name, err)
		}
	}
}
