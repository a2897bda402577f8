// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package config

import (
	"sort"

	"github.com/gobuffalo/packr"
)

// TemplateBox holds example configs for the calibration jobs.
var TemplateBox = packr.NewBox("templates")

// Template returns the named example config.
func Template(name string) (string, error) {
	return TemplateBox.FindString(name)
}

func TemplateNames() []string {
	names := TemplateBox.List()
	sort.Strings(names)
	return names
}
