// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package calib

import "fmt"

// PercentDiff returns (old-new)/old*100 per channel. Channels with a zero old
// coefficient report zero.
func PercentDiff(old, new []float64) ([]float64, error) {
	if len(old) != len(new) {
		return nil, fmt.Errorf("%d old coefficients but %d new", len(old), len(new))
	}
	diff := make([]float64, len(old))
	for i := range old {
		if old[i] == 0 {
			continue
		}
		diff[i] = (old[i] - new[i]) / old[i] * 100
	}
	return diff, nil
}
