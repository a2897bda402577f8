// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package detector

// HCalPitch is the centre-to-centre block spacing in metres.
const HCalPitch = 0.15

// BlockPositions returns the x and y centre of every HCal block in the local
// frame, indexed like HCal.Index. With xToRoof the +x axis points to the
// hall roof, otherwise to the floor.
func BlockPositions(x0, y0 float64, xToRoof bool) (xpos, ypos []float64) {
	n := HCal.N()
	xpos = make([]float64, n)
	ypos = make([]float64, n)

	halfRows := float64(HCal.NRows-1) / 2 * HCalPitch
	halfCols := float64(HCal.NCols-1) / 2 * HCalPitch

	x1, y1, step := x0+halfRows, y0+halfCols, -HCalPitch
	if !xToRoof {
		x1, y1, step = -x1, -y1, HCalPitch
	}

	for row := 0; row < HCal.NRows; row++ {
		for col := 0; col < HCal.NCols; col++ {
			i := HCal.Index(row, col)
			xpos[i] = x1 + float64(row)*step
			ypos[i] = y1 + float64(col)*step
		}
	}
	return
}
