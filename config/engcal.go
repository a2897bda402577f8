// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package config

type Hist struct {
	NBins int     `koanf:"nbins"`
	Min   float64 `koanf:"min"`
	Max   float64 `koanf:"max"`
}

type WCut struct {
	On    bool    `koanf:"flag"`
	Mean  float64 `koanf:"mean"`
	Sigma float64 `koanf:"sigma"`
}

type Limit struct {
	On    bool    `koanf:"flag"`
	Value float64 `koanf:"value"`
}

type EovPCut struct {
	On    bool    `koanf:"flag"`
	Limit float64 `koanf:"limit"`
}

// MomCalib holds the momentum fit p = A(1+(B+C*magdist)*tg_th)/thetabend.
type MomCalib struct {
	On       bool    `koanf:"flag"`
	A        float64 `koanf:"A"`
	B        float64 `koanf:"B"`
	C        float64 `koanf:"C"`
	GEMPitch float64 `koanf:"GEMpitch"`
	MagDist  float64 `koanf:"magdist"`
}

// EngCal configures the BBCal and HCal energy calibrations.
type EngCal struct {
	Inputs    []string `koanf:"inputs"`
	GlobalCut string   `koanf:"globalcut"`

	Set        int     `koanf:"Set"`
	Iter       int     `koanf:"iter"`
	EBeam      float64 `koanf:"E_beam"`
	MinEvents  int     `koanf:"Min_Event_Per_Channel"`
	MinMBRatio float64 `koanf:"Min_MB_Ratio"`
	PRecOffset float64 `koanf:"p_rec_Offset"`
	FarmSubmit bool    `koanf:"farm_submit"`

	// Legacy selects the minimum-chi2 track, the target acceptance cut and
	// an unconditional W cut.
	Legacy bool `koanf:"legacy"`

	WCut     WCut     `koanf:"W_cut"`
	PMin     Limit    `koanf:"pmin_cut"`
	PMax     Limit    `koanf:"pmax_cut"`
	EovPCut  EovPCut  `koanf:"EovP_cut"`
	MomCalib MomCalib `koanf:"mom_calib"`

	CorrFactor      float64 `koanf:"Corr_Factor_Enrg_Calib_w_Cosmic"`
	BadChannelScale float64 `koanf:"Scale_Factor_for_BadChannels"`

	HW        Hist `koanf:"h_W"`
	HQ2       Hist `koanf:"h_Q2"`
	HEovP     Hist `koanf:"h_EovP"`
	HClusE    Hist `koanf:"h_clusE"`
	HSHE      Hist `koanf:"h_shE"`
	HPSE      Hist `koanf:"h_psE"`
	H2P       Hist `koanf:"h2_p"`
	H2PAng    Hist `koanf:"h2_pang"`
	H2PCoarse Hist `koanf:"h2_p_coarse"`
	H2EovP    Hist `koanf:"h2_EovP"`
}

func DefaultEngCal() EngCal {
	h := Hist{NBins: 200, Min: 0, Max: 5}
	return EngCal{
		Iter:            1,
		MinEvents:       10,
		MinMBRatio:      0.1,
		PRecOffset:      1,
		EovPCut:         EovPCut{Limit: 0.3},
		MomCalib:        MomCalib{GEMPitch: 10, MagDist: 1},
		CorrFactor:      1,
		BadChannelScale: 1,
		HW:              h,
		HQ2:             h,
		HEovP:           h,
		HClusE:          h,
		HSHE:            h,
		HPSE:            h,
		H2P:             h,
		H2PAng:          h,
		H2PCoarse:       Hist{NBins: 25, Min: 0, Max: 5},
		H2EovP:          h,
	}
}

// LoadEngCal reads an energy calibration config over the defaults.
func LoadEngCal(path string) (EngCal, error) {
	cfg := DefaultEngCal()
	err := Load(path, DefaultEngCal(), &cfg)
	return cfg, err
}
