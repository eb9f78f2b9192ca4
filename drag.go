package dope

import (
	"fmt"
	"math"
)

// DragFamily defines an enum of reference drag families.
type DragFamily uint8

const (
	// NoDrag disables aerodynamic drag (debugging and tests).
	NoDrag DragFamily = iota + 1
	// G1 is the flatbase spitzer reference projectile.
	G1
	// G7 is the boat-tail spitzer reference projectile.
	G7
)

func (f DragFamily) String() string {
	switch f {
	case NoDrag:
		return "nodrag"
	case G1:
		return "G1"
	case G7:
		return "G7"
	}
	panic("cannot stringify unknown drag family")
}

// ParseDragFamily returns the family for its usual name.
func ParseDragFamily(name string) (DragFamily, error) {
	switch name {
	case "G1", "g1":
		return G1, nil
	case "G7", "g7":
		return G7, nil
	case "nodrag", "none":
		return NoDrag, nil
	}
	return 0, fmt.Errorf("unknown drag family %q", name)
}

// DragModel is what a point mass solver needs from a drag family: the
// Sierra style retardation i(v), the drag deceleration at unit ballistic
// coefficient and sea level density. A solver applies
// a = -(ρ/ρ0)·i(v)/BC opposite the air-relative velocity, with BC the
// ballistic coefficient of the same family.
type DragModel interface {
	Kind() DragFamily
	// RetardationV returns i(v) in m/s² for a speed in m/s.
	RetardationV(v float64) float64
	// RetardationMach is a convenience for callers working in Mach.
	RetardationMach(mach, speedOfSound float64) float64
}

// NewDragModel returns the model for the given family.
func NewDragModel(family DragFamily) DragModel {
	switch family {
	case NoDrag:
		return noDrag{}
	case G1:
		return tableModel{kind: G1, segs: g1Segments}
	case G7:
		return tableModel{kind: G7, segs: g7Segments}
	}
	panic(fmt.Errorf("unknown drag family %d", family))
}

type noDrag struct{}

func (noDrag) Kind() DragFamily                     { return NoDrag }
func (noDrag) RetardationV(v float64) float64       { return 0 }
func (noDrag) RetardationMach(m, a float64) float64 { return 0 }

// dragSegment is one power law segment i(v) = a·v^m, valid on
// [vMin, vMax) with v in fps and i in ft/s². The classic public G function
// tables are defined in imperial units; conversion to SI happens on query.
type dragSegment struct {
	vMin, vMax float64
	a, m       float64
}

type tableModel struct {
	kind DragFamily
	segs []dragSegment
}

const ftPerM = 1 / 0.3048

func (t tableModel) Kind() DragFamily { return t.kind }

// RetardationV implements the DragModel interface, returning i(v) in m/s².
func (t tableModel) RetardationV(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	vFps := v * ftPerM
	seg := t.segs[len(t.segs)-1]
	for _, s := range t.segs {
		if vFps >= s.vMin && vFps < s.vMax {
			seg = s
			break
		}
	}
	iFps2 := seg.a * math.Pow(vFps, seg.m)
	return iFps2 / ftPerM
}

// RetardationMach implements the DragModel interface.
func (t tableModel) RetardationMach(mach, speedOfSound float64) float64 {
	return t.RetardationV(mach * speedOfSound)
}

// G1 power law segments (fps, ft/s²), ordered high to low, half-open bounds.
// These are the commonly used public values (Siacci/McCoy style tables).
var g1Segments = []dragSegment{
	{4230.0, math.Inf(1), 1.477404177730177e-04, 1.9565},
	{3680.0, 4230.0, 1.920339268755614e-04, 1.9250},
	{3450.0, 3680.0, 2.894751026819746e-04, 1.8750},
	{3295.0, 3450.0, 4.349905111115636e-04, 1.8250},
	{3130.0, 3295.0, 6.520421871892662e-04, 1.7750},
	{2960.0, 3130.0, 9.748073694078696e-04, 1.7250},
	{2830.0, 2960.0, 1.453721560187286e-03, 1.6750},
	{2680.0, 2830.0, 2.162887202930376e-03, 1.6250},
	{2460.0, 2680.0, 3.209559783129881e-03, 1.5750},
	{2225.0, 2460.0, 4.977505165429778e-03, 1.5250},
	{2015.0, 2225.0, 7.513575591844447e-03, 1.4750},
	{1890.0, 2015.0, 1.142952698179932e-02, 1.4250},
	{1810.0, 1890.0, 1.838419873395293e-02, 1.3750},
	{1730.0, 1810.0, 2.549020366779559e-02, 1.3250},
	{1595.0, 1730.0, 3.688259118597151e-02, 1.2750},
	{1520.0, 1595.0, 5.046888896437130e-02, 1.2250},
	{1420.0, 1520.0, 6.973599534432292e-02, 1.1750},
	{1360.0, 1420.0, 9.493684243618903e-02, 1.1250},
	{1315.0, 1360.0, 1.279071680252000e-01, 1.0750},
	{1280.0, 1315.0, 1.830000000000000e-01, 1.0250},
	{1220.0, 1280.0, 2.620000000000000e-01, 0.9750},
	{1185.0, 1220.0, 3.700000000000000e-01, 0.9250},
	{1150.0, 1185.0, 5.000000000000000e-01, 0.8750},
	{1100.0, 1150.0, 6.900000000000000e-01, 0.8250},
	{1060.0, 1100.0, 9.700000000000001e-01, 0.7750},
	{1025.0, 1060.0, 1.360000000000000e+00, 0.7250},
	{980.0, 1025.0, 1.940000000000000e+00, 0.6750},
	{940.0, 980.0, 2.750000000000000e+00, 0.6250},
	{905.0, 940.0, 3.900000000000000e+00, 0.5750},
	{860.0, 905.0, 5.500000000000000e+00, 0.5250},
	{810.0, 860.0, 7.700000000000000e+00, 0.4750},
	{780.0, 810.0, 1.050000000000000e+01, 0.4250},
	{750.0, 780.0, 1.490000000000000e+01, 0.3750},
	{700.0, 750.0, 2.180000000000000e+01, 0.3250},
	{640.0, 700.0, 3.140000000000000e+01, 0.2750},
	{600.0, 640.0, 4.530000000000000e+01, 0.2250},
	{550.0, 600.0, 6.620000000000000e+01, 0.1750},
	{500.0, 550.0, 9.460000000000000e+01, 0.1250},
	{0.0, 500.0, 1.400000000000000e+02, 0.0750},
}

// G7 power law segments (fps, ft/s²), standard set for boat-tail spitzers.
var g7Segments = []dragSegment{
	{4230.0, math.Inf(1), 5.130e-05, 1.9810},
	{3680.0, 4230.0, 6.490e-05, 1.9420},
	{3450.0, 3680.0, 9.748e-05, 1.9070},
	{3295.0, 3450.0, 1.453e-04, 1.8710},
	{3130.0, 3295.0, 2.162e-04, 1.8350},
	{2960.0, 3130.0, 3.210e-04, 1.7990},
	{2830.0, 2960.0, 4.978e-04, 1.7630},
	{2680.0, 2830.0, 7.514e-04, 1.7260},
	{2460.0, 2680.0, 1.143e-03, 1.6900},
	{2225.0, 2460.0, 1.838e-03, 1.6530},
	{2015.0, 2225.0, 2.549e-03, 1.6170},
	{1890.0, 2015.0, 3.688e-03, 1.5800},
	{1810.0, 1890.0, 5.047e-03, 1.5440},
	{1730.0, 1810.0, 6.974e-03, 1.5070},
	{1595.0, 1730.0, 9.494e-03, 1.4710},
	{1520.0, 1595.0, 1.279e-02, 1.4340},
	{1420.0, 1520.0, 1.830e-02, 1.3980},
	{1360.0, 1420.0, 2.620e-02, 1.3610},
	{1315.0, 1360.0, 3.700e-02, 1.3250},
	{1280.0, 1315.0, 5.000e-02, 1.2880},
	{1220.0, 1280.0, 6.900e-02, 1.2520},
	{1185.0, 1220.0, 9.700e-02, 1.2150},
	{1150.0, 1185.0, 1.360e-01, 1.1790},
	{1100.0, 1150.0, 1.940e-01, 1.1420},
	{1060.0, 1100.0, 2.750e-01, 1.1060},
	{1025.0, 1060.0, 3.900e-01, 1.0690},
	{980.0, 1025.0, 5.500e-01, 1.0330},
	{940.0, 980.0, 7.700e-01, 0.9960},
	{905.0, 940.0, 1.050e+00, 0.9600},
	{860.0, 905.0, 1.490e+00, 0.9230},
	{810.0, 860.0, 2.180e+00, 0.8870},
	{780.0, 810.0, 3.140e+00, 0.8500},
	{750.0, 780.0, 4.530e+00, 0.8140},
	{700.0, 750.0, 6.620e+00, 0.7770},
	{640.0, 700.0, 9.460e+00, 0.7410},
	{600.0, 640.0, 1.400e+01, 0.7040},
	{550.0, 600.0, 2.030e+01, 0.6680},
	{500.0, 550.0, 2.950e+01, 0.6310},
	{0.0, 500.0, 4.240e+01, 0.5950},
}
