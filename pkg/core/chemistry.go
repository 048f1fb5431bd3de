// Package core provides the feature record and the chemistry calculations
// (element masses, formula arithmetic) shared by the decharging packages.
package core

import "math"

// Atomic masses (monoisotopic)
const (
	MassH  = 1.00782503207
	MassD  = 2.0141017778
	MassC  = 12.0000000000
	MassN  = 14.0030740048
	MassO  = 15.99491461956
	MassS  = 31.97207100
	MassP  = 30.97376163
	MassNa = 22.9897692809
	MassK  = 38.96370668
	MassLi = 7.01600455
	MassCl = 34.96885268
	MassBr = 78.9183371
	MassF  = 18.99840322
	MassI  = 126.904473
	MassCa = 39.96259098
	MassMg = 23.9850417
	MassFe = 55.9349375
	MassCu = 62.9295975
	MassZn = 63.9291422
	MassSi = 27.9769265325

	// Proton and electron masses for charge calculations
	ProtonMass   = 1.00727646688
	ElectronMass = 0.00054857990946
)

// isotopeMasses maps "(N)Symbol" isotope notations to their masses.
var isotopeMasses = map[string]float64{
	"(2)H":  MassD,
	"(13)C": 13.0033548378,
	"(15)N": 15.0001088982,
	"(18)O": 17.9991610,
}

// elementMasses maps element symbols to their most abundant isotope mass.
var elementMasses = map[string]float64{
	"H":  MassH,
	"D":  MassD,
	"C":  MassC,
	"N":  MassN,
	"O":  MassO,
	"S":  MassS,
	"P":  MassP,
	"Na": MassNa,
	"K":  MassK,
	"Li": MassLi,
	"Cl": MassCl,
	"Br": MassBr,
	"F":  MassF,
	"I":  MassI,
	"Ca": MassCa,
	"Mg": MassMg,
	"Fe": MassFe,
	"Cu": MassCu,
	"Zn": MassZn,
	"Si": MassSi,
}

// NeutralMass returns the neutral mass implied by an ion observed at mz with
// the given charge, after removing adductMass (the summed ion contribution of
// its adducts).
func NeutralMass(mz float64, charge int, adductMass float64) float64 {
	return mz*math.Abs(float64(charge)) - adductMass
}

// IonMZ is the inverse of NeutralMass.
func IonMZ(neutral float64, charge int, adductMass float64) float64 {
	if charge == 0 {
		return neutral + adductMass
	}
	return (neutral + adductMass) / math.Abs(float64(charge))
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
