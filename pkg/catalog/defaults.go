package catalog

// DefaultPositiveAdducts are the adducts used in positive ion mode when no
// catalog is configured.
var DefaultPositiveAdducts = []string{
	"H:+:0.4",
	"Na:+:0.25",
	"NH4:+:0.25",
	"K:+:0.1",
	"H-2O-1:0:0.05",
}

// DefaultNegativeAdducts are the adducts used in negative ion mode when no
// catalog is configured.
var DefaultNegativeAdducts = []string{
	"H-1:-:0.8",
	"Cl:-:0.1",
	"CHO2:-:0.1",
	"H-2O-1:0:0.05",
}

// DefaultPositive returns a catalog pre-loaded with common positive mode
// adducts.
func DefaultPositive() *Catalog {
	c, err := ParseAdducts(DefaultPositiveAdducts)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultNegative returns a catalog pre-loaded with common negative mode
// adducts.
func DefaultNegative() *Catalog {
	c, err := ParseAdducts(DefaultNegativeAdducts)
	if err != nil {
		panic(err)
	}
	return c
}
