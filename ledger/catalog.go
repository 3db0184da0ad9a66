package ledger

import "fmt"

// treatmentCatalog maps each offered treatment type to its subtotal.
var treatmentCatalog = map[string]float64{
	"Magnetic Field Therapy": 25.00,
	"Helium Neon Laser":      25.00,
}

// TreatmentTypes returns the offered treatment type names.
func TreatmentTypes() []string {
	types := make([]string, 0, len(treatmentCatalog))
	for name := range treatmentCatalog {
		types = append(types, name)
	}
	return types
}

// CatalogSubtotal looks up the subtotal for a treatment type.
func CatalogSubtotal(treatmentType string) (float64, error) {
	subtotal, ok := treatmentCatalog[treatmentType]
	if !ok {
		return 0, fmt.Errorf("unknown treatment type: %s", treatmentType)
	}
	return subtotal, nil
}

// ComputeCharges derives tax and total from a subtotal under the fixed
// tax policy. Total must always equal subtotal plus tax on stored records.
func ComputeCharges(subtotal float64) (tax float64, total float64) {
	tax = subtotal * TaxRate
	total = subtotal + tax
	return tax, total
}
