package services

// ConcentrationEntry is one measurement row of an item's concentration sheet.
// Quantity is derived from the dimensions and persisted alongside them.
type ConcentrationEntry struct {
	ID          string
	SheetID     string
	SortOrder   int
	Description string
	Count       float64
	Length      float64
	Width       float64
	Height      float64
	Quantity    float64
}

// CalcEntryQuantity derives an entry's quantity: the count multiplied by
// every dimension that was actually measured. Zero dimensions are treated
// as "not applicable" rather than zeroing the row, so a linear measurement
// (length only) works the same as a volume.
func CalcEntryQuantity(count, length, width, height float64) float64 {
	q := count
	for _, dim := range []float64{length, width, height} {
		if dim != 0 {
			q *= dim
		}
	}
	return q
}

// SheetTotal sums the derived quantity across a sheet's entries.
func SheetTotal(entries []ConcentrationEntry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Quantity
	}
	return total
}
