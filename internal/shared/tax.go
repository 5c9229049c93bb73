package shared

// CalculateLineTotals derives the GST split for qty units at unitPrice
// (exclusive of tax). Values are not rounded.
func CalculateLineTotals(qty int, unitPrice, gstPercent float64) (subtotal, gstAmount, total float64) {
	subtotal = float64(qty) * unitPrice
	gstAmount, total = ApplyGST(subtotal, gstPercent)
	return
}

// ApplyGST adds gstPercent on top of a pre-tax subtotal.
func ApplyGST(subtotal, gstPercent float64) (gstAmount, total float64) {
	gstAmount = subtotal * (gstPercent / 100)
	total = subtotal + gstAmount
	return
}
