package wallet

// PlatformFeePercent is the flat marketplace cut on completed orders.
const PlatformFeePercent = 15

// Breakdown is the authoritative gross/fee/net split, in cents. Clients
// display it as-is and never re-derive the numbers.
type Breakdown struct {
	Gross int64 `json:"gross"`
	Fee   int64 `json:"fee"`
	Net   int64 `json:"net"`
}

// ComputeBreakdown applies the platform fee to a gross amount. The fee
// rounds down so the seller never loses the remainder cent.
func ComputeBreakdown(gross int64) Breakdown {
	if gross <= 0 {
		return Breakdown{}
	}
	fee := gross * PlatformFeePercent / 100
	return Breakdown{Gross: gross, Fee: fee, Net: gross - fee}
}
