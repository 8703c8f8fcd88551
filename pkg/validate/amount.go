package validate

// maxAmountCents caps a single request at 1,000,000.00 in minor units.
const maxAmountCents int64 = 100_000_000

func IsAmount(cents int64) bool {
	return cents > 0 && cents <= maxAmountCents
}
