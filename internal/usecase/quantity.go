package usecase

// QuantityTiers returns the rungs of ladder that stock can cover, in ladder order.
func QuantityTiers(ladder []int, stock int) []int {
	tiers := make([]int, 0, len(ladder))
	for _, n := range ladder {
		if n > 0 && n <= stock {
			tiers = append(tiers, n)
		}
	}
	return tiers
}
