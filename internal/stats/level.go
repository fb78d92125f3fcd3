package stats

// Seller levels in ascending order.
const (
	LevelBeginner = "Beginner"
	LevelOne      = "Level 1"
	LevelTwo      = "Level 2"
	LevelPro      = "Pro"
)

// Level thresholds: completed orders a seller must exceed, and the rating
// floor that must hold at that tier.
var levelRules = []struct {
	name      string
	minOrders int
	minRating float64
}{
	{LevelPro, 50, 4.8},
	{LevelTwo, 20, 4.5},
	{LevelOne, 5, 4.5},
}

// LevelFor derives the seller level and how many completed orders remain
// until the next one. ordersToNext is 0 at the top tier.
func LevelFor(completedOrders int, avgRating float64) (level string, ordersToNext int) {
	level = LevelBeginner
	for _, rule := range levelRules {
		if completedOrders > rule.minOrders && avgRating > rule.minRating {
			level = rule.name
			break
		}
	}

	switch level {
	case LevelBeginner:
		return level, 6 - completedOrders
	case LevelOne:
		return level, 21 - completedOrders
	case LevelTwo:
		return level, 51 - completedOrders
	default:
		return level, 0
	}
}
