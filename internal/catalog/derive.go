package catalog

import "fmt"

// StartingPrice is the minimum strictly-positive package price, or 0 when no
// tier carries a positive price (e.g. quote-only services).
func StartingPrice(p *Packages) int64 {
	if p == nil {
		return 0
	}

	var min int64
	for _, tier := range []*Package{p.Basic, p.Standard, p.Premium} {
		if tier == nil || tier.Price <= 0 {
			continue
		}
		if min == 0 || tier.Price < min {
			min = tier.Price
		}
	}
	return min
}

// DeriveDuration converts the basic package's delivery time into total
// minutes and a human-readable Portuguese label. A missing basic package
// defaults to 1 day.
func DeriveDuration(p *Packages) (minutes int, label string) {
	deliveryTime := 1
	unit := UnitDays
	if p != nil && p.Basic != nil {
		if p.Basic.DeliveryTime > 0 {
			deliveryTime = p.Basic.DeliveryTime
		}
		if p.Basic.DeliveryUnit != "" {
			unit = p.Basic.DeliveryUnit
		}
	}

	switch unit {
	case UnitMinutes:
		return deliveryTime, pluralize(deliveryTime, "minuto", "minutos")
	case UnitHours:
		return deliveryTime * 60, pluralize(deliveryTime, "hora", "horas")
	default:
		return deliveryTime * 1440, pluralize(deliveryTime, "dia", "dias")
	}
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// FinalizePackages returns the packages as they must be persisted: when the
// service is single-package, standard and premium are nulled out.
func FinalizePackages(p *Packages, singlePackage bool) *Packages {
	if p == nil {
		return nil
	}
	if !singlePackage {
		cp := *p
		return &cp
	}
	return &Packages{Basic: p.Basic}
}
