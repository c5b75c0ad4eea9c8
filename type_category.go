package proforma

import (
	"fmt"
	"iter"
)

// Category classifies a LineItem.
type Category int

const (
	// Land is the acquisition cost of the site.
	Land Category = iota
	// HardCosts are direct construction costs (materials, labor).
	HardCosts
	// SoftCosts are indirect costs (design, permits, legal, marketing).
	SoftCosts
	// OtherIncome is revenue that does not come from unit sales.
	OtherIncome

	numCategories
)

func (c Category) String() string {
	switch c {
	case Land:
		return "land"
	case HardCosts:
		return "hard"
	case SoftCosts:
		return "soft"
	case OtherIncome:
		return "income"
	default:
		return "unknown"
	}
}

// Title is the human name of the category.
func (c Category) Title() string {
	switch c {
	case Land:
		return "Land"
	case HardCosts:
		return "Hard Costs"
	case SoftCosts:
		return "Soft Costs"
	case OtherIncome:
		return "Other Income"
	default:
		return "Unknown"
	}
}

// IsCost returns true for the categories that sum into the total project costs.
func (c Category) IsCost() bool { return c == Land || c == HardCosts || c == SoftCosts }

func (c Category) valid() bool { return c >= 0 && c < numCategories }

// ParseCategory parses a string into a Category.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "land":
		return Land, nil
	case "hard", "hardCosts":
		return HardCosts, nil
	case "soft", "softCosts":
		return SoftCosts, nil
	case "income", "otherIncome":
		return OtherIncome, nil
	default:
		return 0, fmt.Errorf("unknown category: %q", s)
	}
}

// CostCategories iterates over the cost categories in reporting order.
func CostCategories() iter.Seq[Category] {
	return func(yield func(Category) bool) {
		for _, c := range []Category{Land, HardCosts, SoftCosts} {
			if !yield(c) {
				return
			}
		}
	}
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	v, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
