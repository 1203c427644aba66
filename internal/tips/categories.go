package tips

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryFoodAndDrinks   Category = "Food and Drinks"
	CategoryGroceries       Category = "Groceries"
	CategoryRentOrMortgage  Category = "Rent or Mortgage"
	CategoryUtilities       Category = "Utilities"
	CategoryTransportation  Category = "Transportation"
	CategoryPersonalCare    Category = "Personal care"
	CategoryClothing        Category = "Clothing and Accessories"
	CategoryEntertainment   Category = "Entertainment"
	CategoryTravel          Category = "Travel"
	CategoryGifts           Category = "Gifts and Donations"
	CategoryMedical         Category = "Medical and Health"
	CategoryInsurance       Category = "Insurance"
	CategoryEducation       Category = "Education"
	CategoryHomeMaintenance Category = "Home Maintenance and Repairs"
	CategoryMiscellaneous   Category = "Miscellaneous"
)

// Categories задает фиксированный порядок категорий расходов.
var Categories = [...]Category{
	CategoryFoodAndDrinks,
	CategoryGroceries,
	CategoryRentOrMortgage,
	CategoryUtilities,
	CategoryTransportation,
	CategoryPersonalCare,
	CategoryClothing,
	CategoryEntertainment,
	CategoryTravel,
	CategoryGifts,
	CategoryMedical,
	CategoryInsurance,
	CategoryEducation,
	CategoryHomeMaintenance,
	CategoryMiscellaneous,
}

// ParseCategory возвращает категорию по точному названию.
func ParseCategory(name string) (Category, bool) {
	trimmed := strings.TrimSpace(name)
	for _, category := range Categories {
		if string(category) == trimmed {
			return category, true
		}
	}

	return "", false
}

// Expense это сумма расходов пользователя в одной категории.
type Expense struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Totals хранит суммы по всем фиксированным категориям.
type Totals map[Category]decimal.Decimal

// BuildTotals суммирует расходы по категориям, неизвестные категории пропускаются.
func BuildTotals(expenses []Expense) Totals {
	totals := make(Totals, len(Categories))
	for _, category := range Categories {
		totals[category] = decimal.Zero
	}

	for _, expense := range expenses {
		category, ok := ParseCategory(expense.Category)
		if !ok {
			continue
		}
		totals[category] = totals[category].Add(expense.Amount)
	}

	return totals
}

// Sum возвращает общую сумму по всем категориям.
func (t Totals) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, amount := range t {
		sum = sum.Add(amount)
	}
	return sum
}
