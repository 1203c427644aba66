package tips

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	RuleSpendMore      = "spend_more"
	RuleSpendBitMore   = "spend_bit_more"
	RuleSpentLittle    = "spent_little"
	RuleQualityOfLife  = "quality_of_life"
	RuleReviewFixed    = "review_fixed"
	RuleReduceLot      = "reduce_lot"
	RuleReduceQuiteBit = "reduce_quite_bit"
	RuleKeepEye        = "keep_eye"
	RuleKeepUp         = "keep_up"
)

// Input описывает категорию на входе каскада правил.
type Input struct {
	Category Category
	Spent    decimal.Decimal
	Percent  decimal.Decimal
	Score    float64
}

// Rule связывает условие с шаблоном совета. Шаблон получает название категории
// (%[1]s) и процент от дохода (%[2]s).
type Rule struct {
	Name     string
	Match    func(Input) bool
	Template string
}

var (
	thirty = decimal.NewFromInt(30)
	twenty = decimal.NewFromInt(20)
	ten    = decimal.NewFromInt(10)
)

// fixedCosts это категории обязательных платежей, которые стоит пересматривать,
// даже если балл низкий.
var fixedCosts = map[Category]struct{}{
	CategoryRentOrMortgage: {},
	CategoryInsurance:      {},
}

// Rules проверяются сверху вниз, срабатывает первое подходящее правило.
// Последнее правило подходит всегда.
var Rules = []Rule{
	{
		Name:     RuleSpendMore,
		Match:    func(in Input) bool { return in.Score > 0.5 },
		Template: "You spent very little on %[1]s (%[2]s%% of your monthly salary). Consider spending a bit more on %[1]s to enjoy life more.",
	},
	{
		Name:     RuleSpendBitMore,
		Match:    func(in Input) bool { return in.Score > 0.25 },
		Template: "You spent some money on %[1]s (%[2]s%% of your monthly salary). You may want to spend a bit more on %[1]s to improve your quality of life.",
	},
	{
		Name:     RuleSpentLittle,
		Match:    func(in Input) bool { return in.Score > 0.1 },
		Template: "You didn't spend much on %[1]s (%[2]s%% of your monthly salary). Look for ways to spend a bit more on %[1]s to enjoy life more.",
	},
	{
		Name:     RuleQualityOfLife,
		Match:    func(in Input) bool { return in.Score > 0.05 },
		Template: "You spent a very small amount on %[1]s (%[2]s%% of your monthly salary). Make sure you're not sacrificing your quality of life by cutting back too much on %[1]s.",
	},
	{
		Name: RuleReviewFixed,
		Match: func(in Input) bool {
			_, ok := fixedCosts[in.Category]
			return ok && in.Spent.IsPositive()
		},
		Template: "You spent a moderate amount on %[1]s (%[2]s%% of your monthly salary). Consider reviewing your expenses in this category to see if there are any opportunities to save money.",
	},
	{
		Name:     RuleReduceLot,
		Match:    func(in Input) bool { return in.Percent.GreaterThan(thirty) },
		Template: "You spent a lot on %[1]s (%[2]s%% of your monthly salary). Consider reducing your spending on %[1]s to save more.",
	},
	{
		Name:     RuleReduceQuiteBit,
		Match:    func(in Input) bool { return in.Percent.GreaterThan(twenty) },
		Template: "You spent quite a bit on %[1]s (%[2]s%% of your monthly salary). Consider reducing your spending on %[1]s to save more.",
	},
	{
		Name:     RuleKeepEye,
		Match:    func(in Input) bool { return in.Percent.GreaterThan(ten) },
		Template: "You spent some money on %[1]s (%[2]s%% of your monthly salary). Keep an eye on your spending in this category to make sure it doesn't get out of control.",
	},
	{
		Name:     RuleKeepUp,
		Match:    func(Input) bool { return true },
		Template: "You didn't spend anything on %[1]s (%[2]s%% of your monthly salary). Keep up the good work!",
	},
}

// Apply выбирает первое подходящее правило и форматирует текст совета.
func Apply(rules []Rule, in Input) (string, string) {
	for _, rule := range rules {
		if rule.Match(in) {
			return rule.Name, fmt.Sprintf(rule.Template, in.Category, in.Percent.StringFixed(2))
		}
	}

	return "", ""
}
