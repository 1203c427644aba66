package tips

import (
	"math"
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

const (
	// ScoreSteepness и ScoreMidpoint задают логистическую кривую балла. Балл
	// превышает 0.05 только при доле выше ~0.352, поэтому правила по процентам
	// (>10%, >20%, >30%) срабатывают раньше правил по баллу.
	ScoreSteepness = 30.0
	ScoreMidpoint  = 0.45
)

var hundred = decimal.NewFromInt(100)

// Source выбирает индекс в диапазоне [0, n).
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n)
}

// Tip это совет по одной категории вместе с данными, по которым он выбран.
type Tip struct {
	Category Category        `json:"category"`
	Rule     string          `json:"rule"`
	Ratio    float64         `json:"ratio"`
	Score    float64         `json:"score"`
	Percent  decimal.Decimal `json:"percent"`
	Text     string          `json:"text"`
}

// Ratio возвращает долю дохода, потраченную в категории. При нулевом или
// отсутствующем доходе доля равна нулю.
func Ratio(spent decimal.Decimal, income decimal.NullDecimal) float64 {
	if !income.Valid || !income.Decimal.IsPositive() {
		return 0
	}

	return spent.Div(income.Decimal).InexactFloat64()
}

// Percent возвращает процент от дохода с той же политикой для нулевого дохода.
func Percent(spent decimal.Decimal, income decimal.NullDecimal) decimal.Decimal {
	if !income.Valid || !income.Decimal.IsPositive() || spent.IsZero() {
		return decimal.Zero
	}

	return spent.Mul(hundred).Div(income.Decimal)
}

// Score переводит долю в балл из [0, 1]; больше доля, больше балл.
func Score(ratio float64) float64 {
	if math.IsNaN(ratio) {
		return 0
	}

	return 1 / (1 + math.Exp(-ScoreSteepness*(ratio-ScoreMidpoint)))
}

// Evaluate строит советы по всем категориям в фиксированном порядке.
func Evaluate(expenses []Expense, income decimal.NullDecimal) []Tip {
	totals := BuildTotals(expenses)

	tips := make([]Tip, 0, len(Categories))
	for _, category := range Categories {
		spent := totals[category]
		ratio := Ratio(spent, income)
		in := Input{
			Category: category,
			Spent:    spent,
			Percent:  Percent(spent, income),
			Score:    Score(ratio),
		}

		rule, text := Apply(Rules, in)
		tips = append(tips, Tip{
			Category: category,
			Rule:     rule,
			Ratio:    ratio,
			Score:    in.Score,
			Percent:  in.Percent,
			Text:     text,
		})
	}

	return tips
}

// Generator выбирает один случайный совет из набора по всем категориям.
type Generator struct {
	source Source
}

// NewGenerator создает генератор советов. При nil используется общий
// потокобезопасный генератор math/rand/v2. Переданный source должен быть
// потокобезопасным, если генератор вызывается конкурентно.
func NewGenerator(source Source) *Generator {
	if source == nil {
		source = globalSource{}
	}

	return &Generator{source: source}
}

// Pick возвращает случайный совет из построенного набора.
func (g *Generator) Pick(expenses []Expense, income decimal.NullDecimal) Tip {
	tips := Evaluate(expenses, income)
	return tips[g.source.IntN(len(tips))]
}

// Tip возвращает текст случайного совета по экономии.
func (g *Generator) Tip(expenses []Expense, income decimal.NullDecimal) string {
	return g.Pick(expenses, income).Text
}
