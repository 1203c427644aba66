package tips

import (
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

type fixedSource int

func (s fixedSource) IntN(int) int {
	return int(s)
}

func income(value int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(value))
}

func categoryIndex(t *testing.T, category Category) int {
	t.Helper()
	for i, c := range Categories {
		if c == category {
			return i
		}
	}
	t.Fatalf("unknown category %s", category)
	return -1
}

func findTip(t *testing.T, tips []Tip, category Category) Tip {
	t.Helper()
	for _, tip := range tips {
		if tip.Category == category {
			return tip
		}
	}
	t.Fatalf("tip for %s not found", category)
	return Tip{}
}

// TestBuildTotalsDefaults проверяет, что все категории присутствуют с нулем.
func TestBuildTotalsDefaults(t *testing.T) {
	totals := BuildTotals(nil)

	if len(totals) != len(Categories) {
		t.Fatalf("expected %d categories, got %d", len(Categories), len(totals))
	}
	for _, category := range Categories {
		amount, ok := totals[category]
		if !ok {
			t.Fatalf("missing category %s", category)
		}
		if !amount.IsZero() {
			t.Fatalf("expected zero for %s, got %s", category, amount)
		}
	}
}

// TestBuildTotalsIgnoresUnknown проверяет, что неизвестные категории не учитываются.
func TestBuildTotalsIgnoresUnknown(t *testing.T) {
	expenses := []Expense{
		{Category: "Groceries", Amount: decimal.RequireFromString("120.50")},
		{Category: "Hospital", Amount: decimal.NewFromInt(999)},
		{Category: "Groceries", Amount: decimal.RequireFromString("79.50")},
		{Category: "Travel", Amount: decimal.NewFromInt(300)},
	}

	totals := BuildTotals(expenses)

	if !totals[CategoryGroceries].Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected groceries 200, got %s", totals[CategoryGroceries])
	}
	if !totals.Sum().Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected sum 500, got %s", totals.Sum())
	}
	if _, ok := totals[Category("Hospital")]; ok {
		t.Fatal("expected unknown category to be dropped")
	}
}

// TestBuildTotalsOrderIndependent проверяет независимость сумм от порядка расходов.
func TestBuildTotalsOrderIndependent(t *testing.T) {
	expenses := []Expense{
		{Category: "Utilities", Amount: decimal.RequireFromString("10.10")},
		{Category: "Education", Amount: decimal.RequireFromString("0.20")},
		{Category: "Utilities", Amount: decimal.RequireFromString("5.05")},
	}
	reversed := []Expense{expenses[2], expenses[1], expenses[0]}

	first := BuildTotals(expenses)
	second := BuildTotals(reversed)

	for _, category := range Categories {
		if !first[category].Equal(second[category]) {
			t.Fatalf("totals differ for %s: %s vs %s", category, first[category], second[category])
		}
	}
}

// TestRatioZeroIncome проверяет политику нулевого и отсутствующего дохода.
func TestRatioZeroIncome(t *testing.T) {
	spent := decimal.NewFromInt(100)

	if got := Ratio(spent, decimal.NullDecimal{}); got != 0 {
		t.Fatalf("expected 0 for null income, got %v", got)
	}
	if got := Ratio(spent, income(0)); got != 0 {
		t.Fatalf("expected 0 for zero income, got %v", got)
	}
	if got := Percent(spent, income(0)); !got.IsZero() {
		t.Fatalf("expected zero percent, got %s", got)
	}
	if got := Ratio(spent, income(400)); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
}

// TestScoreMonotonicAndBounded проверяет монотонность и границы балла.
func TestScoreMonotonicAndBounded(t *testing.T) {
	prev := -1.0
	for i := 0; i <= 200; i++ {
		score := Score(float64(i) / 100)
		if score < 0 || score > 1 {
			t.Fatalf("score out of range: %v", score)
		}
		// выше доли 1 балл упирается в 1.0 в пределах точности float64
		if score < prev || (i <= 100 && score == prev) {
			t.Fatalf("score is not increasing at ratio %v", float64(i)/100)
		}
		prev = score
	}

	if Score(0) > 0.05 {
		t.Fatalf("expected zero ratio to score below 0.05, got %v", Score(0))
	}
}

// TestApplyFirstMatchWins проверяет порядок каскада правил.
func TestApplyFirstMatchWins(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		want string
	}{
		{"high score", Input{Category: CategoryTravel, Score: 0.9, Percent: decimal.NewFromInt(60)}, RuleSpendMore},
		{"mid score", Input{Category: CategoryTravel, Score: 0.3}, RuleSpendBitMore},
		{"low score", Input{Category: CategoryTravel, Score: 0.2}, RuleSpentLittle},
		{"very low score", Input{Category: CategoryTravel, Score: 0.06}, RuleQualityOfLife},
		{"fixed cost", Input{Category: CategoryInsurance, Score: 0.01, Spent: decimal.NewFromInt(5), Percent: decimal.NewFromInt(40)}, RuleReviewFixed},
		{"fixed cost without spend", Input{Category: CategoryRentOrMortgage, Score: 0.01}, RuleKeepUp},
		{"over thirty", Input{Category: CategoryTravel, Score: 0.01, Percent: decimal.RequireFromString("30.01")}, RuleReduceLot},
		{"over twenty", Input{Category: CategoryTravel, Score: 0.01, Percent: decimal.NewFromInt(25)}, RuleReduceQuiteBit},
		{"over ten", Input{Category: CategoryTravel, Score: 0.01, Percent: decimal.NewFromInt(20)}, RuleKeepEye},
		{"nothing", Input{Category: CategoryTravel, Score: 0.01, Percent: decimal.NewFromInt(10)}, RuleKeepUp},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule, text := Apply(Rules, tc.in)
			if rule != tc.want {
				t.Fatalf("expected rule %s, got %s", tc.want, rule)
			}
			if !strings.Contains(text, string(tc.in.Category)) {
				t.Fatalf("expected text to mention %s: %s", tc.in.Category, text)
			}
		})
	}
}

// TestEvaluateRuleByShare проверяет, какое правило дает реальная кривая балла
// при разной доле дохода.
func TestEvaluateRuleByShare(t *testing.T) {
	cases := []struct {
		category Category
		spent    int64
		want     string
		percent  string
	}{
		{CategoryTravel, 0, RuleKeepUp, "0.00%"},
		{CategoryTravel, 50, RuleKeepUp, "5.00%"},
		{CategoryTravel, 150, RuleKeepEye, "15.00%"},
		{CategoryTravel, 250, RuleReduceQuiteBit, "25.00%"},
		{CategoryTravel, 320, RuleReduceLot, "32.00%"},
		{CategoryTravel, 360, RuleQualityOfLife, "36.00%"},
		{CategoryTravel, 390, RuleSpentLittle, "39.00%"},
		{CategoryTravel, 420, RuleSpendBitMore, "42.00%"},
		{CategoryTravel, 500, RuleSpendMore, "50.00%"},
		{CategoryInsurance, 320, RuleReviewFixed, "32.00%"},
	}

	for _, tc := range cases {
		expenses := []Expense{{Category: string(tc.category), Amount: decimal.NewFromInt(tc.spent)}}
		tip := findTip(t, Evaluate(expenses, income(1000)), tc.category)

		if tip.Rule != tc.want {
			t.Fatalf("%s %d: expected rule %s, got %s (score %v)", tc.category, tc.spent, tc.want, tip.Rule, tip.Score)
		}
		if !strings.Contains(tip.Text, tc.percent) {
			t.Fatalf("%s %d: expected %s in %q", tc.category, tc.spent, tc.percent, tip.Text)
		}
	}
}

// TestEvaluateGroceriesScenario проверяет сценарий 400 из 2000 на продукты.
func TestEvaluateGroceriesScenario(t *testing.T) {
	tips := Evaluate([]Expense{{Category: "Groceries", Amount: decimal.NewFromInt(400)}}, income(2000))

	tip := findTip(t, tips, CategoryGroceries)
	if tip.Ratio != 0.2 {
		t.Fatalf("expected ratio 0.2, got %v", tip.Ratio)
	}
	if tip.Rule != RuleKeepEye {
		t.Fatalf("expected rule %s, got %s", RuleKeepEye, tip.Rule)
	}
	if !strings.Contains(tip.Text, "Groceries") || !strings.Contains(tip.Text, "20.00%") {
		t.Fatalf("unexpected text: %s", tip.Text)
	}
}

// TestEvaluateEmptyExpenses проверяет сценарий без расходов.
func TestEvaluateEmptyExpenses(t *testing.T) {
	tips := Evaluate(nil, income(3000))

	if len(tips) != len(Categories) {
		t.Fatalf("expected %d tips, got %d", len(Categories), len(tips))
	}
	for _, tip := range tips {
		if tip.Rule != RuleKeepUp {
			t.Fatalf("expected rule %s for %s, got %s", RuleKeepUp, tip.Category, tip.Rule)
		}
		if !strings.Contains(tip.Text, "0.00%") {
			t.Fatalf("expected 0.00%% in %s", tip.Text)
		}
		if strings.Count(tip.Text, "%") != 1 {
			t.Fatalf("expected a single percentage in %s", tip.Text)
		}
	}
}

// TestEvaluateRentScenario проверяет, что высокая доля ведет к совету тратить больше.
func TestEvaluateRentScenario(t *testing.T) {
	tips := Evaluate([]Expense{{Category: "Rent or Mortgage", Amount: decimal.NewFromInt(1000)}}, income(2000))

	tip := findTip(t, tips, CategoryRentOrMortgage)
	if tip.Score <= 0.5 {
		t.Fatalf("expected score above 0.5, got %v", tip.Score)
	}
	if tip.Rule != RuleSpendMore {
		t.Fatalf("expected rule %s, got %s", RuleSpendMore, tip.Rule)
	}
	if !strings.Contains(tip.Text, "50.00%") {
		t.Fatalf("unexpected text: %s", tip.Text)
	}
}

// TestGeneratorZeroIncome проверяет, что при нулевом доходе совет все равно возвращается.
func TestGeneratorZeroIncome(t *testing.T) {
	generator := NewGenerator(rand.New(rand.NewPCG(1, 2)))
	expenses := []Expense{{Category: "Travel", Amount: decimal.NewFromInt(250)}}

	for _, value := range []decimal.NullDecimal{{}, income(0)} {
		tip := generator.Tip(expenses, value)
		if tip == "" {
			t.Fatal("expected non-empty tip")
		}
	}
}

// TestGeneratorUsesSource проверяет выбор совета по индексу из источника.
func TestGeneratorUsesSource(t *testing.T) {
	expenses := []Expense{{Category: "Groceries", Amount: decimal.NewFromInt(400)}}
	generator := NewGenerator(fixedSource(categoryIndex(t, CategoryGroceries)))

	tip := generator.Tip(expenses, income(2000))
	want := "You spent some money on Groceries (20.00% of your monthly salary). Keep an eye on your spending in this category to make sure it doesn't get out of control."
	if tip != want {
		t.Fatalf("expected %q, got %q", want, tip)
	}
}

// TestGeneratorMentionsSingleCategory проверяет, что совет относится ровно к одной категории.
func TestGeneratorMentionsSingleCategory(t *testing.T) {
	generator := NewGenerator(rand.New(rand.NewPCG(42, 7)))
	expenses := []Expense{
		{Category: "Food and Drinks", Amount: decimal.NewFromInt(150)},
		{Category: "Entertainment", Amount: decimal.NewFromInt(700)},
		{Category: "Insurance", Amount: decimal.NewFromInt(90)},
	}

	for i := 0; i < 100; i++ {
		tip := generator.Tip(expenses, income(2500))
		mentioned := 0
		for _, category := range Categories {
			if strings.Contains(tip, string(category)) {
				mentioned++
			}
		}
		if mentioned != 1 {
			t.Fatalf("expected exactly one category in %q, got %d", tip, mentioned)
		}
	}
}

// TestGeneratorConcurrent проверяет конкурентные вызовы с общим источником.
func TestGeneratorConcurrent(t *testing.T) {
	generator := NewGenerator(nil)
	expenses := []Expense{{Category: "Utilities", Amount: decimal.NewFromInt(120)}}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tip := generator.Tip(expenses, income(1000)); tip == "" {
				t.Error("expected non-empty tip")
			}
		}()
	}
	wg.Wait()
}
