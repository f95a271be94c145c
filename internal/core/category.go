package core

// Category is one of the fixed transaction categories.
type Category string

const (
	Salary        Category = "salary"
	Freelance     Category = "freelance"
	Investment    Category = "investment"
	Gift          Category = "gift"
	OtherIncome   Category = "other_income"
	Food          Category = "food"
	Transport     Category = "transport"
	Utilities     Category = "utilities"
	Entertainment Category = "entertainment"
	Healthcare    Category = "healthcare"
	Education     Category = "education"
	Shopping      Category = "shopping"
	Rent          Category = "rent"
	OtherExpense  Category = "other_expense"
)

// CategoryInfo describes a category and the transaction type it
// conventionally belongs to. The pairing is advisory: transactions may
// carry any category regardless of their type.
type CategoryInfo struct {
	Category Category
	Type     TransactionType
	Label    string
}

var categories = []CategoryInfo{
	{Salary, Income, "Salary"},
	{Freelance, Income, "Freelance work"},
	{Investment, Income, "Investments"},
	{Gift, Income, "Gift"},
	{OtherIncome, Income, "Other income"},
	{Food, Expense, "Food"},
	{Transport, Expense, "Transport"},
	{Utilities, Expense, "Utilities"},
	{Entertainment, Expense, "Entertainment"},
	{Healthcare, Expense, "Healthcare"},
	{Education, Expense, "Education"},
	{Shopping, Expense, "Shopping"},
	{Rent, Expense, "Rent"},
	{OtherExpense, Expense, "Other expenses"},
}

var categoryIndex = func() map[Category]CategoryInfo {
	m := make(map[Category]CategoryInfo, len(categories))
	for _, c := range categories {
		m[c.Category] = c
	}
	return m
}()

// Categories returns every known category in display order.
func Categories() []CategoryInfo {
	return append([]CategoryInfo(nil), categories...)
}

func (c Category) IsValid() bool {
	_, ok := categoryIndex[c]
	return ok
}

// ConventionalType returns the type the category is usually paired with,
// or the empty string for unknown categories.
func (c Category) ConventionalType() TransactionType {
	return categoryIndex[c].Type
}

// Label returns the display label of the category.
func (c Category) Label() string {
	return categoryIndex[c].Label
}
