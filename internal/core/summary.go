package core

// DailyTotal is the net amount recorded on one day.
type DailyTotal struct {
	Date  Date
	Total Money
	Count int
}

// DaySummary is the report shown when a day of the heat-map is clicked.
type DaySummary struct {
	Date         Date
	Total        Money
	Income       Money
	Expenses     Money
	Transactions []Transaction
}

// Summarize totals a day's transactions.
func Summarize(d Date, txs []Transaction) DaySummary {
	s := DaySummary{Date: d, Transactions: txs}
	for _, t := range txs {
		s.Total = s.Total.Add(t.Amount)
		if t.Amount.IsExpense() {
			s.Expenses = s.Expenses.Add(t.Amount)
		} else {
			s.Income = s.Income.Add(t.Amount)
		}
	}
	return s
}
