package core

// TypeAggregate is the sum and row count of one movement type in a range.
type TypeAggregate struct {
	Type  MovementType `json:"-"`
	Total Money        `json:"total"`
	Count int64        `json:"count"`
}

// Summary holds both aggregates and their difference.
type Summary struct {
	Income   TypeAggregate `json:"income"`
	Expenses TypeAggregate `json:"expenses"`
	Balance  Money         `json:"balance"`
}

// Report is derived per request or tick and never persisted. Treat it as
// read-only once built.
type Report struct {
	Period    Period
	Range     DateRange
	Movements []Movement
	Summary   Summary
}

// NewSummary normalizes grouped aggregates: a type missing from aggs counts as
// zero total and zero rows. Balance is income minus expenses and may be
// negative.
func NewSummary(aggs []TypeAggregate) Summary {
	s := Summary{
		Income:   TypeAggregate{Type: Income},
		Expenses: TypeAggregate{Type: Expense},
	}
	for _, a := range aggs {
		switch a.Type {
		case Income:
			s.Income.Total = s.Income.Total.Add(a.Total)
			s.Income.Count += a.Count
		case Expense:
			s.Expenses.Total = s.Expenses.Total.Add(a.Total)
			s.Expenses.Count += a.Count
		}
	}
	s.Balance = s.Income.Total.Sub(s.Expenses.Total)
	return s
}

// MovementCount is the number of movements listed in the report.
func (r Report) MovementCount() int {
	return len(r.Movements)
}

// IsEmpty reports whether no movement fell in the range.
func (r Report) IsEmpty() bool {
	return len(r.Movements) == 0
}
