package render

import (
	"fmt"
	"strings"

	"moneytracker/internal/core"
)

// Labels holds the user-facing wording of a report in one language.
type Labels struct {
	Locale string

	periods     map[core.Period]string
	titleFormat string // receives the period name
	introFormat string // receives the lower-cased period name and the range
	rangeFormat string // receives start and end dates

	Greeting       string
	Summary        string
	Income         string
	Expenses       string
	Balance        string
	Movements      string
	TotalMovements string
	NoMovements    string
	Tagline        string
	User           string
	CurrencyFormat string

	ColDate     string
	ColType     string
	ColCategory string
	ColAmount   string
	IncomeType  string
	ExpenseType string
}

const DefaultLocale = "en"

var locales = map[string]Labels{
	"en": {
		Locale: "en",
		periods: map[core.Period]string{
			core.Weekly:  "Weekly",
			core.Monthly: "Monthly",
			core.Range:   "Custom",
		},
		titleFormat:    "%s Report",
		introFormat:    "Here is your %s income and expense report (%s):",
		rangeFormat:    "%s to %s",
		Greeting:       "Hello",
		Summary:        "Summary",
		Income:         "Income",
		Expenses:       "Expenses",
		Balance:        "Balance",
		Movements:      "movements",
		TotalMovements: "Total movements",
		NoMovements:    "No movements in this period.",
		Tagline:        "Personal Finance Management",
		User:           "User",
		CurrencyFormat: "Account currency: %s",
		ColDate:        "Date",
		ColType:        "Type",
		ColCategory:    "Category",
		ColAmount:      "Amount",
		IncomeType:     "Income",
		ExpenseType:    "Expense",
	},
	"es": {
		Locale: "es",
		periods: map[core.Period]string{
			core.Weekly:  "Semanal",
			core.Monthly: "Mensual",
			core.Range:   "Personalizado",
		},
		titleFormat:    "Informe %s",
		introFormat:    "Aquí está tu informe %s de gastos e ingresos (%s):",
		rangeFormat:    "%s al %s",
		Greeting:       "Hola",
		Summary:        "Resumen",
		Income:         "Ingresos",
		Expenses:       "Gastos",
		Balance:        "Balance",
		Movements:      "movimientos",
		TotalMovements: "Total de movimientos",
		NoMovements:    "No hay movimientos en este período.",
		Tagline:        "Gestión de Finanzas Personales",
		User:           "Usuario",
		CurrencyFormat: "Moneda de la cuenta: %s",
		ColDate:        "Fecha",
		ColType:        "Tipo",
		ColCategory:    "Categoría",
		ColAmount:      "Monto",
		IncomeType:     "Ingreso",
		ExpenseType:    "Gasto",
	},
}

// LabelsFor returns the wording for locale, falling back to English. Region
// suffixes are ignored ("es-AR" selects "es").
func LabelsFor(locale string) Labels {
	if l, ok := locales[baseLang(locale)]; ok {
		return l
	}
	return locales[DefaultLocale]
}

// SupportedLocale reports whether LabelsFor has wording for locale.
func SupportedLocale(locale string) bool {
	_, ok := locales[baseLang(locale)]
	return ok
}

func baseLang(locale string) string {
	lang := strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}

// Period is the localized period name, e.g. "Weekly".
func (l Labels) Period(p core.Period) string {
	if s, ok := l.periods[p]; ok {
		return s
	}
	return string(p)
}

// Title is the report heading, e.g. "Weekly Report".
func (l Labels) Title(p core.Period) string {
	return fmt.Sprintf(l.titleFormat, l.Period(p))
}

// Range renders a date range, e.g. "2024-03-01 to 2024-03-31".
func (l Labels) Range(r core.DateRange) string {
	return fmt.Sprintf(l.rangeFormat, r.Start, r.End)
}

// Intro is the sentence introducing the summary.
func (l Labels) Intro(p core.Period, r core.DateRange) string {
	return fmt.Sprintf(l.introFormat, strings.ToLower(l.Period(p)), l.Range(r))
}

// MovementType is the table label for a movement kind.
func (l Labels) MovementType(t core.MovementType) string {
	if t == core.Income {
		return l.IncomeType
	}
	return l.ExpenseType
}
