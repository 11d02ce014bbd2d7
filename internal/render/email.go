package render

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"sync"
	texttemplate "text/template"

	"moneytracker/internal/core"
	appweb "moneytracker/web"
)

const DefaultProductName = "Money Tracker"

// Email is a rendered report email, ready for a mail dispatcher.
type Email struct {
	Subject string
	Text    string
	HTML    string
}

type EmailOptions struct {
	Locale      string
	ProductName string
}

// emailData feeds both email templates.
type emailData struct {
	L               Labels
	Subject         string
	Title           string
	Intro           string
	RangeText       string
	Name            string
	Income          string
	IncomeCount     int64
	Expenses        string
	ExpenseCount    int64
	Balance         string
	BalanceNegative bool
	MovementCount   int
	Currency        string
	CurrencyNote    string
	ProductName     string
}

var (
	loadTemplates sync.Once
	htmlTmpl      *htmltemplate.Template
	textTmpl      *texttemplate.Template
	templatesErr  error
)

func emailTemplates() (*htmltemplate.Template, *texttemplate.Template, error) {
	loadTemplates.Do(func() {
		htmlTmpl, templatesErr = htmltemplate.ParseFS(appweb.TemplatesFS, "templates/email/report.html.tmpl")
		if templatesErr != nil {
			return
		}
		textTmpl, templatesErr = texttemplate.ParseFS(appweb.TemplatesFS, "templates/email/report.txt.tmpl")
	})
	return htmlTmpl, textTmpl, templatesErr
}

// Subject is the email subject for a period, e.g. "Weekly Report - Money Tracker".
func Subject(p core.Period, opts EmailOptions) string {
	return LabelsFor(opts.Locale).Title(p) + " - " + productName(opts)
}

// RenderEmail renders the subject, plain text and HTML bodies of a report
// email. Missing user fields render as placeholders.
func RenderEmail(user core.User, report core.Report, opts EmailOptions) (Email, error) {
	html, text, err := emailTemplates()
	if err != nil {
		return Email{}, fmt.Errorf("load email templates: %w: %w", core.ErrRenderFailure, err)
	}

	l := LabelsFor(opts.Locale)
	sum := report.Summary
	data := emailData{
		L:               l,
		Subject:         Subject(report.Period, opts),
		Title:           l.Title(report.Period),
		Intro:           l.Intro(report.Period, report.Range),
		RangeText:       l.Range(report.Range),
		Name:            user.DisplayName(),
		Income:          sum.Income.Total.Format(),
		IncomeCount:     sum.Income.Count,
		Expenses:        sum.Expenses.Total.Format(),
		ExpenseCount:    sum.Expenses.Count,
		Balance:         sum.Balance.Format(),
		BalanceNegative: sum.Balance.Decimal().Round(2).IsNegative(),
		MovementCount:   report.MovementCount(),
		ProductName:     productName(opts),
	}
	if c := strings.TrimSpace(user.Currency); c != "" {
		data.Currency = c
		data.CurrencyNote = fmt.Sprintf(l.CurrencyFormat, c)
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := html.Execute(&htmlBuf, data); err != nil {
		return Email{}, fmt.Errorf("render html email: %w: %w", core.ErrRenderFailure, err)
	}
	if err := text.Execute(&textBuf, data); err != nil {
		return Email{}, fmt.Errorf("render text email: %w: %w", core.ErrRenderFailure, err)
	}

	return Email{Subject: data.Subject, Text: textBuf.String(), HTML: htmlBuf.String()}, nil
}

func productName(opts EmailOptions) string {
	if p := strings.TrimSpace(opts.ProductName); p != "" {
		return p
	}
	return DefaultProductName
}
