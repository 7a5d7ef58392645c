package domain

import (
	"errors"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PlanName is one of the fixed subscription tiers.
type PlanName string

const (
	PlanPrime        PlanName = "PRIME"
	PlanIgnite       PlanName = "IGNITE"
	PlanProfessional PlanName = "PROFESSIONAL"
	PlanExecutive    PlanName = "EXECUTIVE"
)

var AllPlans = []PlanName{PlanPrime, PlanIgnite, PlanProfessional, PlanExecutive}

// Currency of a payment.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyCAD Currency = "CAD"
)

var AllCurrencies = []Currency{CurrencyUSD, CurrencyCAD}

var (
	ErrPlanRequired     = errors.New("payment plan is required")
	ErrUnknownPlan      = errors.New("unknown payment plan")
	ErrInvalidPrice     = errors.New("plan price must be a positive amount")
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrCurrencyMismatch = errors.New("incentive is only defined for USD payments")
	ErrInvalidIncentive = errors.New("incentive per lead must be zero or more")
)

func ParsePlanName(raw string) (PlanName, error) {
	p := PlanName(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range AllPlans {
		if p == known {
			return p, nil
		}
	}
	return "", ErrUnknownPlan
}

// ParseCurrency defaults an empty value to USD.
func ParseCurrency(raw string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(raw)))
	if c == "" {
		return CurrencyUSD, nil
	}
	for _, known := range AllCurrencies {
		if c == known {
			return c, nil
		}
	}
	return "", ErrUnknownCurrency
}

// PlanValues lists the plan names for help text and prompts.
func PlanValues() []string {
	out := make([]string, len(AllPlans))
	for i, p := range AllPlans {
		out[i] = string(p)
	}
	return out
}

func CurrencyValues() []string {
	out := make([]string, len(AllCurrencies))
	for i, c := range AllCurrencies {
		out[i] = string(c)
	}
	return out
}

// PaymentPlan is the plan a client paid for. Price is the amount actually
// collected, which may be below the list price.
type PaymentPlan struct {
	Name     PlanName `json:"name"`
	Price    float64  `json:"price"`
	Currency Currency `json:"currency"`
}

// Normalized returns a copy with canonical name and currency spelling.
// Unknown values are kept as-is so validation can reject them.
func (p PaymentPlan) Normalized() PaymentPlan {
	out := p
	if name, err := ParsePlanName(string(p.Name)); err == nil {
		out.Name = name
	}
	if cur, err := ParseCurrency(string(p.Currency)); err == nil {
		out.Currency = cur
	}
	return out
}

// DisplayPrice formats the price with its currency symbol and thousands grouping.
func (p PaymentPlan) DisplayPrice() string {
	return DisplayAmount(p.Price, p.Currency)
}

var printer = message.NewPrinter(language.English)

// DisplayAmount formats an amount, e.g. "$1,119.50" or "C$59.00".
func DisplayAmount(amount float64, currency Currency) string {
	symbol := "$"
	switch currency {
	case CurrencyCAD:
		symbol = "C$"
	case CurrencyUSD, "":
	default:
		symbol = string(currency) + " "
	}
	return symbol + printer.Sprintf("%.2f", amount)
}

// FormatINR formats an incentive total in rupees.
func FormatINR(amount float64) string {
	return "₹" + printer.Sprintf("%.2f", amount)
}

func validPrice(price float64) bool {
	return !math.IsNaN(price) && !math.IsInf(price, 0) && price > 0
}

// PlanDetails carries the extra plan/day information collected for
// template-based follow-up messaging.
type PlanDetails struct {
	Plan PlanName `json:"plan"`
	Days int      `json:"days"`
}
