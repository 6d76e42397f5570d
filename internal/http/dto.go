package http

import (
	"time"

	"fanatitra/internal/core"
	"fanatitra/internal/stats"
)

type personDTO struct {
	ID          string      `json:"id"`
	FullName    string      `json:"fullName"`
	CardNumber  string      `json:"cardNumber"`
	Initials    string      `json:"initials"`
	Address     string      `json:"address"`
	PhoneNumber string      `json:"phoneNumber"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	TotalVersed *core.Money `json:"totalVersed,omitempty"`
	Count       *int        `json:"count,omitempty"`
}

func toPersonDTO(c core.Contributor) personDTO {
	return personDTO{
		ID:          c.ID,
		FullName:    c.FullName,
		CardNumber:  c.CardNumber,
		Initials:    c.Initials,
		Address:     c.Address,
		PhoneNumber: c.PhoneNumber,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toPersonDTOs(cs []core.Contributor) []personDTO {
	out := make([]personDTO, len(cs))
	for i, c := range cs {
		out[i] = toPersonDTO(c)
	}
	return out
}

func toPersonTotalsDTOs(rows []stats.ContributorTotals) []personDTO {
	out := make([]personDTO, len(rows))
	for i, row := range rows {
		dto := toPersonDTO(row.Contributor)
		amount, count := row.Total.Amount, row.Total.Count
		dto.TotalVersed, dto.Count = &amount, &count
		out[i] = dto
	}
	return out
}

type versementDTO struct {
	ID             string     `json:"id"`
	Date           core.Date  `json:"date"`
	PersonID       string     `json:"personId"`
	PersonName     string     `json:"personName"`
	PersonInitial  string     `json:"personInitial"`
	Amount         core.Money `json:"amount"`
	NumeroDeCompte string     `json:"numeroDeCompte"`
	PaymentType    string     `json:"paymentType"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func toVersementDTO(c core.Contribution) versementDTO {
	return versementDTO{
		ID:             c.ID,
		Date:           c.Date,
		PersonID:       c.Contributor.ContributorID,
		PersonName:     c.Contributor.Name,
		PersonInitial:  c.Contributor.Initials,
		Amount:         c.Amount,
		NumeroDeCompte: c.AccountNumber,
		PaymentType:    string(c.Category),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func toVersementDTOs(cs []core.Contribution) []versementDTO {
	out := make([]versementDTO, len(cs))
	for i, c := range cs {
		out[i] = toVersementDTO(c)
	}
	return out
}

// amountDTO pairs the number with its display form.
type amountDTO struct {
	Amount  core.Money `json:"amount"`
	Display string     `json:"display"`
}

func toAmount(m core.Money) amountDTO {
	return amountDTO{Amount: m, Display: m.Display()}
}

type summaryDTO struct {
	Today     core.Date `json:"today"`
	ThisWeek  amountDTO `json:"thisWeek"`
	ThisMonth amountDTO `json:"thisMonth"`
	ThisYear  amountDTO `json:"thisYear"`
	AllTime   amountDTO `json:"allTime"`
	Count     int       `json:"count"`
}

func toSummaryDTO(t stats.Totals) summaryDTO {
	return summaryDTO{
		Today:     t.Today,
		ThisWeek:  toAmount(t.ThisWeek),
		ThisMonth: toAmount(t.ThisMonth),
		ThisYear:  toAmount(t.ThisYear),
		AllTime:   toAmount(t.AllTime),
		Count:     t.Count,
	}
}

type monthDTO struct {
	Month   string     `json:"month"`
	Total   core.Money `json:"total"`
	Display string     `json:"display"`
	Count   int        `json:"count"`
}

func toMonthDTOs(ms []stats.MonthTotal) []monthDTO {
	out := make([]monthDTO, len(ms))
	for i, m := range ms {
		out[i] = monthDTO{Month: m.Month, Total: m.Total, Display: m.Total.Display(), Count: m.Count}
	}
	return out
}

type rankedDTO struct {
	PersonID      string     `json:"personId"`
	PersonName    string     `json:"personName"`
	PersonInitial string     `json:"personInitial"`
	Total         core.Money `json:"total"`
	Display       string     `json:"display"`
	Count         int        `json:"count"`
}

func toRankedDTOs(rs []stats.Ranked) []rankedDTO {
	out := make([]rankedDTO, len(rs))
	for i, r := range rs {
		out[i] = rankedDTO{
			PersonID:      r.ContributorID,
			PersonName:    r.DisplayName,
			PersonInitial: r.Initials,
			Total:         r.Total,
			Display:       r.Total.Display(),
			Count:         r.Count,
		}
	}
	return out
}

type dashboardDTO struct {
	TotalVersed  amountDTO      `json:"totalVersed"`
	Transactions int            `json:"transactions"`
	Summary      summaryDTO     `json:"summary"`
	Monthly      []monthDTO     `json:"monthly"`
	Recent       []versementDTO `json:"recent"`
}

func toDashboardDTO(d stats.Dashboard) dashboardDTO {
	return dashboardDTO{
		TotalVersed:  toAmount(d.Totals.AllTime),
		Transactions: d.Totals.Count,
		Summary:      toSummaryDTO(d.Totals),
		Monthly:      toMonthDTOs(d.Monthly),
		Recent:       toVersementDTOs(d.Recent),
	}
}

type personSummaryDTO struct {
	Person     personDTO      `json:"person"`
	Totals     summaryDTO     `json:"totals"`
	Period     string         `json:"period"`
	Versements []versementDTO `json:"versements"`
}

func toPersonSummaryDTO(s stats.ContributorSummary) personSummaryDTO {
	return personSummaryDTO{
		Person:     toPersonDTO(s.Contributor),
		Totals:     toSummaryDTO(s.Totals),
		Period:     string(s.Period),
		Versements: toVersementDTOs(s.History),
	}
}
