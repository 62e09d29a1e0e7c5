package httpapi

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/keepwise/analytics-backend/internal/domain"
	"github.com/keepwise/analytics-backend/internal/usecase/curve"
	"github.com/keepwise/analytics-backend/internal/usecase/returns"
	"github.com/keepwise/analytics-backend/internal/usecase/wealth"
)

// centsText renders a cent amount as a decimal currency string with two
// fractional digits. Presentation only; every contractual amount stays an
// integer cents field.
func centsText(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// rateText renders a rate pointer as a percentage string, empty when the
// rate is undefined.
func rateText(rate *float64) string {
	if rate == nil {
		return ""
	}
	return fmt.Sprintf("%.2f%%", *rate*100)
}

// RangeDTO is the wire shape of a resolved analysis window.
type RangeDTO struct {
	Preset          string `json:"preset"`
	RequestedFrom   string `json:"requested_from"`
	RequestedTo     string `json:"requested_to"`
	EffectiveFrom   string `json:"effective_from"`
	EffectiveTo     string `json:"effective_to"`
	LatestAvailable string `json:"latest_available"`
	IntervalDays    int64  `json:"interval_days"`
}

func toRangeDTO(r domain.ReturnRange) RangeDTO {
	return RangeDTO{
		Preset:          string(r.Preset),
		RequestedFrom:   domain.FormatDate(r.RequestedFrom),
		RequestedTo:     domain.FormatDate(r.RequestedTo),
		EffectiveFrom:   domain.FormatDate(r.EffectiveFrom),
		EffectiveTo:     domain.FormatDate(r.EffectiveTo),
		LatestAvailable: domain.FormatDate(r.LatestAvailable),
		IntervalDays:    r.IntervalDays,
	}
}

// MetricsDTO is the wire shape of the computed return figures.
type MetricsDTO struct {
	BeginValueCents      int64    `json:"begin_value_cents"`
	BeginValueText       string   `json:"begin_value_text"`
	EndValueCents        int64    `json:"end_value_cents"`
	EndValueText         string   `json:"end_value_text"`
	NetFlowCents         int64    `json:"net_flow_cents"`
	NetFlowText          string   `json:"net_flow_text"`
	ProfitCents          int64    `json:"profit_cents"`
	ProfitText           string   `json:"profit_text"`
	WeightedCapitalCents int64    `json:"weighted_capital_cents"`
	ReturnRate           *float64 `json:"return_rate"`
	ReturnRateText       string   `json:"return_rate_text,omitempty"`
	AnnualizedRate       *float64 `json:"annualized_rate"`
	AnnualizedRateText   string   `json:"annualized_rate_text,omitempty"`
	Note                 string   `json:"note,omitempty"`
}

func toMetricsDTO(m returns.Metrics) MetricsDTO {
	return MetricsDTO{
		BeginValueCents:      m.BeginValueCents,
		BeginValueText:       centsText(m.BeginValueCents),
		EndValueCents:        m.EndValueCents,
		EndValueText:         centsText(m.EndValueCents),
		NetFlowCents:         m.NetFlowCents,
		NetFlowText:          centsText(m.NetFlowCents),
		ProfitCents:          m.ProfitCents,
		ProfitText:           centsText(m.ProfitCents),
		WeightedCapitalCents: m.WeightedCapitalCents,
		ReturnRate:           m.ReturnRate,
		ReturnRateText:       rateText(m.ReturnRate),
		AnnualizedRate:       m.AnnualizedRate,
		AnnualizedRateText:   rateText(m.AnnualizedRate),
		Note:                 m.Note,
	}
}

// CashFlowDTO is one weighted cash-flow event.
type CashFlowDTO struct {
	Date        string  `json:"date"`
	AmountCents int64   `json:"amount_cents"`
	AmountText  string  `json:"amount_text"`
	Weight      float64 `json:"weight"`
}

// ReturnResponse is the wire shape of a single return computation.
type ReturnResponse struct {
	AccountID    string        `json:"account_id"`
	AccountName  string        `json:"account_name"`
	AccountCount int64         `json:"account_count,omitempty"`
	Range        RangeDTO      `json:"range"`
	Metrics      MetricsDTO    `json:"metrics"`
	CashFlows    []CashFlowDTO `json:"cash_flows"`
}

func toReturnResponse(res *returns.Result) ReturnResponse {
	flows := make([]CashFlowDTO, 0, len(res.CashFlows))
	for _, f := range res.CashFlows {
		flows = append(flows, CashFlowDTO{
			Date:        domain.FormatDate(f.Date),
			AmountCents: f.AmountCents,
			AmountText:  centsText(f.AmountCents),
			Weight:      f.Weight,
		})
	}
	return ReturnResponse{
		AccountID:    res.AccountID,
		AccountName:  res.AccountName,
		AccountCount: res.AccountCount,
		Range:        toRangeDTO(res.Range),
		Metrics:      toMetricsDTO(res.Metrics),
		CashFlows:    flows,
	}
}

// BatchRowDTO is one account's figures in a batch response.
type BatchRowDTO struct {
	AccountID          string     `json:"account_id"`
	AccountName        string     `json:"account_name"`
	RecordCount        int64      `json:"record_count"`
	FirstSnapshotDate  string     `json:"first_snapshot_date"`
	LatestSnapshotDate string     `json:"latest_snapshot_date"`
	EffectiveFrom      string     `json:"effective_from"`
	EffectiveTo        string     `json:"effective_to"`
	IntervalDays       int64      `json:"interval_days"`
	Metrics            MetricsDTO `json:"metrics"`
}

// BatchErrorDTO is one account's isolated failure in a batch response.
type BatchErrorDTO struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	Category    string `json:"category"`
	Message     string `json:"message"`
}

// BatchSummaryDTO aggregates a batch response.
type BatchSummaryDTO struct {
	AccountCount      int      `json:"account_count"`
	ComputedCount     int      `json:"computed_count"`
	ErrorCount        int      `json:"error_count"`
	AvgReturnRate     *float64 `json:"avg_return_rate"`
	AvgReturnRateText string   `json:"avg_return_rate_text,omitempty"`
}

// BatchResponse is the wire shape of a batch return computation.
type BatchResponse struct {
	Preset        string          `json:"preset"`
	RequestedFrom string          `json:"requested_from,omitempty"`
	RequestedTo   string          `json:"requested_to,omitempty"`
	Keyword       string          `json:"keyword,omitempty"`
	Limit         int             `json:"limit"`
	Summary       BatchSummaryDTO `json:"summary"`
	Rows          []BatchRowDTO   `json:"rows"`
	Errors        []BatchErrorDTO `json:"errors"`
}

func toBatchResponse(res *returns.BatchResult) BatchResponse {
	rows := make([]BatchRowDTO, 0, len(res.Rows))
	for _, row := range res.Rows {
		rows = append(rows, BatchRowDTO{
			AccountID:          row.AccountID,
			AccountName:        row.AccountName,
			RecordCount:        row.RecordCount,
			FirstSnapshotDate:  domain.FormatDate(row.FirstSnapshotDate),
			LatestSnapshotDate: domain.FormatDate(row.LatestSnapshotDate),
			EffectiveFrom:      domain.FormatDate(row.EffectiveFrom),
			EffectiveTo:        domain.FormatDate(row.EffectiveTo),
			IntervalDays:       row.IntervalDays,
			Metrics:            toMetricsDTO(row.Metrics),
		})
	}
	errRows := make([]BatchErrorDTO, 0, len(res.Errors))
	for _, e := range res.Errors {
		errRows = append(errRows, BatchErrorDTO{
			AccountID:   e.AccountID,
			AccountName: e.AccountName,
			Category:    string(e.Category),
			Message:     e.Message,
		})
	}
	return BatchResponse{
		Preset:        string(res.Preset),
		RequestedFrom: res.RequestedFrom,
		RequestedTo:   res.RequestedTo,
		Keyword:       res.Keyword,
		Limit:         res.Limit,
		Summary: BatchSummaryDTO{
			AccountCount:      res.Summary.AccountCount,
			ComputedCount:     res.Summary.ComputedCount,
			ErrorCount:        res.Summary.ErrorCount,
			AvgReturnRate:     res.Summary.AvgReturnRate,
			AvgReturnRateText: rateText(res.Summary.AvgReturnRate),
		},
		Rows:   rows,
		Errors: errRows,
	}
}

// CurvePointDTO is one dated row of an investment curve.
type CurvePointDTO struct {
	SnapshotDate             string   `json:"snapshot_date"`
	EffectiveSnapshotDate    string   `json:"effective_snapshot_date"`
	TotalValueCents          int64    `json:"total_value_cents"`
	TotalValueText           string   `json:"total_value_text"`
	TransferAmountCents      int64    `json:"transfer_amount_cents"`
	CumulativeNetGrowthCents int64    `json:"cumulative_net_growth_cents"`
	CumulativeReturnRate     *float64 `json:"cumulative_return_rate"`
}

// CurveSummaryDTO describes the terminal state of an investment curve.
type CurveSummaryDTO struct {
	Count                   int      `json:"count"`
	StartValueCents         int64    `json:"start_value_cents"`
	EndValueCents           int64    `json:"end_value_cents"`
	ChangeCents             int64    `json:"change_cents"`
	ChangePct               *float64 `json:"change_pct"`
	EndNetGrowthCents       int64    `json:"end_net_growth_cents"`
	EndCumulativeReturnRate *float64 `json:"end_cumulative_return_rate"`
}

// CurveResponse is the wire shape of an investment curve.
type CurveResponse struct {
	AccountID    string          `json:"account_id"`
	AccountName  string          `json:"account_name"`
	AccountCount int64           `json:"account_count,omitempty"`
	Range        RangeDTO        `json:"range"`
	Summary      CurveSummaryDTO `json:"summary"`
	Rows         []CurvePointDTO `json:"rows"`
}

func toCurveResponse(res *curve.Result) CurveResponse {
	rows := make([]CurvePointDTO, 0, len(res.Rows))
	for _, p := range res.Rows {
		rows = append(rows, CurvePointDTO{
			SnapshotDate:             domain.FormatDate(p.SnapshotDate),
			EffectiveSnapshotDate:    domain.FormatDate(p.EffectiveSnapshotDate),
			TotalValueCents:          p.TotalValueCents,
			TotalValueText:           centsText(p.TotalValueCents),
			TransferAmountCents:      p.TransferAmountCents,
			CumulativeNetGrowthCents: p.CumulativeNetGrowthCents,
			CumulativeReturnRate:     p.CumulativeReturnRate,
		})
	}
	return CurveResponse{
		AccountID:    res.AccountID,
		AccountName:  res.AccountName,
		AccountCount: res.AccountCount,
		Range:        toRangeDTO(res.Range),
		Summary: CurveSummaryDTO{
			Count:                   res.Summary.Count,
			StartValueCents:         res.Summary.StartValueCents,
			EndValueCents:           res.Summary.EndValueCents,
			ChangeCents:             res.Summary.ChangeCents,
			ChangePct:               res.Summary.ChangePct,
			EndNetGrowthCents:       res.Summary.EndNetGrowthCents,
			EndCumulativeReturnRate: res.Summary.EndCumulativeReturnRate,
		},
		Rows: rows,
	}
}

// FiltersDTO echoes the asset-class toggles applied to a wealth request.
type FiltersDTO struct {
	IncludeInvestment bool `json:"include_investment"`
	IncludeCash       bool `json:"include_cash"`
	IncludeRealEstate bool `json:"include_real_estate"`
	IncludeLiability  bool `json:"include_liability"`
}

func toFiltersDTO(f wealth.Filters) FiltersDTO {
	return FiltersDTO{
		IncludeInvestment: f.IncludeInvestment,
		IncludeCash:       f.IncludeCash,
		IncludeRealEstate: f.IncludeRealEstate,
		IncludeLiability:  f.IncludeLiability,
	}
}

// WealthRowDTO is one account's contribution to a wealth overview.
type WealthRowDTO struct {
	AssetClass   string `json:"asset_class"`
	AccountID    string `json:"account_id"`
	AccountName  string `json:"account_name"`
	SnapshotDate string `json:"snapshot_date"`
	ValueCents   int64  `json:"value_cents"`
	ValueText    string `json:"value_text"`
	StaleDays    int64  `json:"stale_days"`
}

// WealthSummaryDTO aggregates a wealth overview.
type WealthSummaryDTO struct {
	InvestmentTotalCents            int64  `json:"investment_total_cents"`
	CashTotalCents                  int64  `json:"cash_total_cents"`
	RealEstateTotalCents            int64  `json:"real_estate_total_cents"`
	LiabilityTotalCents             int64  `json:"liability_total_cents"`
	GrossAssetsTotalCents           int64  `json:"gross_assets_total_cents"`
	GrossAssetsTotalText            string `json:"gross_assets_total_text"`
	NetAssetTotalCents              int64  `json:"net_asset_total_cents"`
	NetAssetTotalText               string `json:"net_asset_total_text"`
	SelectedRowsAssetsTotalCents    int64  `json:"selected_rows_assets_total_cents"`
	SelectedRowsLiabilityTotalCents int64  `json:"selected_rows_liability_total_cents"`
	SelectedRowsTotalCents          int64  `json:"selected_rows_total_cents"`
	ReconciliationDeltaCents        int64  `json:"reconciliation_delta_cents"`
	ReconciliationOK                bool   `json:"reconciliation_ok"`
	StaleAccountCount               int    `json:"stale_account_count"`
}

// WealthOverviewResponse is the wire shape of a point-in-time aggregation.
type WealthOverviewResponse struct {
	AsOf          string           `json:"as_of"`
	RequestedAsOf string           `json:"requested_as_of"`
	Filters       FiltersDTO       `json:"filters"`
	Summary       WealthSummaryDTO `json:"summary"`
	Rows          []WealthRowDTO   `json:"rows"`
}

func toWealthOverviewResponse(res *wealth.OverviewResult) WealthOverviewResponse {
	rows := make([]WealthRowDTO, 0, len(res.Rows))
	for _, r := range res.Rows {
		rows = append(rows, WealthRowDTO{
			AssetClass:   string(r.AssetClass),
			AccountID:    r.AccountID,
			AccountName:  r.AccountName,
			SnapshotDate: domain.FormatDate(r.SnapshotDate),
			ValueCents:   r.ValueCents,
			ValueText:    centsText(r.ValueCents),
			StaleDays:    r.StaleDays,
		})
	}
	s := res.Summary
	return WealthOverviewResponse{
		AsOf:          domain.FormatDate(res.AsOf),
		RequestedAsOf: domain.FormatDate(res.RequestedAsOf),
		Filters:       toFiltersDTO(res.Filters),
		Summary: WealthSummaryDTO{
			InvestmentTotalCents:            s.InvestmentTotalCents,
			CashTotalCents:                  s.CashTotalCents,
			RealEstateTotalCents:            s.RealEstateTotalCents,
			LiabilityTotalCents:             s.LiabilityTotalCents,
			GrossAssetsTotalCents:           s.GrossAssetsTotalCents,
			GrossAssetsTotalText:            centsText(s.GrossAssetsTotalCents),
			NetAssetTotalCents:              s.NetAssetTotalCents,
			NetAssetTotalText:               centsText(s.NetAssetTotalCents),
			SelectedRowsAssetsTotalCents:    s.SelectedRowsAssetsTotalCents,
			SelectedRowsLiabilityTotalCents: s.SelectedRowsLiabilityTotalCents,
			SelectedRowsTotalCents:          s.SelectedRowsTotalCents,
			ReconciliationDeltaCents:        s.ReconciliationDeltaCents,
			ReconciliationOK:                s.ReconciliationOK,
			StaleAccountCount:               s.StaleAccountCount,
		},
		Rows: rows,
	}
}

// WealthCurveRowDTO is one dated row of a wealth curve.
type WealthCurveRowDTO struct {
	SnapshotDate             string `json:"snapshot_date"`
	InvestmentTotalCents     int64  `json:"investment_total_cents"`
	CashTotalCents           int64  `json:"cash_total_cents"`
	RealEstateTotalCents     int64  `json:"real_estate_total_cents"`
	LiabilityTotalCents      int64  `json:"liability_total_cents"`
	WealthTotalCents         int64  `json:"wealth_total_cents"`
	NetAssetTotalCents       int64  `json:"net_asset_total_cents"`
	WealthNetGrowthCents     int64  `json:"wealth_net_growth_cents"`
	LiabilityNetGrowthCents  int64  `json:"liability_net_growth_cents"`
	NetAssetNetGrowthCents   int64  `json:"net_asset_net_growth_cents"`
	InvestmentNetGrowthCents int64  `json:"investment_net_growth_cents"`
	CashNetGrowthCents       int64  `json:"cash_net_growth_cents"`
	RealEstateNetGrowthCents int64  `json:"real_estate_net_growth_cents"`
}

// ClassSpanDTO summarizes one series over the curve window.
type ClassSpanDTO struct {
	StartCents     int64    `json:"start_cents"`
	EndCents       int64    `json:"end_cents"`
	NetGrowthCents int64    `json:"net_growth_cents"`
	ChangePct      *float64 `json:"change_pct"`
}

func toClassSpanDTO(s wealth.ClassSpan) ClassSpanDTO {
	return ClassSpanDTO{
		StartCents:     s.StartCents,
		EndCents:       s.EndCents,
		NetGrowthCents: s.NetGrowthCents,
		ChangePct:      s.ChangePct,
	}
}

// WealthCurveResponse is the wire shape of a wealth time series.
type WealthCurveResponse struct {
	Range   RangeDTO            `json:"range"`
	Points  int                 `json:"points"`
	Filters FiltersDTO          `json:"filters"`
	Summary struct {
		Wealth     ClassSpanDTO `json:"wealth"`
		Liability  ClassSpanDTO `json:"liability"`
		NetAsset   ClassSpanDTO `json:"net_asset"`
		Investment ClassSpanDTO `json:"investment"`
		Cash       ClassSpanDTO `json:"cash"`
		RealEstate ClassSpanDTO `json:"real_estate"`
	} `json:"summary"`
	Rows []WealthCurveRowDTO `json:"rows"`
}

func toWealthCurveResponse(res *wealth.CurveResult) WealthCurveResponse {
	rows := make([]WealthCurveRowDTO, 0, len(res.Rows))
	for _, r := range res.Rows {
		rows = append(rows, WealthCurveRowDTO{
			SnapshotDate:             domain.FormatDate(r.SnapshotDate),
			InvestmentTotalCents:     r.InvestmentTotalCents,
			CashTotalCents:           r.CashTotalCents,
			RealEstateTotalCents:     r.RealEstateTotalCents,
			LiabilityTotalCents:      r.LiabilityTotalCents,
			WealthTotalCents:         r.WealthTotalCents,
			NetAssetTotalCents:       r.NetAssetTotalCents,
			WealthNetGrowthCents:     r.WealthNetGrowthCents,
			LiabilityNetGrowthCents:  r.LiabilityNetGrowthCents,
			NetAssetNetGrowthCents:   r.NetAssetNetGrowthCents,
			InvestmentNetGrowthCents: r.InvestmentNetGrowthCents,
			CashNetGrowthCents:       r.CashNetGrowthCents,
			RealEstateNetGrowthCents: r.RealEstateNetGrowthCents,
		})
	}
	out := WealthCurveResponse{
		Range:   toRangeDTO(res.Range),
		Points:  res.Points,
		Filters: toFiltersDTO(res.Filters),
		Rows:    rows,
	}
	out.Summary.Wealth = toClassSpanDTO(res.Summary.Wealth)
	out.Summary.Liability = toClassSpanDTO(res.Summary.Liability)
	out.Summary.NetAsset = toClassSpanDTO(res.Summary.NetAsset)
	out.Summary.Investment = toClassSpanDTO(res.Summary.Investment)
	out.Summary.Cash = toClassSpanDTO(res.Summary.Cash)
	out.Summary.RealEstate = toClassSpanDTO(res.Summary.RealEstate)
	return out
}
