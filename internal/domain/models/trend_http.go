package models

// Requests for trend HTTP endpoints. Defined in domain for consistency and reuse.

type TrendRequest struct {
	Indicator string `query:"indicator" json:"indicator" validate:"required"`
	Method    string `query:"method" json:"method" validate:"omitempty,oneof=sts simple"`
	Frequency string `query:"frequency" json:"frequency" validate:"omitempty,frequency"`
	N         int    `query:"n" json:"n" validate:"omitempty,gte=3,lte=5000"`
	Narrate   bool   `query:"narrate" json:"narrate"`
}

type SeriesPoint struct {
	Date  string  `json:"date" validate:"required"`
	Value float64 `json:"value"`
}

type AnalyzeRequest struct {
	Indicator string        `json:"indicator" default:"inline"`
	Method    string        `json:"method" default:"sts" validate:"oneof=sts simple"`
	Frequency string        `json:"frequency" validate:"omitempty,frequency"`
	Unit      string        `json:"unit"`
	Series    []SeriesPoint `json:"series" validate:"required,dive"`
	Narrate   bool          `json:"narrate"`
}

type SeriesRequest struct {
	Indicator string `query:"indicator" json:"indicator" validate:"required"`
	From      string `query:"from" json:"from"`
	To        string `query:"to" json:"to"`
	Limit     int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}

type DashboardRequest struct {
	Indicators string `query:"indicators" json:"indicators" validate:"required"`
	Method     string `query:"method" json:"method" default:"simple" validate:"oneof=sts simple"`
	N          int    `query:"n" json:"n" default:"60" validate:"gte=3,lte=5000"`
}

type NextPeriodRequest struct {
	Date      string `query:"date" json:"date" validate:"required"`
	Frequency string `query:"frequency" json:"frequency" validate:"omitempty,frequency"`
}

type DetectRequest struct {
	Count int    `query:"count" json:"count" validate:"gte=1"`
	Start string `query:"start" json:"start" validate:"required"`
	End   string `query:"end" json:"end" validate:"required"`
}

type FormatRequest struct {
	Value float64 `query:"value" json:"value"`
	Unit  string  `query:"unit" json:"unit"`
}
