package models

// Requests for market HTTP endpoints. Defined in domain for consistency and reuse.

type PriceRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,alphanum,max=12"`
}

type IndicatorsRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required,alphanum,max=12"`
	Interval string `query:"interval" json:"interval" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	N        int    `query:"n" json:"n" default:"200" validate:"gte=30,lte=1000"`
}

type ZonesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,alphanum,max=12"`
	Depth  int    `query:"depth" json:"depth" default:"100" validate:"gte=20,lte=1000"`
}

type AnalysisRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required,alphanum,max=12"`
	Interval string `query:"interval" json:"interval" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
}

type CandlesRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required,alphanum,max=12"`
	Interval string `query:"interval" json:"interval" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	N        int    `query:"n" json:"n" default:"200" validate:"gte=1,lte=1000"`
}
