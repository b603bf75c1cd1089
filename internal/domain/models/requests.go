package models

// Requests for screener HTTP endpoints. Defined in domain for consistency and reuse.

type BondsRequest struct {
	CouponMin   *float64 `query:"coupon_min" json:"coupon_min" validate:"omitempty,gte=0"`
	CouponMax   *float64 `query:"coupon_max" json:"coupon_max" validate:"omitempty,gte=0"`
	MatdateFrom string   `query:"matdate_from" json:"matdate_from"`
	MatdateTo   string   `query:"matdate_to" json:"matdate_to"`
	ListLevel   *int     `query:"listlevel" json:"listlevel" validate:"omitempty,oneof=1 2 3"`
	FaceUnit    string   `query:"faceunit" json:"faceunit"`
	SortBy      string   `query:"sort_by" json:"sort_by" default:"secid" validate:"oneof=secid shortname ytm spread duration matdate"`
	Order       string   `query:"order" json:"order" default:"asc" validate:"oneof=asc desc"`
	Limit       int      `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
	Offset      int      `query:"offset" json:"offset" default:"0" validate:"gte=0"`
}

type CurveHistoryRequest struct {
	From string `query:"from" json:"from"`
	To   string `query:"to" json:"to"`
	N    int    `query:"n" json:"n" default:"365" validate:"gte=1,lte=3650"`
}

type CompareRequest struct {
	SecIDs []string `json:"secids" validate:"required,min=2,max=20,dive,required"`
}

type CollectionRequest struct {
	Name   string   `json:"name" validate:"required,min=1,max=64"`
	SecIDs []string `json:"secids" validate:"required,min=1,max=200,dive,required"`
}
