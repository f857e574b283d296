package model

import "strings"

// Categorical columns of an aging extract, in the order filters are applied.
const (
	ColumnCompany      = "BUKRS_TXT"
	ColumnCustomer     = "KUNNR_TXT"
	ColumnProfitCenter = "PRCTR"
	ColumnMarket       = "VKORG_TXT"
	ColumnChannel      = "VTWEG_TXT"
)

// Bucket columns of the full layout plus the single amount column of the
// narrow layout.
const (
	BucketNotDue     = "NOT_DUE"
	BucketDue30      = "DUE_30"
	BucketDue60      = "DUE_60"
	BucketDue90      = "DUE_90"
	BucketDue120     = "DUE_120"
	BucketDue180     = "DUE_180"
	BucketDue270     = "DUE_270"
	BucketDue360     = "DUE_360"
	BucketDueOver360 = "DUE_OVER_360"
	BucketAmount     = "AMOUNT"
)

// NumericPrefix marks derived numeric columns. They never leave the pipeline.
const NumericPrefix = "_num_"

// AllValues is the filter sentinel meaning "no restriction on this column".
const AllValues = "All"

// Category describes one categorical column and its filter label.
type Category struct {
	Column string `json:"column"`
	Label  string `json:"label"`
}

// Bucket describes one aging tranche column and its chart label.
type Bucket struct {
	Column string `json:"column"`
	Label  string `json:"label"`
}

// Layout is a required-column set a loaded table can satisfy.
type Layout struct {
	Name         string     `json:"name"`
	Categoricals []Category `json:"categoricals"`
	Buckets      []Bucket   `json:"buckets"`
}

// Categoricals lists the filter columns shared by every layout.
var Categoricals = []Category{
	{Column: ColumnCompany, Label: "Company"},
	{Column: ColumnCustomer, Label: "Customer"},
	{Column: ColumnProfitCenter, Label: "Profit center"},
	{Column: ColumnMarket, Label: "Market"},
	{Column: ColumnChannel, Label: "Channel"},
}

// FullLayout carries the nine aging buckets.
var FullLayout = Layout{
	Name:         "full",
	Categoricals: Categoricals,
	Buckets: []Bucket{
		{Column: BucketNotDue, Label: "Not due"},
		{Column: BucketDue30, Label: "Due 30"},
		{Column: BucketDue60, Label: "Due 60"},
		{Column: BucketDue90, Label: "Due 90"},
		{Column: BucketDue120, Label: "Due 120"},
		{Column: BucketDue180, Label: "Due 180"},
		{Column: BucketDue270, Label: "Due 270"},
		{Column: BucketDue360, Label: "Due 360"},
		{Column: BucketDueOver360, Label: "Over 360"},
	},
}

// NarrowLayout carries a single open amount instead of the tranches.
var NarrowLayout = Layout{
	Name:         "narrow",
	Categoricals: Categoricals,
	Buckets: []Bucket{
		{Column: BucketAmount, Label: "Amount"},
	},
}

// GroupableColumns are the columns a breakdown table may group by.
var GroupableColumns = []string{ColumnMarket, ColumnChannel, ColumnCustomer}

// Required returns every column the layout needs, categoricals first.
func (l Layout) Required() []string {
	cols := make([]string, 0, len(l.Categoricals)+len(l.Buckets))
	for _, c := range l.Categoricals {
		cols = append(cols, c.Column)
	}
	for _, b := range l.Buckets {
		cols = append(cols, b.Column)
	}
	return cols
}

// BucketColumns returns the bucket column names in layout order.
func (l Layout) BucketColumns() []string {
	cols := make([]string, len(l.Buckets))
	for i, b := range l.Buckets {
		cols[i] = b.Column
	}
	return cols
}

// HasBucket reports whether column is one of the layout's buckets.
func (l Layout) HasBucket(column string) bool {
	for _, b := range l.Buckets {
		if b.Column == column {
			return true
		}
	}
	return false
}

// BucketForLabel maps a chart label back to its bucket column.
func (l Layout) BucketForLabel(label string) (string, bool) {
	label = strings.TrimSpace(label)
	for _, b := range l.Buckets {
		if b.Label == label {
			return b.Column, true
		}
	}
	return "", false
}

// NumericColumn names the derived numeric column of a bucket.
func NumericColumn(bucket string) string {
	return NumericPrefix + bucket
}

// IsInternalColumn reports whether column was derived by the pipeline.
func IsInternalColumn(column string) bool {
	return strings.HasPrefix(column, NumericPrefix)
}

// IsCategorical reports whether column is one of the filter columns.
func IsCategorical(column string) bool {
	for _, c := range Categoricals {
		if c.Column == column {
			return true
		}
	}
	return false
}

// IsBucket reports whether column is a bucket of any layout.
func IsBucket(column string) bool {
	return FullLayout.HasBucket(column) || NarrowLayout.HasBucket(column)
}

// IsGroupable reports whether a breakdown may group by column.
func IsGroupable(column string) bool {
	for _, c := range GroupableColumns {
		if c == column {
			return true
		}
	}
	return false
}
