package ui

import (
	"context"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aging-dashboard/internal/model"
	"aging-dashboard/internal/session"
	"aging-dashboard/pkg/utils"
)

const agingCSV = "BUKRS_TXT,KUNNR_TXT,PRCTR,VKORG_TXT,VTWEG_TXT,NOT_DUE,DUE_30,DUE_60,DUE_90,DUE_120,DUE_180,DUE_270,DUE_360,DUE_OVER_360\n" +
	"ACME SA,A,1000,X,Retail,100,0,0,0,0,0,0,0,0\n" +
	"ACME SA,B,1000,Y,Retail,0,300,0,0,0,0,0,0,0\n"

func TestBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░", bar(0.5, 10))
	assert.Equal(t, "░░░░", bar(-1, 4))
	assert.Equal(t, "████", bar(2, 4))
	assert.Empty(t, bar(0.5, 0))
	assert.Equal(t, "25,0%", percent(0.25))
}

func TestNextGroupCycles(t *testing.T) {
	assert.Equal(t, model.ColumnMarket, nextGroup(""))
	assert.Equal(t, model.ColumnChannel, nextGroup(model.ColumnMarket))
	assert.Equal(t, model.ColumnCustomer, nextGroup(model.ColumnChannel))
	assert.Equal(t, model.ColumnMarket, nextGroup(model.ColumnCustomer))
	assert.Equal(t, "Market", groupLabel(model.ColumnMarket))
}

func TestSegmentForKey(t *testing.T) {
	cards := []model.Card{{Column: model.BucketNotDue, Label: "Not due"}, {Column: model.BucketDue30, Label: "Due 30"}}

	label, ok := segmentForKey('2', cards)
	assert.True(t, ok)
	assert.Equal(t, "Due 30", label)

	label, ok = segmentForKey('0', cards)
	assert.True(t, ok)
	assert.Empty(t, label)

	label, ok = segmentForKey('7', cards)
	assert.True(t, ok)
	assert.Empty(t, label)

	_, ok = segmentForKey('x', cards)
	assert.False(t, ok)
}

func TestChartRowsAndStatus(t *testing.T) {
	dash := &session.Dashboard{
		Config: model.NewConfig(),
		Cards:  []model.Card{{Column: model.BucketNotDue, Label: "Not due"}, {Column: model.BucketDue30, Label: "Due 30"}},
		Chart:  []model.Slice{{Column: model.BucketDue30, Label: "Due 30", Value: 10, Proportion: 1}},
	}
	rows := chartRows(dash)
	require.Len(t, rows, 1)
	assert.Equal(t, bucketColor(1), rows[0].Color)
	assert.Equal(t, strings.Repeat("█", barWidth), rows[0].Bar)
	assert.Equal(t, "no filters", statusLine(dash))

	dash.Config.Filters[model.ColumnCustomer] = "A"
	dash.Config.ActiveBucket = model.BucketDue30
	assert.Equal(t, "Customer=A, segment=DUE_30", statusLine(dash))
}

func newTestApp(t *testing.T) (*App, *session.Manager, string) {
	t.Helper()
	m := session.NewManager(session.Options{}, nil, nil, nil)
	info, err := m.Load(context.Background(), "aging.csv", strings.NewReader(agingCSV))
	require.NoError(t, err)

	a, err := New(m, info.ID, utils.NewOutputManager(t.TempDir()), nil)
	require.NoError(t, err)
	return a, m, info.ID
}

func press(a *App, r rune) {
	a.app.GetInputCapture()(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
}

func TestAppKeys(t *testing.T) {
	a, m, id := newTestApp(t)
	require.Len(t, a.filters, len(model.Categoricals))
	assert.Equal(t, 400.0, a.dash.GrandTotal)
	assert.Equal(t, 2, a.dash.FilteredRows)

	press(a, '2')
	info, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, model.BucketDue30, info.Config.ActiveBucket)
	assert.Equal(t, 1, a.dash.FilteredRows)

	press(a, '0')
	assert.Equal(t, 2, a.dash.FilteredRows)

	press(a, 'g')
	assert.Equal(t, model.ColumnChannel, a.group)
	require.Contains(t, a.dash.Breakdowns, model.ColumnChannel)

	// customer dropdown: All, A, B
	a.filters[1].SetCurrentOption(1)
	assert.Equal(t, 1, a.dash.FilteredRows)
	assert.Equal(t, 100.0, a.dash.GrandTotal)

	press(a, '1')
	press(a, 'r')
	info, err = m.Get(id)
	require.NoError(t, err)
	assert.Empty(t, info.Config.ActiveBucket)
	assert.Equal(t, model.NewSelection(), info.Config.Filters)
	idx, selected := a.filters[1].GetCurrentOption()
	assert.Zero(t, idx)
	assert.Equal(t, model.AllValues, selected)
	assert.Equal(t, 2, a.dash.FilteredRows)
}

func TestAppExport(t *testing.T) {
	a, _, _ := newTestApp(t)
	press(a, 'e')
	assert.FileExists(t, a.output.GetOutputFilePath("aging_filtered.csv"))
	assert.FileExists(t, a.output.GetOutputFilePath("aging_filtered.xlsx"))
	assert.Contains(t, a.footer.GetText(true), "aging_filtered.csv")
}
