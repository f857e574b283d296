package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aging-dashboard/internal/api/handler"
	"aging-dashboard/internal/model"
	"aging-dashboard/internal/pipeline"
	"aging-dashboard/internal/session"
	"aging-dashboard/internal/store"
	"aging-dashboard/pkg/router"
)

const header = "BUKRS_TXT,KUNNR_TXT,PRCTR,VKORG_TXT,VTWEG_TXT,NOT_DUE,DUE_30,DUE_60,DUE_90,DUE_120,DUE_180,DUE_270,DUE_360,DUE_OVER_360\n"

const sheet = header +
	"ACME SA,A,1000,X,Retail,100,0,0,0,0,0,0,0,0\n" +
	"ACME SA,B,1000,Y,Retail,0,50,0,0,0,0,0,0,0\n"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	reg := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := session.NewManager(session.Options{}, st, pipeline.NewMetrics(reg), nil)
	h := handler.NewDashboardHandler(mgr, st, 1<<20, logger)

	r := router.New(router.Options{Logger: logger})
	RegisterRoutes(r, h, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func upload(t *testing.T, srv *httptest.Server, name, content string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/v1/sessions", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func do(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestUploadMissingColumn(t *testing.T) {
	srv := newServer(t)
	bad := strings.Replace(sheet, "PRCTR,", "", 1)

	resp := upload(t, srv, "aging.csv", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body handler.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, "missing required columns: PRCTR", body.Error)
	assert.Equal(t, []string{"PRCTR"}, body.Missing)
}

func TestUploadUnreadable(t *testing.T) {
	srv := newServer(t)

	resp := upload(t, srv, "aging.xlsx", "not a workbook")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body handler.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, pipeline.ErrUnreadable.Error(), body.Error)
}

func TestDashboardFlow(t *testing.T) {
	srv := newServer(t)

	resp := upload(t, srv, "aging.csv", sheet)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created handler.UploadResponse
	decode(t, resp, &created)
	assert.Equal(t, 2, created.Rows)
	base := srv.URL + "/api/v1/sessions/" + created.SessionID

	// customer A
	resp = do(t, http.MethodPut, base+"/filters", handler.FilterRequest{Column: model.ColumnCustomer, Value: "A"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var opts []session.FilterOption
	decode(t, resp, &opts)
	assert.Equal(t, "A", opts[1].Selected)

	resp = do(t, http.MethodGet, base+"/dashboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dash session.Dashboard
	decode(t, resp, &dash)
	assert.Equal(t, 1, dash.FilteredRows)
	assert.Equal(t, 100.0, dash.Cards[0].Total)

	// chart click with no filters
	resp = do(t, http.MethodDelete, base+"/filters", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, http.MethodPost, base+"/segment", handler.SegmentRequest{Label: "Due 30"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var seg handler.SegmentResponse
	decode(t, resp, &seg)
	assert.Equal(t, model.BucketDue30, seg.ActiveBucket)

	resp = do(t, http.MethodGet, base+"/rows?limit=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page session.Page
	decode(t, resp, &page)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "B", page.Rows[0][model.ColumnCustomer])

	// an empty label clears the selection like an unknown one
	resp = do(t, http.MethodPost, base+"/segment", handler.SegmentRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cleared handler.SegmentResponse
	decode(t, resp, &cleared)
	assert.Empty(t, cleared.ActiveBucket)

	resp = do(t, http.MethodGet, base+"/rows", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &page)
	assert.Equal(t, 2, page.Total)

	resp = do(t, http.MethodPost, base+"/segment", handler.SegmentRequest{Label: "Due 30"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// export follows the selection
	resp = do(t, http.MethodGet, base+"/export.csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "aging_filtered.csv")
	records, err := csv.NewReader(resp.Body).ReadAll()
	resp.Body.Close()
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, h := range records[0] {
		assert.False(t, strings.HasPrefix(h, model.NumericPrefix))
	}

	resp = do(t, http.MethodGet, base+"/export.xlsx", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestValidationErrors(t *testing.T) {
	srv := newServer(t)
	resp := upload(t, srv, "aging.csv", sheet)
	var created handler.UploadResponse
	decode(t, resp, &created)
	base := srv.URL + "/api/v1/sessions/" + created.SessionID

	resp = do(t, http.MethodPut, base+"/filters", handler.FilterRequest{Column: model.ColumnCustomer})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, http.MethodPut, base+"/filters", handler.FilterRequest{Column: model.ColumnCustomer, Value: "Nobody"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, http.MethodGet, base+"/dashboard?format=thousands", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, http.MethodGet, base+"/dashboard?group=BUKRS_TXT", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, http.MethodGet, base+"/rows?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSessionLookup(t *testing.T) {
	srv := newServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/sessions/unknown/dashboard", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = upload(t, srv, "aging.csv", sheet)
	var created handler.UploadResponse
	decode(t, resp, &created)

	resp = do(t, http.MethodDelete, srv.URL+"/api/v1/sessions/"+created.SessionID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// closed sessions are still served from the history store
	resp = do(t, http.MethodGet, srv.URL+"/api/v1/sessions/"+created.SessionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rec store.SessionRecord
	decode(t, resp, &rec)
	assert.Equal(t, store.StatusClosed, rec.Status)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var records []store.SessionRecord
	decode(t, resp, &records)
	assert.Len(t, records, 1)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newServer(t)
	resp := upload(t, srv, "aging.csv", sheet)
	resp.Body.Close()

	resp = do(t, http.MethodGet, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, http.MethodGet, srv.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "aging_pipeline_rows_loaded_total 2")
}
