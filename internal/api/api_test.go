package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/metrics"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	inventoryCSV = "商品名称,可用数\n被套200*230-米白四季款,100\n床单240*250cm-米白四季款,500\n床笠150*200*30cm-米白四季款,500\n枕套（48*74cm一对）-米白四季款,80\n"
	ratiosCSV    = "【床单款】1.5米床套件，搭配200x230cm被套,0.6\n【床笠款】1.5米床套件，搭配200x230cm被套,40%\n【床单款】1.8米床套件，搭配200x230cm被套,0\n"
	mappingsCSV  = "SKU_ID,套件描述,颜色\nA1,【床单款】1.5米床套件，搭配200x230cm被套,米白四季款\nA2,【床笠款】1.5米床套件，搭配200x230cm被套,米白四季款\nA3,【床单款】1.8米床套件，搭配200x230cm被套,米白四季款\n"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() *gin.Engine {
	return NewRouter(&Services{
		Calculation: service.NewCalculationService(service.Options{}),
		Defaults:    service.Params{SafetyFactor: 0.3, ActiveColors: []string{"米白四季款"}},
		Metrics:     metrics.NewCollector(),
	}, RouterOptions{AllowedOrigins: []string{"*"}})
}

func multipartBody(t *testing.T, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for field, content := range files {
		part, err := w.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func allFiles() map[string]string {
	return map[string]string{
		"inventory": inventoryCSV,
		"ratios":    ratiosCSV,
		"mappings":  mappingsCSV,
	}
}

type calcBody struct {
	SafetyFactor float64 `json:"safety_factor"`
	Summary      struct {
		TotalSKUs int `json:"total_skus"`
		TotalSets int `json:"total_sets"`
	} `json:"summary"`
	Results []struct {
		SKUID         string `json:"sku_id"`
		SellableStock int    `json:"sellable_stock"`
		Explanation   string `json:"explanation"`
	} `json:"results"`
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCalculate(t *testing.T) {
	body, contentType := multipartBody(t, allFiles(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got calcBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.InDelta(t, 0.3, got.SafetyFactor, 1e-12)
	require.Len(t, got.Results, 3)
	assert.Equal(t, 14, got.Results[0].SellableStock)
	assert.Equal(t, 9, got.Results[1].SellableStock)
	assert.Equal(t, "ratio is 0", got.Results[2].Explanation)
	assert.Equal(t, 3, got.Summary.TotalSKUs)
	assert.Equal(t, 23, got.Summary.TotalSets)
}

func TestCalculate_HideZeroKeepsSummary(t *testing.T) {
	body, contentType := multipartBody(t, allFiles(), map[string]string{"safety_factor": "1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate?hide_zero=true", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got calcBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got.Results, 2)
	assert.Equal(t, 3, got.Summary.TotalSKUs)
	assert.Equal(t, 80, got.Summary.TotalSets)
}

func TestCalculate_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		fields map[string]string
	}{
		{"missing file", map[string]string{"inventory": inventoryCSV}, nil},
		{"safety factor out of range", allFiles(), map[string]string{"safety_factor": "0.01"}},
		{"safety factor not a number", allFiles(), map[string]string{"safety_factor": "high"}},
		{"missing column", map[string]string{
			"inventory": "商品名称,库存\nx,1\n",
			"ratios":    ratiosCSV,
			"mappings":  mappingsCSV,
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.files, tt.fields)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate", body)
			req.Header.Set("Content-Type", contentType)

			w := httptest.NewRecorder()
			newTestRouter().ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestExport_CSV(t *testing.T) {
	body, contentType := multipartBody(t, allFiles(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate/export?variant=detailed&format=csv", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "set_inventory_detailed.csv")

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "explanation", records[0][4])
	assert.Equal(t, "14", records[1][3])
}

func TestExport_BadVariant(t *testing.T) {
	body, contentType := multipartBody(t, allFiles(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate/export?variant=everything", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalculateRemote_UnknownSource(t *testing.T) {
	payload := `{"source":"s3","inventory":"a.csv","ratios":"b.csv","mappings":"c.csv"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate/remote", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDefaultsAndCache(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/defaults", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "米白四季款")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/cache", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.False(t, all)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
