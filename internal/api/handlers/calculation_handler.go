package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/loader"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/report"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/service"
	"github.com/rs/zerolog/log"
)

// Multipart field names of the three input files.
const (
	FieldInventory = "inventory"
	FieldRatios    = "ratios"
	FieldMappings  = "mappings"
)

type CalculationHandler struct {
	service  *service.CalculationService
	defaults service.Params
}

func NewCalculationHandler(svc *service.CalculationService, defaults service.Params) *CalculationHandler {
	return &CalculationHandler{service: svc, defaults: defaults}
}

type calculateResponse struct {
	*service.Calculation
	Filter filterResponse `json:"filter"`
}

type filterResponse struct {
	Color    string `json:"color,omitempty"`
	HideZero bool   `json:"hide_zero"`
}

type remoteRequest struct {
	Source string `json:"source" binding:"required"`
	service.RemoteInputs
	SafetyFactor *float64 `json:"safety_factor"`
	ActiveColors []string `json:"active_colors"`
}

// GetDefaults returns the parameters applied when a request omits them.
func (h *CalculationHandler) GetDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"safety_factor": h.defaults.SafetyFactor,
		"active_colors": h.defaults.ActiveColors,
		"sources":       h.service.Sources(),
	})
}

// Calculate runs an allocation over three uploaded files.
func (h *CalculationHandler) Calculate(c *gin.Context) {
	calc, ok := h.calculateUpload(c)
	if !ok {
		return
	}
	h.respond(c, calc)
}

// CalculateRemote runs an allocation over files held in object storage or
// Drive.
func (h *CalculationHandler) CalculateRemote(c *gin.Context) {
	var req remoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := h.defaults
	if req.SafetyFactor != nil {
		params.SafetyFactor = *req.SafetyFactor
	}
	if len(req.ActiveColors) > 0 {
		params.ActiveColors = req.ActiveColors
	}

	calc, err := h.service.CalculateRemote(c.Request.Context(), req.Source, req.RemoteInputs, params)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respond(c, calc)
}

// Export runs an allocation over uploaded files and returns the result table
// as a download.
func (h *CalculationHandler) Export(c *gin.Context) {
	variant, err := report.ParseVariant(c.Query("variant"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	calc, ok := h.calculateUpload(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, parseFilter(c).Apply(calc.Results), variant, format); err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.FileName(variant, format)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// ClearCache drops memoized input tables.
func (h *CalculationHandler) ClearCache(c *gin.Context) {
	if err := h.service.ClearCache(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CalculationHandler) respond(c *gin.Context, calc *service.Calculation) {
	filter := parseFilter(c)
	filtered := *calc
	filtered.Results = filter.Apply(calc.Results)

	c.JSON(http.StatusOK, calculateResponse{
		Calculation: &filtered,
		Filter:      filterResponse{Color: filter.Color, HideZero: filter.HideZero},
	})
}

func (h *CalculationHandler) calculateUpload(c *gin.Context) (*service.Calculation, bool) {
	var in service.Inputs
	for _, f := range []struct {
		field string
		dst   *loader.Source
	}{
		{FieldInventory, &in.Inventory},
		{FieldRatios, &in.Ratios},
		{FieldMappings, &in.Mappings},
	} {
		header, err := c.FormFile(f.field)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s file is required", f.field)})
			return nil, false
		}
		src, err := readUpload(header)
		if err != nil {
			writeError(c, err)
			return nil, false
		}
		*f.dst = src
	}

	params, err := h.parseParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	calc, err := h.service.Calculate(c.Request.Context(), in, params)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return calc, true
}

func (h *CalculationHandler) parseParams(c *gin.Context) (service.Params, error) {
	params := h.defaults

	if raw := strings.TrimSpace(c.PostForm("safety_factor")); raw != "" {
		s, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return params, fmt.Errorf("invalid safety_factor %q", raw)
		}
		params.SafetyFactor = s
	}

	// Repeated active_colors fields and comma separated values are both accepted.
	var colors []string
	for _, v := range c.PostFormArray("active_colors") {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				colors = append(colors, part)
			}
		}
	}
	if len(colors) > 0 {
		params.ActiveColors = colors
	}
	return params, nil
}

func parseFilter(c *gin.Context) report.Filter {
	hideZero, _ := strconv.ParseBool(c.DefaultQuery("hide_zero", "false"))
	return report.Filter{
		Color:    strings.TrimSpace(c.Query("color")),
		HideZero: hideZero,
	}
}

func readUpload(header *multipart.FileHeader) (loader.Source, error) {
	f, err := header.Open()
	if err != nil {
		return loader.Source{}, fmt.Errorf("open upload %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return loader.Source{}, fmt.Errorf("read upload %s: %w", header.Filename, err)
	}
	return loader.Source{Name: header.Filename, Data: data}, nil
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if domain.IsInvalidInput(err) {
		status = http.StatusBadRequest
		log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("rejected calculation input")
	} else {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("calculation failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
