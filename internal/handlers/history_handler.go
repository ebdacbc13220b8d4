package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/logger"
	"woodshop/internal/models"
	"woodshop/internal/pagination"
	"woodshop/internal/services"
)

// reportColumns is the fixed column order of the CSV export.
var reportColumns = []string{
	"id", "entityType", "entityId", "operation", "actorUsername",
	"timestamp", "changedFields", "ip", "note",
}

// HistoryHandler exposes the change history.
type HistoryHandler struct {
	auditService services.AuditServicer
	now          func() time.Time
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(auditService services.AuditServicer) *HistoryHandler {
	return &HistoryHandler{auditService: auditService, now: time.Now}
}

// ListEntries returns a filtered page of history entries.
// @Summary     List history entries
// @Description Newest first. from/to are calendar dates, to is inclusive.
// @Tags        history
// @Produce     json
// @Security    BearerAuth
// @Param       table     query string false "Entity type (orders, materials, ...)"
// @Param       recordId  query int    false "Entity ID"
// @Param       operation query string false "CREATE, UPDATE or DELETE"
// @Param       actorId   query int    false "Actor user ID"
// @Param       from      query string false "From date (YYYY-MM-DD)"
// @Param       to        query string false "To date (YYYY-MM-DD)"
// @Param       page      query int    false "Page number"
// @Param       pageSize  query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.AuditEntry] "History entries"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /history [get]
func (h *HistoryHandler) ListEntries(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.AuditFilter{EntityType: c.Query("table")}
	var err error
	if filter.EntityID, err = parseQueryID(c, "recordId"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.ActorID, err = parseQueryID(c, "actorId"); err != nil {
		respondWithError(c, err)
		return
	}
	if op := c.Query("operation"); op != "" {
		filter.Operation = models.AuditOperation(strings.ToUpper(op))
		if !filter.Operation.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid operation"))
			return
		}
	}
	if filter.From, filter.To, err = parseDateRange(c); err != nil {
		respondWithError(c, err)
		return
	}

	entries, err := h.auditService.ListEntries(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetEntry returns one history entry.
// @Summary     Get history entry
// @Tags        history
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Entry ID"
// @Success     200 {object} models.AuditEntry "History entry"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /history/{id} [get]
func (h *HistoryHandler) GetEntry(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	entry, err := h.auditService.GetEntry(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// EntityHistory returns every entry recorded for one row, oldest first.
// @Summary     History of one record
// @Tags        history
// @Produce     json
// @Security    BearerAuth
// @Param       table    path string true "Entity type"
// @Param       recordId path int    true "Entity ID"
// @Success     200 {array} models.AuditEntry "History entries"
// @Router      /history/entity/{table}/{recordId} [get]
func (h *HistoryHandler) EntityHistory(c *gin.Context) {
	id, err := parsePathID(c, "recordId")
	if err != nil {
		respondWithError(c, err)
		return
	}
	entries, err := h.auditService.EntityHistory(c.Param("table"), id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Statistics returns 30-day aggregates and a 7-day histogram.
// @Summary     History statistics
// @Tags        history
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.AuditStatistics "Statistics"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /history/statistics [get]
func (h *HistoryHandler) Statistics(c *gin.Context) {
	stats, err := h.auditService.Statistics(h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Report exports history entries in a date range as JSON or CSV.
// @Summary     Export history
// @Tags        history
// @Produce     json
// @Produce     text/csv
// @Security    BearerAuth
// @Param       from   query string false "From date (YYYY-MM-DD)"
// @Param       to     query string false "To date (YYYY-MM-DD)"
// @Param       format query string false "json (default) or csv"
// @Success     200 {array} models.AuditEntry "History entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /history/report [get]
func (h *HistoryHandler) Report(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "csv" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "format must be json or csv"))
		return
	}
	from, to, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entries, err := h.auditService.Report(from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if format == "json" {
		c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
		return
	}

	filename := fmt.Sprintf("history-%s.csv", h.now().UTC().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	if err := writeReportCSV(c.Writer, entries); err != nil {
		logger.Get().Errorw("failed to write history report", "error", err)
	}
}

// csvCell prefixes values a spreadsheet would evaluate as a formula.
func csvCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func writeReportCSV(w io.Writer, entries []models.AuditEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportColumns); err != nil {
		return err
	}
	for i := range entries {
		e := &entries[i]
		if err := cw.Write([]string{
			strconv.FormatUint(uint64(e.ID), 10),
			csvCell(e.EntityType),
			strconv.FormatUint(uint64(e.EntityID), 10),
			string(e.Operation),
			csvCell(e.ActorName()),
			e.CreatedAt.UTC().Format(time.RFC3339),
			csvCell(strings.Join(e.FieldList(), ";")),
			csvCell(e.IPAddress),
			csvCell(e.Note),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
