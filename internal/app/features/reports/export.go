// internal/app/features/reports/export.go
package reports

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/policy/reportpolicy"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const sheet = "Sheet1"

func (h *Handler) loadRows(w http.ResponseWriter, r *http.Request) ([]progressRow, bool) {
	scope := reportpolicy.CanViewGroupProgress(r)
	if !scope.CanView {
		uierrors.RenderForbidden(w, r, "Only leaders can export group progress.")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	rows, err := h.groupProgress(ctx, scope.GroupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "build group progress failed", err, "", "")
		return nil, false
	}
	return rows, true
}

func filename(ext string) string {
	return fmt.Sprintf("group-progress-%s.%s", time.Now().UTC().Format(dateLayout), ext)
}

// ServeGroupProgressXLSX handles GET /reports/group-progress.xlsx.
func (h *Handler) ServeGroupProgressXLSX(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.loadRows(w, r)
	if !ok {
		return
	}

	f, err := workbook(rows)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "build workbook failed", err, "", "")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename("xlsx")+`"`)
	if err := f.Write(w); err != nil {
		h.Log.Warn("write workbook failed", zap.Error(err))
	}
}

// workbook lays out the rows under a bold header. Counts are written as
// numbers so spreadsheets can sort and sum them.
func workbook(rows []progressRow) (*excelize.File, error) {
	f := excelize.NewFile()

	hdr := make([]interface{}, len(header))
	for i, v := range header {
		hdr[i] = v
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return nil, err
	}

	for i, p := range rows {
		rec := p.record()
		vals := []interface{}{rec[0], rec[1], rec[2], rec[3], p.Completed, p.Percent, rec[6], rec[7]}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(sheet, "A", "C", 28); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "D", "H", 16); err != nil {
		return nil, err
	}
	return f, nil
}

// ServeGroupProgressCSV handles GET /reports/group-progress.csv with the
// same columns as the workbook.
func (h *Handler) ServeGroupProgressCSV(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.loadRows(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename("csv")+`"`)

	cw := csv.NewWriter(w)
	_ = cw.Write(header)
	for _, p := range rows {
		_ = cw.Write(p.record())
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Log.Warn("write csv failed", zap.Error(err))
	}
}
