package handlers

import (
	"encoding/csv"
	"net/http"

	"github.com/AlexTLDR/guestlist/internal/rsvp"
)

// csvHeader returns the header row matching rsvp.ResponseRecord.Row.
func csvHeader(subEvents []string) []string {
	header := []string{"Timestamp", "Invite ID", "Name"}
	header = append(header, subEvents...)
	return append(header, "Party Size", "Guest Names", "Notes")
}

// writeCSVHeaders sets HTTP headers and writes the UTF-8 BOM
func writeCSVHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=rsvp-responses.csv")

	// Write UTF-8 BOM for Excel compatibility
	_, _ = w.Write([]byte{0xEF, 0xBB, 0xBF})
}

// HandleAdminDownloadCSV exports responses to CSV
func HandleAdminDownloadCSV(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := s.GetService().Responses(r.Context())
		if err != nil {
			writeError(s, w, r, err)
			return
		}

		subEvents := s.GetService().SubEvents()
		writeCSVHeaders(w)

		cw := csv.NewWriter(w)
		_ = cw.Write(csvHeader(subEvents))
		for _, rec := range records {
			_ = cw.Write(csvRow(rec, subEvents))
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			s.GetLogger().ErrorContext(r.Context(), "failed to write csv", "error", err)
		}
	}
}

func csvRow(rec rsvp.ResponseRecord, subEvents []string) []string {
	row := rec.Row(subEvents)
	if rec.Timestamp.IsZero() {
		row[0] = ""
	}
	return row
}
