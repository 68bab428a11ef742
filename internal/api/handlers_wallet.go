package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wallet-insight/internal/service"
	"github.com/wallet-insight/internal/types"
)

// analyzeInputFromRequest reads the shared wallet query parameters.
func analyzeInputFromRequest(r *http.Request) service.AnalyzeInput {
	vars := mux.Vars(r)
	return service.AnalyzeInput{
		Address:  vars["address"],
		Limit:    types.ParseTxLimitMode(r.URL.Query().Get("limit")),
		Currency: r.URL.Query().Get("currency"),
	}
}

// handleWalletReport returns the full analysis report for an address.
func (s *Server) handleWalletReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.walletService.Analyze(r.Context(), analyzeInputFromRequest(r))
	if err != nil {
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// handleWalletLedger returns the priced ledger, as JSON or CSV.
func (s *Server) handleWalletLedger(w http.ResponseWriter, r *http.Request) {
	report, err := s.walletService.Analyze(r.Context(), analyzeInputFromRequest(r))
	if err != nil {
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		s.writeLedgerCSV(w, report)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ledger":   report.Ledger,
		"warnings": report.Warnings,
	})
}

// writeLedgerCSV streams the ledger as a CSV download.
func (s *Server) writeLedgerCSV(w http.ResponseWriter, report *service.AnalysisReport) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "ledger_"+report.Ledger.Address+".csv"))

	cw := csv.NewWriter(w)
	defer cw.Flush()

	_ = cw.Write([]string{"date", "direction", "amount_btc", "price_usd", "value_usd", "txid", "confirmed", "counterparty"})
	for _, e := range report.Ledger.Entries {
		_ = cw.Write([]string{
			e.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			string(e.Direction),
			strconv.FormatFloat(e.AmountBTC, 'f', 8, 64),
			strconv.FormatFloat(e.PriceUSD, 'f', 2, 64),
			strconv.FormatFloat(e.ValueUSD, 'f', 2, 64),
			e.TxID,
			strconv.FormatBool(e.Confirmed),
			e.Counterparty,
		})
	}
}

// handleWalletValuation returns the date-indexed valuation series.
func (s *Server) handleWalletValuation(w http.ResponseWriter, r *http.Request) {
	report, err := s.walletService.Analyze(r.Context(), analyzeInputFromRequest(r))
	if err != nil {
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"address":   report.Ledger.Address,
		"valuation": report.Valuation,
		"warnings":  report.Warnings,
	})
}

// handleWalletActivity returns the per-day activity aggregation.
func (s *Server) handleWalletActivity(w http.ResponseWriter, r *http.Request) {
	report, err := s.walletService.Analyze(r.Context(), analyzeInputFromRequest(r))
	if err != nil {
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"address":  report.Ledger.Address,
		"activity": report.Activity,
		"warnings": report.Warnings,
	})
}
