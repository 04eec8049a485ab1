package main

import (
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/mvalderas/lendbook/pkg/cache"
	"github.com/mvalderas/lendbook/pkg/ledger"
	"github.com/mvalderas/lendbook/pkg/models"
	"github.com/mvalderas/lendbook/pkg/store"
)

// Server holds the ledger instance.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage // kept so tests and main can close it
	logger  *slog.Logger
}

func NewServer(s store.Storage, c cache.Cache, logger *slog.Logger) *Server {
	return &Server{
		ledger:  ledger.NewLedger(s, c, logger),
		storage: s,
		logger:  logger,
	}
}

// Router wires all API routes.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/debtors", s.listDebtorsHandler).Methods("GET")
	router.HandleFunc("/debtors", s.createDebtorHandler).Methods("POST")
	router.HandleFunc("/debtors/{id}", s.getDebtorHandler).Methods("GET")
	router.HandleFunc("/debtors/{id}/loans", s.listDebtorLoansHandler).Methods("GET")

	router.HandleFunc("/loans", s.listLoansHandler).Methods("GET")
	router.HandleFunc("/loans", s.createLoanHandler).Methods("POST")
	router.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	router.HandleFunc("/loans/{id}/statement", s.statementHandler).Methods("GET")
	router.HandleFunc("/loans/{id}/payments", s.listPaymentsHandler).Methods("GET")
	router.HandleFunc("/loans/{id}/payments", s.recordPaymentHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/finalize", s.finalizeLoanHandler).Methods("POST")

	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// mapError translates core errors into HTTP statuses: missing records are
// 404, validation failures 422, lifecycle violations and write conflicts
// 409, everything else 500.
func mapError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrMissingLoan), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrState), errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) createDebtorHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	debtor, err := s.ledger.RegisterDebtor(req.Name, req.Phone, req.Notes)
	if err != nil {
		s.logger.Error("failed to register debtor", "error", err)
		writeError(w, mapError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, debtor)
}

func (s *Server) getDebtorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid debtor ID"))
		return
	}
	debtor, err := s.ledger.GetDebtor(id)
	if err != nil {
		writeError(w, mapError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, debtor)
}

func (s *Server) listDebtorsHandler(w http.ResponseWriter, r *http.Request) {
	debtors, err := s.ledger.GetAllDebtors()
	if err != nil {
		writeError(w, mapError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, debtors)
}

func (s *Server) listDebtorLoansHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid debtor ID"))
		return
	}
	loans, err := s.ledger.GetLoansForDebtor(id)
	if err != nil {
		writeError(w, mapError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DebtorID     uuid.UUID        `json:"debtor_id"`
		Principal    decimal.Decimal  `json:"principal"`
		PeriodicRate decimal.Decimal  `json:"periodic_rate"`
		Frequency    models.Frequency `json:"frequency"`
		Indefinite   bool             `json:"indefinite"`
		TermPeriods  int              `json:"term_periods"`
		StartDate    civil.Date       `json:"start_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	principal, err := models.ToMinor(req.Principal)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	loan, err := s.ledger.RegisterLoan(ledger.LoanInput{
		DebtorID:     req.DebtorID,
		Principal:    principal,
		PeriodicRate: req.PeriodicRate,
		Frequency:    req.Frequency,
		Indefinite:   req.Indefinite,
		TermPeriods:  req.TermPeriods,
		StartDate:    req.StartDate,
	})
	if err != nil {
		s.logger.Error("failed to register loan", "error", err)
		writeError(w, mapError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid loan ID"))
		return
	}
	loan, err := s.ledger.GetLoan(id)
	if err != nil {
		writeError(w, mapError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.ledger.GetAllLoans()
	if err != nil {
		writeError(w, mapError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

func (s *Server) statementHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid loan ID"))
		return
	}

	asOf := civil.DateOf(time.Now())
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		asOf, err = civil.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	st, err := s.ledger.Statement(r.Context(), id, asOf)
	if err != nil {
		writeError(w, mapError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) listPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid loan ID"))
		return
	}
	payments, err := s.ledger.GetPaymentsForLoan(id)
	if err != nil {
		writeError(w, mapError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) recordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid loan ID"))
		return
	}

	var req struct {
		Amount      decimal.Decimal    `json:"amount"`
		Type        models.PaymentType `json:"type"`
		PaymentDate civil.Date         `json:"payment_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	amount, err := models.ToMinor(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !req.PaymentDate.IsValid() {
		writeError(w, http.StatusBadRequest, errors.New("payment_date is required"))
		return
	}

	loan, payment, err := s.ledger.RecordPayment(id, amount, req.Type, req.PaymentDate)
	if err != nil {
		s.logger.Error("failed to record payment", "loan_id", id, "error", err)
		writeError(w, mapError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"loan":    loan,
		"payment": payment,
	})
}

func (s *Server) finalizeLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid loan ID"))
		return
	}

	var req struct {
		AsOf civil.Date `json:"as_of"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !req.AsOf.IsValid() {
		writeError(w, http.StatusBadRequest, errors.New("as_of is required"))
		return
	}

	loan, closeout, err := s.ledger.FinalizeLoan(id, req.AsOf)
	if err != nil {
		s.logger.Error("failed to finalize loan", "loan_id", id, "error", err)
		writeError(w, mapError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"loan":     loan,
		"closeout": closeout,
	})
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sqliteStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logger.Error("failed to initialize SQLite store", "error", err)
		os.Exit(1)
	}
	defer sqliteStore.Close()

	var statementCache cache.Cache
	if cfg.RedisAddr != "" {
		statementCache = cache.NewRedisCache(cfg.RedisAddr, cfg.CacheTTL)
		logger.Info("using redis statement cache", "addr", cfg.RedisAddr)
	} else {
		statementCache = cache.NewMemoryCache()
	}

	server := NewServer(sqliteStore, statementCache, logger)

	logger.Info("server starting", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, server.Router()); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
