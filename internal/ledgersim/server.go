package ledgersim

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aptos-labs/aptos-go-sdk/bcs"
	"github.com/gorilla/mux"
	aptos "github.com/sidkris/aptos-transfer"
	"github.com/sidkris/aptos-transfer/api"
)

// MaxWaitByHash bounds how long a wait_by_hash request holds on to a pending transaction
const MaxWaitByHash = time.Second

const balanceFunction = "0x1::coin::balance"

// Server is the REST front of a Ledger
type Server struct {
	ledger *Ledger
}

// NewServer wraps ledger
func NewServer(ledger *Ledger) *Server {
	return &Server{ledger: ledger}
}

// Router serves the node API under /v1 and the faucet's /mint
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.observe)

	node := router.PathPrefix("/v1").Subrouter()
	node.HandleFunc("", s.Info).Methods(http.MethodGet)
	node.HandleFunc("/", s.Info).Methods(http.MethodGet)
	node.HandleFunc("/-/healthy", s.HealthCheck).Methods(http.MethodGet)
	node.HandleFunc("/accounts/{address}", s.Account).Methods(http.MethodGet)
	node.HandleFunc("/view", s.View).Methods(http.MethodPost)
	node.HandleFunc("/estimate_gas_price", s.EstimateGasPrice).Methods(http.MethodGet)
	node.HandleFunc("/transactions/simulate", s.Simulate).Methods(http.MethodPost)
	node.HandleFunc("/transactions", s.SubmitTransaction).Methods(http.MethodPost)
	node.HandleFunc("/transactions/by_hash/{hash}", s.TransactionByHash).Methods(http.MethodGet)
	node.HandleFunc("/transactions/wait_by_hash/{hash}", s.WaitTransactionByHash).Methods(http.MethodGet)

	router.HandleFunc("/mint", s.Mint).Methods(http.MethodPost)
	return router
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(aptos.LedgerVersionHeader, strconv.FormatUint(s.ledger.Version(), 10))
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.ledger.config.Logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, errorCode string, message string) {
	s.writeJSONResponse(w, status, api.Error{Message: message, ErrorCode: errorCode})
}

func (s *Server) writeRejection(w http.ResponseWriter, err error) {
	if validation, ok := err.(*ValidationError); ok {
		code := validation.VmErrorCode()
		s.writeJSONResponse(w, http.StatusBadRequest, api.Error{
			Message:     validation.Error(),
			ErrorCode:   api.ErrorCodeVmError,
			VmErrorCode: &code,
		})
		return
	}
	s.writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidInput, err.Error())
}

// Info serves GET /v1
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	version := s.ledger.Version()
	now := s.ledger.config.Now()
	s.writeJSONResponse(w, http.StatusOK, api.NodeInfo{
		ChainId:         s.ledger.ChainId(),
		Epoch:           1,
		LedgerVersion:   api.U64(version),
		LedgerTimestamp: api.U64(now.UnixMicro()),
		NodeRole:        "full_node",
		BlockHeight:     api.U64(version),
	})
}

// HealthCheck serves GET /v1/-/healthy.  The simulated ledger is always current, so duration_secs always passes.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("duration_secs"); raw != "" {
		if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
			s.writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidInput, "invalid duration_secs "+raw)
			return
		}
	}
	s.writeJSONResponse(w, http.StatusOK, api.HealthCheckResponse{Message: "aptos-node:ok"})
}

// Account serves GET /v1/accounts/{address}
func (s *Server) Account(w http.ResponseWriter, r *http.Request) {
	address, ok := s.parseAddress(w, mux.Vars(r)["address"])
	if !ok {
		return
	}
	sequenceNumber, authKey, exists := s.ledger.Account(address)
	if !exists {
		s.accountNotFound(w, address)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, aptos.AccountInfo{
		SequenceNumberStr:    strconv.FormatUint(sequenceNumber, 10),
		AuthenticationKeyHex: authKey.ToHex(),
	})
}

// View serves POST /v1/view for the AptosCoin balance function only
func (s *Server) View(w http.ResponseWriter, r *http.Request) {
	var request api.ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidInput, "invalid view request: "+err.Error())
		return
	}
	if request.Function != balanceFunction || len(request.TypeArguments) != 1 || request.TypeArguments[0] != aptos.AptosCoinTypeTag.String() {
		s.writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidInput, "unsupported view function "+request.Function)
		return
	}
	if len(request.Arguments) != 1 {
		s.writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidInput, "expected one argument")
		return
	}
	text, _ := request.Arguments[0].(string)
	address, ok := s.parseAddress(w, text)
	if !ok {
		return
	}
	// unknown accounts hold nothing, as on a node
	balance, _ := s.ledger.Balance(address)
	s.writeJSONResponse(w, http.StatusOK, []string{strconv.FormatUint(balance, 10)})
}

// EstimateGasPrice serves GET /v1/estimate_gas_price
func (s *Server) EstimateGasPrice(w http.ResponseWriter, r *http.Request) {
	price := s.ledger.config.GasUnitPrice
	s.writeJSONResponse(w, http.StatusOK, api.GasEstimate{
		DeprioritizedGasEstimate: price,
		GasEstimate:              price,
		PrioritizedGasEstimate:   price + price/2,
	})
}

// Simulate serves POST /v1/transactions/simulate
func (s *Server) Simulate(w http.ResponseWriter, r *http.Request) {
	signedTxn, ok := s.readSignedTransaction(w, r)
	if !ok {
		return
	}
	result, err := s.ledger.Simulate(signedTxn)
	if err != nil {
		s.ledger.config.Logger.Info().Err(err).Msg("Simulation rejected")
		s.writeRejection(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, []*api.UserTransaction{result})
}

// SubmitTransaction serves POST /v1/transactions
func (s *Server) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	signedTxn, ok := s.readSignedTransaction(w, r)
	if !ok {
		return
	}
	pending, err := s.ledger.Submit(signedTxn)
	if err != nil {
		s.ledger.config.Logger.Info().Err(err).Str("sender", signedTxn.Transaction.Sender.String()).Msg("Transaction rejected")
		s.writeRejection(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusAccepted, pending)
}

// TransactionByHash serves GET /v1/transactions/by_hash/{hash}
func (s *Server) TransactionByHash(w http.ResponseWriter, r *http.Request) {
	hash := strings.ToLower(mux.Vars(r)["hash"])
	txn, ok := s.ledger.Transaction(hash)
	if !ok {
		s.writeError(w, http.StatusNotFound, api.ErrorCodeTransactionNotFound, "Transaction not found by Transaction hash("+hash+")")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, txn)
}

// WaitTransactionByHash serves GET /v1/transactions/wait_by_hash/{hash}, holding the request while the transaction
// is pending, up to MaxWaitByHash
func (s *Server) WaitTransactionByHash(w http.ResponseWriter, r *http.Request) {
	hash := strings.ToLower(mux.Vars(r)["hash"])
	if due := s.ledger.CommitDueAt(hash); !due.IsZero() {
		wait := due.Sub(s.ledger.config.Now())
		if wait > MaxWaitByHash {
			wait = MaxWaitByHash
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-r.Context().Done():
			case <-timer.C:
			}
			timer.Stop()
		}
	}
	s.TransactionByHash(w, r)
}

// Mint serves the faucet's POST /mint?amount=&address=
func (s *Server) Mint(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	amount, err := strconv.ParseUint(query.Get("amount"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidInput, "invalid amount "+query.Get("amount"))
		return
	}
	address, ok := s.parseAddress(w, query.Get("address"))
	if !ok {
		return
	}
	hash := s.ledger.Mint(address, amount)
	s.writeJSONResponse(w, http.StatusOK, []string{hash})
}

func (s *Server) parseAddress(w http.ResponseWriter, text string) (address aptos.AccountAddress, ok bool) {
	if err := address.ParseStringRelaxed(text); err != nil {
		s.writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidInput, "invalid address "+text)
		return address, false
	}
	return address, true
}

func (s *Server) accountNotFound(w http.ResponseWriter, address aptos.AccountAddress) {
	s.writeError(w, http.StatusNotFound, api.ErrorCodeAccountNotFound,
		"Account not found by Address("+address.String()+") and Ledger version("+strconv.FormatUint(s.ledger.Version(), 10)+")")
}

func (s *Server) readSignedTransaction(w http.ResponseWriter, r *http.Request) (*aptos.SignedTransaction, bool) {
	if contentType := r.Header.Get("Content-Type"); contentType != aptos.ContentTypeAptosSignedTxnBcs {
		s.writeError(w, http.StatusUnsupportedMediaType, api.ErrorCodeInvalidInput, "unsupported content type "+contentType)
		return nil, false
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidInput, err.Error())
		return nil, false
	}
	signedTxn := &aptos.SignedTransaction{}
	if err = bcs.Deserialize(signedTxn, body); err != nil {
		s.writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidInput, "failed to deserialize signed transaction: "+err.Error())
		return nil, false
	}
	return signedTxn, true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// observe logs and counts every request by route template
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}
		s.ledger.config.Metrics.ObserveRequest(route, strconv.Itoa(recorder.status))
		s.ledger.config.Logger.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", recorder.status).
			Dur("elapsed", time.Since(start)).
			Msg("Request served")
	})
}
