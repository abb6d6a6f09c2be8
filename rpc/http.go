package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"courseledger/config"
	"courseledger/core"
	"courseledger/core/events"
	"courseledger/crypto"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB

	// EnvRPCToken names the environment variable carrying the static bearer
	// token accepted for mutating and administrative methods.
	EnvRPCToken = "CRS_RPC_TOKEN"
)

const (
	codeParseError       = -32700
	codeInvalidRequest   = -32600
	codeMethodNotFound   = -32601
	codeInvalidParams    = -32602
	codeUnauthorized     = -32001
	codeServerError      = -32000
	codeDuplicateCheckIn = -32010
	codeFutureDate       = -32011
	codeInvalidAuth      = -32012
	codeRateLimited      = -32020
)

type Server struct {
	node    *core.Node
	journal *events.Journal
	logger  *slog.Logger

	authToken   string
	jwtSecret   []byte
	jwtIssuer   string
	jwtAudience string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewServer constructs the JSON-RPC server for the supplied node. The journal
// may be nil; the events_tail method then reports an empty stream.
func NewServer(node *core.Node, journal *events.Journal, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	server := &Server{
		node:      node,
		journal:   journal,
		logger:    logger,
		authToken: strings.TrimSpace(os.Getenv(EnvRPCToken)),
		limiters:  make(map[string]*rate.Limiter),
		limit:     rate.Limit(2),
		burst:     20,
	}
	if cfg != nil {
		server.jwtSecret = []byte(strings.TrimSpace(cfg.Auth.JWTSecret))
		server.jwtIssuer = strings.TrimSpace(cfg.Auth.JWTIssuer)
		server.jwtAudience = strings.TrimSpace(cfg.Auth.JWTAudience)
		if cfg.RateLimit.RequestsPerMinute > 0 {
			server.limit = rate.Limit(cfg.RateLimit.RequestsPerMinute / 60.0)
		}
		if cfg.RateLimit.Burst > 0 {
			server.burst = cfg.RateLimit.Burst
		}
	}
	return server
}

// Handler returns the HTTP handler serving the JSON-RPC endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return mux
}

// Start serves the JSON-RPC endpoint on addr and blocks.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting JSON-RPC server", "addr", addr)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}
	if !s.allow(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "rate limit exceeded", nil)
		return
	}
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	var req RPCRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	switch req.Method {
	case "checkin_submit":
		s.handleCheckinSubmit(w, r, &req)
	case "checkin_history":
		s.handleCheckinHistory(w, &req)
	case "checkin_status":
		s.handleCheckinStatus(w, &req)
	case "checkin_params":
		s.handleCheckinParams(w, &req)
	case "checkin_authorizer":
		s.handleCheckinAuthorizer(w, &req)
	case "checkin_setParams":
		s.handleCheckinSetParams(w, r, &req)
	case "checkin_setAuthorizer":
		s.handleCheckinSetAuthorizer(w, r, &req)
	case "courses_issue":
		s.handleCoursesIssue(w, r, &req)
	case "courses_get":
		s.handleCoursesGet(w, &req)
	case "courses_listByOwner":
		s.handleCoursesListByOwner(w, &req)
	case "courses_count":
		s.handleCoursesCount(w, &req)
	case "events_tail":
		s.handleEventsTail(w, &req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method), nil)
	}
}

// --- authentication ---

type authError struct {
	Code    int
	Message string
	Data    interface{}
}

func (s *Server) requireAuth(r *http.Request) *authError {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if header == "" || token == header {
		return &authError{Code: codeUnauthorized, Message: "bearer token required"}
	}
	if len(s.jwtSecret) > 0 {
		if err := s.validateJWT(token); err != nil {
			return &authError{Code: codeUnauthorized, Message: "invalid token", Data: err.Error()}
		}
		return nil
	}
	if s.authToken == "" {
		return &authError{Code: codeUnauthorized, Message: "rpc authentication not configured"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &authError{Code: codeUnauthorized, Message: "invalid token"}
	}
	return nil
}

func (s *Server) validateJWT(tokenString string) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithLeeway(2 * time.Minute),
	}
	if s.jwtIssuer != "" {
		options = append(options, jwt.WithIssuer(s.jwtIssuer))
	}
	if s.jwtAudience != "" {
		options = append(options, jwt.WithAudience(s.jwtAudience))
	}
	_, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, options...)
	return err
}

// --- rate limiting ---

func (s *Server) allow(client string) bool {
	s.mu.Lock()
	limiter, ok := s.limiters[client]
	if !ok {
		limiter = rate.NewLimiter(s.limit, s.burst)
		s.limiters[client] = limiter
	}
	s.mu.Unlock()
	return limiter.Allow()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// --- shared helpers ---

func decodeBech32(value string) ([20]byte, error) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return out, err
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

func formatAddress(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.CRSPrefix, addr[:]).String()
}
