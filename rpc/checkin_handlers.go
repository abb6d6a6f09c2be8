package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"courseledger/native/checkin"
	"courseledger/observability"
)

type checkinSubmitParams struct {
	Caller    string `json:"caller"`
	Day       uint64 `json:"day"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

type checkinQueryParams struct {
	Caller string `json:"caller"`
}

type checkinSetParamsParams struct {
	BaseDailyReward    uint64 `json:"baseDailyReward"`
	PerDayBonus        uint64 `json:"perDayBonus"`
	MaxConsecutiveDays uint64 `json:"maxConsecutiveDays"`
}

type checkinSetAuthorizerParams struct {
	Authorizer string `json:"authorizer"`
}

type checkinRecordResult struct {
	Timestamp  int64  `json:"timestamp"`
	Experience uint64 `json:"experience"`
	Message    string `json:"message"`
}

type checkinSubmitResult struct {
	User string `json:"user"`
	Day  uint64 `json:"day"`
	checkinRecordResult
}

type checkinHistoryResult struct {
	User    string                `json:"user"`
	Count   int                   `json:"count"`
	Records []checkinRecordResult `json:"records"`
}

type checkinStatusResult struct {
	User       string `json:"user"`
	Day        uint64 `json:"day"`
	CheckedIn  bool   `json:"checkedIn"`
	Streak     uint64 `json:"streak"`
	Experience uint64 `json:"experience"`
	Records    uint64 `json:"records"`
}

type checkinParamsResult struct {
	BaseDailyReward    uint64 `json:"baseDailyReward"`
	PerDayBonus        uint64 `json:"perDayBonus"`
	MaxConsecutiveDays uint64 `json:"maxConsecutiveDays"`
}

type checkinAuthorizerResult struct {
	Authorizer string `json:"authorizer,omitempty"`
	Configured bool   `json:"configured"`
}

func checkinErrorCode(err error) (int, string) {
	switch {
	case errors.Is(err, checkin.ErrDuplicateCheckIn):
		return codeDuplicateCheckIn, "duplicate"
	case errors.Is(err, checkin.ErrFutureDate):
		return codeFutureDate, "future_date"
	case errors.Is(err, checkin.ErrInvalidAuthorization), errors.Is(err, checkin.ErrAuthorizerUnset):
		return codeInvalidAuth, "invalid_authorization"
	case errors.Is(err, checkin.ErrInvalidDay):
		return codeInvalidParams, "invalid_day"
	case errors.Is(err, checkin.ErrParamsInvalid), errors.Is(err, checkin.ErrAuthorizerInvalid):
		return codeInvalidParams, "invalid_config"
	default:
		return codeServerError, "internal"
	}
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return errors.New("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func (s *Server) handleCheckinSubmit(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params checkinSubmitParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	signature, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(params.Signature), "0x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid signature encoding", err.Error())
		return
	}
	record, err := s.node.CheckinSubmit(callerAddr, params.Day, params.Message, signature)
	if err != nil {
		code, reason := checkinErrorCode(err)
		observability.Checkin().RecordRejected(reason)
		writeError(w, http.StatusBadRequest, req.ID, code, "check-in rejected", err.Error())
		return
	}
	observability.Checkin().RecordAccepted(record.Experience)
	writeResult(w, req.ID, checkinSubmitResult{
		User: params.Caller,
		Day:  params.Day,
		checkinRecordResult: checkinRecordResult{
			Timestamp:  record.Timestamp,
			Experience: record.Experience,
			Message:    record.Message,
		},
	})
}

func (s *Server) handleCheckinHistory(w http.ResponseWriter, req *RPCRequest) {
	var params checkinQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	records, err := s.node.CheckinHistory(callerAddr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load history", err.Error())
		return
	}
	result := checkinHistoryResult{User: params.Caller, Count: len(records)}
	for _, record := range records {
		result.Records = append(result.Records, checkinRecordResult{
			Timestamp:  record.Timestamp,
			Experience: record.Experience,
			Message:    record.Message,
		})
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleCheckinStatus(w http.ResponseWriter, req *RPCRequest) {
	var params checkinQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	status, err := s.node.CheckinStatus(callerAddr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load status", err.Error())
		return
	}
	writeResult(w, req.ID, checkinStatusResult{
		User:       params.Caller,
		Day:        status.Day,
		CheckedIn:  status.CheckedIn,
		Streak:     status.Streak,
		Experience: status.Experience,
		Records:    status.Records,
	})
}

func (s *Server) handleCheckinParams(w http.ResponseWriter, req *RPCRequest) {
	params, err := s.node.CheckinParams()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load params", err.Error())
		return
	}
	writeResult(w, req.ID, checkinParamsResult{
		BaseDailyReward:    params.BaseDailyReward,
		PerDayBonus:        params.PerDayBonus,
		MaxConsecutiveDays: params.MaxConsecutiveDays,
	})
}

func (s *Server) handleCheckinAuthorizer(w http.ResponseWriter, req *RPCRequest) {
	authorizer, ok, err := s.node.CheckinAuthorizer()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load authorizer", err.Error())
		return
	}
	result := checkinAuthorizerResult{Configured: ok}
	if ok {
		result.Authorizer = formatAddress(authorizer)
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleCheckinSetParams(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params checkinSetParamsParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	update := checkin.Params{
		BaseDailyReward:    params.BaseDailyReward,
		PerDayBonus:        params.PerDayBonus,
		MaxConsecutiveDays: params.MaxConsecutiveDays,
	}
	if err := s.node.CheckinSetParams(update); err != nil {
		code, _ := checkinErrorCode(err)
		writeError(w, http.StatusBadRequest, req.ID, code, "failed to update params", err.Error())
		return
	}
	writeResult(w, req.ID, checkinParamsResult{
		BaseDailyReward:    update.BaseDailyReward,
		PerDayBonus:        update.PerDayBonus,
		MaxConsecutiveDays: update.MaxConsecutiveDays,
	})
}

func (s *Server) handleCheckinSetAuthorizer(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params checkinSetAuthorizerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	authorizer, err := decodeBech32(params.Authorizer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid authorizer address", err.Error())
		return
	}
	if err := s.node.CheckinSetAuthorizer(authorizer); err != nil {
		code, _ := checkinErrorCode(err)
		writeError(w, http.StatusBadRequest, req.ID, code, "failed to rotate authorizer", err.Error())
		return
	}
	writeResult(w, req.ID, checkinAuthorizerResult{Authorizer: params.Authorizer, Configured: true})
}
