package rpc

import (
	"net/http"

	"courseledger/core/events"
)

type eventsTailParams struct {
	After uint64 `json:"after,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type eventsTailResult struct {
	Events []events.JournalRecord `json:"events"`
}

func (s *Server) handleEventsTail(w http.ResponseWriter, req *RPCRequest) {
	var params eventsTailParams
	if len(req.Params) > 0 {
		if err := decodeParams(req, &params); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
			return
		}
	}
	if s.journal == nil {
		writeResult(w, req.ID, eventsTailResult{Events: []events.JournalRecord{}})
		return
	}
	records, err := s.journal.Tail(params.After, params.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to read journal", err.Error())
		return
	}
	if records == nil {
		records = []events.JournalRecord{}
	}
	writeResult(w, req.ID, eventsTailResult{Events: records})
}
