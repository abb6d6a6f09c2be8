package rpc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"courseledger/core"
	"courseledger/core/events"
	"courseledger/crypto"
	"courseledger/native/checkin"
	"courseledger/storage"
)

const testToken = "rpc-test-token"

// A day comfortably in the past so submissions never trip the future-date
// guard against the real clock.
var testDay = uint64(checkin.DaySeconds) * 19_700

type testHarness struct {
	server        *httptest.Server
	node          *core.Node
	authorizerKey *crypto.PrivateKey
	userKey       *crypto.PrivateKey
	user          [20]byte
	userBech32    string
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	t.Setenv(EnvRPCToken, testToken)

	authorizerKey, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate authorizer key: %v", err)
	}
	userKey, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate user key: %v", err)
	}
	var authorizer, user [20]byte
	copy(authorizer[:], authorizerKey.PubKey().Address().Bytes())
	copy(user[:], userKey.PubKey().Address().Bytes())

	node := core.NewNode(storage.NewMemDB(), events.NoopEmitter{})
	if err := node.Bootstrap(authorizer, checkin.DefaultParams()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	rpcServer := NewServer(node, nil, nil, nil)
	httpServer := httptest.NewServer(rpcServer.Handler())
	t.Cleanup(httpServer.Close)

	return &testHarness{
		server:        httpServer,
		node:          node,
		authorizerKey: authorizerKey,
		userKey:       userKey,
		user:          user,
		userBech32:    formatAddress(user),
	}
}

func (h *testHarness) call(t *testing.T, token, method string, params interface{}) *RPCResponse {
	t.Helper()
	encoded, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	payload, err := json.Marshal(map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"method":  method,
		"params":  []json.RawMessage{encoded},
		"id":      1,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, h.server.URL, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var decoded RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return &decoded
}

func (h *testHarness) submitParams(t *testing.T, day uint64, message string) checkinSubmitParams {
	t.Helper()
	signature, err := checkin.SignAttestation(h.authorizerKey, h.user, day, message)
	if err != nil {
		t.Fatalf("sign attestation: %v", err)
	}
	return checkinSubmitParams{
		Caller:    h.userBech32,
		Day:       day,
		Message:   message,
		Signature: hex.EncodeToString(signature),
	}
}

func resultInto(t *testing.T, resp *RPCResponse, out interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected rpc error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	encoded, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("re-encode result: %v", err)
	}
	if err := json.Unmarshal(encoded, out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

func TestCheckinSubmitOverRPC(t *testing.T) {
	h := newHarness(t)

	resp := h.call(t, testToken, "checkin_submit", h.submitParams(t, testDay, "present"))
	var submitted checkinSubmitResult
	resultInto(t, resp, &submitted)
	if submitted.User != h.userBech32 || submitted.Day != testDay {
		t.Fatalf("unexpected submit result %+v", submitted)
	}
	if submitted.Experience != 10 {
		t.Fatalf("expected base reward 10, got %d", submitted.Experience)
	}

	resp = h.call(t, "", "checkin_history", checkinQueryParams{Caller: h.userBech32})
	var history checkinHistoryResult
	resultInto(t, resp, &history)
	if history.Count != 1 || history.Records[0].Message != "present" {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestCheckinSubmitDuplicateRejected(t *testing.T) {
	h := newHarness(t)
	params := h.submitParams(t, testDay, "present")

	if resp := h.call(t, testToken, "checkin_submit", params); resp.Error != nil {
		t.Fatalf("first submit failed: %+v", resp.Error)
	}
	resp := h.call(t, testToken, "checkin_submit", params)
	if resp.Error == nil || resp.Error.Code != codeDuplicateCheckIn {
		t.Fatalf("expected duplicate error %d, got %+v", codeDuplicateCheckIn, resp.Error)
	}
}

func TestCheckinSubmitRequiresBearerToken(t *testing.T) {
	h := newHarness(t)
	params := h.submitParams(t, testDay, "present")

	resp := h.call(t, "", "checkin_submit", params)
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized error %d, got %+v", codeUnauthorized, resp.Error)
	}
	resp = h.call(t, "wrong-token", "checkin_submit", params)
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized error for bad token, got %+v", resp.Error)
	}

	// The rejected submissions must not have left state behind.
	resp = h.call(t, "", "checkin_history", checkinQueryParams{Caller: h.userBech32})
	var history checkinHistoryResult
	resultInto(t, resp, &history)
	if history.Count != 0 {
		t.Fatalf("unauthorized submit mutated state: %+v", history)
	}
}

func TestCheckinSubmitForeignSignatureRejected(t *testing.T) {
	h := newHarness(t)
	params := h.submitParams(t, testDay, "present")
	signature, err := checkin.SignAttestation(h.userKey, h.user, testDay, "present")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	params.Signature = hex.EncodeToString(signature)

	resp := h.call(t, testToken, "checkin_submit", params)
	if resp.Error == nil || resp.Error.Code != codeInvalidAuth {
		t.Fatalf("expected invalid authorization error %d, got %+v", codeInvalidAuth, resp.Error)
	}
}

func TestCheckinStatusAndParamsQueries(t *testing.T) {
	h := newHarness(t)
	if resp := h.call(t, testToken, "checkin_submit", h.submitParams(t, testDay, "present")); resp.Error != nil {
		t.Fatalf("submit failed: %+v", resp.Error)
	}

	resp := h.call(t, "", "checkin_status", checkinQueryParams{Caller: h.userBech32})
	var status checkinStatusResult
	resultInto(t, resp, &status)
	if status.Experience != 10 || status.Records != 1 {
		t.Fatalf("unexpected status %+v", status)
	}

	resp = h.call(t, "", "checkin_params", struct{}{})
	var params checkinParamsResult
	resultInto(t, resp, &params)
	if params.BaseDailyReward != 10 || params.PerDayBonus != 5 || params.MaxConsecutiveDays != 7 {
		t.Fatalf("unexpected params %+v", params)
	}

	resp = h.call(t, "", "checkin_authorizer", struct{}{})
	var authorizer checkinAuthorizerResult
	resultInto(t, resp, &authorizer)
	if !authorizer.Configured || authorizer.Authorizer == "" {
		t.Fatalf("unexpected authorizer result %+v", authorizer)
	}
}

func TestAdminMethodsOverRPC(t *testing.T) {
	h := newHarness(t)

	resp := h.call(t, testToken, "checkin_setParams", checkinSetParamsParams{
		BaseDailyReward:    20,
		PerDayBonus:        2,
		MaxConsecutiveDays: 14,
	})
	var params checkinParamsResult
	resultInto(t, resp, &params)
	if params.BaseDailyReward != 20 {
		t.Fatalf("unexpected params result %+v", params)
	}

	resp = h.call(t, testToken, "checkin_setParams", checkinSetParamsParams{})
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params error, got %+v", resp.Error)
	}

	rotated := formatAddress([20]byte{0x42})
	resp = h.call(t, testToken, "checkin_setAuthorizer", checkinSetAuthorizerParams{Authorizer: rotated})
	var result checkinAuthorizerResult
	resultInto(t, resp, &result)
	if result.Authorizer != rotated {
		t.Fatalf("unexpected authorizer result %+v", result)
	}

	if resp := h.call(t, "", "checkin_setAuthorizer", checkinSetAuthorizerParams{Authorizer: rotated}); resp.Error == nil {
		t.Fatalf("expected unauthorized rotation to fail")
	}
}

func TestCoursesOverRPC(t *testing.T) {
	h := newHarness(t)

	resp := h.call(t, testToken, "courses_issue", coursesIssueParams{
		Caller:      h.userBech32,
		Title:       "Intro to Go",
		Description: "fundamentals",
		Price:       "100",
		Reward:      "25",
		MetadataURI: "ipfs://a",
	})
	var issued courseResult
	resultInto(t, resp, &issued)
	if issued.ID != 1 || issued.Title != "Intro to Go" || issued.Creator != h.userBech32 {
		t.Fatalf("unexpected issue result %+v", issued)
	}

	resp = h.call(t, "", "courses_get", coursesGetParams{ID: issued.ID})
	var loaded courseResult
	resultInto(t, resp, &loaded)
	if loaded.Price != "100" || loaded.Reward != "25" {
		t.Fatalf("unexpected course amounts %+v", loaded)
	}

	resp = h.call(t, "", "courses_listByOwner", coursesListParams{Owner: h.userBech32})
	var owned coursesListResult
	resultInto(t, resp, &owned)
	if len(owned.IDs) != 1 || owned.IDs[0] != issued.ID {
		t.Fatalf("unexpected owner index %+v", owned)
	}

	resp = h.call(t, "", "courses_count", struct{}{})
	var count struct {
		Count uint64 `json:"count"`
	}
	resultInto(t, resp, &count)
	if count.Count != 1 {
		t.Fatalf("unexpected count %d", count.Count)
	}

	if resp := h.call(t, "", "courses_issue", coursesIssueParams{Caller: h.userBech32, Title: "X"}); resp.Error == nil {
		t.Fatalf("expected unauthorized issue to fail")
	}
}

func TestEventsTailWithoutJournal(t *testing.T) {
	h := newHarness(t)
	resp := h.call(t, "", "events_tail", eventsTailParams{Limit: 10})
	var tail eventsTailResult
	resultInto(t, resp, &tail)
	if len(tail.Events) != 0 {
		t.Fatalf("expected empty stream without a journal, got %d", len(tail.Events))
	}
}

func TestMethodNotFound(t *testing.T) {
	h := newHarness(t)
	resp := h.call(t, "", "bogus_method", struct{}{})
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method-not-found error, got %+v", resp.Error)
	}
}
