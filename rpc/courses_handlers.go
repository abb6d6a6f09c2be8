package rpc

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"courseledger/native/courses"
	"courseledger/observability"
)

type coursesIssueParams struct {
	Caller      string `json:"caller"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price,omitempty"`
	Reward      string `json:"reward,omitempty"`
	MetadataURI string `json:"metadataUri,omitempty"`
}

type coursesGetParams struct {
	ID uint64 `json:"id"`
}

type coursesListParams struct {
	Owner string `json:"owner"`
}

type courseResult struct {
	ID          uint64 `json:"id"`
	Creator     string `json:"creator"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Reward      string `json:"reward"`
	MetadataURI string `json:"metadataUri"`
	CreatedAt   int64  `json:"createdAt"`
}

type coursesListResult struct {
	Owner string   `json:"owner"`
	IDs   []uint64 `json:"ids"`
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func formatCourse(course *courses.Course) courseResult {
	price := "0"
	if course.Price != nil {
		price = course.Price.String()
	}
	reward := "0"
	if course.Reward != nil {
		reward = course.Reward.String()
	}
	return courseResult{
		ID:          course.ID,
		Creator:     formatAddress(course.Creator),
		Title:       course.Title,
		Description: course.Description,
		Price:       price,
		Reward:      reward,
		MetadataURI: course.MetadataURI,
		CreatedAt:   course.CreatedAt,
	}
}

func (s *Server) handleCoursesIssue(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params coursesIssueParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	reward, err := parseAmount(params.Reward)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	course, err := s.node.CoursesIssue(callerAddr, params.Title, params.Description, price, reward, params.MetadataURI)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "failed to issue course", err.Error())
		return
	}
	observability.Checkin().RecordCourseIssued()
	writeResult(w, req.ID, formatCourse(course))
}

func (s *Server) handleCoursesGet(w http.ResponseWriter, req *RPCRequest) {
	var params coursesGetParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	course, err := s.node.CoursesGet(params.ID)
	if err != nil {
		if errors.Is(err, courses.ErrCourseNotFound) {
			writeError(w, http.StatusNotFound, req.ID, codeInvalidParams, "course not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load course", err.Error())
		return
	}
	writeResult(w, req.ID, formatCourse(course))
}

func (s *Server) handleCoursesListByOwner(w http.ResponseWriter, req *RPCRequest) {
	var params coursesListParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	ownerAddr, err := decodeBech32(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner address", err.Error())
		return
	}
	ids, err := s.node.CoursesByOwner(ownerAddr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to list courses", err.Error())
		return
	}
	writeResult(w, req.ID, coursesListResult{Owner: params.Owner, IDs: ids})
}

func (s *Server) handleCoursesCount(w http.ResponseWriter, req *RPCRequest) {
	count, err := s.node.CoursesCount()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to count courses", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]uint64{"count": count})
}
