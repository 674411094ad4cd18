package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Tarunjit45/ExamGenius/internal/export"
	"github.com/Tarunjit45/ExamGenius/internal/gamification"
	"github.com/Tarunjit45/ExamGenius/internal/plan"
	"github.com/Tarunjit45/ExamGenius/internal/quest"
	"github.com/Tarunjit45/ExamGenius/internal/studyai"
)

const maxJSONBody = 64 << 10

func identity(r *http.Request) gamification.Identity {
	id, _ := IdentityFromContext(r.Context())
	return id
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.SignIn(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Session(identity(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.engine.SignOut(r.Context(), identity(r).ID)
	w.WriteHeader(http.StatusNoContent)
}

type syllabusSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Board       string `json:"board,omitempty"`
	Level       string `json:"level,omitempty"`
	Description string `json:"description,omitempty"`
	Subjects    int    `json:"subjects"`
	Topics      int    `json:"topics"`
}

func (s *Server) handleListSyllabi(w http.ResponseWriter, r *http.Request) {
	out := []syllabusSummary{}
	if s.library != nil {
		for _, syl := range s.library.All() {
			out = append(out, syllabusSummary{
				ID:          syl.ID,
				Name:        syl.Name,
				Board:       syl.Board,
				Level:       syl.Level,
				Description: syl.Description,
				Subjects:    len(syl.Subjects),
				Topics:      syl.TopicCount(),
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleUploadSyllabus accepts a multipart form with the document in "file".
func (s *Server) handleUploadSyllabus(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, &AppError{Code: CodeBadRequest, Message: "file is too large", Status: http.StatusRequestEntityTooLarge, Err: err})
			return
		}
		writeError(w, r, badRequest("expected a multipart form with a file field"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, badRequest("missing file field"))
		return
	}
	defer file.Close()

	if header.Size > s.maxUpload {
		writeError(w, r, &AppError{Code: CodeBadRequest, Message: "file is too large", Status: http.StatusRequestEntityTooLarge})
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, fmt.Errorf("reading upload: %w", err))
		return
	}

	doc := studyai.Document{
		Name:     header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Data:     data,
	}
	snap, err := s.engine.SubmitSyllabus(r.Context(), identity(r).ID, doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleUseSyllabus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.UseSyllabus(r.Context(), identity(r).ID, chi.URLParam(r, "syllabusID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type planRequest struct {
	Days int    `json:"days"`
	Pace string `json:"pace"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	pace, err := plan.ParsePace(req.Pace)
	if err != nil {
		writeError(w, r, err)
		return
	}

	snap, err := s.engine.CreatePlan(r.Context(), identity(r).ID, req.Days, pace)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleExportPlan(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Session(identity(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if snap.Plan == nil {
		writeError(w, r, quest.ErrNoPlan)
		return
	}

	var buf bytes.Buffer
	if err := export.WritePlan(&buf, *snap.Plan, snap.Profile); err != nil {
		writeError(w, r, fmt.Errorf("exporting plan: %w", err))
		return
	}

	name := fmt.Sprintf("study-plan-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write export", "error", err)
	}
}

// quizQuestionView is a quiz question as shown before answering.
type quizQuestionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type aidResponse struct {
	MissionID string             `json:"mission_id"`
	Kind      studyai.AidKind    `json:"kind"`
	Content   string             `json:"content,omitempty"`
	Quiz      []quizQuestionView `json:"quiz,omitempty"`
}

// handleFetchAid returns one study aid. Quiz answers never leave the server;
// they are checked on submission.
func (s *Server) handleFetchAid(w http.ResponseWriter, r *http.Request) {
	kind, err := studyai.ParseAidKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	missionID := chi.URLParam(r, "missionID")

	aids, err := s.engine.FetchAid(r.Context(), identity(r).ID, missionID, kind)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := aidResponse{MissionID: missionID, Kind: kind}
	if kind == studyai.AidQuiz {
		for _, q := range studyai.WithoutAnswers(aids.Quiz) {
			resp.Quiz = append(resp.Quiz, quizQuestionView{Question: q.Question, Options: q.Options})
		}
	} else {
		resp.Content = aids.Text(kind)
	}
	writeJSON(w, http.StatusOK, resp)
}

type quizRequest struct {
	Answers []string `json:"answers"`
}

func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.engine.SubmitQuiz(r.Context(), identity(r).ID, chi.URLParam(r, "missionID"), req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleEvents streams notifications over a websocket until the client leaves.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := identity(r).ID
	if _, err := s.engine.Session(id); err != nil {
		writeError(w, r, err)
		return
	}

	// The server's write timeout must not cut a long-lived stream.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})
	_ = rc.SetReadDeadline(time.Time{})

	if err := s.hub.Serve(w, r, id); err != nil {
		slog.Debug("notification stream closed", "identity", id, "error", err)
	}
}
