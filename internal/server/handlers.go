package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/akarpov/hr-breaker/internal/history"
	"github.com/akarpov/hr-breaker/internal/job"
	"github.com/akarpov/hr-breaker/internal/optimizer"
	"github.com/akarpov/hr-breaker/internal/render"
	"github.com/akarpov/hr-breaker/internal/resume"
)

type optimizeRequest struct {
	ResumeContent string `json:"resume_content"`
	JobText       string `json:"job_text,omitempty"`
	JobURL        string `json:"job_url,omitempty"`
	MaxIterations int    `json:"max_iterations,omitempty"`
	Parallel      *bool  `json:"parallel,omitempty"`
}

type outcomeOut struct {
	FilterName  string   `json:"filter_name"`
	Passed      bool     `json:"passed"`
	Score       float64  `json:"score"`
	Threshold   float64  `json:"threshold"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

type verdictOut struct {
	Passed  bool         `json:"passed"`
	Results []outcomeOut `json:"results"`
}

type jobOut struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Requirements []string `json:"requirements"`
	Keywords     []string `json:"keywords"`
	Description  string   `json:"description"`
}

type optimizeResponse struct {
	Success        bool       `json:"success"`
	Status         string     `json:"status"`
	ArtifactBase64 string     `json:"artifact_base64,omitempty"`
	Filename       string     `json:"filename,omitempty"`
	Validation     verdictOut `json:"validation"`
	Job            jobOut     `json:"job"`
	Iterations     int        `json:"iterations"`
	Error          string     `json:"error,omitempty"`
}

type jobParseRequest struct {
	URL  string `json:"url,omitempty"`
	Text string `json:"text,omitempty"`
}

type extractNameRequest struct {
	Content string `json:"content"`
}

type extractNameResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type historyItem struct {
	Filename  string `json:"filename"`
	Company   string `json:"company"`
	JobTitle  string `json:"job_title"`
	Timestamp string `json:"timestamp"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type settingsResponse struct {
	HasGenerator  bool   `json:"has_generator"`
	MaxIterations int    `json:"max_iterations"`
	OutputDir     string `json:"output_dir"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	if s.gen == nil {
		writeError(w, http.StatusServiceUnavailable, "no generator provider configured")
		return
	}

	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ResumeContent) == "" {
		writeError(w, http.StatusBadRequest, "resume_content is required")
		return
	}

	jobText := strings.TrimSpace(req.JobText)
	if url := strings.TrimSpace(req.JobURL); url != "" && jobText == "" {
		fetched, err := s.fetcher.Fetch(r.Context(), url)
		if err != nil {
			status := http.StatusUnprocessableEntity
			msg := err.Error()
			if errors.Is(err, job.ErrBlocked) {
				msg = "job url is blocked by bot protection; paste the job text instead"
			}
			writeError(w, status, msg)
			return
		}
		jobText = fetched
	}
	if jobText == "" {
		writeError(w, http.StatusBadRequest, "provide job_text or job_url")
		return
	}

	posting, err := s.parser.Parse(r.Context(), jobText)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	parallel := true
	if req.Parallel != nil {
		parallel = *req.Parallel
	}
	orch, err := s.newOrchestrator(req.MaxIterations, parallel)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	source, err := resume.NewSource(req.ResumeContent)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if first, last, err := resume.ExtractName(r.Context(), s.gen, source.Content); err == nil {
		source.FirstName, source.LastName = first, last
	} else {
		s.logger.Warn("name extraction failed", zap.Error(err))
	}

	result, runErr := orch.Run(r.Context(), source.Content, posting)
	s.observeRun(result)

	resp := optimizeResponse{
		Status:     string(result.Status),
		Validation: verdictToOut(result.Verdict),
		Job:        postingToOut(posting),
		Iterations: result.Iterations,
	}
	if runErr != nil {
		resp.Error = runErr.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if result.Status == optimizer.StatusAccepted {
		artifact, err := render.Render(result.Candidate)
		if err != nil {
			resp.Error = err.Error()
			writeJSON(w, http.StatusOK, resp)
			return
		}

		filename, err := s.store.WriteArtifact(source.FirstName, source.LastName, posting.Company, posting.Title, artifact.HTML)
		if err != nil {
			resp.Error = err.Error()
			writeJSON(w, http.StatusOK, resp)
			return
		}
		if err := s.store.Save(r.Context(), &history.Record{
			Filename:       filename,
			Company:        posting.Company,
			JobTitle:       posting.Title,
			FirstName:      source.FirstName,
			LastName:       source.LastName,
			SourceChecksum: source.Checksum(),
		}); err != nil {
			s.logger.Warn("saving history record failed", zap.Error(err))
		}

		resp.Success = true
		resp.Filename = filename
		resp.ArtifactBase64 = base64.StdEncoding.EncodeToString(artifact.HTML)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJobParse(w http.ResponseWriter, r *http.Request) {
	if s.gen == nil {
		writeError(w, http.StatusServiceUnavailable, "no generator provider configured")
		return
	}

	var req jobParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	url := strings.TrimSpace(req.URL)
	text := strings.TrimSpace(req.Text)
	switch {
	case url != "" && text != "":
		writeError(w, http.StatusBadRequest, "provide either url or text, not both")
		return
	case url != "":
		fetched, err := s.fetcher.Fetch(r.Context(), url)
		if err != nil {
			msg := err.Error()
			if errors.Is(err, job.ErrBlocked) {
				msg = "job url is blocked by bot protection; paste the job text instead"
			}
			writeError(w, http.StatusUnprocessableEntity, msg)
			return
		}
		text = fetched
	case text == "":
		writeError(w, http.StatusBadRequest, "provide url or text")
		return
	}

	posting, err := s.parser.Parse(r.Context(), text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, postingToOut(posting))
}

func (s *Server) handleExtractName(w http.ResponseWriter, r *http.Request) {
	if s.gen == nil {
		writeError(w, http.StatusServiceUnavailable, "no generator provider configured")
		return
	}

	var req extractNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	first, last, err := resume.ExtractName(r.Context(), s.gen, req.Content)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, extractNameResponse{FirstName: first, LastName: last})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]historyItem, 0, len(records))
	for _, rec := range records {
		items = append(items, historyItem{
			Filename:  rec.Filename,
			Company:   rec.Company,
			JobTitle:  rec.JobTitle,
			Timestamp: rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			FirstName: rec.FirstName,
			LastName:  rec.LastName,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	path, err := s.store.Path(r.PathValue("filename"))
	if err != nil {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, path)
}

func (s *Server) handleSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, settingsResponse{
		HasGenerator:  s.gen != nil,
		MaxIterations: s.cfg.Optimizer.MaxIterations,
		OutputDir:     s.store.Dir(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) observeRun(result *optimizer.RunResult) {
	if result == nil {
		return
	}
	s.metrics.ObserveRun(string(result.Status), result.Iterations, result.Duration)
	for _, rec := range result.Records {
		for _, outcome := range rec.Verdict.Outcomes {
			if !outcome.Passed {
				s.metrics.ObserveFilterFailure(outcome.Filter)
			}
		}
	}
}

func verdictToOut(v optimizer.Verdict) verdictOut {
	out := verdictOut{Passed: v.Passed, Results: make([]outcomeOut, 0, len(v.Outcomes))}
	for _, o := range v.Outcomes {
		out.Results = append(out.Results, outcomeOut{
			FilterName:  o.Filter,
			Passed:      o.Passed,
			Score:       o.Score,
			Threshold:   o.Threshold,
			Issues:      emptyIfNil(o.Issues),
			Suggestions: emptyIfNil(o.Suggestions),
		})
	}
	return out
}

func postingToOut(p *job.Posting) jobOut {
	return jobOut{
		Title:        p.Title,
		Company:      p.Company,
		Requirements: emptyIfNil(p.Requirements),
		Keywords:     emptyIfNil(p.Keywords),
		Description:  p.Description,
	}
}

func emptyIfNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
