// Package handler exposes the FUID service over HTTP. Every endpoint speaks
// JSON except the multipart import.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fuid-service/internal/fuid/model"
	"fuid-service/internal/fuid/service"
	"fuid-service/internal/middleware"
)

func reqLogger(logger zerolog.Logger, r *http.Request) zerolog.Logger {
	if rid := middleware.GetRequestID(r); rid != "" {
		return logger.With().Str("rid", rid).Logger()
	}
	return logger
}

func Stats(svc *service.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, reqLogger(logger, r), http.StatusOK, svc.Stats())
	}
}

// Data returns the whole store document with a last_updated field added.
func Data(svc *service.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(logger, r)
		doc, err := svc.Document()
		if err != nil {
			log.Error().Err(err).Msg("snapshot document")
			writeError(w, log, http.StatusInternalServerError, err.Error())
			return
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			writeError(w, log, http.StatusInternalServerError, err.Error())
			return
		}
		var body map[string]json.RawMessage
		if err := json.Unmarshal(raw, &body); err != nil {
			writeError(w, log, http.StatusInternalServerError, err.Error())
			return
		}
		if ts := svc.Stats().LastUpdated; ts != nil {
			body["last_updated"], _ = json.Marshal(ts)
		}
		writeJSON(w, log, http.StatusOK, body)
	}
}

type resultsBody struct {
	Results []model.Match `json:"results"`
}

func results(ms []model.Match) resultsBody {
	if ms == nil {
		ms = []model.Match{}
	}
	return resultsBody{Results: ms}
}

func Search(svc *service.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(logger, r)
		var req model.SearchRequest
		if code, err := decodeBody(r, &req); err != nil {
			writeError(w, log, code, "bad request body: "+err.Error())
			return
		}
		if req.Query == "" {
			writeJSON(w, log, http.StatusOK, results(nil))
			return
		}
		writeJSON(w, log, http.StatusOK, results(svc.Search(req)))
	}
}

func UnifiedSearch(svc *service.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(logger, r)
		var req model.UnifiedRequest
		if code, err := decodeBody(r, &req); err != nil {
			writeError(w, log, code, "bad request body: "+err.Error())
			return
		}
		writeJSON(w, log, http.StatusOK, results(svc.UnifiedSearch(r.Context(), req)))
	}
}

func GenerateFUID(svc *service.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(logger, r)
		var req model.GenerateRequest
		if code, err := decodeBody(r, &req); err != nil {
			writeError(w, log, code, "bad request body: "+err.Error())
			return
		}
		res, err := svc.Generate(req)
		switch {
		case service.IsValidation(err):
			writeError(w, log, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			log.Error().Err(err).Msg("generate fuid")
			writeError(w, log, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, log, http.StatusOK, res)
	}
}

type extractRequest struct {
	Product string `json:"product_name"`
}

type extractResponse struct {
	Version string `json:"version"`
	Error   string `json:"error,omitempty"`
}

// ExtractVersion always answers 200; failures degrade to "00" with the
// error echoed.
func ExtractVersion(svc *service.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(logger, r)
		var req extractRequest
		if code, err := decodeBody(r, &req); err != nil {
			writeError(w, log, code, "bad request body: "+err.Error())
			return
		}
		v, err := svc.ExtractVersion(r.Context(), req.Product)
		if err != nil {
			log.Warn().Err(err).Str("product", req.Product).Msg("extract version")
			writeJSON(w, log, http.StatusOK, extractResponse{Version: service.DefaultVersion, Error: err.Error()})
			return
		}
		writeJSON(w, log, http.StatusOK, extractResponse{Version: v})
	}
}

type embeddingStatus struct {
	ShouldRegenerate bool   `json:"should_regenerate"`
	Metadata         any    `json:"metadata"`
	Note             string `json:"note,omitempty"`
}

func EmbeddingStatus(svc *service.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(logger, r)
		st, err := svc.EmbeddingStatus()
		if errors.Is(err, service.ErrSemanticDisabled) {
			writeJSON(w, log, http.StatusOK, embeddingStatus{
				ShouldRegenerate: true,
				Metadata:         struct{}{},
				Note:             err.Error(),
			})
			return
		}
		writeJSON(w, log, http.StatusOK, embeddingStatus{
			ShouldRegenerate: !st.Ready || st.Stale,
			Metadata:         st,
		})
	}
}

type embeddingBuild struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  any    `json:"status,omitempty"`
}

func GenerateEmbeddings(svc *service.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(logger, r)
		start := time.Now()
		st, err := svc.BuildEmbeddings(r.Context())
		switch {
		case errors.Is(err, service.ErrSemanticDisabled):
			writeJSON(w, log, http.StatusServiceUnavailable, embeddingBuild{Message: err.Error()})
			return
		case err != nil:
			log.Error().Err(err).Msg("build embeddings")
			writeJSON(w, log, http.StatusInternalServerError, embeddingBuild{Message: err.Error()})
			return
		}
		log.Info().
			Int("products", st.Products).
			Int("companies", st.Companies).
			Dur("elapsed", time.Since(start)).
			Msg("embeddings built")
		writeJSON(w, log, http.StatusOK, embeddingBuild{
			Success: true,
			Message: "Embeddings generated successfully",
			Status:  st,
		})
	}
}

// Import accepts a multipart upload: field "file" plus optional
// header_row, platform, extract_versions and per-field column overrides.
func Import(svc *service.Service, maxUploadMB int, logger zerolog.Logger) http.HandlerFunc {
	maxMemory := int64(maxUploadMB) << 20
	if maxMemory <= 0 {
		maxMemory = 32 << 20
	}
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(logger, r)
		start := time.Now()
		defer r.Body.Close()

		if err := r.ParseMultipartForm(maxMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, log, http.StatusRequestEntityTooLarge, "upload too large")
				return
			}
			writeError(w, log, http.StatusBadRequest, "bad multipart form: "+err.Error())
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, log, http.StatusBadRequest, "missing file: "+err.Error())
			return
		}
		defer file.Close()

		cols := service.DefaultColumns
		override := func(dst *string, key string) {
			if v := strings.TrimSpace(r.FormValue(key)); v != "" {
				*dst = v
			}
		}
		override(&cols.Company, "company_column")
		override(&cols.Product, "product_column")
		override(&cols.Version, "version_column")
		override(&cols.Platform, "platform_column")

		opt := service.ImportOptions{
			Columns:         cols,
			HeaderRow:       atoi(r.FormValue("header_row"), 1),
			Platform:        strings.TrimSpace(r.FormValue("platform")),
			ExtractVersions: toBool(r.FormValue("extract_versions"), false),
		}
		sum, err := svc.Import(r.Context(), file, header.Filename, opt)
		if err != nil {
			log.Warn().Err(err).Str("file", header.Filename).Msg("import")
			writeError(w, log, http.StatusBadRequest, "failed to read file: "+err.Error())
			return
		}
		log.Info().
			Str("file", header.Filename).
			Int("rows", len(sum.Rows)).
			Dur("elapsed", time.Since(start)).
			Msg("import request done")
		writeJSON(w, log, http.StatusOK, sum)
	}
}
