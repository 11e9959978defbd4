package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"fuid-service/internal/fuid/model"
	"fuid-service/internal/fuid/service"
)

type itemsBody struct {
	Items []model.Application `json:"items"`
}

type approvalBody struct {
	Success     bool              `json:"success"`
	Application model.Application `json:"application"`
}

func Approvals(svc *service.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, reqLogger(logger, r), http.StatusOK, itemsBody{Items: svc.PendingApplications()})
	}
}

func ApprovalHistory(svc *service.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, reqLogger(logger, r), http.StatusOK, itemsBody{Items: svc.ApplicationHistory()})
	}
}

// UserApplications answers an empty list when ?email= is missing.
func UserApplications(svc *service.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := svc.UserApplications(r.URL.Query().Get("email"))
		writeJSON(w, reqLogger(logger, r), http.StatusOK, itemsBody{Items: items})
	}
}

func UpdateApproval(svc *service.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(logger, r)
		var req model.ApprovalUpdate
		if code, err := decodeBody(r, &req); err != nil {
			writeError(w, log, code, "bad request body: "+err.Error())
			return
		}
		app, err := svc.UpdateApplication(req)
		switch {
		case service.IsValidation(err):
			writeError(w, log, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, service.ErrApplicationNotFound):
			writeError(w, log, http.StatusNotFound, err.Error())
			return
		case err != nil:
			log.Error().Err(err).Msg("update approval")
			writeError(w, log, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, log, http.StatusOK, approvalBody{Success: true, Application: app})
	}
}
