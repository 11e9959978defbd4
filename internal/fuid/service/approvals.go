package service

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"fuid-service/internal/fuid/model"
)

const defaultReviewer = "internal"

// PendingApplications lists submitted and in-progress applications in
// document order.
func (s *Service) PendingApplications() []model.Application {
	return s.store.applications(func(a *model.Application) bool { return a.Status.Pending() })
}

// ApplicationHistory lists approved and rejected applications.
func (s *Service) ApplicationHistory() []model.Application {
	return s.store.applications(func(a *model.Application) bool { return a.Status.Decided() })
}

// UserApplications lists every application submitted from email, ignoring
// case. A blank email matches nothing.
func (s *Service) UserApplications(email string) []model.Application {
	email = strings.TrimSpace(email)
	if email == "" {
		return []model.Application{}
	}
	return s.store.applications(func(a *model.Application) bool { return strings.EqualFold(a.UserEmail, email) })
}

// UpdateApplication records a review decision. The application is found by
// ID, then by (company, product, email); failing both, a complete triple is
// recorded as a new application at the front of the list.
func (s *Service) UpdateApplication(u model.ApprovalUpdate) (model.Application, error) {
	status := model.ApplicationStatus(strings.TrimSpace(u.Status))
	if status != model.ApplicationInProgress && !status.Decided() {
		return model.Application{}, ErrInvalidApprovalStatus
	}
	reviewer := strings.TrimSpace(u.Reviewer)
	if reviewer == "" {
		reviewer = defaultReviewer
	}
	comment := strings.TrimSpace(u.Comment)
	fuid := strings.TrimSpace(u.FUID)
	now := s.now().UTC()
	today := now.Format(time.DateOnly)
	complete := u.CompanyName != "" && u.ProductName != "" && u.UserEmail != ""

	var out model.Application
	err := s.store.Update(func(tx *Tx) error {
		apps := tx.doc.Applications
		i := -1
		if u.ID != "" {
			i = slices.IndexFunc(apps, func(a model.Application) bool { return a.ID == u.ID })
		}
		if i < 0 && complete {
			i = slices.IndexFunc(apps, func(a model.Application) bool {
				return a.SameSubmission(u.CompanyName, u.ProductName, u.UserEmail)
			})
		}
		if i < 0 {
			if !complete {
				return ErrApplicationNotFound
			}
			id := u.ID
			if id == "" {
				id = fmt.Sprintf("APP-%d", now.UnixMilli())
			}
			apps = slices.Insert(apps, 0, model.Application{
				ID:            id,
				CompanyName:   u.CompanyName,
				ProductName:   u.ProductName,
				UserEmail:     u.UserEmail,
				SubmittedDate: today,
			})
			i = 0
		}

		a := &apps[i]
		a.Status = status
		a.StatusDate = today
		a.Reviewer = reviewer
		if comment != "" {
			a.ReviewerComment = comment
		}
		if fuid != "" {
			a.FUID = fuid
		}
		tx.doc.Applications = apps
		tx.dirty = true
		out = *a
		return nil
	})
	if err != nil {
		return model.Application{}, err
	}
	s.log.Info().
		Str("application", out.ID).
		Str("status", string(out.Status)).
		Str("reviewer", out.Reviewer).
		Msg("application reviewed")
	return out, nil
}

func (s *Store) applications(keep func(a *model.Application) bool) []model.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Application{}
	for i := range s.doc.Applications {
		if keep(&s.doc.Applications[i]) {
			out = append(out, s.doc.Applications[i])
		}
	}
	return out
}
