package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/devconnector/backend/internal/middleware"
	"github.com/devconnector/backend/internal/models"
	"github.com/devconnector/backend/internal/services"
	"github.com/devconnector/backend/internal/validation"
)

const dateRangeMsg = "From date is required and needs to be from the past"

type ProfileHandler struct {
	profileService services.ProfileService
	repos          services.RepoLister
	validator      *validation.Validator
}

func NewProfileHandler(profileService services.ProfileService, repos services.RepoLister, v *validation.Validator) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		repos:          repos,
		validator:      v,
	}
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request, caller middleware.Caller) {
	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	prof, err := h.profileService.GetByUserID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("There is no profile for this user"))
			return
		}
		serverError(w, r, "profile_me", err)
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

// Upsert creates the caller's profile or overwrites its top-level fields.
func (h *ProfileHandler) Upsert(w http.ResponseWriter, r *http.Request, caller middleware.Caller) {
	var req models.ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w)
		return
	}
	if errs := h.validator.Struct(&req); errs != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorsResponse(errs))
		return
	}

	fields, errs := profileFields(&req)
	if errs != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorsResponse(errs))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	prof, err := h.profileService.Upsert(ctx, caller.ID, fields)
	if err != nil {
		serverError(w, r, "profile_upsert", err)
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

func profileFields(req *models.ProfileRequest) (*models.ProfileFields, []models.FieldError) {
	var errs []models.FieldError
	norm := func(param, raw string) string {
		out, err := normalizeURL(raw)
		if err != nil {
			errs = append(errs, models.FieldError{Msg: "Please include a valid URL", Param: param, Location: "body"})
		}
		return out
	}

	fields := &models.ProfileFields{
		Company:        req.Company,
		Website:        norm("website", req.Website),
		Location:       req.Location,
		Status:         req.Status,
		Skills:         []string(req.Skills),
		Bio:            req.Bio,
		GitHubUsername: req.GitHubUsername,
		Social: models.Social{
			YouTube:   norm("youtube", req.YouTube),
			Twitter:   norm("twitter", req.Twitter),
			Facebook:  norm("facebook", req.Facebook),
			LinkedIn:  norm("linkedin", req.LinkedIn),
			Instagram: norm("instagram", req.Instagram),
		},
	}
	if errs != nil {
		return nil, errs
	}
	return fields, nil
}

func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	profiles, err := h.profileService.List(ctx)
	if err != nil {
		serverError(w, r, "profile_list", err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (h *ProfileHandler) GetByUserID(w http.ResponseWriter, r *http.Request) {
	userID := pathObjectID(r, "user_id")

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	prof, err := h.profileService.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("Profile not found"))
			return
		}
		serverError(w, r, "profile_get", err)
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

func (h *ProfileHandler) AddExperience(w http.ResponseWriter, r *http.Request, caller middleware.Caller) {
	var req models.ExperienceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w)
		return
	}
	if errs := h.validator.Struct(&req); errs != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorsResponse(errs))
		return
	}
	exp, err := req.Experience()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorsResponse(dateRangeErrors()))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	prof, err := h.profileService.AddExperience(ctx, caller.ID, exp)
	h.writeProfile(w, r, "experience_add", prof, err)
}

func (h *ProfileHandler) AddEducation(w http.ResponseWriter, r *http.Request, caller middleware.Caller) {
	var req models.EducationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w)
		return
	}
	if errs := h.validator.Struct(&req); errs != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorsResponse(errs))
		return
	}
	edu, err := req.Education()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorsResponse(dateRangeErrors()))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	prof, err := h.profileService.AddEducation(ctx, caller.ID, edu)
	h.writeProfile(w, r, "education_add", prof, err)
}

// dateRangeErrors is the validation failure for a from/to pair that does not
// parse into an ordered range.
func dateRangeErrors() []models.FieldError {
	return []models.FieldError{{Msg: dateRangeMsg, Param: "from", Location: "body"}}
}

func (h *ProfileHandler) DeleteExperience(w http.ResponseWriter, r *http.Request, caller middleware.Caller) {
	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	prof, err := h.profileService.RemoveExperience(ctx, caller.ID, chi.URLParam(r, "exp_id"))
	h.writeProfile(w, r, "experience_delete", prof, err)
}

func (h *ProfileHandler) DeleteEducation(w http.ResponseWriter, r *http.Request, caller middleware.Caller) {
	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	prof, err := h.profileService.RemoveEducation(ctx, caller.ID, chi.URLParam(r, "edu_id"))
	h.writeProfile(w, r, "education_delete", prof, err)
}

func (h *ProfileHandler) writeProfile(w http.ResponseWriter, r *http.Request, op string, prof *models.Profile, err error) {
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("There is no profile for this user"))
			return
		}
		serverError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

// GitHubRepos relays the upstream repository list verbatim. Upstream
// failures are logged and collapsed into a 404.
func (h *ProfileHandler) GitHubRepos(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	body, err := h.repos.ListRepos(ctx, username)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("github_user", username).Msg("github lookup failed")
		writeJSON(w, http.StatusNotFound, models.NewMessageResponse("No Github profile found"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
