package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markdevonuk/portal/internal/team/models"
	"github.com/markdevonuk/portal/internal/team/service"
	id "github.com/markdevonuk/portal/pkg/domain"
	"github.com/markdevonuk/portal/pkg/platform/httputil"
	"github.com/markdevonuk/portal/pkg/requestcontext"
)

// Service defines the ledger operations the handler exposes.
type Service interface {
	CreateTeam(ctx context.Context, name, description string) (*models.Team, error)
	UpdateTeam(ctx context.Context, teamID id.TeamID, name, description string) (*models.Team, error)
	DeleteTeam(ctx context.Context, teamID id.TeamID) (*service.CascadeResult, error)
	GetTeam(ctx context.Context, teamID id.TeamID) (*models.Team, error)
	ListTeams(ctx context.Context) ([]*models.Team, error)
	Members(ctx context.Context, teamID id.TeamID) ([]*models.User, error)
	AddUser(ctx context.Context, userID id.UserID, teamID id.TeamID) error
	RemoveUser(ctx context.Context, userID id.UserID, teamID id.TeamID) error
	UserTeams(ctx context.Context, userID id.UserID) ([]*models.Team, error)
}

// Handler wires ledger endpoints to the membership service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the self-service endpoint: a volunteer can see their own
// teams. Callers wrap the router in auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me/teams", h.HandleMyTeams)
}

// RegisterAdmin mounts the team management console endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/teams", h.HandleList)
	r.Post("/teams", h.HandleCreate)
	r.Get("/teams/{teamID}", h.HandleGet)
	r.Put("/teams/{teamID}", h.HandleUpdate)
	r.Delete("/teams/{teamID}", h.HandleDelete)
	r.Get("/teams/{teamID}/members", h.HandleMembers)
	r.Put("/teams/{teamID}/members/{userID}", h.HandleAddMember)
	r.Delete("/teams/{teamID}/members/{userID}", h.HandleRemoveMember)
	r.Get("/users/{userID}/teams", h.HandleUserTeams)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	teams, err := h.service.ListTeams(r.Context())
	if err != nil {
		h.writeError(w, r, "list teams", err)
		return
	}
	if teams == nil {
		teams = []*models.Team{}
	}
	httputil.WriteJSON(w, http.StatusOK, teams)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[TeamRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	team, err := h.service.CreateTeam(r.Context(), req.Name, req.Description)
	if err != nil {
		h.writeError(w, r, "create team", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, team)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	teamID, err := id.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	team, err := h.service.GetTeam(r.Context(), teamID)
	if err != nil {
		h.writeError(w, r, "get team", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, team)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	teamID, err := id.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := httputil.Decode[TeamRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	team, err := h.service.UpdateTeam(r.Context(), teamID, req.Name, req.Description)
	if err != nil {
		h.writeError(w, r, "update team", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, team)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	teamID, err := id.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.DeleteTeam(r.Context(), teamID)
	if err != nil {
		h.writeError(w, r, "delete team", err)
		return
	}
	// Partial cascade failures still return 200; the body carries what is
	// left to retry.
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleMembers(w http.ResponseWriter, r *http.Request) {
	teamID, err := id.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	members, err := h.service.Members(r.Context(), teamID)
	if err != nil {
		h.writeError(w, r, "list members", err)
		return
	}
	if members == nil {
		members = []*models.User{}
	}
	httputil.WriteJSON(w, http.StatusOK, members)
}

func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	userID, teamID, err := memberParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.AddUser(r.Context(), userID, teamID); err != nil {
		h.writeError(w, r, "add member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, teamID, err := memberParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RemoveUser(r.Context(), userID, teamID); err != nil {
		h.writeError(w, r, "remove member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleUserTeams(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeUserTeams(w, r, userID)
}

func (h *Handler) HandleMyTeams(w http.ResponseWriter, r *http.Request) {
	h.writeUserTeams(w, r, requestcontext.UserID(r.Context()))
}

func (h *Handler) writeUserTeams(w http.ResponseWriter, r *http.Request, userID id.UserID) {
	teams, err := h.service.UserTeams(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, "list user teams", err)
		return
	}
	if teams == nil {
		teams = []*models.Team{}
	}
	httputil.WriteJSON(w, http.StatusOK, teams)
}

func memberParams(r *http.Request) (id.UserID, id.TeamID, error) {
	teamID, err := id.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		return "", id.TeamID{}, err
	}
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		return "", id.TeamID{}, err
	}
	return userID, teamID, nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, action string, err error) {
	h.logger.ErrorContext(r.Context(), "team request failed",
		"action", action,
		"error", err,
		"request_id", requestcontext.RequestID(r.Context()),
	)
	httputil.WriteError(w, err)
}
