package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	app "github.com/R3E-Network/data_harmony/internal/app"
	"github.com/R3E-Network/data_harmony/internal/app/domain/user"
	"github.com/R3E-Network/data_harmony/internal/app/services/users"
	apperrors "github.com/R3E-Network/data_harmony/internal/errors"
	"github.com/R3E-Network/data_harmony/pkg/logger"
)

// APIPrefix is the namespace served by the dispatcher.
const APIPrefix = "/api/"

// maxCreateBody bounds PUT /api/users bodies.
const maxCreateBody = 1 << 20

// handler dispatches API requests through the route table.
type handler struct {
	app    *app.Application
	log    *logger.Logger
	routes routeTable
}

// NewHandler returns the API dispatcher. It expects the full request path,
// including the /api/ prefix.
func NewHandler(application *app.Application, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{app: application, log: log}
	h.routes = routeTable{
		newRoute(http.MethodGet, "/load", "Failed to load data", h.load),
		newRoute(http.MethodGet, "/users", "Failed to get users", h.listUsers),
		newRoute(http.MethodPut, "/users", "Failed to create user", h.createUser),
		newRoute(http.MethodDelete, "/users", "Failed to delete users", h.deleteUsers),
		newRoute(http.MethodGet, "/users/{id}", "Failed to get user", h.getUser),
		newRoute(http.MethodDelete, "/users/{id}", "Failed to delete user", h.deleteUser),
	}
	return h
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, APIPrefix)
	rt, p, ok := h.routes.lookup(strings.ToUpper(r.Method), path)
	if !ok {
		h.log.WithContext(r.Context()).WithField("path", path).Debug("API endpoint not found")
		writeError(w, http.StatusNotFound, msgNoEndpoint)
		return
	}

	if err := rt.handle(w, r, p); err != nil {
		h.log.WithContext(r.Context()).
			WithError(err).
			WithField("kind", apperrors.KindOf(err)).
			Error(rt.failure)
		writeError(w, http.StatusInternalServerError, rt.failure)
	}
}

func (h *handler) load(w http.ResponseWriter, r *http.Request, _ params) error {
	if _, err := h.app.Loader.Load(r.Context()); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, messageData{Message: msgLoaded})
	return nil
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request, _ params) error {
	list, err := h.app.Users.List(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request, _ params) error {
	payload, err := decodeUser(w, r)
	if err != nil {
		return err
	}

	id, err := h.app.Users.Create(r.Context(), payload)
	if errors.Is(err, users.ErrAlreadyExists) {
		writeError(w, http.StatusConflict, msgUserExists)
		return nil
	}
	if err != nil {
		return err
	}

	w.Header().Set("Location", APIPrefix+"users/"+strconv.FormatInt(id, 10))
	writeJSON(w, http.StatusCreated, messageData{Message: msgCreated, UserID: id})
	return nil
}

func (h *handler) deleteUsers(w http.ResponseWriter, r *http.Request, _ params) error {
	if err := h.app.Users.DeleteAll(r.Context()); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, messageData{Message: msgDeletedAll})
	return nil
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request, p params) error {
	u, ok, err := h.app.Users.Get(r.Context(), p.id)
	if err != nil {
		return err
	}
	if !ok {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return nil
	}
	writeJSON(w, http.StatusOK, u)
	return nil
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request, p params) error {
	removed, err := h.app.Users.Delete(r.Context(), p.id)
	if err != nil {
		return err
	}
	if !removed {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return nil
	}
	writeJSON(w, http.StatusOK, messageData{Message: msgDeleted})
	return nil
}

// decodeUser parses the create body. An empty body is an empty object; any
// other body must be a JSON object.
func decodeUser(w http.ResponseWriter, r *http.Request) (user.User, error) {
	var u user.User
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCreateBody))
	if err != nil {
		return u, apperrors.MalformedRequestBody(err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return u, nil
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return u, apperrors.MalformedRequestBody(errors.New("body is not a JSON object"))
	}
	if err := json.Unmarshal(body, &u); err != nil {
		return u, apperrors.MalformedRequestBody(err)
	}
	return u, nil
}
