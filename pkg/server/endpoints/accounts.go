package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/plateng/service-accounts-api/pkg/identity"
	"github.com/plateng/service-accounts-api/pkg/model"
	"github.com/plateng/service-accounts-api/pkg/server"
	"github.com/plateng/service-accounts-api/pkg/server/store"
	"github.com/plateng/service-accounts-api/pkg/service"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("account_name", func(fl validator.FieldLevel) bool {
		return model.ValidName(fl.Field().String())
	})
	return v
}

type createAccountRequest struct {
	Name           string `json:"name" validate:"omitempty,account_name,max=63"`
	DefaultCluster string `json:"default_cluster" validate:"required"`
	DefaultProject string `json:"default_project" validate:"required"`
	DefaultOrg     string `json:"default_org"`
}

// RegisterServiceAccountsEndpoints adds the /service_accounts routes. All of
// them require an authenticated caller; ownership is scoped to that caller.
func RegisterServiceAccountsEndpoints(s *server.Server) {
	router := s.Router.PathPrefix("/service_accounts").Subrouter()
	router.Use(s.Auth.Middleware)

	router.HandleFunc("", handleListAccounts(s.Service)).Methods("GET")
	router.HandleFunc("", handleCreateAccount(s.Service)).Methods("POST")
	router.HandleFunc("/{id_or_name}", handleGetAccount(s.Service)).Methods("GET")
	router.HandleFunc("/{id_or_name}", handleDeleteAccount(s.Service)).Methods("DELETE")
}

func handleCreateAccount(svc *service.AccountsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity.Get(r.Context())
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Authorization missing")
			return
		}

		var req createAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		if err := validate.Struct(req); err != nil {
			respondWithError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		account, err := svc.Create(r.Context(), service.CreateData{
			Name:           req.Name,
			Owner:          caller.Name,
			DefaultCluster: req.DefaultCluster,
			DefaultProject: req.DefaultProject,
			DefaultOrg:     req.DefaultOrg,
		})
		switch {
		case err == nil:
		case errors.Is(err, store.ErrExists):
			respondWithJSON(w, http.StatusConflict, map[string]string{
				"code":        "unique",
				"description": fmt.Sprintf("Service account with name %s already exists", req.Name),
			})
			return
		case errors.Is(err, service.ErrNoAccessToRole):
			respondWithError(w, http.StatusForbidden, "No access to the service account role")
			return
		default:
			respondWithInternalError(w, r, err)
			return
		}

		respondWithJSON(w, http.StatusCreated, account)
	}
}

func handleListAccounts(svc *service.AccountsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity.Get(r.Context())
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Authorization missing")
			return
		}

		it, err := svc.List(r.Context(), caller.Name)
		if err != nil {
			respondWithInternalError(w, r, err)
			return
		}

		if acceptsNDJSON(r) {
			streamAccounts(w, r, it)
			return
		}

		accounts, err := store.Collect(it)
		if err != nil {
			respondWithInternalError(w, r, err)
			return
		}
		if accounts == nil {
			accounts = []*model.Account{}
		}
		respondWithJSON(w, http.StatusOK, accounts)
	}
}

// streamAccounts writes one JSON object per line as records arrive. Since
// the status line is already out when a mid-stream failure hits, the error
// is reported in-band as a final {"error": ...} line.
func streamAccounts(w http.ResponseWriter, r *http.Request, it store.Iterator) {
	defer it.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	for it.Next() {
		if err := enc.Encode(it.Account()); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	if err := it.Err(); err != nil {
		log.Printf("%s %s stream failed: %v", r.Method, r.URL.RequestURI(), err)
		_ = enc.Encode(map[string]string{"error": "Internal server error"})
	}
}

func handleGetAccount(svc *service.AccountsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity.Get(r.Context())
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Authorization missing")
			return
		}

		idOrName := mux.Vars(r)["id_or_name"]
		account, err := resolveAccount(r.Context(), svc, idOrName, caller.Name)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotExists):
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("Service account %s not found", idOrName))
			return
		default:
			respondWithInternalError(w, r, err)
			return
		}

		respondWithJSON(w, http.StatusOK, account)
	}
}

func handleDeleteAccount(svc *service.AccountsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity.Get(r.Context())
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Authorization missing")
			return
		}

		idOrName := mux.Vars(r)["id_or_name"]
		account, err := resolveAccount(r.Context(), svc, idOrName, caller.Name)
		if err == nil {
			err = svc.Delete(r.Context(), account.ID)
		}
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotExists):
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("Service account %s not found", idOrName))
			return
		case errors.Is(err, service.ErrNoAccessToRole):
			respondWithError(w, http.StatusForbidden, "No access to the service account role")
			return
		default:
			respondWithInternalError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// resolveAccount looks the path segment up as an id first and falls back to
// a name lookup scoped to the caller. Records owned by someone else resolve
// to ErrNotExists so ids do not leak existence across owners.
func resolveAccount(ctx context.Context, svc *service.AccountsService, idOrName, owner string) (*model.Account, error) {
	account, err := svc.Get(ctx, idOrName)
	if errors.Is(err, store.ErrNotExists) {
		account, err = svc.GetByName(ctx, idOrName, owner)
	}
	if err != nil {
		return nil, err
	}
	if account.Owner != owner {
		return nil, store.ErrNotExists
	}
	return account, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request payload"
	}
	verr := verrs[0]
	switch verr.Tag() {
	case "required":
		return fmt.Sprintf("Field %s is required", jsonFieldName(verr.Field()))
	case "account_name":
		return fmt.Sprintf("Field %s must match %s", jsonFieldName(verr.Field()), model.NamePattern.String())
	default:
		return fmt.Sprintf("Field %s is invalid", jsonFieldName(verr.Field()))
	}
}

func jsonFieldName(field string) string {
	switch field {
	case "Name":
		return "name"
	case "DefaultCluster":
		return "default_cluster"
	case "DefaultProject":
		return "default_project"
	case "DefaultOrg":
		return "default_org"
	}
	return field
}
