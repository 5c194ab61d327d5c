package contact

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/contact/entity"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/session"
	userentity "github.com/ovaphlow/pitchfork/service-addressbook-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/web"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/pkg/utilities"
)

// Revalidator re-checks session claims against the credential store.
type Revalidator interface {
	Revalidate(ctx context.Context, email, storedPassword string) (*userentity.User, error)
}

// Handler serves the dashboard routes. They sit behind session.Guard.
type Handler struct {
	svc    *ContactService
	users  Revalidator
	pages  *web.Renderer
	logger *zap.SugaredLogger
}

func NewHandler(svc *ContactService, users Revalidator, pages *web.Renderer, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, users: users, pages: pages, logger: logger}
}

// currentUser runs the credential re-check for the guarded request. On
// failure it has already redirected to the entry page.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*userentity.User, bool) {
	claims, ok := session.ClaimsFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return nil, false
	}
	u, err := h.users.Revalidate(r.Context(), claims.Email, claims.Password)
	if err != nil {
		if errors.Is(err, database.ErrStorage) {
			h.logger.Errorw("session revalidation failed", "err", err)
		} else {
			h.logger.Debugw("session no longer valid", "email", claims.Email, "err", err)
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return nil, false
	}
	return u, true
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	view := web.DashboardView{Email: u.Email}
	if v := r.URL.Query().Get("success"); v != "" {
		view.Flash = true
		view.Success = v == "true"
	}
	contacts, err := h.svc.List(r.Context(), u.Email)
	if err != nil {
		h.logger.Warnw("list contacts failed", "email", u.Email, "err", err)
	}
	view.Contacts = contacts
	if err := h.pages.Render(w, http.StatusOK, "dashboard.html", view); err != nil {
		h.logger.Errorw("render dashboard failed", "err", err)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

func (h *Handler) AddContact(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	form, err := utilities.FormValues(w, r, "firstName", "lastName", "phone", "address")
	if err != nil {
		h.logger.Debugw("invalid contact payload", "err", err)
		http.Redirect(w, r, "/dashboard?success=false", http.StatusFound)
		return
	}
	c := entity.Contact{
		FirstName: form["firstName"],
		LastName:  form["lastName"],
		Phone:     form["phone"],
		Address:   form["address"],
	}
	key, err := h.svc.Add(r.Context(), u.Email, c)
	if err != nil {
		h.logger.Warnw("add contact failed", "email", u.Email, "err", err)
		http.Redirect(w, r, "/dashboard?success=false", http.StatusFound)
		return
	}
	h.logger.Debugw("contact saved", "email", u.Email, "key", key)
	http.Redirect(w, r, "/dashboard?success=true", http.StatusFound)
}
