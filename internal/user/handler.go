package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/identity"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/web"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/pkg/utilities"
)

// Handler exposes the entry pages and the register / login / logout endpoints.
type Handler struct {
	svc     *UserService
	issuer  *session.Issuer
	cookies session.CookieConfig
	mirror  identity.Mirror
	// mirrorRequired withholds the session when the identity mirror fails.
	mirrorRequired bool
	pages          *web.Renderer
	logger         *zap.SugaredLogger
}

type HandlerDeps struct {
	Service        *UserService
	Issuer         *session.Issuer
	Cookies        session.CookieConfig
	Mirror         identity.Mirror
	MirrorRequired bool
	Pages          *web.Renderer
	Logger         *zap.SugaredLogger
}

func NewHandler(d HandlerDeps) *Handler {
	mirror := d.Mirror
	if mirror == nil {
		mirror = identity.Noop{}
	}
	return &Handler{
		svc:            d.Service,
		issuer:         d.Issuer,
		cookies:        d.Cookies,
		mirror:         mirror,
		mirrorRequired: d.MirrorRequired,
		pages:          d.Pages,
		logger:         d.Logger,
	}
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html")
}

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "register.html")
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	form, err := utilities.FormValues(w, r, "email", "password", "confirm")
	if err != nil {
		h.logger.Debugw("invalid register payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	email, password := form["email"], form["password"]

	u, err := h.svc.Register(r.Context(), email, password, form["confirm"])
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"status": ve.Message})
			return
		}
		h.logger.Errorw("register failed", "err", err)
		http.Redirect(w, r, "/register", http.StatusFound)
		return
	}

	if err := h.mirror.CreateUser(r.Context(), email, password); err != nil {
		h.logger.Warnw("identity mirror failed", "email", email, "err", err)
		if h.mirrorRequired {
			http.Redirect(w, r, "/register", http.StatusFound)
			return
		}
	}
	h.startSession(w, r, u)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	form, err := utilities.FormValues(w, r, "email", "password")
	if err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	u, err := h.svc.Authenticate(r.Context(), form["email"], form["password"])
	if err != nil {
		if errors.Is(err, ErrInvalidCombination) {
			h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid combination."})
			return
		}
		h.logger.Errorw("login failed", "err", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.startSession(w, r, u)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// startSession signs the stored credential pair into the cookie and
// sends the client to the dashboard.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, u *entity.User) {
	tok, err := h.issuer.Issue(u.Email, u.Password)
	if err != nil {
		h.logger.Errorw("issue session failed", "err", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.cookies.Set(w, tok)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (h *Handler) render(w http.ResponseWriter, name string) {
	if err := h.pages.Render(w, http.StatusOK, name, nil); err != nil {
		h.logger.Errorw("render failed", "page", name, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
