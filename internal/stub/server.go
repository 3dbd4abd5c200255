package stub

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// startingBalance is the wallet amount every new account gets.
const startingBalance = 5000

var (
	errUnauthenticated = errors.New("Protected route, Oauth2 Bearer token not found")
	errBadToken        = errors.New("Protected route, Oauth2 Bearer token invalid")
)

type ctxUserKey struct{}

// Server is the stub backend. Router exposes the API under /api/v1.
type Server struct {
	store     Store
	tokens    *TokenService
	validator *validator.Validate
	log       *slog.Logger
}

func NewServer(store Store, tokens *TokenService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		store:     store,
		tokens:    tokens,
		validator: validator.New(),
		log:       log,
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Get("/products", s.handleListProducts)
		r.Get("/products/search", s.handleSearchProducts)

		r.Group(func(pr chi.Router) {
			pr.Use(s.authMiddleware)
			pr.Get("/cart", s.handleGetCart)
			pr.Post("/cart", s.handlePostCart)
		})
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", chimw.GetReqID(r.Context())))
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, errUnauthenticated)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims, err := s.tokens.ParseToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, errBadToken)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authClaims(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(ctxUserKey{}).(*Claims); ok {
		return claims
	}
	return nil
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		s.log.Error("list products failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, errors.New("Something went wrong. Check the backend console for more details"))
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		s.log.Error("search products failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, errors.New("Something went wrong. Check the backend console for more details"))
		return
	}
	matched := FilterProducts(products, r.URL.Query().Get("value"))
	if len(matched) == 0 {
		respondError(w, http.StatusNotFound, errors.New("No products found"))
		return
	}
	writeJSON(w, http.StatusOK, matched)
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	claims := authClaims(r.Context())
	entries, err := s.store.CartFor(r.Context(), claims.UserID)
	if err != nil {
		s.log.Error("get cart failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, errors.New("Something went wrong. Check the backend console for more details"))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type postCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Qty       int64  `json:"qty" validate:"gte=0"`
}

func (s *Server) handlePostCart(w http.ResponseWriter, r *http.Request) {
	claims := authClaims(r.Context())

	var req postCartRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	exists, err := s.store.ProductExists(r.Context(), req.ProductID)
	if err != nil {
		s.log.Error("product lookup failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, errors.New("Something went wrong. Check the backend console for more details"))
		return
	}
	if !exists {
		respondError(w, http.StatusNotFound, errors.New("Product doesn't exist"))
		return
	}

	entries, err := s.store.UpsertCartItem(r.Context(), claims.UserID, req.ProductID, req.Qty)
	if err != nil {
		s.log.Error("cart upsert failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, errors.New("Something went wrong. Check the backend console for more details"))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required,min=6"`
	Password string `json:"password" validate:"required,min=6"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	if _, err := s.store.CreateUser(r.Context(), req.Username, string(hash), startingBalance); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			respondError(w, http.StatusBadRequest, errors.New("Username is already taken"))
			return
		}
		s.log.Error("create user failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, errors.New("Something went wrong. Check the backend console for more details"))
		return
	}

	s.log.Info("user registered", slog.String("username", req.Username))
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	u, err := s.store.UserByName(r.Context(), req.Username)
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("Username is incorrect"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("Password is incorrect"))
		return
	}

	token, err := s.tokens.GenerateToken(u)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"token":    token,
		"username": u.Username,
		"balance":  u.Balance,
	})
}

func (s *Server) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return s.validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Success: false, Message: err.Error()})
}
