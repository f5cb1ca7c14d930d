package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/jrsteele09/go-token-service/auth"
	"github.com/jrsteele09/go-token-service/events"
	"github.com/jrsteele09/go-token-service/internal/config"
	"github.com/jrsteele09/go-token-service/pagination"
	"github.com/jrsteele09/go-token-service/token"
)

type Server struct {
	env    string // Environment (e.g., "DEV", "production")
	mux    *http.ServeMux
	routes []string
	config config.Config
	tokens *auth.TokenService
	repo   token.Repo
}

func New(cfg config.Config, repo token.Repo, broadcaster *events.Broadcaster) (*Server, error) {
	pageSize, err := pagination.NewPageSize(cfg.GetDefaultPageSize())
	if err != nil {
		return nil, fmt.Errorf("[Server New] invalid page size: %w", err)
	}

	tokenService, err := auth.NewTokenService(repo, broadcaster, auth.WithPageSize(pageSize))
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create token service: %w", err)
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: cfg,
		tokens: tokenService,
		repo:   repo,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		log.Printf("[route] %s\n", route)
	}
}
