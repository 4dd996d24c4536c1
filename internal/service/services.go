package service

import (
	"github.com/dom/codementor/internal/assistant"
	"github.com/dom/codementor/internal/auth"
	"github.com/dom/codementor/internal/repository"
	"go.uber.org/zap"
)

type Services struct {
	User      *UserService
	Assistant *AssistantService
}

// Dependencies are the collaborators the services are built from. Callers
// construct them explicitly so tests can substitute fakes.
type Dependencies struct {
	Repos     *repository.Repositories
	Hasher    auth.PasswordHasher
	Tokens    auth.TokenManager
	Assistant assistant.Assistant
	Logger    *zap.Logger
}

func NewServices(deps Dependencies) *Services {
	return &Services{
		User:      NewUserService(deps.Repos.User, deps.Repos.Progress, deps.Hasher, deps.Tokens, deps.Logger),
		Assistant: NewAssistantService(deps.Assistant, deps.Logger),
	}
}
