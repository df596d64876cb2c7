package services

import (
	"context"
	"sync"
)

type HookService interface {
	AddHook(hook Hook) error
	OnDeploymentRecorded(ctx context.Context, event DeploymentEvent) error
}

type hookService struct {
	mu    sync.RWMutex
	hooks []Hook
}

func NewHookService() HookService {
	return &hookService{
		hooks: []Hook{},
	}
}

func (h *hookService) AddHook(hook Hook) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
	return nil
}

func (h *hookService) OnDeploymentRecorded(ctx context.Context, event DeploymentEvent) error {
	h.mu.RLock()
	hooks := append([]Hook(nil), h.hooks...)
	h.mu.RUnlock()

	for _, hook := range hooks {
		if hook.CanHandle(event.Source) {
			if err := hook.OnDeploymentRecorded(ctx, event); err != nil {
				return err
			}
		}
	}
	return nil
}
