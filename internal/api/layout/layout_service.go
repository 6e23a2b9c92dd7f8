package layout

import (
	"context"
	"log/slog"
	"sync"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-trip-weaver/internal/types"
)

const (
	// DefaultPaneWidth is the itinerary pane width before any resize.
	DefaultPaneWidth = 480.0
	// minPaneWidth keeps the itinerary pane readable.
	minPaneWidth = 320.0
	// maxPaneFraction keeps a usable slice of the map visible.
	maxPaneFraction = 0.75
)

var _ Service = (*ServiceImpl)(nil)

// Service owns the split-pane divider state per session. Width updates
// outside the permitted band are ignored rather than clamped, so the divider
// sticks at the last legal position during an overshooting drag.
type Service interface {
	BeginResize(ctx context.Context, sessionID string, containerLeft, containerWidth float64) (types.LayoutState, error)
	UpdateResize(ctx context.Context, sessionID string, pointerX float64) (types.LayoutState, error)
	EndResize(ctx context.Context, sessionID string) (types.LayoutState, error)
	State(ctx context.Context, sessionID string) (types.LayoutState, error)
}

type session struct {
	mu    sync.Mutex
	state types.LayoutState
}

type ServiceImpl struct {
	logger   *slog.Logger
	sessions *cache.Cache
}

func NewServiceImpl(sessions *cache.Cache, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		sessions: sessions,
	}
}

func (s *ServiceImpl) getSession(sessionID string) *session {
	key := "layout:" + sessionID
	if cached, found := s.sessions.Get(key); found {
		if sess, ok := cached.(*session); ok {
			return sess
		}
	}
	sess := &session{state: types.LayoutState{PaneWidth: DefaultPaneWidth}}
	s.sessions.Set(key, sess, cache.DefaultExpiration)
	return sess
}

func (s *ServiceImpl) BeginResize(ctx context.Context, sessionID string, containerLeft, containerWidth float64) (types.LayoutState, error) {
	sess := s.getSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.state.IsResizing = true
	// Container geometry is captured once at drag start; every pointer
	// update is resolved against this snapshot.
	sess.state.ContainerLeft = containerLeft
	sess.state.ContainerWidth = containerWidth

	s.logger.DebugContext(ctx, "Resize started",
		slog.String("sessionID", sessionID), slog.Float64("containerWidth", containerWidth))
	return sess.state, nil
}

func (s *ServiceImpl) UpdateResize(ctx context.Context, sessionID string, pointerX float64) (types.LayoutState, error) {
	sess := s.getSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.state.IsResizing {
		return sess.state, nil
	}

	width := pointerX - sess.state.ContainerLeft
	if width > minPaneWidth && width < sess.state.ContainerWidth*maxPaneFraction {
		sess.state.PaneWidth = width
	}
	return sess.state, nil
}

func (s *ServiceImpl) EndResize(ctx context.Context, sessionID string) (types.LayoutState, error) {
	sess := s.getSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.state.IsResizing = false
	return sess.state, nil
}

func (s *ServiceImpl) State(ctx context.Context, sessionID string) (types.LayoutState, error) {
	sess := s.getSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state, nil
}
