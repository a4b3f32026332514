// Package storefront wires the catalog, one cart and one session into the
// command handlers a presentation layer calls in response to user gestures.
package storefront

import (
	"context"
	"errors"
	"time"

	"sweetshop/internal/cart"
	"sweetshop/internal/models"
	"sweetshop/internal/session"
	"sweetshop/internal/util"
	"sweetshop/internal/view"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrCancelled is returned when the user dismissed a credential prompt
var ErrCancelled = errors.New("operation cancelled")

// Catalog is satisfied by *catalog.Catalog
type Catalog interface {
	cart.ItemFinder
	Load(ctx context.Context) error
	Items() []models.Item
}

// EventPublisher is satisfied by *broker.EventPublisher and broker.NopPublisher
type EventPublisher interface {
	PublishCartCheckedOut(ctx context.Context, event *models.CartCheckedOutEvent) error
	PublishUserEvent(ctx context.Context, event *models.UserEvent) error
}

// Deps are the collaborators of one Storefront
type Deps struct {
	SessionID string
	Catalog   Catalog
	Roster    *session.Roster
	Storage   session.Storage
	Renderer  view.Renderer
	Publisher EventPublisher
}

// Storefront is one browsing session: a cart and an authentication state over
// a shared catalog
type Storefront struct {
	id        string
	catalog   Catalog
	cart      *cart.Manager
	session   *session.Session
	view      view.Renderer
	publisher EventPublisher
	logger    *zap.Logger
}

// New creates a storefront with an empty cart
func New(d Deps) *Storefront {
	renderer := d.Renderer
	if renderer == nil {
		renderer = view.Multi{}
	}
	publisher := d.Publisher
	if publisher == nil {
		publisher = discardEvents{}
	}

	return &Storefront{
		id:        d.SessionID,
		catalog:   d.Catalog,
		cart:      cart.NewManager(d.Catalog, renderer),
		session:   session.New(d.Roster, d.Storage, session.KeyFor(d.SessionID)),
		view:      renderer,
		publisher: publisher,
		logger:    util.GetLogger().With(zap.String("session_id", d.SessionID)),
	}
}

// Open is the second phase of start-up: it renders the catalog and the
// current cart. The shared catalog is loaded once beforehand by
// Registry.Init, successfully or not.
func (s *Storefront) Open() {
	s.view.RenderCatalog(s.catalog.Items())
	s.view.RenderCart(s.cart.Lines(), s.cart.Total())
}

// ID returns the browsing session id
func (s *Storefront) ID() string {
	return s.id
}

// Items returns the catalog contents
func (s *Storefront) Items() []models.Item {
	return s.catalog.Items()
}

// Cart returns the cart lines and total
func (s *Storefront) Cart() ([]models.CartLine, int64) {
	return s.cart.Lines(), s.cart.Total()
}

// OnAddToCart handles an "add to cart" gesture
func (s *Storefront) OnAddToCart(id int64) error {
	return s.cart.AddItem(id)
}

// OnRemoveFromCart handles a "remove from cart" gesture
func (s *Storefront) OnRemoveFromCart(id int64) {
	s.cart.RemoveItem(id)
}

// OnCheckout finalizes the purchase. An empty cart yields cart.ErrEmptyCart
// with an informational notice.
func (s *Storefront) OnCheckout(ctx context.Context) (models.Receipt, Notice, error) {
	ctx, span := util.StartSpan(ctx, "Storefront.OnCheckout")
	defer span.End()

	receipt, err := s.cart.Checkout()
	if errors.Is(err, cart.ErrEmptyCart) {
		return receipt, noticeEmptyCart, err
	}
	if err != nil {
		return receipt, noticeUnavailable, err
	}

	event := &models.CartCheckedOutEvent{
		BaseEvent: s.baseEvent(models.EventTypeCartCheckedOut),
		Lines:     receipt.Lines,
		Total:     receipt.Total,
	}
	if user, ok, err := s.session.CurrentUser(ctx); err == nil && ok {
		event.Username = user.Username
	}

	if err := s.publisher.PublishCartCheckedOut(ctx, event); err != nil {
		s.logger.Error("Failed to publish CartCheckedOut event", zap.Error(err))
	}

	s.logger.Info("Checkout completed",
		zap.Int("lines", len(receipt.Lines)),
		zap.Int64("total", receipt.Total))

	return receipt, noticePurchased, nil
}

// IsAuthenticated reports whether a user is logged in
func (s *Storefront) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.session.IsAuthenticated(ctx)
}

// CurrentUser returns the logged in user, if any
func (s *Storefront) CurrentUser(ctx context.Context) (models.User, bool, error) {
	return s.session.CurrentUser(ctx)
}

// OnSessionToggle logs out an authenticated user, otherwise asks for
// credentials and logs in
func (s *Storefront) OnSessionToggle(ctx context.Context, prompt CredentialPrompt) (Notice, error) {
	authenticated, err := s.session.IsAuthenticated(ctx)
	if err != nil {
		return noticeUnavailable, err
	}
	if authenticated {
		return s.OnLogout(ctx)
	}
	return s.OnLogin(ctx, prompt)
}

// OnLogin asks for a username and password and checks them against the roster
func (s *Storefront) OnLogin(ctx context.Context, prompt CredentialPrompt) (Notice, error) {
	username, password, ok := askPair(ctx, prompt, askLoginUsername, askLoginPassword)
	if !ok {
		return noticeCancelled, ErrCancelled
	}

	user, err := s.session.Login(ctx, username, password)
	if errors.Is(err, session.ErrInvalidCredentials) {
		return noticeBadCredentials, err
	}
	if err != nil {
		s.logger.Error("Login failed", zap.Error(err))
		return noticeUnavailable, err
	}

	s.publishUserEvent(ctx, models.EventTypeUserLoggedIn, user.Username)
	return noticeLoggedIn, nil
}

// OnLogout clears the current user
func (s *Storefront) OnLogout(ctx context.Context) (Notice, error) {
	user, _, _ := s.session.CurrentUser(ctx)

	if err := s.session.Logout(ctx); err != nil {
		s.logger.Error("Logout failed", zap.Error(err))
		return noticeUnavailable, err
	}

	s.publishUserEvent(ctx, models.EventTypeUserLoggedOut, user.Username)
	return noticeLoggedOut, nil
}

// OnRegister asks for a new username and password and adds them to the roster.
// New users only last until the process exits.
func (s *Storefront) OnRegister(ctx context.Context, prompt CredentialPrompt) (Notice, error) {
	username, password, ok := askPair(ctx, prompt, askRegisterUsername, askRegisterPassword)
	if !ok {
		return noticeCancelled, ErrCancelled
	}

	if err := s.session.Register(ctx, username, password); err != nil {
		if errors.Is(err, session.ErrDuplicateUsername) {
			return noticeUsernameTaken, err
		}
		return noticeUnavailable, err
	}

	s.publishUserEvent(ctx, models.EventTypeUserRegistered, username)
	return noticeRegistered, nil
}

type discardEvents struct{}

func (discardEvents) PublishCartCheckedOut(context.Context, *models.CartCheckedOutEvent) error {
	return nil
}

func (discardEvents) PublishUserEvent(context.Context, *models.UserEvent) error { return nil }

func askPair(ctx context.Context, prompt CredentialPrompt, first, second Question) (string, string, bool) {
	a, ok := prompt.Ask(ctx, first)
	if !ok {
		return "", "", false
	}
	b, ok := prompt.Ask(ctx, second)
	if !ok {
		return "", "", false
	}
	return a, b, true
}

func (s *Storefront) publishUserEvent(ctx context.Context, eventType, username string) {
	event := &models.UserEvent{
		BaseEvent: s.baseEvent(eventType),
		Username:  username,
	}
	if err := s.publisher.PublishUserEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish user event",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

func (s *Storefront) baseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		SessionID: s.id,
		Timestamp: time.Now(),
	}
}
