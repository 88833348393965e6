package tenantctx

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/workdeck/workdeck/pkg/access"
	"github.com/workdeck/workdeck/pkg/authevent"
	"github.com/workdeck/workdeck/pkg/broadcast"
	"github.com/workdeck/workdeck/pkg/membership"
	"github.com/workdeck/workdeck/pkg/tenant"
)

// User identifies the authenticated person a snapshot belongs to.
type User struct {
	ID    uuid.UUID
	Email string
}

// Context is an immutable snapshot of the resolved tenant state for one
// session. Readers always receive a complete copy; the provider replaces
// the whole snapshot atomically and never mutates one in place.
type Context struct {
	Tenant  *tenant.Tenant
	User    *User
	Role    membership.Role
	Loading bool
}

// UserLookup fetches the profile for a user id so snapshots can carry the
// email alongside the id. Optional; without it snapshots hold id only.
type UserLookup func(ctx context.Context, id uuid.UUID) (User, error)

// Navigate is invoked when the provider needs the session redirected, e.g.
// to the sign-in page after sign-out.
type Navigate func(path string)

// Provider keeps a per-session tenant context current. It resolves the
// tenant and role through the evaluator on start and again whenever the
// session identity changes, and exposes the result as immutable snapshots.
//
// All mutation happens inside the provider's own goroutine; Current is safe
// to call from any goroutine.
type Provider struct {
	host      string
	evaluator *access.Evaluator
	bus       authevent.Bus
	navigate  Navigate
	lookup    UserLookup
	onChange  func(Context)
	log       *slog.Logger

	mu      sync.Mutex
	current Context
	userID  uuid.UUID
	gen     uint64
	closed  bool

	sub       broadcast.Subscriber[authevent.Event]
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Option customizes a Provider.
type Option func(*Provider)

// WithNavigate sets the redirect callback fired on sign-out.
func WithNavigate(fn Navigate) Option {
	return func(p *Provider) { p.navigate = fn }
}

// WithUserLookup sets the profile lookup used to enrich snapshots.
func WithUserLookup(fn UserLookup) Option {
	return func(p *Provider) { p.lookup = fn }
}

// WithOnChange registers a callback fired with every installed snapshot,
// including intermediate loading states. The callback runs on whichever
// goroutine installs the snapshot and must not block indefinitely.
func WithOnChange(fn func(Context)) Option {
	return func(p *Provider) { p.onChange = fn }
}

// WithLogger sets the logger for resolution failures.
func WithLogger(log *slog.Logger) Option {
	return func(p *Provider) { p.log = log }
}

// NewProvider builds a provider for the given request host. The host
// determines which tenant slug every resolution targets.
func NewProvider(host string, evaluator *access.Evaluator, bus authevent.Bus, opts ...Option) *Provider {
	if evaluator == nil {
		panic("tenantctx: nil evaluator")
	}
	if bus == nil {
		panic("tenantctx: nil event bus")
	}
	p := &Provider{
		host:      host,
		evaluator: evaluator,
		bus:       bus,
		navigate:  func(string) {},
		log:       slog.New(slog.DiscardHandler),
		current:   Context{Loading: true},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start seeds the provider with a server-computed snapshot and begins the
// lifecycle: an immediate fresh resolution for userID, then re-resolution
// on every auth event until ctx is cancelled or Close is called.
//
// The initial snapshot is provisional. The first fresh resolution replaces
// it even when the result is a denial: a stale authorized snapshot never
// outlives a current denial.
func (p *Provider) Start(ctx context.Context, initial Context, userID uuid.UUID) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	initial.Loading = true
	p.current = initial
	p.userID = userID
	p.gen++
	gen := p.gen
	p.sub = p.bus.Subscribe(ctx)
	sub := p.sub
	p.mu.Unlock()
	p.notify(initial)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.resolve(ctx, gen, userID)
		p.loop(ctx, sub)
	}()
}

// Current returns the latest snapshot.
func (p *Provider) Current() Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Close stops the lifecycle and releases the event subscription. It is
// idempotent and safe to call before Start.
func (p *Provider) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.gen++
		sub := p.sub
		p.mu.Unlock()
		if sub != nil {
			sub.Close()
		}
		p.wg.Wait()
	})
	return nil
}

func (p *Provider) loop(ctx context.Context, sub broadcast.Subscriber[authevent.Event]) {
	ch := sub.Receive(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			p.handle(ctx, msg.Data)
		}
	}
}

func (p *Provider) handle(ctx context.Context, ev authevent.Event) {
	switch ev.Type {
	case authevent.SignedOut:
		p.mu.Lock()
		if p.closed || ev.UserID != p.userID {
			p.mu.Unlock()
			return
		}
		p.gen++
		p.userID = uuid.Nil
		p.current = Context{}
		p.mu.Unlock()
		p.notify(Context{})
		p.navigate("/auth/signin")

	case authevent.SignedIn:
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		p.gen++
		gen := p.gen
		p.userID = ev.UserID
		p.current.User = &User{ID: ev.UserID}
		p.current.Loading = true
		loading := p.current
		p.mu.Unlock()
		p.notify(loading)
		p.resolve(ctx, gen, ev.UserID)
	}
}

// resolve runs one full tenant+role resolution and commits the result if
// the provider has not moved on meanwhile.
func (p *Provider) resolve(ctx context.Context, gen uint64, userID uuid.UUID) {
	decision, err := p.evaluator.Evaluate(ctx, p.host, userID)
	if err != nil {
		p.log.ErrorContext(ctx, "tenant context resolution failed",
			slog.String("host", p.host), slog.Any("error", err))
		p.commit(gen, Context{Loading: false})
		return
	}

	next := Context{}
	if decision.Allowed {
		next.Tenant = decision.Tenant
		next.Role = decision.Role
	}
	if userID != uuid.Nil {
		u := User{ID: userID}
		if p.lookup != nil {
			if full, err := p.lookup(ctx, userID); err == nil {
				u = full
			} else {
				p.log.WarnContext(ctx, "user profile lookup failed",
					slog.Any("error", err))
			}
		}
		next.User = &u
	}
	p.commit(gen, next)
}

// commit installs a snapshot only when gen is still current. A resolution
// that finishes after a newer one started, or after Close, mutates nothing.
func (p *Provider) commit(gen uint64, next Context) {
	p.mu.Lock()
	if p.closed || gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.current = next
	p.mu.Unlock()
	p.notify(next)
}

func (p *Provider) notify(c Context) {
	if p.onChange != nil {
		p.onChange(c)
	}
}
