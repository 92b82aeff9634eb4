package sidebar

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/crm-sidebar/internal/attr"
	"github.com/sells-group/crm-sidebar/internal/cache"
	"github.com/sells-group/crm-sidebar/internal/contact"
	"github.com/sells-group/crm-sidebar/internal/deal"
	"github.com/sells-group/crm-sidebar/internal/participant"
	"github.com/sells-group/crm-sidebar/internal/resilience"
	"github.com/sells-group/crm-sidebar/pkg/attio"
)

// Config holds the sidebar-level settings: object slugs, cache TTLs, the
// operator's internal mail domain, and the workspace-specific billing option
// ids.
type Config struct {
	PeopleObject    string
	CompaniesObject string
	DealsObject     string
	StageAttribute  string
	InternalDomain  string
	BulkLimit       int
	CompaniesTTL    time.Duration
	StagesTTL       time.Duration
	DealsTTL        time.Duration
	Billing         attr.BillingOptions
	Retry           resilience.RetryConfig
}

// DefaultConfig returns the standard object slugs and TTL policy: company and
// stage collections change rarely and cache for minutes, the deal set changes
// during a session and caches for seconds.
func DefaultConfig() Config {
	return Config{
		PeopleObject:    "people",
		CompaniesObject: "companies",
		DealsObject:     "deals",
		StageAttribute:  "stage",
		BulkLimit:       500,
		CompaniesTTL:    10 * time.Minute,
		StagesTTL:       10 * time.Minute,
		DealsTTL:        30 * time.Second,
		Retry:           resilience.DefaultRetryConfig(),
	}
}

// Service reconciles CRM data for the active conversation.
type Service struct {
	crm     attio.Client
	cfg     Config
	people  *contact.Resolver
	nowFunc func() time.Time

	companies *cache.Slot[[]attio.Record]
	stages    *cache.Slot[[]attio.StatusOption]
	deals     *cache.Slot[[]attio.Record]

	mu         sync.Mutex
	generation uint64
	state      State
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source for cache TTLs and deal ordering, for
// deterministic tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

// NewService creates a sidebar service on top of the CRM client.
func NewService(crm attio.Client, cfg Config, opts ...ServiceOption) *Service {
	s := &Service{
		crm:     crm,
		cfg:     cfg,
		people:  contact.NewResolver(crm, cfg.PeopleObject),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	clock := func() time.Time { return s.nowFunc() }
	s.companies = cache.NewSlot("companies", cfg.CompaniesTTL, s.fetchCompanies,
		cache.WithClock[[]attio.Record](clock))
	s.stages = cache.NewSlot("deal_stages", cfg.StagesTTL, s.fetchStages,
		cache.WithClock[[]attio.StatusOption](clock))
	s.deals = cache.NewSlot("deals", cfg.DealsTTL, s.fetchDeals,
		cache.WithClock[[]attio.Record](clock))
	return s
}

// retryCfg returns the retry policy for a named CRM operation.
func (s *Service) retryCfg(operation string) resilience.RetryConfig {
	cfg := s.cfg.Retry
	cfg.OnRetry = resilience.RetryLogger("attio", operation)
	return cfg
}

// fetchCompanies pulls the full company list, name-sorted server-side.
func (s *Service) fetchCompanies(ctx context.Context) ([]attio.Record, error) {
	return resilience.DoVal(ctx, s.retryCfg("list_companies"), func(ctx context.Context) ([]attio.Record, error) {
		return s.crm.QueryRecords(ctx, s.cfg.CompaniesObject, attio.QueryRequest{
			Sorts: []attio.Sort{{Attribute: "name", Direction: "asc"}},
			Limit: s.cfg.BulkLimit,
		})
	})
}

// fetchStages discovers the stage attribute on the deal object and lists its
// non-archived status options.
func (s *Service) fetchStages(ctx context.Context) ([]attio.StatusOption, error) {
	return resilience.DoVal(ctx, s.retryCfg("list_stages"), s.listStages)
}

func (s *Service) listStages(ctx context.Context) ([]attio.StatusOption, error) {
	attrs, err := s.crm.ListAttributes(ctx, s.cfg.DealsObject)
	if err != nil {
		return nil, err
	}
	var stageAttr *attio.Attribute
	for i := range attrs {
		if attrs[i].APISlug == s.cfg.StageAttribute {
			stageAttr = &attrs[i]
			break
		}
	}
	if stageAttr == nil {
		return nil, eris.New("sidebar: deal object has no stage attribute")
	}
	options, err := s.crm.ListStatuses(ctx, s.cfg.DealsObject, stageAttr.ID.AttributeID)
	if err != nil {
		return nil, err
	}
	active := options[:0]
	for _, o := range options {
		if !o.IsArchived {
			active = append(active, o)
		}
	}
	return active, nil
}

// fetchDeals pulls the full deal set. The query endpoint cannot filter on
// reference attributes, so relationship filtering happens after the fact.
func (s *Service) fetchDeals(ctx context.Context) ([]attio.Record, error) {
	return resilience.DoVal(ctx, s.retryCfg("list_deals"), func(ctx context.Context) ([]attio.Record, error) {
		return s.crm.QueryRecords(ctx, s.cfg.DealsObject, attio.QueryRequest{
			Limit: s.cfg.BulkLimit,
		})
	})
}

// Stages returns the selectable deal stages, served from the stage cache.
func (s *Service) Stages(ctx context.Context) ([]Stage, error) {
	options, err := s.stages.Get(ctx)
	if err != nil {
		return nil, err
	}
	return stageViews(options), nil
}

// State returns the current aggregate view.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetConversation replaces the active conversation, derives its participants,
// and loads CRM data for the lookup target. The returned state is the result
// of this load unless a newer conversation superseded it meanwhile.
func (s *Service) SetConversation(ctx context.Context, conversationID string, messages []participant.Message) State {
	participants := participant.Extract(messages, s.cfg.InternalDomain)
	target := participant.Target(participants)

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.state = State{
		ConversationID: conversationID,
		TargetEmail:    target,
		Participants:   participants,
		Loading:        true,
	}
	s.mu.Unlock()

	if target == "" {
		done := State{
			ConversationID: conversationID,
			Participants:   participants,
			Error:          "could not extract a contact email from the conversation",
		}
		s.publish(gen, done)
		return done
	}

	loaded := s.load(ctx, conversationID, target, participants)
	s.publish(gen, loaded)
	return loaded
}

// Reload re-runs the load for the current conversation, used after a
// mutation lands.
func (s *Service) Reload(ctx context.Context) State {
	s.mu.Lock()
	conversationID := s.state.ConversationID
	target := s.state.TargetEmail
	participants := s.state.Participants
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	if target == "" {
		return s.State()
	}
	loaded := s.load(ctx, conversationID, target, participants)
	s.publish(gen, loaded)
	return loaded
}

// publish installs the load result unless a newer load superseded it. A
// completed fetch whose generation no longer matches is discarded silently;
// this is the stale-result race, not an error.
func (s *Service) publish(gen uint64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		zap.L().Debug("discarding stale load result",
			zap.String("conversation_id", state.ConversationID),
			zap.String("target_email", state.TargetEmail),
		)
		return
	}
	s.state = state
}

// load assembles the full state for one lookup target. The three bulk
// collections are fetched concurrently; the company detail and company deal
// subset strictly follow person resolution because they depend on the
// person's company reference.
func (s *Service) load(ctx context.Context, conversationID, email string, participants []participant.Participant) State {
	state := State{
		ConversationID: conversationID,
		TargetEmail:    email,
		Participants:   participants,
		Deals:          []deal.Deal{},
		Companies:      []Company{},
		DealStages:     []Stage{},
	}

	var (
		companyRecords []attio.Record
		stageOptions   []attio.StatusOption
		dealRecords    []attio.Record
		person         *contact.Person
		personErr      error
	)

	// The listing fetches tolerate failure: the sidebar degrades to empty
	// collections rather than blocking on them. Person resolution does not.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if companyRecords, err = s.companies.Get(gctx); err != nil {
			zap.L().Warn("company list fetch failed", zap.Error(err))
			companyRecords = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if stageOptions, err = s.stages.Get(gctx); err != nil {
			zap.L().Warn("deal stage fetch failed", zap.Error(err))
			stageOptions = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if dealRecords, err = s.deals.Get(gctx); err != nil {
			zap.L().Warn("deal list fetch failed", zap.Error(err))
			dealRecords = nil
		}
		return nil
	})
	g.Go(func() error {
		person, personErr = s.people.ResolveByEmail(gctx, email)
		return nil
	})
	_ = g.Wait()

	state.Companies = companyViews(companyRecords)
	state.DealStages = stageViews(stageOptions)

	if personErr != nil {
		switch {
		case errors.Is(personErr, contact.ErrPersonNotFound):
			// Normal miss: the frontend offers record creation.
		case errors.Is(personErr, contact.ErrPersonMalformed):
			state.Error = "person record is incomplete in the CRM"
		default:
			zap.L().Error("person resolution failed",
				zap.String("email", email), zap.Error(personErr))
			state.Error = "failed to load CRM data"
		}
		return state
	}

	state.Person = person

	if person.CompanyID != "" {
		companyRec, err := s.crm.GetRecord(ctx, s.cfg.CompaniesObject, person.CompanyID)
		if err != nil {
			zap.L().Warn("company detail fetch failed",
				zap.String("company_id", person.CompanyID), zap.Error(err))
		} else {
			state.Company = companyView(companyRec)
		}
	}

	agg := deal.NewAggregator(stageOptions, s.cfg.Billing, deal.WithClock(s.nowFunc))
	state.Deals = agg.Related(dealRecords, person.ID, person.CompanyID)

	return state
}
