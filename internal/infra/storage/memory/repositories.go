package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ratepilot/internal/domain/availability"
	"ratepilot/internal/domain/calendar"
	"ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/daterange"
)

// PropertyRepository is an in-memory implementation for demo purposes.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[property.ID]*property.Property
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[property.ID]*property.Property)}
}

// ByID returns a copy of the property or property.ErrNotFound.
func (r *PropertyRepository) ByID(ctx context.Context, id property.ID) (*property.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, property.ErrNotFound
	}
	cp := *p
	cp.Platforms = append([]string(nil), p.Platforms...)
	return &cp, nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *property.Property) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *PropertyRepository) List(ctx context.Context) ([]*property.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*property.Property, 0, len(r.items))
	for _, p := range r.items {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type calendarKey struct {
	id       property.ID
	platform string
}

// CalendarStore keeps one entry list per property and platform. A calendar
// that was never written reads as empty.
type CalendarStore struct {
	mu        sync.RWMutex
	calendars map[calendarKey][]calendar.Entry
}

func NewCalendarStore() *CalendarStore {
	return &CalendarStore{calendars: make(map[calendarKey][]calendar.Entry)}
}

func (s *CalendarStore) Entries(ctx context.Context, id property.ID, platform string) ([]calendar.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.calendars[calendarKey{id, calendar.NormalizePlatform(platform)}]
	return append([]calendar.Entry(nil), entries...), nil
}

func (s *CalendarStore) Replace(ctx context.Context, id property.ID, platform string, entries []calendar.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calendars[calendarKey{id, calendar.NormalizePlatform(platform)}] = append([]calendar.Entry(nil), entries...)
	return nil
}

// RuleStore keeps the latest rule per property.
type RuleStore struct {
	mu    sync.RWMutex
	items map[property.ID]availability.Rule
}

func NewRuleStore() *RuleStore {
	return &RuleStore{items: make(map[property.ID]availability.Rule)}
}

func (s *RuleStore) Save(ctx context.Context, r availability.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[r.PropertyID] = r
	return nil
}

func (s *RuleStore) Active(ctx context.Context, id property.ID) (availability.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.items[id]
	if !ok || r.Status != availability.StatusActive {
		return availability.Rule{}, availability.ErrRuleNotFound
	}
	return r, nil
}

// StrategyStore keeps one strategy per property; saving replaces it.
type StrategyStore struct {
	mu    sync.RWMutex
	items map[property.ID]pricing.Strategy
}

func NewStrategyStore() *StrategyStore {
	return &StrategyStore{items: make(map[property.ID]pricing.Strategy)}
}

func (s *StrategyStore) Save(ctx context.Context, st pricing.Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[st.PropertyID] = st
	return nil
}

func (s *StrategyStore) ByProperty(ctx context.Context, id property.ID) (pricing.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.items[id]
	if !ok {
		return pricing.Strategy{}, pricing.ErrStrategyNotFound
	}
	return st, nil
}

func (s *StrategyStore) Active(ctx context.Context) ([]pricing.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pricing.Strategy, 0, len(s.items))
	for _, st := range s.items {
		if st.Status == pricing.StrategyActive {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PropertyID < out[j].PropertyID })
	return out, nil
}

type rateKey struct {
	id  property.ID
	day time.Time
}

// RateBoard records the nightly rates pushed to platforms and answers the
// current price for a day. Days never published fall back to the
// property's average rate.
type RateBoard struct {
	mu         sync.RWMutex
	rates      map[rateKey]int64
	pushes     map[property.ID][]string
	Properties property.Reader
}

func NewRateBoard(props property.Reader) *RateBoard {
	return &RateBoard{
		rates:      make(map[rateKey]int64),
		pushes:     make(map[property.ID][]string),
		Properties: props,
	}
}

func (b *RateBoard) PublishRates(ctx context.Context, id property.ID, platforms []string, rates []pricing.DailyRate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range rates {
		b.rates[rateKey{id, daterange.Truncate(r.Date)}] = r.Price
	}
	b.pushes[id] = append([]string(nil), platforms...)
	return nil
}

func (b *RateBoard) CurrentPrice(ctx context.Context, id property.ID, date time.Time) (int64, error) {
	b.mu.RLock()
	price, ok := b.rates[rateKey{id, daterange.Truncate(date)}]
	b.mu.RUnlock()
	if ok {
		return price, nil
	}
	if b.Properties == nil {
		return 0, property.ErrNotFound
	}
	p, err := b.Properties.ByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.AverageRate, nil
}

// Platforms returns where rates for id were last pushed.
func (b *RateBoard) Platforms(id property.ID) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.pushes[id]...)
}

var (
	_ property.Repository    = (*PropertyRepository)(nil)
	_ calendar.Store         = (*CalendarStore)(nil)
	_ availability.RuleStore = (*RuleStore)(nil)
	_ pricing.StrategyStore  = (*StrategyStore)(nil)
	_ pricing.RatePublisher  = (*RateBoard)(nil)
)
