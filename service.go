package proforma

import (
	"fmt"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type options struct {
	now func() time.Time
	log logrus.FieldLogger
}

// Option configures a Service or a Versions history.
type Option func(*options)

// WithClock sets the clock used to timestamp versions.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger of a Service. By default nothing is logged.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		o.log = silent
	}
	return o
}

// View is a version with its derived metrics and balance status.
type View struct {
	Version ProformaVersion `json:"version"`
	Metrics DerivedMetrics  `json:"metrics"`
	Balance BalanceStatus   `json:"balance"`
}

// Evaluate derives the metrics and balance status of a version.
func Evaluate(v ProformaVersion) View {
	m := Derive(v.Snapshot)
	return View{Version: v, Metrics: m, Balance: Reconcile(v.Snapshot, m)}
}

// Service edits a pro forma through its version history.
//
// Every mutation applies to the current draft, and returns the recomputed view
// of the draft. Derived values are never stored, they are recomputed after each
// change.
type Service struct {
	mu       sync.Mutex // serializes read-modify-write edits of the draft
	versions *Versions
	log      logrus.FieldLogger
}

// NewService creates a service whose history starts with a v1.0 draft of seed.
func NewService(seed Proforma, opts ...Option) *Service {
	o := newOptions(opts)
	s := &Service{
		versions: NewVersions(seed, opts...),
		log:      o.log.WithField("proforma", seed.Name()),
	}
	s.log.WithField("version", V(1, 0)).Info("pro forma created")
	return s
}

// RestoreService creates a service from a persisted history.
func RestoreService(rec Record, opts ...Option) (*Service, error) {
	versions, err := RestoreVersions(rec, opts...)
	if err != nil {
		return nil, err
	}
	o := newOptions(opts)
	s := &Service{versions: versions}
	s.log = o.log.WithField("proforma", s.Name())
	return s, nil
}

// Name returns the name of the most recent version.
func (s *Service) Name() string {
	if d, ok := s.versions.Draft(); ok {
		return d.Snapshot.Name()
	}
	if l, ok := s.versions.Latest(); ok {
		return l.Snapshot.Name()
	}
	return ""
}

// View returns the view of the draft, or of the latest locked version when
// there is no draft.
func (s *Service) View() (View, error) {
	if d, ok := s.versions.Draft(); ok {
		return Evaluate(d), nil
	}
	if l, ok := s.versions.Latest(); ok {
		return Evaluate(l), nil
	}
	return View{}, fmt.Errorf("no version: %w", ErrNotFound)
}

// ViewOf returns the view of any version.
func (s *Service) ViewOf(id VersionID) (View, error) {
	v, err := s.versions.Get(id)
	if err != nil {
		return View{}, err
	}
	return Evaluate(v), nil
}

// Draft returns the current draft, if any.
func (s *Service) Draft() (ProformaVersion, bool) { return s.versions.Draft() }

// Versions iterates over the history, most recent first.
func (s *Service) Versions() iter.Seq[ProformaVersion] { return s.versions.List() }

// History returns every version, oldest first.
func (s *Service) History() []ProformaVersion {
	list := make([]ProformaVersion, 0, s.versions.Len())
	for v := range s.versions.List() {
		list = append(list, v)
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list
}

// Record returns the history as it is persisted.
func (s *Service) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Record{Versions: s.History(), Issued: s.versions.Issued()}
}

// Edit applies f to the snapshot of the current draft and stores the result.
// It fails with ErrInvalidState when there is no draft.
func (s *Service) Edit(f func(Proforma) (Proforma, error)) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.versions.Draft()
	if !ok {
		return View{}, fmt.Errorf("no draft to edit, create one first: %w", ErrInvalidState)
	}
	log := s.log.WithField("version", d.ID)
	p, err := f(d.Snapshot)
	if err != nil {
		log.WithError(err).Debug("edit rejected")
		return View{}, err
	}
	d, err = s.versions.Update(d.ID, p)
	if err != nil {
		log.WithError(err).Debug("update rejected")
		return View{}, err
	}
	view := Evaluate(d)
	log.WithFields(logrus.Fields{
		"totalCosts": view.Metrics.TotalCosts.Decimal().String(),
		"balance":    view.Balance.State.String(),
	}).Debug("draft updated")
	return view, nil
}

func (s *Service) SetUnit(u UnitMixEntry) (View, error) {
	return s.Edit(func(p Proforma) (Proforma, error) { return p.SetUnit(u) })
}

func (s *Service) RemoveUnit(unitType string) (View, error) {
	return s.Edit(func(p Proforma) (Proforma, error) { return p.RemoveUnit(unitType) })
}

// SetOtherIncome adds or replaces an other income item.
func (s *Service) SetOtherIncome(label string, amount Money) (View, error) {
	return s.Edit(func(p Proforma) (Proforma, error) { return p.SetItem(Item(OtherIncome, label, amount)) })
}

func (s *Service) RemoveOtherIncome(label string) (View, error) {
	return s.Edit(func(p Proforma) (Proforma, error) { return p.RemoveItem(OtherIncome, label) })
}

// SetCost adds or replaces a cost item in one of the cost categories.
func (s *Service) SetCost(c Category, label string, amount Money) (View, error) {
	if !c.IsCost() {
		return View{}, invalid("category", "%q is not a cost category", c)
	}
	return s.Edit(func(p Proforma) (Proforma, error) { return p.SetItem(Item(c, label, amount)) })
}

func (s *Service) RemoveCost(c Category, label string) (View, error) {
	if !c.IsCost() {
		return View{}, invalid("category", "%q is not a cost category", c)
	}
	return s.Edit(func(p Proforma) (Proforma, error) { return p.RemoveItem(c, label) })
}

func (s *Service) SetFinancing(f FinancingTerms) (View, error) {
	return s.Edit(func(p Proforma) (Proforma, error) { return p.SetFinancing(f) })
}

func (s *Service) SetEquity(e EquityContribution) (View, error) {
	return s.Edit(func(p Proforma) (Proforma, error) { return p.SetEquity(e) })
}

func (s *Service) RemoveEquity(source string) (View, error) {
	return s.Edit(func(p Proforma) (Proforma, error) { return p.RemoveEquity(source) })
}

func (s *Service) SetIRREstimate(irr Percent) (View, error) {
	return s.Edit(func(p Proforma) (Proforma, error) { return p.SetIRREstimate(irr), nil })
}

func (s *Service) Rename(name string) (View, error) {
	if name == "" {
		return View{}, invalid("name", "must not be empty")
	}
	return s.Edit(func(p Proforma) (Proforma, error) { return p.WithName(name), nil })
}

// Replace replaces the whole snapshot of the draft.
func (s *Service) Replace(snapshot Proforma) (View, error) {
	return s.Edit(func(Proforma) (Proforma, error) { return snapshot, nil })
}

// Plug adjusts the contribution of source so that sources equal uses.
func (s *Service) Plug(source string) (View, error) {
	return s.Edit(func(p Proforma) (Proforma, error) { return PlugEquity(p, source) })
}

// Annotate sets the notes of the current draft.
func (s *Service) Annotate(notes string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.versions.Draft()
	if !ok {
		return View{}, fmt.Errorf("no draft to annotate: %w", ErrInvalidState)
	}
	d, err := s.versions.Annotate(d.ID, notes)
	if err != nil {
		return View{}, err
	}
	return Evaluate(d), nil
}

// Lock freezes the draft named id, then opens a new draft from it, numbered
// with next. It returns the locked version and the new draft.
func (s *Service) Lock(id VersionID, notes string, next Bump) (locked, draft ProformaVersion, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.WithField("version", id)
	locked, err = s.versions.Lock(id, notes)
	if err != nil {
		log.WithError(err).Warn("lock rejected")
		return ProformaVersion{}, ProformaVersion{}, err
	}
	draft, err = s.versions.CreateDraft(&locked, next)
	if err != nil {
		// the lock leaves no draft behind, so this is a bug.
		return ProformaVersion{}, ProformaVersion{}, fmt.Errorf("cannot reopen a draft after %v: %w", id, err)
	}
	log.WithField("draft", draft.ID).Info("version locked")
	return locked, draft, nil
}

// CreateDraft opens a draft from version from, or from a blank pro forma if
// from is the zero VersionID.
func (s *Service) CreateDraft(from VersionID, b Bump) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var src *ProformaVersion
	if !from.IsZero() {
		v, err := s.versions.Get(from)
		if err != nil {
			return View{}, err
		}
		src = &v
	}
	d, err := s.versions.CreateDraft(src, b)
	if err != nil {
		return View{}, err
	}
	s.log.WithFields(logrus.Fields{"version": d.ID, "from": from}).Info("draft created")
	return Evaluate(d), nil
}

// Discard drops the draft named id. It fails with ErrInvalidState when the
// draft is the only version of the pro forma.
func (s *Service) Discard(id VersionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.versions.Discard(id); err != nil {
		return err
	}
	s.log.WithField("version", id).Info("draft discarded")
	return nil
}
