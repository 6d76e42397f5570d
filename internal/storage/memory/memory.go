package memory

import (
	"bufio"
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"fanatitra/internal/core"
	"fanatitra/internal/log"
	"fanatitra/internal/ports"
)

// Store keeps contributors and contributions in process memory. A single
// mutex guards both tables so that uniqueness checks and inserts are atomic.
type Store struct {
	mu sync.Mutex

	contributors map[string]core.Contributor
	byCard       map[string]string // card number -> id
	byName       map[string]string // full name -> id

	contributions map[string]core.Contribution
	order         []string // contribution ids in insertion order
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		contributors:  map[string]core.Contributor{},
		byCard:        map[string]string{},
		byName:        map[string]string{},
		contributions: map[string]core.Contribution{},
	}
}

// NewFromFile seeds the directory from a text file with one contributor per
// line: "full name|card number|address|phone". Address and phone are
// optional. Blank lines and lines starting with # are ignored. Lines that
// fail validation or collide with an earlier line are skipped and logged, as
// is an unreadable file, which leaves the store empty.
func NewFromFile(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithComponent(log.ComponentStorage)
	s := New()
	lines, err := readLines(path)
	if err != nil {
		logger.Warn("Seed file unreadable, starting empty", "seed_file", path, log.FieldError, err)
	}
	now := time.Now().UTC()
	seeded := 0
	for _, l := range lines {
		parts := strings.Split(l.text, "|")
		for len(parts) < 4 {
			parts = append(parts, "")
		}
		in := core.NewContributor{
			FullName:    parts[0],
			CardNumber:  parts[1],
			Address:     parts[2],
			PhoneNumber: parts[3],
		}.Normalize()
		if err := in.Validate(); err != nil {
			logger.Warn("Skipping invalid seed line", "seed_file", path, "line", l.number, log.FieldError, err)
			continue
		}
		if err := s.CreateContributor(context.Background(), in.Build(core.NewID(), now)); err != nil {
			logger.Warn("Skipping duplicate seed line", "seed_file", path, "line", l.number,
				log.FieldFullName, in.FullName,
				log.FieldError, err)
			continue
		}
		seeded++
	}
	logger.Info("Directory seeded", "seed_file", path, log.FieldCount, seeded)
	return s
}

func (s *Store) CreateContributor(_ context.Context, c core.Contributor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUnique(c); err != nil {
		return err
	}
	s.contributors[c.ID] = c
	s.byCard[c.CardNumber] = c.ID
	s.byName[c.FullName] = c.ID
	return nil
}

func (s *Store) GetContributor(_ context.Context, id string) (core.Contributor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contributors[id]
	if !ok {
		return core.Contributor{}, core.NotFound("contributor not found")
	}
	return c, nil
}

// ListContributors returns contributors ordered by creation time.
func (s *Store) ListContributors(_ context.Context) ([]core.Contributor, error) {
	s.mu.Lock()
	out := make([]core.Contributor, 0, len(s.contributors))
	for _, c := range s.contributors {
		out = append(out, c)
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateContributor(_ context.Context, c core.Contributor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.contributors[c.ID]
	if !ok {
		return core.NotFound("contributor not found")
	}
	if err := s.checkUnique(c); err != nil {
		return err
	}
	delete(s.byCard, prev.CardNumber)
	delete(s.byName, prev.FullName)
	s.contributors[c.ID] = c
	s.byCard[c.CardNumber] = c.ID
	s.byName[c.FullName] = c.ID
	return nil
}

func (s *Store) DeleteContributor(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contributors[id]
	if !ok {
		return core.NotFound("contributor not found")
	}
	delete(s.contributors, id)
	delete(s.byCard, c.CardNumber)
	delete(s.byName, c.FullName)
	return nil
}

func (s *Store) FindContributorByName(_ context.Context, fullName string) (core.Contributor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[fullName]
	if !ok {
		return core.Contributor{}, core.NotFound("no contributor named " + `"` + fullName + `"`)
	}
	return s.contributors[id], nil
}

// checkUnique must be called with s.mu held. A record never collides with
// itself, which lets updates keep their own card number and name.
func (s *Store) checkUnique(c core.Contributor) error {
	if id, ok := s.byCard[c.CardNumber]; ok && id != c.ID {
		return core.DuplicateKey("cardNumber", "card number "+`"`+c.CardNumber+`"`+" is already registered")
	}
	if id, ok := s.byName[c.FullName]; ok && id != c.ID {
		return core.DuplicateKey("fullName", "a contributor named "+`"`+c.FullName+`"`+" already exists")
	}
	return nil
}

func (s *Store) CreateContribution(_ context.Context, c core.Contribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contributions[c.ID]; ok {
		return core.DuplicateKey("id", "contribution already exists")
	}
	s.contributions[c.ID] = c
	s.order = append(s.order, c.ID)
	return nil
}

func (s *Store) GetContribution(_ context.Context, id string) (core.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contributions[id]
	if !ok {
		return core.Contribution{}, core.NotFound("contribution not found")
	}
	return c, nil
}

// ListContributions returns matches newest first. Records created at the
// same instant keep reverse insertion order.
func (s *Store) ListContributions(_ context.Context, f ports.ContributionFilter) ([]core.Contribution, error) {
	s.mu.Lock()
	out := make([]core.Contribution, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		c := s.contributions[s.order[i]]
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateContribution(_ context.Context, c core.Contribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contributions[c.ID]; !ok {
		return core.NotFound("contribution not found")
	}
	s.contributions[c.ID] = c
	return nil
}

func (s *Store) DeleteContribution(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contributions[id]; !ok {
		return core.NotFound("contribution not found")
	}
	delete(s.contributions, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

type seedLine struct {
	number int
	text   string
}

func readLines(path string) ([]seedLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []seedLine
	sc := bufio.NewScanner(f)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, seedLine{number: n, text: line})
	}
	return out, sc.Err()
}
