package memory

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/artem13815/accounts/pkg/audit"
	"github.com/artem13815/accounts/pkg/metrics"
)

type AuditRepositorySuite struct {
	suite.Suite
	ctx  context.Context
	base time.Time
	tick int
}

func TestAuditRepositorySuite(t *testing.T) {
	suite.Run(t, new(AuditRepositorySuite))
}

func (s *AuditRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.base = time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
	s.tick = 0
}

// stepClock advances one minute per append.
func (s *AuditRepositorySuite) stepClock() *audit.Clock {
	return audit.NewClock(func() time.Time {
		t := s.base.Add(time.Duration(s.tick) * time.Minute)
		s.tick++
		return t
	})
}

func (s *AuditRepositorySuite) entry(event string) audit.Entry {
	return audit.Entry{Email: "a@example.com", UserID: "u1", Event: event}
}

func (s *AuditRepositorySuite) events(page audit.Page) []string {
	var out []string
	for _, e := range page.Events {
		out = append(out, e.Event)
	}
	return out
}

func (s *AuditRepositorySuite) TestEviction() {
	s.Run("budget of two events keeps the newest two", func() {
		budget := 2 * s.entry("e1").Size()
		repo := NewAuditRepository(audit.RetentionPolicy{MaxBytes: budget}, WithAuditClock(s.stepClock()))

		for _, e := range []string{"e1", "e2", "e3"} {
			_, err := repo.Append(s.ctx, s.entry(e))
			s.Require().NoError(err)
		}

		page, err := repo.Query(s.ctx, audit.Filter{Page: 1, Limit: 10})
		s.Require().NoError(err)
		s.Equal([]string{"e3", "e2"}, s.events(page))
		s.Equal(2, page.Total)

		size, err := repo.Size(s.ctx)
		s.Require().NoError(err)
		s.Equal(budget, size)
	})

	s.Run("stored size never exceeds the budget", func() {
		budget := int64(1000)
		repo := NewAuditRepository(audit.RetentionPolicy{MaxBytes: budget})
		for i := 0; i < 200; i++ {
			_, err := repo.Append(s.ctx, audit.Entry{Email: "user@example.com", UserID: "id", Event: "login"})
			s.Require().NoError(err)
			size, err := repo.Size(s.ctx)
			s.Require().NoError(err)
			s.LessOrEqual(size, budget)
		}
	})

	s.Run("oversized event evicts everything and is still stored", func() {
		repo := NewAuditRepository(audit.RetentionPolicy{MaxBytes: 100})
		_, err := repo.Append(s.ctx, s.entry("small"))
		s.Require().NoError(err)

		big := audit.Entry{Email: "a@example.com", UserID: string(make([]byte, 200)), Event: "big"}
		_, err = repo.Append(s.ctx, big)
		s.Require().NoError(err)

		page, err := repo.Query(s.ctx, audit.Filter{Page: 1, Limit: 10})
		s.Require().NoError(err)
		s.Equal([]string{"big"}, s.events(page))
	})

	s.Run("evictions are counted", func() {
		m := metrics.New(prometheus.NewRegistry())
		repo := NewAuditRepository(audit.RetentionPolicy{MaxBytes: s.entry("e1").Size()}, WithAuditMetrics(m))
		for _, e := range []string{"e1", "e2", "e3"} {
			_, err := repo.Append(s.ctx, s.entry(e))
			s.Require().NoError(err)
		}
		s.Equal(2.0, testutil.ToFloat64(m.AuditEvictions))
	})
}

func (s *AuditRepositorySuite) TestQuery() {
	repo := NewAuditRepository(audit.RetentionPolicy{MaxBytes: audit.DefaultMaxBytes}, WithAuditClock(s.stepClock()))
	emails := []string{"alice@example.com", "bob@example.com", "ALICE@other.org", "carol@example.com", "alice@example.com"}
	for i, email := range emails {
		_, err := repo.Append(s.ctx, audit.Entry{Email: email, UserID: "u", Event: []string{"e0", "e1", "e2", "e3", "e4"}[i]})
		s.Require().NoError(err)
	}

	s.Run("newest first with total", func() {
		page, err := repo.Query(s.ctx, audit.Filter{Page: 1, Limit: 2})
		s.Require().NoError(err)
		s.Equal([]string{"e4", "e3"}, s.events(page))
		s.Equal(5, page.Total)
	})

	s.Run("second page", func() {
		page, err := repo.Query(s.ctx, audit.Filter{Page: 2, Limit: 2})
		s.Require().NoError(err)
		s.Equal([]string{"e2", "e1"}, s.events(page))
	})

	s.Run("page past the end is empty but keeps total", func() {
		page, err := repo.Query(s.ctx, audit.Filter{Page: 10, Limit: 2})
		s.Require().NoError(err)
		s.Empty(page.Events)
		s.Equal(5, page.Total)
	})

	s.Run("email substring is case-insensitive", func() {
		page, err := repo.Query(s.ctx, audit.Filter{Page: 1, Limit: 10, Email: "alice"})
		s.Require().NoError(err)
		s.Equal([]string{"e4", "e2", "e0"}, s.events(page))
		s.Equal(3, page.Total)
	})

	s.Run("time bounds are inclusive", func() {
		from := s.base.Add(1 * time.Minute)
		to := s.base.Add(3 * time.Minute)
		page, err := repo.Query(s.ctx, audit.Filter{Page: 1, Limit: 1, From: &from, To: &to})
		s.Require().NoError(err)
		s.Equal([]string{"e3"}, s.events(page))
		s.Equal(3, page.Total)
	})

	s.Run("combined filters", func() {
		from := s.base.Add(1 * time.Minute)
		page, err := repo.Query(s.ctx, audit.Filter{Page: 1, Limit: 10, Email: "example.com", From: &from})
		s.Require().NoError(err)
		s.Equal([]string{"e4", "e3", "e1"}, s.events(page))
	})
}

func (s *AuditRepositorySuite) TestConcurrentAppends() {
	repo := NewAuditRepository(audit.RetentionPolicy{MaxBytes: 50 * s.entry("e").Size()})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, err := repo.Append(s.ctx, s.entry("e"))
				s.NoError(err)
			}
		}()
	}
	wg.Wait()

	page, err := repo.Query(s.ctx, audit.Filter{Page: 1, Limit: 100})
	s.Require().NoError(err)
	s.Equal(50, page.Total)
	for i := 1; i < len(page.Events); i++ {
		s.False(page.Events[i].Timestamp.After(page.Events[i-1].Timestamp))
		s.Greater(page.Events[i-1].ID, page.Events[i].ID)
	}
}

func (s *AuditRepositorySuite) TestPageFarPastTheEnd() {
	repo := NewAuditRepository(audit.RetentionPolicy{MaxBytes: audit.DefaultMaxBytes}, WithAuditClock(s.stepClock()))
	for _, e := range []string{"e1", "e2", "e3"} {
		_, err := repo.Append(s.ctx, s.entry(e))
		s.Require().NoError(err)
	}

	page, err := audit.NewService(repo).List(s.ctx, audit.Filter{Page: math.MaxInt/10 + 2, Limit: 10})
	s.Require().NoError(err)
	s.Empty(page.Events)
	s.Equal(3, page.Total)
}
