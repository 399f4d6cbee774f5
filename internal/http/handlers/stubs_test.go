package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return errors.New("no row")
	}
	return r.scan(dest...)
}

type generationRow struct {
	userID   string
	imageURL string
	prompt   string
	title    string
	model    string
}

// stubDB implements infra.SQLExecutor over in-memory maps, dispatching on
// distinctive substrings of the inline queries.
type styleRow struct {
	id       string
	title    string
	prompt   string
	imageURL string
}

type stubDB struct {
	mu          sync.Mutex
	credits     map[string]int
	customerID  string
	generations []generationRow
	styles      []styleRow
	emailSyncs  int
	failInsert  bool
}

func newStubDB() *stubDB {
	return &stubDB{credits: make(map[string]int)}
}

func (s *stubDB) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.Contains(query, "credits + $2"):
		userID := args[0].(string)
		s.credits[userID] += args[1].(int)
		return pgconn.NewCommandTag("UPDATE 1"), nil
	case strings.Contains(query, "insert into generations"):
		if s.failInsert {
			return pgconn.CommandTag{}, errors.New("insert failed")
		}
		s.generations = append(s.generations, generationRow{
			userID:   args[0].(string),
			imageURL: args[1].(string),
			prompt:   args[2].(string),
			title:    args[3].(string),
			model:    args[4].(string),
		})
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.Contains(query, "set email"):
		s.emailSyncs++
		return pgconn.NewCommandTag("UPDATE 1"), nil
	case strings.Contains(query, "insert into profiles"):
		userID := args[0].(string)
		if _, ok := s.credits[userID]; !ok {
			s.credits[userID] = 0
		}
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.Contains(query, "delete from profiles"):
		delete(s.credits, args[0].(string))
		return pgconn.NewCommandTag("DELETE 1"), nil
	case strings.Contains(query, "update styles"):
		id := args[0].(string)
		for i := range s.styles {
			if s.styles[i].id == id {
				s.styles[i].title = args[1].(string)
				s.styles[i].prompt = args[2].(string)
				s.styles[i].imageURL = args[3].(string)
				return pgconn.NewCommandTag("UPDATE 1"), nil
			}
		}
		return pgconn.NewCommandTag("UPDATE 0"), nil
	case strings.Contains(query, "delete from styles"):
		id := args[0].(string)
		for i := range s.styles {
			if s.styles[i].id == id {
				s.styles = append(s.styles[:i], s.styles[i+1:]...)
				return pgconn.NewCommandTag("DELETE 1"), nil
			}
		}
		return pgconn.NewCommandTag("DELETE 0"), nil
	default:
		return pgconn.CommandTag{}, fmt.Errorf("unsupported exec: %s", query)
	}
}

func (s *stubDB) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.Contains(query, "coalesce(stripe_customer_id, ''), coalesce(email, '')"):
		userID := args[0].(string)
		if _, ok := s.credits[userID]; !ok {
			return stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		}
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*string) = s.customerID
			*dest[1].(*string) = testEmail
			return nil
		}}
	case strings.Contains(query, "select credits"):
		userID := args[0].(string)
		balance, ok := s.credits[userID]
		if !ok {
			return stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		}
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*int) = balance
			return nil
		}}
	case strings.Contains(query, "coalesce(username, '')"):
		userID := args[0].(string)
		balance, ok := s.credits[userID]
		if !ok {
			return stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		}
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*string) = userID
			*dest[1].(*string) = testEmail
			*dest[2].(*string) = "tester"
			*dest[3].(*int) = balance
			*dest[4].(*string) = ""
			*dest[5].(*string) = s.customerID
			*dest[6].(*string) = "none"
			*dest[7].(*time.Time) = time.Now()
			*dest[8].(*time.Time) = time.Now()
			return nil
		}}
	case strings.Contains(query, "credits - $2"):
		userID := args[0].(string)
		cost := args[1].(int)
		balance, ok := s.credits[userID]
		if !ok || balance < cost {
			return stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		}
		s.credits[userID] = balance - cost
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*int) = balance
			return nil
		}}
	case strings.Contains(query, "insert into styles"):
		row := styleRow{
			id:       fmt.Sprintf("style-%d", len(s.styles)+1),
			title:    args[0].(string),
			prompt:   args[1].(string),
			imageURL: args[2].(string),
		}
		s.styles = append(s.styles, row)
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*string) = row.id
			*dest[1].(*time.Time) = time.Now()
			return nil
		}}
	case strings.Contains(query, "from styles where"):
		id := args[0].(string)
		for _, st := range s.styles {
			if st.id == id {
				imageURL := st.imageURL
				return stubRow{scan: func(dest ...any) error {
					*dest[0].(*string) = imageURL
					return nil
				}}
			}
		}
		return stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
	default:
		return stubRow{scan: func(dest ...any) error {
			return fmt.Errorf("unsupported query: %s", query)
		}}
	}
}

func (s *stubDB) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.Contains(query, "select image_url from generations"):
		userID := args[0].(string)
		var rows [][]any
		for _, g := range s.generations {
			if g.userID == userID {
				rows = append(rows, []any{g.imageURL})
			}
		}
		return &stubRows{rows: rows}, nil
	case strings.Contains(query, "from generations"):
		userID := args[0].(string)
		var rows [][]any
		for i, g := range s.generations {
			if g.userID == userID {
				rows = append(rows, []any{fmt.Sprintf("gen-%d", i), g.userID, g.imageURL, g.prompt, g.title, g.model, time.Now()})
			}
		}
		return &stubRows{rows: rows}, nil
	default:
		return nil, fmt.Errorf("unsupported query: %s", query)
	}
}

type testRowsBase struct{}

func (testRowsBase) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (testRowsBase) Conn() *pgx.Conn                              { return nil }
func (testRowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (testRowsBase) RawValues() [][]byte                          { return nil }
func (testRowsBase) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

type stubRows struct {
	testRowsBase
	rows [][]any
	pos  int
}

func (r *stubRows) Close()     {}
func (r *stubRows) Err() error { return nil }

func (r *stubRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan arity mismatch: %d vs %d", len(dest), len(row))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("unsupported scan target %T", dest[i])
		}
	}
	return nil
}

func (s *stubDB) balance(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits[userID]
}

func (s *stubDB) generationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.generations)
}

const stubPublicDomain = "https://img.test"

// stubStore is an in-memory ObjectStore.
type stubStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	listErr error
	putErr  error
}

func newStubStore() *stubStore {
	return &stubStore{objects: make(map[string][]byte)}
}

func (s *stubStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *stubStore) List(ctx context.Context, prefix string) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *stubStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
			deleted++
		}
	}
	return deleted, nil
}

func (s *stubStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *stubStore) PublicURL(key string) string {
	return stubPublicDomain + "/" + key
}

func (s *stubStore) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, stubPublicDomain+"/") {
		return "", false
	}
	return strings.TrimPrefix(url, stubPublicDomain+"/"), true
}

func (s *stubStore) count(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			n++
		}
	}
	return n
}

type stubGenerator struct {
	mu       sync.Mutex
	data     []byte
	err      error
	calls    int
	lastURLs []string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string, imageURLs []string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastURLs = append([]string(nil), imageURLs...)
	if g.err != nil {
		return nil, g.err
	}
	return g.data, nil
}

func (g *stubGenerator) Model() string { return "test-model" }
