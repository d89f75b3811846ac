package bot

import (
	"context"
	"reflect"
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	"github.com/butcherhq/butcherbot/internal/config"
	"github.com/butcherhq/butcherbot/internal/db"
)

type stubModule struct {
	name string
}

func (m *stubModule) Name() string           { return m.name }
func (m *stubModule) Register(d *Dispatcher) {}

func stubFactory(name string) ModuleFactory {
	return func(s Service) (Module, error) {
		return &stubModule{name: name}, nil
	}
}

type stubService struct {
	cfg config.Config
}

func (s *stubService) GetBot() *api.BotAPI        { return nil }
func (s *stubService) GetDB() db.Client           { return nil }
func (s *stubService) GetConfig() config.Config   { return s.cfg }
func (s *stubService) IsSudoer(userID int64) bool { return false }
func (s *stubService) GetLanguage(ctx context.Context, chatID int64, user *api.User) string {
	return "en"
}

func TestActiveNamesAllowDeny(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Add("greetings", 0, stubFactory("greetings"))
	r.Add("admin", -1, stubFactory("admin"))
	r.Add("trigger", 0, stubFactory("trigger"))

	got := r.ActiveNames(nil, []string{"trigger"})
	want := []string{"admin", "greetings"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("deny filter: got %v, want %v", got, want)
	}
}

func TestActiveNamesDenyWinsOverAllow(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Add("a", 0, stubFactory("a"))
	r.Add("b", 0, stubFactory("b"))
	r.Add("c", 0, stubFactory("c"))

	got := r.ActiveNames([]string{"b", "c"}, []string{"c"})
	want := []string{"b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("allow+deny: got %v, want %v", got, want)
	}
}

func TestActiveNamesOrderingIsDeterministic(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Add("zeta", 5, stubFactory("zeta"))
	r.Add("beta", 5, stubFactory("beta"))
	r.Add("last", 10, stubFactory("last"))
	r.Add("first", -5, stubFactory("first"))

	want := []string{"first", "beta", "zeta", "last"}
	for i := 0; i < 10; i++ {
		if got := r.ActiveNames(nil, nil); !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d: got %v, want %v", i, got, want)
		}
	}
}

func TestActiveNamesIdempotent(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Add("a", 0, stubFactory("a"))
	r.Add("b", 1, stubFactory("b"))

	first := r.ActiveNames([]string{"a", "b"}, nil)
	second := r.ActiveNames([]string{"a", "b"}, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated filtering differs: %v vs %v", first, second)
	}
}

func TestBuildActiveSetSkipsFailingFactory(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Add("ok1", 0, stubFactory("ok1"))
	r.Add("broken", 1, func(s Service) (Module, error) {
		return nil, errors.New("boom")
	})
	r.Add("ok2", 2, stubFactory("ok2"))

	modules, err := r.BuildActiveSet(&stubService{}, nil, nil)
	if err != nil {
		t.Fatalf("build active set: %v", err)
	}
	var names []string
	for _, m := range modules {
		names = append(names, m.Name())
	}
	want := []string{"ok1", "ok2"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestBuildActiveSetEmptyRegistryFails(t *testing.T) {
	t.Parallel()

	if _, err := NewRegistry().BuildActiveSet(&stubService{}, nil, nil); err == nil {
		t.Fatal("expected error for empty registry")
	}
}

func TestAddReplacesDuplicateName(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Add("dup", 0, stubFactory("dup"))
	r.Add("dup", 7, stubFactory("dup"))

	if got := len(r.Names()); got != 1 {
		t.Fatalf("expected a single entry, got %d", got)
	}

	modules, err := r.BuildActiveSet(&stubService{}, nil, nil)
	if err != nil {
		t.Fatalf("build active set: %v", err)
	}
	if len(modules) != 1 {
		t.Fatalf("expected one module, got %d", len(modules))
	}
}
