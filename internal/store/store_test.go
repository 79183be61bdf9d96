package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"taskstore/internal/models"
	"taskstore/internal/storage"
)

// memBackend is an in-memory storage.Backend for tests.
type memBackend struct {
	data     []byte
	found    bool
	failSave bool
	saves    int
}

func (m *memBackend) Load(ctx context.Context) ([]byte, bool, error) {
	return m.data, m.found, nil
}

func (m *memBackend) Save(ctx context.Context, data []byte) error {
	if m.failSave {
		return errors.New("disk full")
	}
	m.data = append([]byte(nil), data...)
	m.found = true
	m.saves++
	return nil
}

func (m *memBackend) Close() error { return nil }

func newTestStore(t *testing.T) (*Store, *memBackend) {
	t.Helper()
	backend := &memBackend{}
	s := New(backend)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return s, backend
}

func TestAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts at front with fresh id", func(t *testing.T) {
		s, _ := newTestStore(t)
		first, err := s.Add(ctx, "Buy milk", models.PriorityMedium)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		second, err := s.Add(ctx, "Call mom", models.PriorityHigh)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		tasks := s.Query(models.StatusAll, "")
		if len(tasks) != 2 {
			t.Fatalf("len(tasks) = %d, want 2", len(tasks))
		}
		if tasks[0].ID != second.ID || tasks[1].ID != first.ID {
			t.Errorf("order = [%s, %s], want newest first", tasks[0].Text, tasks[1].Text)
		}
		if first.ID == second.ID || first.ID == "" {
			t.Errorf("ids not unique: %q, %q", first.ID, second.ID)
		}
		if first.Completed || first.CompletedAt != nil {
			t.Errorf("new task already completed: %+v", first)
		}
		if first.CreatedAt.IsZero() {
			t.Error("CreatedAt not set")
		}
	})

	t.Run("trims whitespace", func(t *testing.T) {
		s, _ := newTestStore(t)
		task, err := s.Add(ctx, "  Buy milk  ", models.PriorityLow)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if task.Text != "Buy milk" {
			t.Errorf("Text = %q, want %q", task.Text, "Buy milk")
		}
	})

	t.Run("defaults empty priority to medium", func(t *testing.T) {
		s, _ := newTestStore(t)
		task, err := s.Add(ctx, "Buy milk", "")
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if task.Priority != models.PriorityMedium {
			t.Errorf("Priority = %q, want medium", task.Priority)
		}
	})

	t.Run("accepts exactly 100 characters", func(t *testing.T) {
		s, _ := newTestStore(t)
		if _, err := s.Add(ctx, strings.Repeat("a", 100), models.PriorityLow); err != nil {
			t.Fatalf("Add of 100-char text failed: %v", err)
		}
	})

	t.Run("rejects empty and oversized text", func(t *testing.T) {
		s, backend := newTestStore(t)
		if _, err := s.Add(ctx, "", models.PriorityLow); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Add(\"\") error = %v, want ErrEmptyText", err)
		}
		if _, err := s.Add(ctx, "   ", models.PriorityLow); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Add(whitespace) error = %v, want ErrEmptyText", err)
		}
		if _, err := s.Add(ctx, strings.Repeat("a", 101), models.PriorityLow); !errors.Is(err, ErrTextTooLong) {
			t.Errorf("Add(101 chars) error = %v, want ErrTextTooLong", err)
		}
		if n := len(s.Query(models.StatusAll, "")); n != 0 {
			t.Errorf("collection size = %d after rejected adds, want 0", n)
		}
		if backend.saves != 0 {
			t.Errorf("saves = %d after rejected adds, want 0", backend.saves)
		}
	})
}

func TestToggle(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip restores original state", func(t *testing.T) {
		s, _ := newTestStore(t)
		task, err := s.Add(ctx, "Buy milk", models.PriorityMedium)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		done, found, err := s.Toggle(ctx, task.ID)
		if err != nil || !found {
			t.Fatalf("Toggle = (found=%v, err=%v)", found, err)
		}
		if !done.Completed || done.CompletedAt == nil {
			t.Errorf("after toggle: Completed=%v CompletedAt=%v, want true/non-nil", done.Completed, done.CompletedAt)
		}

		back, found, err := s.Toggle(ctx, task.ID)
		if err != nil || !found {
			t.Fatalf("Toggle = (found=%v, err=%v)", found, err)
		}
		if back.Completed || back.CompletedAt != nil {
			t.Errorf("after double toggle: Completed=%v CompletedAt=%v, want false/nil", back.Completed, back.CompletedAt)
		}
	})

	t.Run("missing id is a silent no-op", func(t *testing.T) {
		s, backend := newTestStore(t)
		_, found, err := s.Toggle(ctx, "no-such-id")
		if found || err != nil {
			t.Errorf("Toggle(missing) = (found=%v, err=%v), want (false, nil)", found, err)
		}
		if backend.saves != 0 {
			t.Errorf("saves = %d after no-op toggle, want 0", backend.saves)
		}
	})
}

func TestEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces text in place", func(t *testing.T) {
		s, _ := newTestStore(t)
		task, _ := s.Add(ctx, "Buy milk", models.PriorityMedium)
		edited, found, err := s.Edit(ctx, task.ID, "  Buy oat milk ")
		if err != nil || !found {
			t.Fatalf("Edit = (found=%v, err=%v)", found, err)
		}
		if edited.Text != "Buy oat milk" {
			t.Errorf("Text = %q, want %q", edited.Text, "Buy oat milk")
		}
		if edited.ID != task.ID || !edited.CreatedAt.Equal(task.CreatedAt) {
			t.Error("Edit changed identity fields")
		}
	})

	t.Run("rejects invalid text without mutating", func(t *testing.T) {
		s, _ := newTestStore(t)
		task, _ := s.Add(ctx, "Buy milk", models.PriorityMedium)
		if _, _, err := s.Edit(ctx, task.ID, ""); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Edit(\"\") error = %v, want ErrEmptyText", err)
		}
		if _, _, err := s.Edit(ctx, task.ID, strings.Repeat("x", 101)); !errors.Is(err, ErrTextTooLong) {
			t.Errorf("Edit(101 chars) error = %v, want ErrTextTooLong", err)
		}
		if got := s.Query(models.StatusAll, "")[0].Text; got != "Buy milk" {
			t.Errorf("Text = %q after rejected edits, want unchanged", got)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		s, _ := newTestStore(t)
		_, found, err := s.Edit(ctx, "no-such-id", "fine text")
		if found || err != nil {
			t.Errorf("Edit(missing) = (found=%v, err=%v), want (false, nil)", found, err)
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	task, _ := s.Add(ctx, "Buy milk", models.PriorityMedium)

	found, err := s.Delete(ctx, task.ID)
	if err != nil || !found {
		t.Fatalf("Delete = (found=%v, err=%v)", found, err)
	}
	if n := len(s.Query(models.StatusAll, "")); n != 0 {
		t.Errorf("collection size = %d after delete, want 0", n)
	}

	found, err = s.Delete(ctx, task.ID)
	if found || err != nil {
		t.Errorf("Delete(missing) = (found=%v, err=%v), want (false, nil)", found, err)
	}
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	milk, _ := s.Add(ctx, "Buy milk", models.PriorityMedium)
	mom, _ := s.Add(ctx, "Call mom", models.PriorityHigh)
	if _, found, err := s.Toggle(ctx, milk.ID); !found || err != nil {
		t.Fatalf("Toggle = (found=%v, err=%v)", found, err)
	}

	t.Run("status filters", func(t *testing.T) {
		active := s.Query(models.StatusActive, "")
		if len(active) != 1 || active[0].ID != mom.ID {
			t.Errorf("active = %+v, want only %q", active, mom.Text)
		}
		completed := s.Query(models.StatusCompleted, "")
		if len(completed) != 1 || completed[0].ID != milk.ID {
			t.Errorf("completed = %+v, want only %q", completed, milk.Text)
		}
		if n := len(s.Query(models.StatusAll, "")); n != 2 {
			t.Errorf("all = %d tasks, want 2", n)
		}
	})

	t.Run("search is case-insensitive substring", func(t *testing.T) {
		got := s.Query(models.StatusAll, "MILK")
		if len(got) != 1 || got[0].ID != milk.ID {
			t.Errorf("Query(all, MILK) = %+v, want only %q", got, milk.Text)
		}
		if n := len(s.Query(models.StatusAll, "zzz")); n != 0 {
			t.Errorf("Query(all, zzz) = %d tasks, want 0", n)
		}
	})

	t.Run("whitespace in the term is significant", func(t *testing.T) {
		if n := len(s.Query(models.StatusAll, "milk ")); n != 0 {
			t.Errorf("Query(all, \"milk \") = %d tasks, want 0", n)
		}
		if got := s.Query(models.StatusAll, "call m"); len(got) != 1 || got[0].ID != mom.ID {
			t.Errorf("Query(all, \"call m\") = %+v, want only %q", got, mom.Text)
		}
	})

	t.Run("preserves relative order", func(t *testing.T) {
		third, _ := s.Add(ctx, "Also milk", models.PriorityLow)
		got := s.Query(models.StatusAll, "milk")
		if len(got) != 2 || got[0].ID != third.ID || got[1].ID != milk.ID {
			t.Errorf("Query(all, milk) order wrong: %+v", got)
		}
	})
}

func TestClearCompleted(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	var active []string
	for _, text := range []string{"one", "two", "three", "four", "five"} {
		task, err := s.Add(ctx, text, models.PriorityMedium)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		active = append(active, task.ID)
	}
	// Complete "two" and "four".
	for _, i := range []int{1, 3} {
		if _, found, err := s.Toggle(ctx, active[i]); !found || err != nil {
			t.Fatalf("Toggle = (found=%v, err=%v)", found, err)
		}
	}

	removed, err := s.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	rest := s.Query(models.StatusAll, "")
	want := []string{"five", "three", "one"} // newest first, minus the completed two
	if len(rest) != len(want) {
		t.Fatalf("len(rest) = %d, want %d", len(rest), len(want))
	}
	for i := range want {
		if rest[i].Text != want[i] {
			t.Errorf("rest[%d].Text = %q, want %q", i, rest[i].Text, want[i])
		}
	}

	removed, err = s.ClearCompleted(ctx)
	if removed != 0 || err != nil {
		t.Errorf("second ClearCompleted = (%d, %v), want (0, nil)", removed, err)
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore(t)
	s.Add(ctx, "one", models.PriorityMedium)
	s.Add(ctx, "two", models.PriorityMedium)

	removed, err := s.ClearAll(ctx)
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if n := len(s.Query(models.StatusAll, "")); n != 0 {
		t.Errorf("collection size = %d after ClearAll, want 0", n)
	}

	saves := backend.saves
	removed, err = s.ClearAll(ctx)
	if removed != 0 || err != nil {
		t.Errorf("second ClearAll = (%d, %v), want (0, nil)", removed, err)
	}
	if backend.saves != saves {
		t.Errorf("saves = %d after no-op ClearAll, want %d", backend.saves, saves)
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip reproduces the collection", func(t *testing.T) {
		s, _ := newTestStore(t)
		s.Add(ctx, "Buy milk", models.PriorityMedium)
		mom, _ := s.Add(ctx, "Call mom", models.PriorityHigh)
		s.Toggle(ctx, mom.ID)

		doc, err := s.Export()
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		var parsed models.ExportDocument
		if err := json.Unmarshal(doc, &parsed); err != nil {
			t.Fatalf("export is not valid JSON: %v", err)
		}
		if parsed.Version != models.ExportVersion {
			t.Errorf("Version = %q, want %q", parsed.Version, models.ExportVersion)
		}
		if parsed.ExportedAt.IsZero() {
			t.Error("ExportedAt not set")
		}

		fresh, _ := newTestStore(t)
		count, err := fresh.Import(ctx, doc)
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if count != 2 {
			t.Errorf("imported = %d, want 2", count)
		}
		want := s.Query(models.StatusAll, "")
		got := fresh.Query(models.StatusAll, "")
		if len(got) != len(want) {
			t.Fatalf("len(got) = %d, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i].ID != want[i].ID || got[i].Text != want[i].Text ||
				got[i].Priority != want[i].Priority || got[i].Completed != want[i].Completed {
				t.Errorf("task %d differs after round trip: got %+v, want %+v", i, got[i], want[i])
			}
		}
	})

	t.Run("malformed documents leave the collection untouched", func(t *testing.T) {
		s, _ := newTestStore(t)
		s.Add(ctx, "keep me", models.PriorityMedium)

		for _, doc := range []string{
			"not json at all",
			`{"exportedAt": "2026-01-01T00:00:00Z", "version": "1.0"}`,
			`{"tasks": null, "version": "1.0"}`,
			`{"tasks": 42}`,
			`{"tasks": "nope"}`,
		} {
			if _, err := s.Import(ctx, []byte(doc)); !errors.Is(err, ErrBadImport) {
				t.Errorf("Import(%q) error = %v, want ErrBadImport", doc, err)
			}
		}
		if n := len(s.Query(models.StatusAll, "")); n != 1 {
			t.Errorf("collection size = %d after failed imports, want 1", n)
		}
	})

	t.Run("import defaults missing priority", func(t *testing.T) {
		s, _ := newTestStore(t)
		doc := `{"tasks": [{"id": "t1", "text": "imported", "completed": false}]}`
		if _, err := s.Import(ctx, []byte(doc)); err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if got := s.Query(models.StatusAll, "")[0].Priority; got != models.PriorityMedium {
			t.Errorf("Priority = %q, want medium", got)
		}
	})
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	one, _ := s.Add(ctx, "one", models.PriorityMedium)
	s.Add(ctx, "two", models.PriorityMedium)
	s.Add(ctx, "three", models.PriorityMedium)
	s.Toggle(ctx, one.ID)

	stats := s.Stats()
	if stats.Total != 3 || stats.Completed != 1 || stats.Pending != 2 {
		t.Errorf("Stats = %+v, want {3 1 2}", stats)
	}
}

func TestSaveFailureKeepsMemoryAuthoritative(t *testing.T) {
	ctx := context.Background()
	backend := &memBackend{failSave: true}
	s := New(backend)

	task, err := s.Add(ctx, "Buy milk", models.PriorityMedium)
	if !errors.Is(err, storage.ErrSave) {
		t.Fatalf("Add error = %v, want storage.ErrSave", err)
	}
	got := s.Query(models.StatusAll, "")
	if len(got) != 1 || got[0].ID != task.ID {
		t.Errorf("in-memory state lost after save failure: %+v", got)
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("state survives a persistence round trip", func(t *testing.T) {
		backend := &memBackend{}
		s := New(backend)
		s.Load(ctx)
		milk, _ := s.Add(ctx, "Buy milk", models.PriorityHigh)
		s.Toggle(ctx, milk.ID)
		s.Add(ctx, "Call mom", models.PriorityLow)

		reopened := New(backend)
		if err := reopened.Load(ctx); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		got := reopened.Query(models.StatusAll, "")
		if len(got) != 2 {
			t.Fatalf("len(got) = %d, want 2", len(got))
		}
		if got[0].Text != "Call mom" || got[1].Text != "Buy milk" {
			t.Errorf("order lost across round trip: [%s, %s]", got[0].Text, got[1].Text)
		}
		if !got[1].Completed || got[1].CompletedAt == nil {
			t.Errorf("completion state lost across round trip: %+v", got[1])
		}
	})

	t.Run("corrupt blob reports an error and starts empty", func(t *testing.T) {
		backend := &memBackend{data: []byte("{broken"), found: true}
		s := New(backend)
		if err := s.Load(ctx); err == nil {
			t.Error("Load of corrupt blob succeeded, want error")
		}
		if n := len(s.Query(models.StatusAll, "")); n != 0 {
			t.Errorf("collection size = %d after corrupt load, want 0", n)
		}
	})
}
