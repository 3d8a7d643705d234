package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/architect-sessions/internal/database"
	"github.com/iliyamo/architect-sessions/internal/model"
)

// testEnv bundles every repository over one shared MySQL pool.  Tests run
// against a real database because most of the behavior under test lives
// in the schema: CHECK constraints, cascade deletes and ON UPDATE
// CURRENT_TIMESTAMP cannot be observed through a mock.
type testEnv struct {
	db        *sql.DB
	users     *UserRepo
	projects  *ProjectRepo
	sessions  *SessionRepo
	messages  *MessageRepo
	specs     *SpecRepo
	links     *DocLinkRepo
	scaffolds *ScaffoldRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping MySQL integration tests")
	}

	db, err := database.OpenDSN(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db))

	t.Cleanup(func() {
		// users is the root of every ownership chain; deleting it
		// cascades through projects, sessions and all phase outputs.
		_, _ = db.Exec("DELETE FROM users")
		_ = db.Close()
	})

	return &testEnv{
		db:        db,
		users:     NewUserRepo(db),
		projects:  NewProjectRepo(db),
		sessions:  NewSessionRepo(db),
		messages:  NewMessageRepo(db),
		specs:     NewSpecRepo(db),
		links:     NewDocLinkRepo(db),
		scaffolds: NewScaffoldRepo(db),
	}
}

func (e *testEnv) count(t *testing.T, table, column, id string) int {
	t.Helper()
	var n int
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", table, column)
	require.NoError(t, e.db.QueryRow(q, id).Scan(&n))
	return n
}

// seed creates a user with an owned project and session and returns them
// with the owner principal.
func (e *testEnv) seed(t *testing.T, email string) (*model.User, *model.Project, *model.Session, model.Principal) {
	t.Helper()
	ctx := context.Background()

	u, err := e.users.Create(ctx, email)
	require.NoError(t, err)
	owner := model.UserPrincipal(u.ID)

	p, err := e.projects.Create(ctx, owner, u.ID, "learn go", nil, "")
	require.NoError(t, err)

	s, err := e.sessions.Create(ctx, p.ID, owner)
	require.NoError(t, err)
	return u, p, s, owner
}

func TestUserLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.Create(ctx, "Alice@Example.COM")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Equal(t, "alice@example.com", u.Email, "emails are stored lower-cased")

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := env.users.Create(ctx, "alice@example.com")
		require.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("lookup by id and email", func(t *testing.T) {
		got, err := env.users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, got.Email)

		got, err = env.users.GetByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("update email refreshes updated_at", func(t *testing.T) {
		time.Sleep(50 * time.Millisecond)
		upd, err := env.users.UpdateEmail(ctx, u.ID, "alice2@example.com")
		require.NoError(t, err)
		require.Equal(t, "alice2@example.com", upd.Email)
		require.True(t, upd.UpdatedAt.After(u.UpdatedAt))
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		_, err := env.users.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUserDeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, p, s, owner := env.seed(t, "cascade@example.com")

	_, err := env.messages.Create(ctx, s.ID, model.RoleUser, "hello", nil, nil, owner)
	require.NoError(t, err)
	_, err = env.specs.Create(ctx, s.ID, nil, nil, json.RawMessage(`{"lang":"go"}`), owner)
	require.NoError(t, err)
	_, err = env.links.CreateBatch(ctx, s.ID, []*model.DocumentationLink{
		{TechName: "echo", DocURL: "https://echo.labstack.com"},
	}, owner)
	require.NoError(t, err)
	_, err = env.scaffolds.CreateBatch(ctx, s.ID, []*model.CodeScaffold{
		{FilePath: "main.go", Content: "package main", Hints: json.RawMessage(`["start here"]`)},
	}, owner)
	require.NoError(t, err)

	require.NoError(t, env.users.Delete(ctx, u.ID))

	// Nothing owned by the user may survive, at any depth.
	require.Zero(t, env.count(t, "projects", "id", p.ID))
	require.Zero(t, env.count(t, "sessions", "id", s.ID))
	require.Zero(t, env.count(t, "messages", "session_id", s.ID))
	require.Zero(t, env.count(t, "technical_specs", "session_id", s.ID))
	require.Zero(t, env.count(t, "documentation_links", "session_id", s.ID))
	require.Zero(t, env.count(t, "code_scaffolds", "session_id", s.ID))

	require.ErrorIs(t, env.users.Delete(ctx, u.ID), ErrNotFound, "second delete finds nothing")
}

func TestProjectRepo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.Create(ctx, "pm@example.com")
	require.NoError(t, err)
	owner := model.UserPrincipal(u.ID)

	t.Run("create defaults to draft", func(t *testing.T) {
		p, err := env.projects.Create(ctx, owner, u.ID, "api server", nil, "")
		require.NoError(t, err)
		require.Equal(t, model.StatusDraft, p.Status)
		require.Nil(t, p.Description)
	})

	t.Run("unknown status is a validation failure", func(t *testing.T) {
		_, err := env.projects.Create(ctx, owner, u.ID, "bad", nil, "archived")
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("update refreshes updated_at server side", func(t *testing.T) {
		p, err := env.projects.Create(ctx, owner, u.ID, "cli tool", nil, "")
		require.NoError(t, err)

		time.Sleep(50 * time.Millisecond)
		status := model.StatusInProgress
		upd, err := env.projects.Update(ctx, p.ID, owner, nil, nil, &status)
		require.NoError(t, err)
		require.Equal(t, model.StatusInProgress, upd.Status)
		require.Equal(t, "cli tool", upd.Name, "untouched fields keep their value")
		require.True(t, upd.UpdatedAt.After(p.UpdatedAt))
	})

	t.Run("list returns only the caller's projects", func(t *testing.T) {
		other, err := env.users.Create(ctx, "other@example.com")
		require.NoError(t, err)
		_, err = env.projects.Create(ctx, model.UserPrincipal(other.ID), other.ID, "theirs", nil, "")
		require.NoError(t, err)

		mine, err := env.projects.List(ctx, owner)
		require.NoError(t, err)
		for _, p := range mine {
			require.Equal(t, u.ID, p.UserID)
		}

		all, err := env.projects.List(ctx, model.ServicePrincipal())
		require.NoError(t, err)
		require.Greater(t, len(all), len(mine))
	})
}

func TestOwnershipScoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, p, s, _ := env.seed(t, "owner@example.com")

	intruder, err := env.users.Create(ctx, "intruder@example.com")
	require.NoError(t, err)
	stranger := model.UserPrincipal(intruder.ID)

	t.Run("reads hide foreign rows as not found", func(t *testing.T) {
		_, err := env.projects.GetByID(ctx, p.ID, stranger)
		require.ErrorIs(t, err, ErrNotFound)

		_, err = env.sessions.GetByID(ctx, s.ID, stranger)
		require.ErrorIs(t, err, ErrNotFound)

		_, err = env.messages.ListBySession(ctx, s.ID, stranger)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("writes on foreign rows are forbidden", func(t *testing.T) {
		name := "stolen"
		_, err := env.projects.Update(ctx, p.ID, stranger, &name, nil, nil)
		require.ErrorIs(t, err, ErrForbidden)

		err = env.projects.Delete(ctx, p.ID, stranger)
		require.ErrorIs(t, err, ErrForbidden)

		_, _, err = env.sessions.UpdatePhase(ctx, s.ID, model.PhaseMentor, stranger)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("service principal bypasses scoping entirely", func(t *testing.T) {
		svc := model.ServicePrincipal()
		got, err := env.projects.GetByID(ctx, p.ID, svc)
		require.NoError(t, err)
		require.Equal(t, p.ID, got.ID)

		_, prev, err := env.sessions.UpdatePhase(ctx, s.ID, model.PhaseLibrarian, svc)
		require.NoError(t, err)
		require.Equal(t, model.PhasePlanner, prev)
	})
}

func TestSessionRepo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, p, s, owner := env.seed(t, "sessions@example.com")

	t.Run("new session starts in planner with empty metadata", func(t *testing.T) {
		require.Equal(t, model.PhasePlanner, s.CurrentPhase)
		require.JSONEq(t, `{}`, string(s.Metadata))
	})

	t.Run("create under a missing project is not found", func(t *testing.T) {
		_, err := env.sessions.Create(ctx, "00000000-0000-0000-0000-000000000000", owner)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("phase transition reports the previous phase", func(t *testing.T) {
		sess, prev, err := env.sessions.UpdatePhase(ctx, s.ID, model.PhaseLibrarian, owner)
		require.NoError(t, err)
		require.Equal(t, model.PhasePlanner, prev)
		require.Equal(t, model.PhaseLibrarian, sess.CurrentPhase)
	})

	t.Run("unknown phase is a validation failure", func(t *testing.T) {
		_, _, err := env.sessions.UpdatePhase(ctx, s.ID, "reviewer", owner)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("metadata replace", func(t *testing.T) {
		sess, err := env.sessions.UpdateMetadata(ctx, s.ID, json.RawMessage(`{"topic":"http"}`), owner)
		require.NoError(t, err)
		require.JSONEq(t, `{"topic":"http"}`, string(sess.Metadata))
	})

	t.Run("list by project", func(t *testing.T) {
		s2, err := env.sessions.Create(ctx, p.ID, owner)
		require.NoError(t, err)
		list, err := env.sessions.ListByProject(ctx, p.ID, owner)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, s2.ID, list[1].ID, "ordered by creation")
	})
}

func TestMessageOrdering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, s, owner := env.seed(t, "msgs@example.com")

	phase := model.PhasePlanner
	contents := []string{"first", "second", "third"}
	for i, c := range contents {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		_, err := env.messages.Create(ctx, s.ID, role, c, &phase, nil, owner)
		require.NoError(t, err)
	}

	list, err := env.messages.ListBySession(ctx, s.ID, owner)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, m := range list {
		require.Equal(t, contents[i], m.Content)
		require.JSONEq(t, `{}`, string(m.Metadata), "nil metadata is stored as an empty object")
	}

	t.Run("unknown role is a validation failure", func(t *testing.T) {
		_, err := env.messages.Create(ctx, s.ID, "moderator", "x", nil, nil, owner)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown phase tag is a validation failure", func(t *testing.T) {
		bad := "reviewer"
		_, err := env.messages.Create(ctx, s.ID, model.RoleUser, "x", &bad, nil, owner)
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestSpecVersioning(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, s, owner := env.seed(t, "specs@example.com")

	for want := 1; want <= 3; want++ {
		req := fmt.Sprintf("iteration %d", want)
		spec, err := env.specs.Create(ctx, s.ID, &req, nil, json.RawMessage(`{"lang":"go"}`), owner)
		require.NoError(t, err)
		require.Equal(t, want, spec.Version)
	}

	latest, err := env.specs.Latest(ctx, s.ID, owner)
	require.NoError(t, err)
	require.Equal(t, 3, latest.Version)
	require.Equal(t, "iteration 3", *latest.Requirements)

	all, err := env.specs.ListBySession(ctx, s.ID, owner)
	require.NoError(t, err)
	require.Len(t, all, 3)

	t.Run("latest with no specs is not found", func(t *testing.T) {
		_, _, s2, owner2 := env.seed(t, "specs2@example.com")
		_, err := env.specs.Latest(ctx, s2.ID, owner2)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDocLinkRepo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, s, owner := env.seed(t, "links@example.com")

	score := func(f float64) *float64 { return &f }
	created, err := env.links.CreateBatch(ctx, s.ID, []*model.DocumentationLink{
		{TechName: "echo", DocURL: "https://echo.labstack.com", RelevanceScore: score(0.4)},
		{TechName: "mysql", DocURL: "https://dev.mysql.com/doc", RelevanceScore: score(0.9)},
		{TechName: "redis", DocURL: "https://redis.io/docs"},
	}, owner)
	require.NoError(t, err)
	require.Len(t, created, 3)

	list, err := env.links.ListBySession(ctx, s.ID, owner)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "mysql", list[0].TechName, "highest relevance first")
	require.Equal(t, "echo", list[1].TechName)
	require.Nil(t, list[2].RelevanceScore, "unscored links sort last")
}

func TestScaffoldRepo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, s, owner := env.seed(t, "scaffolds@example.com")

	created, err := env.scaffolds.CreateBatch(ctx, s.ID, []*model.CodeScaffold{
		{FilePath: "cmd/server/main.go", Content: "package main", Hints: json.RawMessage(`["wire the router"]`), Completed: true},
	}, owner)
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.False(t, created[0].Completed, "scaffolds always start incomplete")

	t.Run("mark completed", func(t *testing.T) {
		upd, err := env.scaffolds.SetCompleted(ctx, created[0].ID, true, owner)
		require.NoError(t, err)
		require.True(t, upd.Completed)
	})

	t.Run("foreign scaffold write is forbidden", func(t *testing.T) {
		other, err := env.users.Create(ctx, "scaffolds2@example.com")
		require.NoError(t, err)
		_, err = env.scaffolds.SetCompleted(ctx, created[0].ID, false, model.UserPrincipal(other.ID))
		require.ErrorIs(t, err, ErrForbidden)
	})
}

// TestProjectDeleteScenario walks the chain user -> project -> session ->
// message and deletes the project: everything below it disappears while
// the user survives.
func TestProjectDeleteScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, p, s, owner := env.seed(t, "scenario@example.com")
	m, err := env.messages.Create(ctx, s.ID, model.RoleUser, "let's begin", nil, nil, owner)
	require.NoError(t, err)

	require.NoError(t, env.projects.Delete(ctx, p.ID, owner))

	_, err = env.sessions.GetByID(ctx, s.ID, owner)
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, env.count(t, "messages", "id", m.ID))

	// The owner is untouched.
	got, err := env.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
}
