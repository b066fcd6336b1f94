package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/devprozorov/unicorn/internal/apitest"
)

func respond(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestResumeService(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(apitest.User{Login: "alice", Password: "pw"})
	srv.Router.Group(func(r chi.Router) {
		r.Use(srv.RequireAuth)
		r.Get("/resumes/my", func(w http.ResponseWriter, _ *http.Request) {
			respond(t, w, map[string]any{"ok": true, "items": []Resume{
				{ResumeID: "r1", Title: "Backend Engineer", Skills: []string{"go"}},
			}})
		})
		r.Post("/resumes", func(w http.ResponseWriter, r *http.Request) {
			var params ResumeParams
			require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
			require.Equal(t, "Backend Engineer", params.Title)
			respond(t, w, map[string]any{"ok": true, "resumeId": "r2"})
		})
	})

	c := newTestClient(t, srv)
	ctx := context.Background()
	_, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	resumes, err := c.MyResumes(ctx)
	require.NoError(t, err)
	require.Len(t, resumes, 1)
	require.Equal(t, "r1", resumes[0].ResumeID)

	id, err := c.CreateResume(ctx, ResumeParams{Title: "Backend Engineer"})
	require.NoError(t, err)
	require.Equal(t, "r2", id)
}

func TestVacancyListWithTags(t *testing.T) {
	srv := apitest.New(t)
	srv.Router.Get("/vacancies", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, []string{"go", "remote"}, r.URL.Query()["tags"])
		respond(t, w, map[string]any{"ok": true, "items": []Vacancy{
			{VacancyID: "v1", Title: "Go developer"},
		}})
	})

	c := newTestClient(t, srv)
	vacancies, err := c.ListVacancies(context.Background(), "go", "remote")
	require.NoError(t, err)
	require.Len(t, vacancies, 1)
	require.Equal(t, "v1", vacancies[0].VacancyID)
}

func TestApplicationFlow(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(apitest.User{Login: "alice", Password: "pw"})
	srv.Router.Group(func(r chi.Router) {
		r.Use(srv.RequireAuth)
		r.Post("/applications", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "v1", body["vacancyId"])
			respond(t, w, map[string]any{"ok": true, "applicationId": "a1"})
		})
		r.Post("/applications/a1/accept", func(w http.ResponseWriter, _ *http.Request) {
			respond(t, w, map[string]any{"ok": true})
		})
	})

	c := newTestClient(t, srv)
	ctx := context.Background()
	_, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	id, err := c.Apply(ctx, "v1", "r1", "hi")
	require.NoError(t, err)
	require.Equal(t, "a1", id)
	require.NoError(t, c.AcceptApplication(ctx, id))
}

func TestSubscriptionStatus(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(apitest.User{Login: "alice", Password: "pw"})
	srv.Router.With(srv.RequireAuth).Get("/subscription/status", func(w http.ResponseWriter, _ *http.Request) {
		respond(t, w, map[string]any{"ok": true, "active": true, "daysLeft": 12})
	})

	c := newTestClient(t, srv)
	ctx := context.Background()
	_, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	status, err := c.Subscription(ctx)
	require.NoError(t, err)
	require.True(t, status.Active)
	require.Equal(t, 12, status.DaysLeft)
}
