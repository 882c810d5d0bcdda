// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-activities/internal/app"
	"school-activities/internal/common/config"
	apihttp "school-activities/internal/common/http"
	"school-activities/internal/common/logger"
	"school-activities/internal/common/observability"
	"school-activities/internal/notify"
)

type listing map[string]struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type environment struct {
	client *apihttp.Client
	events <-chan *redis.Message
}

// startEnvironment boots the full service against the embedded seed with
// Redis roster notifications pointed at an in-process server.
func startEnvironment(t *testing.T, enforceCapacity bool) *environment {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.App.Name = "activities-e2e"
	cfg.Registry.EnforceCapacity = enforceCapacity
	cfg.Database.Redis.Address = mr.Addr()
	cfg.Notifications.Timeout = 2000
	cfg.Notifications.Redis.Enabled = true
	cfg.Notifications.Redis.Channel = "activities:roster"

	ctx := context.Background()
	application, err := app.New(ctx, cfg, logger.NewTestLogger(t), observability.Nop())
	require.NoError(t, err)

	server := httptest.NewServer(application.Echo)
	t.Cleanup(func() {
		server.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = application.Shutdown(shutdownCtx)
	})

	subscriber := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = subscriber.Close() })
	sub := subscriber.Subscribe(ctx, "activities:roster")
	t.Cleanup(func() { _ = sub.Close() })
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	return &environment{
		client: apihttp.NewClient(server.URL, 5*time.Second),
		events: sub.Channel(),
	}
}

func (env *environment) list(t *testing.T) listing {
	t.Helper()
	var out listing
	require.NoError(t, env.client.DoJSON(context.Background(), http.MethodGet, "/activities", nil, &out))
	return out
}

func (env *environment) roster(t *testing.T, name, action, email string) (string, error) {
	t.Helper()
	method := http.MethodPost
	if action == "unregister" {
		method = http.MethodDelete
	}
	var out messageResponse
	err := env.client.DoJSON(context.Background(), method, apihttp.ActivityPath(name, action),
		url.Values{"email": {email}}, &out)
	return out.Message, err
}

func (env *environment) nextEvent(t *testing.T) notify.RosterEvent {
	t.Helper()
	select {
	case msg := <-env.events:
		var event notify.RosterEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no roster event received")
		return notify.RosterEvent{}
	}
}

func (env *environment) assertNoEvent(t *testing.T) {
	t.Helper()
	select {
	case msg := <-env.events:
		t.Fatalf("unexpected roster event: %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func statusOf(t *testing.T, err error) *apihttp.StatusError {
	t.Helper()
	var statusErr *apihttp.StatusError
	require.True(t, errors.As(err, &statusErr), "expected a status error, got %v", err)
	return statusErr
}

func TestFullE2E(t *testing.T) {
	env := startEnvironment(t, false)

	t.Run("seeded listing", func(t *testing.T) {
		activities := env.list(t)
		assert.Len(t, activities, 9)
		for name, a := range activities {
			seen := map[string]bool{}
			for _, email := range a.Participants {
				assert.False(t, seen[email], "%s lists %s twice", name, email)
				seen[email] = true
			}
		}
		assert.Equal(t, 12, activities["Chess Club"].MaxParticipants)
	})

	t.Run("signup publishes event", func(t *testing.T) {
		msg, err := env.roster(t, "Chess Club", "signup", "x@example.com")
		require.NoError(t, err)
		assert.Contains(t, msg, "x@example.com")

		event := env.nextEvent(t)
		assert.Equal(t, notify.EventSignup, event.Type)
		assert.Equal(t, "Chess Club", event.Activity)
		assert.Equal(t, "x@example.com", event.Email)

		assert.Contains(t, env.list(t)["Chess Club"].Participants, "x@example.com")
	})

	t.Run("duplicate signup rejected", func(t *testing.T) {
		_, err := env.roster(t, "Chess Club", "signup", "x@example.com")
		statusErr := statusOf(t, err)
		assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
		assert.Contains(t, statusErr.Detail, "already signed up")
		env.assertNoEvent(t)
	})

	t.Run("unregister publishes event", func(t *testing.T) {
		msg, err := env.roster(t, "Chess Club", "unregister", "x@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Unregistered x@example.com from Chess Club", msg)

		event := env.nextEvent(t)
		assert.Equal(t, notify.EventUnregister, event.Type)
		assert.NotContains(t, env.list(t)["Chess Club"].Participants, "x@example.com")
	})

	t.Run("unknown activity", func(t *testing.T) {
		_, err := env.roster(t, "Ghost Club", "unregister", "x@example.com")
		statusErr := statusOf(t, err)
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
		assert.Equal(t, "Activity not found", statusErr.Detail)
	})

	t.Run("readiness reports redis", func(t *testing.T) {
		var out struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, env.client.DoJSON(context.Background(), http.MethodGet, "/ready", nil, &out))
		assert.Equal(t, "ready", out.Status)
		assert.Equal(t, "ok", out.Checks["redis"])
	})
}

func TestCapacityEnforcedE2E(t *testing.T) {
	env := startEnvironment(t, true)

	// Math Club seeds 2 of 10.
	for i := 0; i < 8; i++ {
		_, err := env.roster(t, "Math Club", "signup", string(rune('a'+i))+"@mergington.edu")
		require.NoError(t, err)
		env.nextEvent(t)
	}

	_, err := env.roster(t, "Math Club", "signup", "late@mergington.edu")
	statusErr := statusOf(t, err)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "Activity is full", statusErr.Detail)
	env.assertNoEvent(t)

	assert.Len(t, env.list(t)["Math Club"].Participants, 10)
}
