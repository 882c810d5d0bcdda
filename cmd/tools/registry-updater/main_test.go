package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "school-activities/internal/common/errors"
	apihttp "school-activities/internal/common/http"
	"school-activities/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestActivity(name string) registry.Activity {
	return registry.Activity{
		Name:            name,
		Description:     "Build and program robots",
		Schedule:        "Wednesdays, 3:30 PM - 5:00 PM",
		MaxParticipants: 16,
		Participants:    []string{},
	}
}

func TestAddActivity_CreatesRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "activities.json")

	require.NoError(t, addActivity(path, createTestActivity("Robotics Club")))

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	require.Len(t, reg.Activities, 1)
	assert.Equal(t, "Robotics Club", reg.Activities[0].Name)
	assert.NotEmpty(t, reg.LastUpdated)
}

func TestAddActivity_RejectsDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activities.json")
	require.NoError(t, addActivity(path, createTestActivity("Robotics Club")))

	err := addActivity(path, createTestActivity("Robotics Club"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestUpdateActivity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activities.json")
	require.NoError(t, registry.Save(registry.Default(), path))

	tests := []struct {
		name        string
		field       string
		value       string
		expectError string
		check       func(t *testing.T, a *registry.Activity)
	}{
		{
			name:  "schedule",
			field: "schedule",
			value: "Saturdays, 10:00 AM - 12:00 PM",
			check: func(t *testing.T, a *registry.Activity) {
				assert.Equal(t, "Saturdays, 10:00 AM - 12:00 PM", a.Schedule)
			},
		},
		{
			name:  "capacity",
			field: "max_participants",
			value: "14",
			check: func(t *testing.T, a *registry.Activity) {
				assert.Equal(t, 14, a.MaxParticipants)
			},
		},
		{
			name:        "negative capacity",
			field:       "max_participants",
			value:       "-1",
			expectError: "invalid max_participants",
		},
		{
			name:        "unknown field",
			field:       "participants",
			value:       "x",
			expectError: "unknown field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := updateActivity(path, "Chess Club", tt.field, tt.value)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)

			reg, err := registry.LoadRegistry(path)
			require.NoError(t, err)
			a, ok := reg.Find("Chess Club")
			require.True(t, ok)
			tt.check(t, a)
		})
	}
}

func TestUpdateActivity_UnknownActivity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activities.json")
	require.NoError(t, registry.Save(registry.Default(), path))

	err := updateActivity(path, "Ghost Club", "schedule", "never")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateRegistry(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "activities.json")
		require.NoError(t, registry.Save(registry.Default(), path))

		reg, err := validateRegistry(path)
		require.NoError(t, err)
		assert.NotEmpty(t, reg.Activities)
	})

	t.Run("duplicate participants", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "activities.json")
		doc := `{"version":"1.0.0","activities":[{"name":"Chess Club","description":"d","schedule":"s","max_participants":2,"participants":["a@x","a@x"]}]}`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		_, err := validateRegistry(path)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeRegistryInvalid, apperrors.CodeOf(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := validateRegistry(filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeRegistryLoadFailed, apperrors.CodeOf(err))
	})
}

func TestSyncRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activities.json")
	seed := `{"version":"1.0.0","activities":[
		{"name":"Chess Club","description":"d","schedule":"s","max_participants":12,"participants":["michael@mergington.edu"]},
		{"name":"Gym Class","description":"d","schedule":"s","max_participants":30,"participants":["john@mergington.edu"]}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activities", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"Chess Club":{"description":"d","schedule":"s","max_participants":12,"participants":["michael@mergington.edu","x@example.com"]},
			"Gym Class":{"description":"d","schedule":"s","max_participants":30,"participants":["john@mergington.edu"]},
			"Robotics Club":{"description":"r","schedule":"w","max_participants":16,"participants":[]}
		}`))
	}))
	defer server.Close()

	client := apihttp.NewClient(server.URL, time.Second)
	changed, err := syncRegistry(context.Background(), client, path)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	require.Len(t, reg.Activities, 3)
	assert.Equal(t, "Chess Club", reg.Activities[0].Name)
	assert.Equal(t, []string{"michael@mergington.edu", "x@example.com"}, reg.Activities[0].Participants)
	assert.Equal(t, []string{"john@mergington.edu"}, reg.Activities[1].Participants)
	assert.Equal(t, "Robotics Club", reg.Activities[2].Name)
}

func TestSyncRegistry_ServerError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activities.json")
	require.NoError(t, registry.Save(registry.Default(), path))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := syncRegistry(context.Background(), apihttp.NewClient(server.URL, time.Second), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestHelp(t *testing.T) {
	var buf bytes.Buffer
	help(&buf)

	out := buf.String()
	for _, cmd := range []string{"add", "update", "validate", "sync", "help"} {
		assert.Contains(t, out, "\n  "+cmd+" ")
	}
	assert.Equal(t, usage, out, "usage is written verbatim, without an extra newline")
}
