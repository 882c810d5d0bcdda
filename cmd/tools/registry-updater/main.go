// cmd/tools/registry-updater/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	apihttp "school-activities/internal/common/http"
	"school-activities/pkg/registry"
)

const defaultRegistryPath = "configs/activities.json"

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	syncCmd := flag.NewFlagSet("sync", flag.ExitOnError)

	// Add command flags
	addPath := addCmd.String("path", defaultRegistryPath, "Path to registry file")
	nameAdd := addCmd.String("name", "", "Activity name (e.g., Chess Club)")
	description := addCmd.String("description", "", "Description")
	schedule := addCmd.String("schedule", "", "Schedule (e.g., Fridays, 3:30 PM - 5:00 PM)")
	maxParticipants := addCmd.Int("max", 0, "Maximum number of participants")

	// Update command flags
	updatePath := updateCmd.String("path", defaultRegistryPath, "Path to registry file")
	nameUpdate := updateCmd.String("name", "", "Activity name to update")
	field := updateCmd.String("field", "", "Field to update (description, schedule, max_participants)")
	value := updateCmd.String("value", "", "New value for the field")

	// Validate command flags
	validatePath := validateCmd.String("path", defaultRegistryPath, "Path to registry file")

	// Sync command flags
	syncPath := syncCmd.String("path", defaultRegistryPath, "Path to registry file")
	server := syncCmd.String("server", "http://localhost:8000", "Base URL of a running activities server")
	timeout := syncCmd.Duration("timeout", 10*time.Second, "Request timeout")

	if len(os.Args) < 2 {
		help(os.Stdout)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *nameAdd == "" || *description == "" || *schedule == "" || *maxParticipants <= 0 {
			fmt.Println("Error: name, description, schedule, and a positive max are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		activity := registry.Activity{
			Name:            *nameAdd,
			Description:     *description,
			Schedule:        *schedule,
			MaxParticipants: *maxParticipants,
			Participants:    []string{},
		}
		if err := addActivity(*addPath, activity); err != nil {
			fmt.Printf("Error adding activity: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added activity: %s\n", *nameAdd)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *nameUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: name, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateActivity(*updatePath, *nameUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating activity: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated activity %s, field %s to %s\n", *nameUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg, err := validateRegistry(*validatePath)
		if err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		for _, name := range registry.OverCapacity(reg) {
			fmt.Printf("Warning: %s roster exceeds max_participants\n", name)
		}
		fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))

	case "sync":
		syncCmd.Parse(os.Args[2:])
		client := apihttp.NewClient(*server, *timeout)
		changed, err := syncRegistry(context.Background(), client, *syncPath)
		if err != nil {
			fmt.Printf("Error syncing registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Synced rosters from %s: %d activities changed.\n", *server, changed)

	case "help":
		fallthrough
	default:
		help(os.Stdout)
	}
}

func addActivity(path string, activity registry.Activity) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		// Start a new registry when the file does not exist yet
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.ActivityRegistry{
			Version:    "1.0.0",
			Activities: []registry.Activity{},
		}
	}

	if _, exists := reg.Find(activity.Name); exists {
		return fmt.Errorf("activity %s already exists", activity.Name)
	}

	reg.Activities = append(reg.Activities, activity)
	return saveRegistry(reg, path)
}

func updateActivity(path, name, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	activity, ok := reg.Find(name)
	if !ok {
		return fmt.Errorf("activity %s not found", name)
	}

	switch field {
	case "description":
		activity.Description = value
	case "schedule":
		activity.Schedule = value
	case "max_participants", "max":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid max_participants value: %q", value)
		}
		activity.MaxParticipants = n
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	return saveRegistry(reg, path)
}

// liveActivity is one entry of the GET /activities listing.
type liveActivity struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// syncRegistry copies the rosters of a running server into the seed file so
// they survive a restart. Seed order is kept; activities the seed lacks are
// appended by name. It returns the number of activities that changed.
func syncRegistry(ctx context.Context, client *apihttp.Client, path string) (int, error) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load registry: %w", err)
	}

	var live map[string]liveActivity
	if err := client.DoJSON(ctx, http.MethodGet, "/activities", nil, &live); err != nil {
		return 0, fmt.Errorf("failed to fetch activities: %w", err)
	}

	changed := 0
	for i := range reg.Activities {
		a := &reg.Activities[i]
		la, ok := live[a.Name]
		if !ok {
			continue
		}
		delete(live, a.Name)
		if !sameRoster(a.Participants, la.Participants) {
			a.Participants = append([]string{}, la.Participants...)
			changed++
		}
	}

	extra := make([]string, 0, len(live))
	for name := range live {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		la := live[name]
		reg.Activities = append(reg.Activities, registry.Activity{
			Name:            name,
			Description:     la.Description,
			Schedule:        la.Schedule,
			MaxParticipants: la.MaxParticipants,
			Participants:    append([]string{}, la.Participants...),
		})
		changed++
	}

	if changed == 0 {
		return 0, nil
	}
	return changed, saveRegistry(reg, path)
}

func sameRoster(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func validateRegistry(path string) (*registry.ActivityRegistry, error) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	if len(reg.Activities) == 0 {
		return nil, fmt.Errorf("registry contains no activities")
	}
	return reg, nil
}

// saveRegistry stamps, validates and writes the registry.
func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	if err := registry.Validate(reg); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return registry.Save(reg, path)
}

const usage = `
Usage: registry-updater <command> [flags]

Commands:
  add      Add a new activity to the registry
  update   Update an existing activity's field
  validate Validate the registry file
  sync     Copy live rosters from a running server into the registry file
  help     Show this help message

Examples:
  registry-updater add -name "Robotics Club" -description "Build and program robots" -schedule "Wednesdays, 3:30 PM - 5:00 PM" -max 16
  registry-updater update -name "Chess Club" -field max_participants -value 14
  registry-updater validate -path configs/activities.json
  registry-updater sync -server http://localhost:8000 -path configs/activities.json

Use 'registry-updater <command> -h' for more information about a command.
`

func help(w io.Writer) {
	fmt.Fprint(w, usage)
}
