// Package catalog builds the campus, building and room navigation lists used
// by the dashboard's location picker.
package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aluiziolira/go-scrape-timetable/pipeline"
)

// ErrEmptyCatalog is returned when a classroom list holds no valid line.
var ErrEmptyCatalog = errors.New("catalog: no valid campus:building:room lines")

// Catalog maps campus to building to the sorted distinct rooms of that building.
type Catalog map[string]map[string][]string

// Build parses "campus:building:room" lines. A line is split into at most
// three parts, so the room may itself contain colons. Lines with fewer parts
// or a blank part are skipped.
func Build(lines []string) Catalog {
	rooms := make(map[string]map[string]map[string]struct{})
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "\ufeff"))
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 3 {
			continue
		}
		campus := strings.TrimSpace(parts[0])
		building := strings.TrimSpace(parts[1])
		room := strings.TrimSpace(parts[2])
		if campus == "" || building == "" || room == "" {
			continue
		}

		if rooms[campus] == nil {
			rooms[campus] = make(map[string]map[string]struct{})
		}
		if rooms[campus][building] == nil {
			rooms[campus][building] = make(map[string]struct{})
		}
		rooms[campus][building][room] = struct{}{}
	}

	cat := make(Catalog, len(rooms))
	for campus, buildings := range rooms {
		cat[campus] = make(map[string][]string, len(buildings))
		for building, set := range buildings {
			list := make([]string, 0, len(set))
			for room := range set {
				list = append(list, room)
			}
			sort.Strings(list)
			cat[campus][building] = list
		}
	}
	return cat
}

// Load reads a classroom list file. A leading byte-order mark is ignored.
// A file without any valid line yields ErrEmptyCatalog.
func Load(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open classroom list: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(pipeline.NewBOMReader(f))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read classroom list %q: %w", path, err)
	}

	cat := Build(lines)
	if cat.Len() == 0 {
		return nil, fmt.Errorf("%w in %q", ErrEmptyCatalog, path)
	}
	return cat, nil
}

// Len returns the number of rooms across all campuses and buildings.
func (c Catalog) Len() int {
	n := 0
	for _, buildings := range c {
		for _, rooms := range buildings {
			n += len(rooms)
		}
	}
	return n
}

// Campuses returns the campus names in ascending order.
func (c Catalog) Campuses() []string {
	return sortedKeys(c)
}

// Buildings returns the buildings of campus in ascending order, or nil for an
// unknown campus.
func (c Catalog) Buildings(campus string) []string {
	buildings, ok := c[campus]
	if !ok {
		return nil
	}
	return sortedKeys(buildings)
}

// Rooms returns the rooms of a building in ascending order, or nil when the
// campus or building is unknown.
func (c Catalog) Rooms(campus, building string) []string {
	rooms := c[campus][building]
	if rooms == nil {
		return nil
	}
	out := make([]string, len(rooms))
	copy(out, rooms)
	return out
}

// HasCampus reports whether campus is listed.
func (c Catalog) HasCampus(campus string) bool {
	_, ok := c[campus]
	return ok
}

// HasBuilding reports whether building belongs to campus.
func (c Catalog) HasBuilding(campus, building string) bool {
	_, ok := c[campus][building]
	return ok
}

// HasRoom reports whether room belongs to the building of campus.
func (c Catalog) HasRoom(campus, building, room string) bool {
	rooms := c[campus][building]
	i := sort.SearchStrings(rooms, room)
	return i < len(rooms) && rooms[i] == room
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
