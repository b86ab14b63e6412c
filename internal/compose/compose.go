// Package compose reads and generates a service's docker-compose.yml,
// including the console-specific "# DCM:<major>.<minor>" magic comment
// spec §6 surfaces as a manifest's schema version.
package compose

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fleetdeck/fleetdeck/internal/fleeterr"
	"github.com/fleetdeck/fleetdeck/internal/storage"
	"gopkg.in/yaml.v3"
)

// Version is the manifest's DCM magic-comment version, if present.
type Version struct {
	Major int
	Minor int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Manifest is a service's compose file: its declared version (if any) and
// the parsed YAML document.
type Manifest struct {
	Version *Version
	Raw     map[string]interface{}
}

// Read loads and parses path, extracting the DCM version from the first
// line if it carries the magic comment.
func Read(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fleeterr.NewPath(fleeterr.KindIO, "compose.Read", path, err)
	}

	var m Manifest
	if v, ok := parseMagicComment(data); ok {
		m.Version = &v
	}

	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Manifest{}, fleeterr.NewPath(fleeterr.KindValidation, "compose.Read", path, err)
	}
	m.Raw = raw
	return m, nil
}

func parseMagicComment(data []byte) (Version, bool) {
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	if !scanner.Scan() {
		return Version{}, false
	}
	line := strings.TrimSpace(scanner.Text())
	const prefix = "# DCM:"
	if !strings.HasPrefix(line, prefix) {
		return Version{}, false
	}
	parts := strings.SplitN(strings.TrimPrefix(line, prefix), ".", 2)
	if len(parts) != 2 {
		return Version{}, false
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return Version{}, false
	}
	return Version{Major: major, Minor: minor}, true
}

// ServiceDefinition is the minimal shape the generator needs to render a
// docker-compose.yml for a new service.
type ServiceDefinition struct {
	Name    string
	Image   string
	Ports   []string
	EnvFile string
	Version Version
}

// Generate renders a docker-compose.yml for def and writes it to path
// atomically, stamping the DCM magic comment on the first line.
func Generate(path string, def ServiceDefinition) error {
	doc := map[string]interface{}{
		"services": map[string]interface{}{
			def.Name: map[string]interface{}{
				"image":    def.Image,
				"ports":    def.Ports,
				"env_file": []string{def.EnvFile},
			},
		},
	}

	body, err := yaml.Marshal(doc)
	if err != nil {
		return fleeterr.New(fleeterr.KindValidation, "compose.Generate", err)
	}

	header := fmt.Sprintf("# DCM:%s\n", def.Version.String())
	return storage.WriteFileAtomic(path, append([]byte(header), body...))
}
