package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Settings holds the defaults read from the settings file
type Settings struct {
	Suffix        string   `yaml:"suffix" toml:"suffix"`
	Action        string   `yaml:"action" toml:"action"`
	Layout        string   `yaml:"layout" toml:"layout"`
	Collision     string   `yaml:"collision" toml:"collision"`
	Extensions    []string `yaml:"extensions" toml:"extensions"`
	Exclude       []string `yaml:"exclude,omitempty" toml:"exclude,omitempty"`
	SkipIdentical bool     `yaml:"skip_identical" toml:"skip_identical"`
	CachePath     string   `yaml:"cache_path" toml:"cache_path"`
	LogLevel      string   `yaml:"log_level" toml:"log_level"`
	LogFile       string   `yaml:"log_file" toml:"log_file"`
}

// DefaultSettings returns the built-in settings
func DefaultSettings() Settings {
	return Settings{
		Suffix:     defaultSuffix,
		Action:     string(ActionCopy),
		Layout:     string(LayoutMonthSuffix),
		Collision:  string(CollisionOverwrite),
		Extensions: defaultExtensions(),
		CachePath:  defaultCachePath(),
		LogLevel:   "info",
		LogFile:    filepath.Join(filepath.Dir(defaultCachePath()), "photo-organizer.log"),
	}
}

// getConfigPath returns the path to the settings file
func getConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".photo-organizer.yaml"
	}
	return filepath.Join(home, ".photo-organizer.yaml")
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// LoadSettings reads the settings file at path, or the default path when
// empty. A missing file yields the defaults; exists reports which happened.
func LoadSettings(path string) (settings Settings, resolved string, exists bool, err error) {
	resolved = path
	if resolved == "" {
		resolved = getConfigPath()
	}
	resolved = expandHome(resolved)

	settings = DefaultSettings()
	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, resolved, false, nil
		}
		return settings, resolved, false, fmt.Errorf("read settings: %w", err)
	}

	if isTOML(resolved) {
		err = toml.Unmarshal(data, &settings)
	} else {
		err = yaml.Unmarshal(data, &settings)
	}
	if err != nil {
		return settings, resolved, true, fmt.Errorf("parse settings %s: %w", resolved, err)
	}

	settings.normalize()
	if err := settings.Validate(); err != nil {
		return settings, resolved, true, err
	}
	return settings, resolved, true, nil
}

// normalize fills blanks with defaults and canonicalises enum values
func (s *Settings) normalize() {
	def := DefaultSettings()
	s.Suffix = normalizeSuffix(s.Suffix)
	s.Action = strings.ToLower(strings.TrimSpace(s.Action))
	s.Layout = strings.ToLower(strings.TrimSpace(s.Layout))
	s.Collision = strings.ToLower(strings.TrimSpace(s.Collision))
	s.LogLevel = strings.ToLower(strings.TrimSpace(s.LogLevel))
	if s.Action == "" {
		s.Action = def.Action
	}
	if s.Layout == "" {
		s.Layout = def.Layout
	}
	if s.Collision == "" {
		s.Collision = def.Collision
	}
	if s.LogLevel == "" {
		s.LogLevel = def.LogLevel
	}
	s.Extensions = normalizeExtensions(s.Extensions)
	s.Exclude = normalizeExcludes(s.Exclude)
	if len(s.Extensions) == 0 {
		s.Extensions = def.Extensions
	}
	if s.CachePath == "" {
		s.CachePath = def.CachePath
	}
	s.CachePath = expandHome(s.CachePath)
	s.LogFile = expandHome(s.LogFile)
}

// Validate checks the enum values
func (s *Settings) Validate() error {
	if _, err := ParseAction(s.Action); err != nil {
		return err
	}
	if _, err := ParseLayout(s.Layout); err != nil {
		return err
	}
	if _, err := ParseCollision(s.Collision); err != nil {
		return err
	}
	if _, err := parseLogLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// Apply copies the settings onto a run configuration
func (s Settings) Apply(cfg *OrganizerConfig) {
	cfg.Suffix = s.Suffix
	cfg.Action = Action(s.Action)
	cfg.Layout = Layout(s.Layout)
	cfg.Collision = Collision(s.Collision)
	cfg.Extensions = append([]string{}, s.Extensions...)
	cfg.Exclude = append([]string{}, s.Exclude...)
	cfg.SkipIdentical = s.SkipIdentical
}

// SaveSettings writes the settings file, YAML or TOML by extension
func SaveSettings(path string, s Settings) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(s)
	} else {
		data, err = yaml.Marshal(s)
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// runSetupWizard asks for each setting, offering the current value as default
func runSetupWizard(in io.Reader, out io.Writer, current Settings, path string) (Settings, bool, error) {
	reader := bufio.NewReader(in)
	cfg := current

	ask := func(question, hint, def string) string {
		fmt.Fprintln(out, question)
		if hint != "" {
			fmt.Fprintf(out, "   (%s)\n", hint)
		}
		fmt.Fprintf(out, "   [%s]: ", def)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(answer)
		fmt.Fprintln(out)
		if answer == "" {
			return def
		}
		return answer
	}

	fmt.Fprintln(out, "Photo Organizer - Setup")
	fmt.Fprintln(out, "Settings will be saved to:", path)
	fmt.Fprintln(out)

	cfg.Suffix = ask("1. Folder suffix for month folders?", "e.g. 06 - Jun - Misc", cfg.Suffix)
	cfg.Action = ask("2. Default action?", "copy or move", cfg.Action)
	cfg.Layout = ask("3. Folder layout?", "month-suffix: 2023/06 - Jun - Misc, year-month: 2023-06", cfg.Layout)
	cfg.Collision = ask("4. When a file already exists at the destination?", "overwrite or rename", cfg.Collision)
	exts := ask("5. File extensions to organize?", "comma separated", strings.Join(cfg.Extensions, ","))
	cfg.Extensions = strings.Split(exts, ",")

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return current, false, err
	}

	fmt.Fprintln(out, "Configuration Summary:")
	fmt.Fprintf(out, "  Suffix:     %s\n", cfg.Suffix)
	fmt.Fprintf(out, "  Action:     %s\n", cfg.Action)
	fmt.Fprintf(out, "  Layout:     %s\n", cfg.Layout)
	fmt.Fprintf(out, "  Collision:  %s\n", cfg.Collision)
	fmt.Fprintf(out, "  Extensions: %s\n", strings.Join(cfg.Extensions, " "))
	fmt.Fprintln(out)

	fmt.Fprint(out, "Save this configuration? [Y/n]: ")
	confirm, _ := reader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))
	if confirm == "n" || confirm == "no" {
		return current, false, nil
	}

	return cfg, true, nil
}
