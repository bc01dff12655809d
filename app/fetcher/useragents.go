package fetcher

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultUserAgents are current desktop browser user agents.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:130.0) Gecko/20100101 Firefox/130.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36 Edg/128.0.0.0",
}

type userAgentFile struct {
	UserAgents []string `yaml:"user_agents"`
}

// LoadUserAgents reads a YAML file of the form
//
//	user_agents:
//	  - "Mozilla/5.0 ..."
func LoadUserAgents(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var f userAgentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	agents := make([]string, 0, len(f.UserAgents))
	for _, ua := range f.UserAgents {
		if ua != "" {
			agents = append(agents, ua)
		}
	}
	if len(agents) == 0 {
		return nil, fmt.Errorf("no user agents in %s", path)
	}
	return agents, nil
}
