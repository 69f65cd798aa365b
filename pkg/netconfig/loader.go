package netconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LoadCustom reads additional network definitions from *.yaml files in dir
// and registers them as presets. Seed-list URLs may reference ${VAR}
// placeholders, useful for private endpoints carrying access tokens.
func LoadCustom(dir string, logger *zap.Logger) ([]Network, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)
	var out []Network
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		b = re.ReplaceAllFunc(b, func(m []byte) []byte {
			k := string(re.FindSubmatch(m)[1])
			val := os.Getenv(k)
			if val == "" {
				logger.Warn("env variable is empty during config expansion",
					zap.String("file", e.Name()),
					zap.String("var", k))
			}
			return []byte(val)
		})

		var n Network
		if err := yaml.Unmarshal(b, &n); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if n.Name == "" || n.SeedList == "" || len(n.Milestones) == 0 {
			return nil, fmt.Errorf("%s: invalid network definition", e.Name())
		}
		if n.APIPort == 0 {
			n.APIPort = 4003
		}
		for i := range n.Milestones {
			if n.Milestones[i].BlockTime == 0 {
				n.Milestones[i].BlockTime = 8
			}
		}
		Register(n)
		out = append(out, n)
	}
	return out, nil
}
