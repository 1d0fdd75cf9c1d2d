package entries

import (
	"fmt"
	"os"

	"github.com/travigo/vvs/pkg/efa"
	"gopkg.in/yaml.v3"
)

// Import is one declared entry read from an entries file
type Import struct {
	Title string
	Data  Data
}

type importFile struct {
	Entries []importEntry `yaml:"entries"`
}

type importEntry struct {
	Title          string        `yaml:"title"`
	Start          string        `yaml:"start"`
	Destination    string        `yaml:"destination"`
	Offset         *int          `yaml:"offset"`
	MaxConnections *int          `yaml:"max_connections"`
	RouteType      efa.RouteType `yaml:"route_type"`
}

func LoadImportFile(path string) ([]Import, error) {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseImports(fileBytes)
}

func ParseImports(fileBytes []byte) ([]Import, error) {
	var file importFile
	if err := yaml.Unmarshal(fileBytes, &file); err != nil {
		return nil, err
	}

	imports := []Import{}
	for i, declared := range file.Entries {
		data := NewData(declared.Start, declared.Destination)
		if declared.Offset != nil {
			data.Offset = *declared.Offset
		}
		if declared.MaxConnections != nil {
			data.MaxConnections = *declared.MaxConnections
		}
		if declared.RouteType != "" {
			data.RouteType = declared.RouteType
		}

		if err := data.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		imports = append(imports, Import{Title: declared.Title, Data: data})
	}

	return imports, nil
}
