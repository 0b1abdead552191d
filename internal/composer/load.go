package composer

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type templateFile struct {
	Templates []PageTemplate `yaml:"templates"`
}

// LoadTemplates decodes page templates from a YAML document of the form
//
//	templates:
//	  - id: blog
//	    name: Blog
//	    sections: [...]
//
// The templates are not validated; pass each to CreateCustomTemplate.
func LoadTemplates(r io.Reader) ([]PageTemplate, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f templateFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding page templates: %w", err)
	}
	return f.Templates, nil
}

// RegisterFile loads the YAML template file at path and registers every
// template in it. A missing file is not an error.
func (c *Composer) RegisterFile(path string) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("opening page templates: %w", err)
	}
	defer f.Close()

	tpls, err := LoadTemplates(f)
	if err != nil {
		return 0, err
	}
	for i, t := range tpls {
		if _, err := c.CreateCustomTemplate(t); err != nil {
			return i, fmt.Errorf("registering page template %q: %w", t.ID, err)
		}
	}
	return len(tpls), nil
}
