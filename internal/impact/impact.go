// Package impact holds the static impact section data: KPI metrics, testimonials and partners.
package impact

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed impact.yaml
var impactYAML []byte

// Metric is a headline KPI animated with a count-up.
type Metric struct {
	Key         string `yaml:"key"`
	Label       string `yaml:"label"`
	Value       int    `yaml:"value"`
	Prefix      string `yaml:"prefix"`
	Suffix      string `yaml:"suffix"`
	Description string `yaml:"description"`
}

// Testimonial is one carousel slide.
type Testimonial struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Quote    string `yaml:"quote"`
	Location string `yaml:"location"`
}

// Partner is a logo in the partner marquee.
type Partner struct {
	Name string `yaml:"name"`
	Logo string `yaml:"logo"`
}

// Data groups everything rendered in the impact section.
type Data struct {
	Metrics      []Metric      `yaml:"metrics"`
	Testimonials []Testimonial `yaml:"testimonials"`
	Partners     []Partner     `yaml:"partners"`
}

// Load decodes the embedded impact data.
func Load() (Data, error) {
	return Parse(impactYAML)
}

// Parse decodes an impact YAML document.
func Parse(raw []byte) (Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return Data{}, fmt.Errorf("impact: parse: %w", err)
	}
	if len(d.Testimonials) == 0 {
		return Data{}, fmt.Errorf("impact: no testimonials")
	}
	for _, m := range d.Metrics {
		if m.Value < 0 {
			return Data{}, fmt.Errorf("impact: metric %s has negative value", m.Key)
		}
	}
	return d, nil
}

// Metric looks up a KPI by key.
func (d Data) Metric(key string) (Metric, bool) {
	for _, m := range d.Metrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}
