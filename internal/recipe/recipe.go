// Package recipe defines the persisted recipe record: its model, its
// validation rules, and its YAML encoding. A Recipe that reaches the store
// has passed through New (or Decode), so every persisted file satisfies the
// structural invariants.
package recipe

import (
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yenulab/yenu/internal/errors"
)

// Ingredient is one entry of a recipe's ingredient list. An absent Weight
// means "to taste"; Unit is only meaningful together with a non-zero
// weight and is cleared otherwise.
type Ingredient struct {
	Name   string   `yaml:"name" json:"name"`
	Weight Quantity `yaml:"weight,omitempty" json:"weight,omitzero"`
	Unit   string   `yaml:"unit,omitempty" json:"unit,omitempty"`
}

// Step is one cooking step, optionally illustrated by a stored asset.
type Step struct {
	Text      string `yaml:"text" json:"text"`
	ImagePath string `yaml:"image_path,omitempty" json:"image_path,omitempty"`
}

// UnmarshalYAML accepts both the current mapping form and the legacy form
// where a step is a bare string.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var text string
		if err := node.Decode(&text); err != nil {
			return err
		}
		s.Text = strings.TrimSpace(text)
		s.ImagePath = ""
		return nil
	}

	var raw struct {
		Text      string `yaml:"text"`
		ImagePath string `yaml:"image_path"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	s.Text = strings.TrimSpace(raw.Text)
	s.ImagePath = raw.ImagePath
	return nil
}

// Recipe is the persisted unit. Field order here is the key order written
// to disk; the codec never re-sorts keys.
type Recipe struct {
	Title         string       `yaml:"title" json:"title"`
	Tags          []string     `yaml:"tags,omitempty" json:"tags,omitempty"`
	Ingredients   []Ingredient `yaml:"ingredients" json:"ingredients"`
	Steps         []Step       `yaml:"steps" json:"steps"`
	DishImagePath string       `yaml:"dish_image_path,omitempty" json:"dish_image_path,omitempty"`
}

// UnmarshalYAML handles the legacy cover-image form (a one-element list)
// alongside the current scalar form.
func (r *Recipe) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Title       string       `yaml:"title"`
		Tags        []string     `yaml:"tags"`
		Ingredients []Ingredient `yaml:"ingredients"`
		Steps       []Step       `yaml:"steps"`
		Cover       yaml.Node    `yaml:"dish_image_path"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	r.Title = raw.Title
	r.Tags = raw.Tags
	r.Ingredients = raw.Ingredients
	r.Steps = raw.Steps
	r.DishImagePath = ""

	switch raw.Cover.Kind {
	case yaml.ScalarNode:
		if err := raw.Cover.Decode(&r.DishImagePath); err != nil {
			return err
		}
	case yaml.SequenceNode:
		var list []string
		if err := raw.Cover.Decode(&list); err != nil {
			return err
		}
		if len(list) > 0 {
			r.DishImagePath = list[0]
		}
	}
	return nil
}

// New normalizes and validates a candidate record, returning the record
// ready for persistence or a VALIDATION error naming the offending field.
// This is the only path to a persistable Recipe; there is no bypass for
// records that fail validation.
func New(r Recipe) (*Recipe, error) {
	r.normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// normalize applies the rules that hold for every persisted record: trimmed
// text, no empty tags (empty set stored as absent), dropped empty steps,
// forward-slash asset paths, and no unit without a quantity.
func (r *Recipe) normalize() {
	r.Title = strings.TrimSpace(r.Title)

	tags := r.Tags[:0]
	for _, t := range r.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		tags = nil
	}
	r.Tags = tags

	for i := range r.Ingredients {
		ing := &r.Ingredients[i]
		ing.Name = strings.TrimSpace(ing.Name)
		ing.Unit = strings.TrimSpace(ing.Unit)
		if ing.Weight.isZeroAmount() {
			ing.Unit = ""
		}
	}

	steps := r.Steps[:0]
	for _, s := range r.Steps {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			continue
		}
		s.ImagePath = filepath.ToSlash(s.ImagePath)
		steps = append(steps, s)
	}
	r.Steps = steps

	r.DishImagePath = filepath.ToSlash(r.DishImagePath)
}

// Validate checks the structural invariants of a normalized record.
func (r *Recipe) Validate() error {
	if r.Title == "" {
		return errors.NewValidation("title", "title must not be empty")
	}
	if len(r.Ingredients) == 0 {
		return errors.NewValidation("ingredients", "at least one ingredient is required")
	}
	for _, ing := range r.Ingredients {
		if ing.Name == "" {
			return errors.NewValidation("ingredients", "ingredient name must not be empty")
		}
	}
	if len(r.Steps) == 0 {
		return errors.NewValidation("steps", "at least one step is required")
	}
	for _, s := range r.Steps {
		if s.Text == "" {
			return errors.NewValidation("steps", "step text must not be empty")
		}
	}
	return nil
}

// AssetPaths returns pointers to every embedded asset path, for in-place
// rewriting when the record's slug changes.
func (r *Recipe) AssetPaths() []*string {
	paths := []*string{&r.DishImagePath}
	for i := range r.Steps {
		paths = append(paths, &r.Steps[i].ImagePath)
	}
	return paths
}

// Encode serializes a record as YAML, preserving the writer's key order.
func Encode(r *Recipe) ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return data, nil
}

// Decode parses and validates a record from YAML. Callers translate a
// failure into an INTEGRITY error (single reads) or skip the file (bulk
// listing); Decode itself reports what went wrong.
func Decode(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return New(r)
}
